package service

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"

	"github.com/layer-3/signet/core"
)

// ParseChallenge decodes a signed challenge message. Anything other than a
// JSON object with string "uri" and "nonce" members is malformed.
func ParseChallenge(raw string) (core.Challenge, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil || fields == nil {
		return core.Challenge{}, core.ErrMalformed
	}

	uri, err := stringField(fields, "uri")
	if err != nil {
		return core.Challenge{}, err
	}
	nonce, err := stringField(fields, "nonce")
	if err != nil {
		return core.Challenge{}, err
	}

	delete(fields, "uri")
	delete(fields, "nonce")

	return core.Challenge{URI: uri, Nonce: nonce, Payload: fields}, nil
}

func stringField(fields map[string]json.RawMessage, name string) (string, error) {
	raw, ok := fields[name]
	if !ok || string(raw) == "null" {
		return "", fmt.Errorf("missing %q: %w", name, core.ErrMalformed)
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", fmt.Errorf("%q is not a string: %w", name, core.ErrMalformed)
	}
	return v, nil
}

// ValidateChallenge binds a challenge to this service and to the caller's
// nonce. Both failures are reported as core.ErrChallengeRejected.
func ValidateChallenge(challenge core.Challenge, expectedURI, expectedNonce string) error {
	if !equal(challenge.URI, expectedURI) {
		return core.ErrChallengeRejected
	}
	if expectedNonce == "" || !equal(challenge.Nonce, expectedNonce) {
		return core.ErrChallengeRejected
	}
	return nil
}

func equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
