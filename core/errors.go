package core

import "errors"

var (
	ErrMalformed           = errors.New("malformed challenge")
	ErrChallengeRejected   = errors.New("challenge rejected")
	ErrInvalidSignature    = errors.New("invalid signature")
	ErrUpstreamUnavailable = errors.New("balance lookup unavailable")
	ErrMalformedAddress    = errors.New("malformed address")

	// ErrAuthenticationFailed is the only login error shown outside the service
	ErrAuthenticationFailed = errors.New("authentication failed")

	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token has expired")
	ErrNonceUnknown = errors.New("nonce unknown or already used")
)

var kinds = []struct {
	err  error
	name string
}{
	{ErrMalformed, "malformed"},
	{ErrChallengeRejected, "challenge_rejected"},
	{ErrInvalidSignature, "invalid_signature"},
	{ErrMalformedAddress, "malformed_address"},
	{ErrUpstreamUnavailable, "upstream_unavailable"},
	{ErrNonceUnknown, "nonce_unknown"},
}

// Kind names the failure class of an authorization error for logs and events.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "internal"
}

// Opaque collapses any authorization error into ErrAuthenticationFailed.
func Opaque(err error) error {
	if err == nil {
		return nil
	}
	return ErrAuthenticationFailed
}
