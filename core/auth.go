package core

import (
	"encoding/json"
	"math/big"
	"time"
)

// Challenge is the message a wallet signs to log in
type Challenge struct {
	URI     string                     // Service the challenge is bound to
	Nonce   string                     // Single-use anti-replay token
	Payload map[string]json.RawMessage // Remaining fields, kept verbatim
}

// AuthenticationRequest carries the credentials of one login attempt
type AuthenticationRequest struct {
	ClaimedAddress string // SS58 or 0x-hex account the client claims to own
	RawMessage     string // Serialized Challenge exactly as signed
	Signature      string // Hex encoded signature over RawMessage
	ExpectedNonce  string // Nonce issued to this client by the server
	DisplayName    string // Optional
}

// Identity is the result of a successful authorization
type Identity struct {
	SubjectID      string   // Claimed address, now proven
	DisplayName    string   // Name supplied at login
	NetworkAddress string   // Address re-encoded for the target network
	Balance        *big.Int // Free balance at login time
}

// SessionToken holds the claims embedded in an issued session token
type SessionToken struct {
	ID          string
	SubjectID   string
	DisplayName string
	Balance     *big.Int // Snapshot, never refreshed
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// SessionView is what a session read exposes to pages
type SessionView struct {
	DisplayAddress   string   // Subject as presented at login
	NetworkAddress   string   // Subject re-encoded for the target network
	DisplayName      string
	Balance          *big.Int // Copied from the token
	FormattedBalance string
	ExpiresAt        time.Time
}
