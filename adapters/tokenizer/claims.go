package tokenizer

import "github.com/golang-jwt/jwt/v5"

// SessionClaims combines standard claims with the session snapshot
type SessionClaims struct {
	jwt.RegisteredClaims
	Name    string `json:"name,omitempty"`
	Balance string `json:"bal"` // Free balance in planck, base 10
}
