package ports

import "github.com/layer-3/signet/core"

// Tokenizer converts between session claims and the opaque token handed to clients
type Tokenizer interface {
	SessionToToken(session core.SessionToken) (string, error)
	TokenToSession(token string) (core.SessionToken, error)
}
