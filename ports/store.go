package ports

import (
	"context"
	"time"
)

// NonceStore keeps outstanding anti-forgery nonces until they are used or expire
type NonceStore interface {
	Put(ctx context.Context, nonce string, ttl time.Duration) error
	// Consume removes the nonce and reports whether it was present
	Consume(ctx context.Context, nonce string) (bool, error)
}
