package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/layer-3/signet/core"
	"github.com/layer-3/signet/ports"
)

// NonceService hands out single-use anti-forgery nonces for clients to embed
// in their challenge
type NonceService struct {
	store ports.NonceStore
	ttl   time.Duration
}

// NewNonceService creates a nonce service backed by store
func NewNonceService(store ports.NonceStore, ttl time.Duration) *NonceService {
	return &NonceService{store: store, ttl: ttl}
}

// Issue generates and records a new nonce
func (s *NonceService) Issue(ctx context.Context) (string, error) {
	nonceBytes := make([]byte, 32)
	if _, err := rand.Read(nonceBytes); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	nonce := hex.EncodeToString(nonceBytes)

	if err := s.store.Put(ctx, nonce, s.ttl); err != nil {
		return "", fmt.Errorf("failed to store nonce: %w", err)
	}
	return nonce, nil
}

// Consume redeems a nonce. A nonce can be consumed once.
func (s *NonceService) Consume(ctx context.Context, nonce string) error {
	if nonce == "" {
		return core.ErrNonceUnknown
	}
	ok, err := s.store.Consume(ctx, nonce)
	if err != nil {
		return fmt.Errorf("failed to consume nonce: %w", err)
	}
	if !ok {
		return core.ErrNonceUnknown
	}
	return nil
}
