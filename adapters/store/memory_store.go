package store

import (
	"context"
	"sync"
	"time"

	"github.com/layer-3/signet/ports"
)

// MemoryStore is an in-memory implementation of the NonceStore interface.
// It is meant for single instance deployments and tests.
type MemoryStore struct {
	nonces map[string]time.Time
	mu     sync.Mutex
	now    func() time.Time
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() ports.NonceStore {
	return &MemoryStore{
		nonces: make(map[string]time.Time),
		now:    time.Now,
	}
}

// Put records a nonce until ttl elapses
func (s *MemoryStore) Put(ctx context.Context, nonce string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)
	s.nonces[nonce] = now.Add(ttl)
	return nil
}

// Consume deletes the nonce and reports whether it was live
func (s *MemoryStore) Consume(ctx context.Context, nonce string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiry, exists := s.nonces[nonce]
	if !exists {
		return false, nil
	}
	delete(s.nonces, nonce)

	return s.now().Before(expiry), nil
}

// sweep drops expired nonces; callers hold mu
func (s *MemoryStore) sweep(now time.Time) {
	for nonce, expiry := range s.nonces {
		if !now.Before(expiry) {
			delete(s.nonces, nonce)
		}
	}
}
