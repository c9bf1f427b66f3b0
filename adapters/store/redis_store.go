package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/layer-3/signet/ports"
	"github.com/redis/go-redis/v9"
)

// RedisStore is a Redis implementation of the NonceStore interface
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a new Redis store
func NewRedisStore(client *redis.Client) ports.NonceStore {
	return &RedisStore{
		client: client,
		prefix: "signet:nonce:",
	}
}

// Put records a nonce with expiration
func (s *RedisStore) Put(ctx context.Context, nonce string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.prefix+nonce, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to store nonce: %w", err)
	}
	return nil
}

// Consume atomically fetches and deletes the nonce
func (s *RedisStore) Consume(ctx context.Context, nonce string) (bool, error) {
	err := s.client.GetDel(ctx, s.prefix+nonce).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to consume nonce: %w", err)
	}
	return true, nil
}
