package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// NonceStore implements ports.NonceStore using Redis SETNX.
type NonceStore struct {
	client *goredis.Client
	prefix string
}

// NewNonceStore creates a new Redis-backed nonce store.
func NewNonceStore(client *goredis.Client) *NonceStore {
	return &NonceStore{
		client: client,
		prefix: "nonce:",
	}
}

// CheckAndSet atomically records a nonce. Returns true when the nonce was
// fresh, false when it was already seen within its TTL window.
func (s *NonceStore) CheckAndSet(ctx context.Context, scope, nonce string, ttl time.Duration) (bool, error) {
	key := s.prefix + scope + ":" + nonce
	ok, err := s.client.SetNX(ctx, key, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis nonce setnx: %w", err)
	}
	return ok, nil
}
