package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNonceStore_FreshNonce(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	store := NewNonceStore(client)
	ctx := context.Background()

	fresh, err := store.CheckAndSet(ctx, "hook", "nonce-abc", 2*time.Minute)
	require.NoError(t, err)
	assert.True(t, fresh)
}

func TestNonceStore_ReplayRejected(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	store := NewNonceStore(client)
	ctx := context.Background()

	fresh, err := store.CheckAndSet(ctx, "hook", "nonce-abc", 2*time.Minute)
	require.NoError(t, err)
	require.True(t, fresh)

	fresh, err = store.CheckAndSet(ctx, "hook", "nonce-abc", 2*time.Minute)
	require.NoError(t, err)
	assert.False(t, fresh)
}

func TestNonceStore_ScopesAreIndependent(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	store := NewNonceStore(client)
	ctx := context.Background()

	fresh, err := store.CheckAndSet(ctx, "hook", "nonce-abc", 2*time.Minute)
	require.NoError(t, err)
	require.True(t, fresh)

	fresh, err = store.CheckAndSet(ctx, "submit", "nonce-abc", 2*time.Minute)
	require.NoError(t, err)
	assert.True(t, fresh, "same nonce under a different scope is fresh")
}

func TestNonceStore_TTLExpiry(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	store := NewNonceStore(client)
	ctx := context.Background()

	fresh, err := store.CheckAndSet(ctx, "hook", "nonce-abc", 1*time.Second)
	require.NoError(t, err)
	require.True(t, fresh)

	s.FastForward(2 * time.Second)

	fresh, err = store.CheckAndSet(ctx, "hook", "nonce-abc", 1*time.Second)
	require.NoError(t, err)
	assert.True(t, fresh, "expired nonce may be reused")
}
