package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySessionStore_Lifecycle(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	token, err := store.Create(ctx)
	require.NoError(t, err)
	assert.Len(t, token, 64) // 32 random bytes hex-encoded

	valid, err := store.Validate(ctx, token)
	require.NoError(t, err)
	assert.True(t, valid)

	require.NoError(t, store.Revoke(ctx, token))

	valid, err = store.Validate(ctx, token)
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestMemorySessionStore_UnknownToken(t *testing.T) {
	store := NewMemorySessionStore()

	valid, err := store.Validate(context.Background(), "no-such-token")
	require.NoError(t, err)
	assert.False(t, valid)

	valid, err = store.Validate(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestMemorySessionStore_Expiry(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	token, err := store.Create(ctx)
	require.NoError(t, err)

	store.mu.Lock()
	store.sessions[token] = time.Now().Add(-time.Minute)
	store.mu.Unlock()

	valid, err := store.Validate(ctx, token)
	require.NoError(t, err)
	assert.False(t, valid)

	// expired entries are dropped on the validation that observed them
	store.mu.Lock()
	_, present := store.sessions[token]
	store.mu.Unlock()
	assert.False(t, present)
}

func TestMemorySessionStore_TokensAreUnique(t *testing.T) {
	store := NewMemorySessionStore()
	seen := make(map[string]bool)
	for i := 0; i < 32; i++ {
		token, err := store.Create(context.Background())
		require.NoError(t, err)
		assert.False(t, seen[token])
		seen[token] = true
	}
}
