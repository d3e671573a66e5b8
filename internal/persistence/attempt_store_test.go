package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/stateless-auth/internal/auth"
)

func newTestAttemptStore(t *testing.T) (*AttemptStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewAttemptStore(&Redis{Client: client}), mr
}

func TestAttemptStoreRoundtrip(t *testing.T) {
	store, _ := newTestAttemptStore(t)
	ctx := context.Background()

	recorded := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := &auth.AttemptRecord{Tried: 2, LastUsername: "koldo", RecordedAt: recorded}
	require.NoError(t, store.Set(ctx, auth.AttemptKey, rec, 10*time.Minute))

	got, err := store.Get(ctx, auth.AttemptKey)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, 2, got.Tried)
	require.Equal(t, "koldo", got.LastUsername)
	require.True(t, got.RecordedAt.Equal(recorded))
}

func TestAttemptStoreMissingKey(t *testing.T) {
	store, _ := newTestAttemptStore(t)

	got, err := store.Get(context.Background(), auth.AttemptKey)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestAttemptStoreTTL(t *testing.T) {
	store, mr := newTestAttemptStore(t)
	ctx := context.Background()

	rec := &auth.AttemptRecord{Tried: 1, RecordedAt: time.Now().UTC()}
	require.NoError(t, store.Set(ctx, auth.AttemptKey, rec, 10*time.Minute))

	ttl, err := store.TTL(ctx, auth.AttemptKey)
	require.NoError(t, err)
	require.Equal(t, 10*time.Minute, ttl)

	mr.FastForward(4 * time.Minute)
	ttl, err = store.TTL(ctx, auth.AttemptKey)
	require.NoError(t, err)
	require.Equal(t, 6*time.Minute, ttl)
}

func TestAttemptStoreExpiry(t *testing.T) {
	store, mr := newTestAttemptStore(t)
	ctx := context.Background()

	rec := &auth.AttemptRecord{Tried: 3, RecordedAt: time.Now().UTC()}
	require.NoError(t, store.Set(ctx, auth.AttemptKey, rec, time.Minute))

	mr.FastForward(61 * time.Second)

	got, err := store.Get(ctx, auth.AttemptKey)
	require.NoError(t, err)
	require.Nil(t, got)

	ttl, err := store.TTL(ctx, auth.AttemptKey)
	require.NoError(t, err)
	require.Zero(t, ttl)
}

func TestAttemptStoreDelete(t *testing.T) {
	store, _ := newTestAttemptStore(t)
	ctx := context.Background()

	rec := &auth.AttemptRecord{Tried: 1, RecordedAt: time.Now().UTC()}
	require.NoError(t, store.Set(ctx, auth.AttemptKey, rec, time.Minute))
	require.NoError(t, store.Delete(ctx, auth.AttemptKey))

	got, err := store.Get(ctx, auth.AttemptKey)
	require.NoError(t, err)
	require.Nil(t, got)
}
