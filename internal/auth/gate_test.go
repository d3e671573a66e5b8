package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memAttemptStore mimics an expiring store with a controllable clock.
type memAttemptStore struct {
	rec   *AttemptRecord
	ttl   time.Duration
	setAt time.Time
	now   func() time.Time
	sets  int
}

func (s *memAttemptStore) Get(_ context.Context, _ string) (*AttemptRecord, error) {
	if s.rec == nil || s.now().Sub(s.setAt) >= s.ttl {
		return nil, nil
	}
	rec := *s.rec
	return &rec, nil
}

func (s *memAttemptStore) Set(_ context.Context, _ string, rec *AttemptRecord, ttl time.Duration) error {
	copied := *rec
	s.rec = &copied
	s.ttl = ttl
	s.setAt = s.now()
	s.sets++
	return nil
}

func (s *memAttemptStore) Delete(_ context.Context, _ string) error {
	s.rec = nil
	return nil
}

func (s *memAttemptStore) TTL(_ context.Context, _ string) (time.Duration, error) {
	if s.rec == nil {
		return 0, nil
	}
	remaining := s.ttl - s.now().Sub(s.setAt)
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}

func newTestGate(t *testing.T) (*Gate, *memAttemptStore, *time.Time) {
	t.Helper()
	current := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return current }
	store := &memAttemptStore{now: clock}
	gate := NewGate(store, 3, 10*time.Minute, zap.NewNop())
	gate.now = clock
	return gate, store, &current
}

func TestGateAllowsUntilLimit(t *testing.T) {
	gate, _, _ := newTestGate(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, gate.Check(ctx))
		require.NoError(t, gate.RecordFailure(ctx, "koldo"))
	}

	err := gate.Check(ctx)
	var limited *RateLimitedError
	require.ErrorAs(t, err, &limited)
	require.Greater(t, limited.RetryAfter, time.Duration(0))
	require.LessOrEqual(t, limited.RetryAfter, 10*time.Minute)
}

func TestGateResetsAfterTTL(t *testing.T) {
	gate, _, current := newTestGate(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, gate.RecordFailure(ctx, "koldo"))
	}
	var limited *RateLimitedError
	require.ErrorAs(t, gate.Check(ctx), &limited)

	*current = current.Add(10*time.Minute + time.Second)
	require.NoError(t, gate.Check(ctx))

	// The next failure starts a fresh record rather than resuming the count.
	require.NoError(t, gate.RecordFailure(ctx, "koldo"))
	require.NoError(t, gate.Check(ctx))
}

func TestGateSlidingWindow(t *testing.T) {
	gate, store, current := newTestGate(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, gate.RecordFailure(ctx, "koldo"))
	}

	// Failures while locked keep re-arming the full window.
	for i := 0; i < 5; i++ {
		*current = current.Add(9 * time.Minute)
		require.NoError(t, gate.RecordFailure(ctx, "koldo"))
		var limited *RateLimitedError
		require.ErrorAs(t, gate.Check(ctx), &limited)
	}

	// 45 minutes after the first failure the lockout still holds.
	ttl, err := store.TTL(ctx, AttemptKey)
	require.NoError(t, err)
	require.Equal(t, 10*time.Minute, ttl)
}

func TestGateCounterSaturates(t *testing.T) {
	gate, store, _ := newTestGate(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		require.NoError(t, gate.RecordFailure(ctx, "koldo"))
	}
	require.Equal(t, 4, store.rec.Tried)
}

func TestGateRecordsUsername(t *testing.T) {
	gate, store, _ := newTestGate(t)
	ctx := context.Background()

	require.NoError(t, gate.RecordFailure(ctx, "admin"))
	require.Equal(t, 1, store.rec.Tried)
	require.Equal(t, "admin", store.rec.LastUsername)
}
