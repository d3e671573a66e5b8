package auth

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// AttemptKey is the single global key under which failed logins are counted.
// One counter guards the whole site: a deliberately blunt circuit breaker,
// not a per-identity limiter.
const AttemptKey = "login:attempts"

// AttemptRecord tracks failed logins inside the expiring store. RecordedAt
// makes expiry checkable without relying on a particular store's eviction.
type AttemptRecord struct {
	Tried        int       `json:"tried"`
	LastUsername string    `json:"login_username,omitempty"`
	RecordedAt   time.Time `json:"recorded_at"`
}

// Expired reports whether the record outlived its lockout window.
func (r *AttemptRecord) Expired(now time.Time, lockout time.Duration) bool {
	return now.Sub(r.RecordedAt) >= lockout
}

// AttemptStore is the expiring key-value store the gate counts failures in.
// Get returns (nil, nil) when the key is absent or already evicted.
type AttemptStore interface {
	Get(ctx context.Context, key string) (*AttemptRecord, error)
	Set(ctx context.Context, key string, rec *AttemptRecord, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	TTL(ctx context.Context, key string) (time.Duration, error)
}

// Gate refuses authentication attempts once the failure counter reaches the
// limit, before any credentials are evaluated.
type Gate struct {
	store   AttemptStore
	limit   int
	lockout time.Duration
	logger  *zap.Logger

	now func() time.Time
}

// NewGate builds a gate with the configured limit and lockout window.
func NewGate(store AttemptStore, limit int, lockout time.Duration, logger *zap.Logger) *Gate {
	if limit <= 0 {
		limit = 3
	}
	if lockout <= 0 {
		lockout = 10 * time.Minute
	}
	return &Gate{store: store, limit: limit, lockout: lockout, logger: logger, now: time.Now}
}

// Check runs before credential verification. While the counter is at or
// above the limit it returns RateLimitedError carrying the remaining
// lockout time, and the caller must not evaluate credentials at all.
func (g *Gate) Check(ctx context.Context) error {
	rec, err := g.store.Get(ctx, AttemptKey)
	if err != nil {
		return err
	}
	if rec == nil || rec.Expired(g.now(), g.lockout) {
		return nil
	}
	if rec.Tried < g.limit {
		return nil
	}

	retry, err := g.store.TTL(ctx, AttemptKey)
	if err != nil || retry <= 0 {
		// Store could not report expiry; fall back to the record's own clock.
		retry = g.lockout - g.now().Sub(rec.RecordedAt)
	}
	g.logger.Warn("login attempts locked out",
		zap.Int("tried", rec.Tried),
		zap.Duration("retry_after", retry))
	return &RateLimitedError{RetryAfter: retry}
}

// RecordFailure counts one genuinely failed credential check. Every failure
// re-arms the full lockout TTL, so the window slides under continued
// failures; the counter itself saturates just above the limit.
func (g *Gate) RecordFailure(ctx context.Context, username string) error {
	now := g.now()

	rec, err := g.store.Get(ctx, AttemptKey)
	if err != nil {
		return err
	}
	if rec == nil || rec.Expired(now, g.lockout) {
		rec = &AttemptRecord{}
	}
	if rec.Tried <= g.limit {
		rec.Tried++
	}
	rec.LastUsername = username
	rec.RecordedAt = now

	if err := g.store.Set(ctx, AttemptKey, rec, g.lockout); err != nil {
		return err
	}
	g.logger.Info("login failure recorded",
		zap.String("username", username),
		zap.Int("tried", rec.Tried))
	return nil
}

// Locked reports whether the gate would currently refuse an attempt.
func (g *Gate) Locked(ctx context.Context) (bool, error) {
	err := g.Check(ctx)
	if err == nil {
		return false, nil
	}
	if _, ok := err.(*RateLimitedError); ok {
		return true, nil
	}
	return false, err
}

// Limit exposes the configured failure threshold.
func (g *Gate) Limit() int {
	return g.limit
}
