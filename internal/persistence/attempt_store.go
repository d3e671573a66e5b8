package persistence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/stateless-auth/internal/auth"
)

const attemptPrefix = "gate:"

// AttemptStore persists login attempt records in Redis with a TTL. Redis
// evicts the key itself; records additionally carry their own timestamp so
// the gate can check expiry without trusting eviction timing.
type AttemptStore struct {
	client *redis.Client
}

// NewAttemptStore builds a store on top of the shared Redis client.
func NewAttemptStore(r *Redis) *AttemptStore {
	return &AttemptStore{client: r.Client}
}

func (s *AttemptStore) key(k string) string {
	return attemptPrefix + k
}

// Get returns the record under key, or (nil, nil) when absent.
func (s *AttemptStore) Get(ctx context.Context, key string) (*auth.AttemptRecord, error) {
	raw, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var rec auth.AttemptRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Set writes the record with the given TTL, re-arming any existing expiry.
func (s *AttemptStore) Set(ctx context.Context, key string, rec *auth.AttemptRecord, ttl time.Duration) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(key), data, ttl).Err()
}

// Delete removes the record.
func (s *AttemptStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}

// TTL reports the remaining time before the key expires. Zero means the key
// is gone or carries no expiry.
func (s *AttemptStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	d, err := s.client.TTL(ctx, s.key(key)).Result()
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, nil
	}
	return d, nil
}
