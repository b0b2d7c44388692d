package playback

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/windfall/recap_client/internal/errors"
)

// LeaseKey is the Redis key holding the current engine owner.
const LeaseKey = "recap_client:playback:owner"

// leaseStore is the subset of client.RedisClient a RedisLease needs.
type leaseStore interface {
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	CompareAndDelete(ctx context.Context, key, value string) (bool, error)
}

// RedisLease shares engine ownership between page-shell processes that drive
// the same audio sink.
type RedisLease struct {
	store leaseStore
	key   string
	ttl   time.Duration
}

// NewRedisLease creates a Redis-backed lease.
func NewRedisLease(store leaseStore, ttl time.Duration) *RedisLease {
	return &RedisLease{store: store, key: LeaseKey, ttl: ttl}
}

// Acquire implements Lease.
func (l *RedisLease) Acquire(ctx context.Context) (string, error) {
	token := uuid.NewString()
	ok, err := l.store.SetNX(ctx, l.key, token, l.ttl)
	if err != nil {
		return "", errors.Wrap(errors.ErrUnavailable, "failed to acquire speech engine", err)
	}
	if !ok {
		return "", errBusy()
	}
	return token, nil
}

// Release implements Lease.
func (l *RedisLease) Release(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if _, err := l.store.CompareAndDelete(ctx, l.key, token); err != nil {
		return errors.Wrap(errors.ErrUnavailable, "failed to release speech engine", err)
	}
	return nil
}
