// Package redis implements document locks on top of Redis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"

	"github.com/Darklegion92/backend-DIAN-sub001/internal/core/submission"
)

// Locker obtains non-blocking locks. A lock held elsewhere is reported
// as submission.ErrDocumentLocked.
type Locker struct {
	client *redislock.Client
}

// NewLocker creates a locker over any redislock-compatible client.
func NewLocker(client redislock.RedisClient) *Locker {
	return &Locker{client: redislock.New(client)}
}

// Lock implements submission.Locker.
func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	lock, err := l.client.Obtain(ctx, key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("%w: %s", submission.ErrDocumentLocked, key)
	}
	if err != nil {
		return nil, fmt.Errorf("obtain lock %s: %w", key, err)
	}

	return func(ctx context.Context) error {
		if err := lock.Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			return fmt.Errorf("release lock %s: %w", key, err)
		}
		return nil
	}, nil
}
