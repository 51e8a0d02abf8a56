package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// VerifyLock implements ports.VerifyLock using Redis SET NX.
//
// The lock keeps concurrent verification requests for the same payment from
// issuing duplicate explorer lookups; the TTL bounds how long a crashed
// holder can wedge the record.
type VerifyLock struct {
	client *goredis.Client
	prefix string
}

// NewVerifyLock creates a new Redis-backed verification lock.
func NewVerifyLock(client *goredis.Client) *VerifyLock {
	return &VerifyLock{
		client: client,
		prefix: "verify:",
	}
}

// Acquire returns true if the caller now holds the lock for the reference.
func (l *VerifyLock) Acquire(ctx context.Context, reference string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.prefix+reference, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis verify lock acquire: %w", err)
	}
	return ok, nil
}

// Release drops the lock. Safe to call on an expired lock.
func (l *VerifyLock) Release(ctx context.Context, reference string) error {
	if err := l.client.Del(ctx, l.prefix+reference).Err(); err != nil {
		return fmt.Errorf("redis verify lock release: %w", err)
	}
	return nil
}
