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

func TestVerifyLock_Acquire(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	lock := NewVerifyLock(client)
	ctx := context.Background()

	ok, err := lock.Acquire(ctx, "PAY-abc", 2*time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "first acquirer should hold the lock")
}

func TestVerifyLock_Acquire_AlreadyHeld(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	lock := NewVerifyLock(client)
	ctx := context.Background()

	ok, err := lock.Acquire(ctx, "PAY-abc", 2*time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = lock.Acquire(ctx, "PAY-abc", 2*time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second acquirer should be rejected while the lock is held")
}

func TestVerifyLock_DifferentReferences(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	lock := NewVerifyLock(client)
	ctx := context.Background()

	ok1, err := lock.Acquire(ctx, "PAY-aaa", 2*time.Minute)
	require.NoError(t, err)
	assert.True(t, ok1)

	ok2, err := lock.Acquire(ctx, "PAY-bbb", 2*time.Minute)
	require.NoError(t, err)
	assert.True(t, ok2, "locks on different payments must be independent")
}

func TestVerifyLock_Release(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	lock := NewVerifyLock(client)
	ctx := context.Background()

	ok, err := lock.Acquire(ctx, "PAY-abc", 2*time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, lock.Release(ctx, "PAY-abc"))

	ok, err = lock.Acquire(ctx, "PAY-abc", 2*time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "released lock should be acquirable again")
}

func TestVerifyLock_TTLExpiry(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	lock := NewVerifyLock(client)
	ctx := context.Background()

	ok, err := lock.Acquire(ctx, "PAY-abc", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	s.FastForward(61 * time.Second)

	ok, err = lock.Acquire(ctx, "PAY-abc", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "lock abandoned by a crashed holder should expire")
}
