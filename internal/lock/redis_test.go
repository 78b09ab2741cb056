package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLock(t *testing.T) (*RedisLock, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisLockWithClient(client), mr
}

func TestLockIsExclusive(t *testing.T) {
	locker, _ := newTestLock(t)
	ctx := context.Background()

	ok, err := locker.Lock(ctx, "bookings:2025-06-02", 10*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = locker.Lock(ctx, "bookings:2025-06-02", 10*time.Second)
	require.NoError(t, err)
	assert.False(t, ok, "second acquisition on the same key must fail")

	// a different date is an independent lock
	ok, err = locker.Lock(ctx, "bookings:2025-06-03", 10*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUnlockReleases(t *testing.T) {
	locker, _ := newTestLock(t)
	ctx := context.Background()

	ok, err := locker.Lock(ctx, "bookings:2025-06-02", 10*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, locker.Unlock(ctx, "bookings:2025-06-02"))

	ok, err = locker.Lock(ctx, "bookings:2025-06-02", 10*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLockExpires(t *testing.T) {
	locker, mr := newTestLock(t)
	ctx := context.Background()

	ok, err := locker.Lock(ctx, "bookings:2025-06-02", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)

	ok, err = locker.Lock(ctx, "bookings:2025-06-02", time.Second)
	require.NoError(t, err)
	assert.True(t, ok, "lock must be reacquirable after TTL")
}
