package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aman-churiwal/weather-dashboard/internal/storage"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestRedis(t *testing.T) *storage.RedisClient {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return storage.NewRedisFromClient(client)
}

func allowN(t *testing.T, l Limiter, key string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		ok, err := l.Allow(context.Background(), key)
		require.NoError(t, err)
		require.True(t, ok, "request %d should be allowed", i+1)
	}
}

func TestFixedWindowLimiter(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(start)
	l := NewLimiter(newTestRedis(t), Config{
		Name:      "general",
		Algorithm: AlgorithmFixedWindow,
		Limit:     3,
		Window:    time.Minute,
		Clock:     clock,
	})

	remaining, err := l.Remaining(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, 3, remaining)

	allowN(t, l, "10.0.0.1", 3)

	ok, err := l.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, ok)

	remaining, err = l.Remaining(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)

	reset, err := l.Reset(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, start.Add(time.Minute).Unix(), reset.Unix())

	t.Run("keys are independent", func(t *testing.T) {
		allowN(t, l, "10.0.0.2", 3)
	})

	t.Run("next window starts fresh", func(t *testing.T) {
		clock.Advance(time.Minute)
		allowN(t, l, "10.0.0.1", 3)
	})
}

func TestSlidingWindowLimiter(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(start)
	l := NewLimiter(newTestRedis(t), Config{
		Name:      "auth",
		Algorithm: AlgorithmSlidingWindow,
		Limit:     2,
		Window:    15 * time.Minute,
		Clock:     clock,
	})

	allowN(t, l, "10.0.0.1", 1)
	clock.Advance(5 * time.Minute)
	allowN(t, l, "10.0.0.1", 1)

	ok, err := l.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, ok)

	reset, err := l.Reset(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, start.Add(15*time.Minute), reset.UTC())

	// The first request leaves the window; the second is still inside it
	clock.Advance(10*time.Minute + time.Millisecond)

	remaining, err := l.Remaining(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, 1, remaining)

	allowN(t, l, "10.0.0.1", 1)
	ok, err = l.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSlidingWindowLimiter_SameInstant(t *testing.T) {
	clock := clockwork.NewFakeClockAt(start)
	l := NewSlidingWindowLimiter(newTestRedis(t), Config{Name: "auth", Limit: 3, Window: time.Minute, Clock: clock})

	allowN(t, l, "10.0.0.1", 3)

	ok, err := l.Allow(context.Background(), "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, ok)
}
