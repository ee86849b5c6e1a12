package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aman-churiwal/weather-dashboard/internal/storage"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
)

type FixedWindowLimiter struct {
	redis  *storage.RedisClient
	name   string
	limit  int
	window time.Duration
	clock  clockwork.Clock
}

func NewFixedWindow(redis *storage.RedisClient, cfg Config) *FixedWindowLimiter {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}

	return &FixedWindowLimiter{
		redis:  redis,
		name:   cfg.Name,
		limit:  cfg.Limit,
		window: cfg.Window,
		clock:  cfg.Clock,
	}
}

func (f *FixedWindowLimiter) currentWindow() int64 {
	return f.clock.Now().Unix() / int64(f.window.Seconds())
}

func (f *FixedWindowLimiter) redisKey(key string) string {
	return fmt.Sprintf("ratelimit:%s:fixed:%s:%d", f.name, key, f.currentWindow())
}

func (f *FixedWindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := f.redisKey(key)

	count, err := f.redis.Incr(ctx, redisKey)
	if err != nil {
		return false, err
	}

	if count == 1 {
		if err := f.redis.Expire(ctx, redisKey, f.window); err != nil {
			return false, err
		}
	}

	return count <= int64(f.limit), nil
}

func (f *FixedWindowLimiter) Remaining(ctx context.Context, key string) (int, error) {
	val, err := f.redis.Get(ctx, f.redisKey(key))
	if errors.Is(err, redis.Nil) {
		return f.limit, nil
	}
	if err != nil {
		return 0, err
	}

	count, _ := strconv.Atoi(val)
	return max(f.limit-count, 0), nil
}

func (f *FixedWindowLimiter) Limit() int {
	return f.limit
}

func (f *FixedWindowLimiter) Window() time.Duration {
	return f.window
}

// Returns the time at which the current window ends
func (f *FixedWindowLimiter) Reset(ctx context.Context, key string) (time.Time, error) {
	nextWindow := (f.currentWindow() + 1) * int64(f.window.Seconds())
	return time.Unix(nextWindow, 0), nil
}
