package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aman-churiwal/weather-dashboard/internal/storage"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
)

// SlidingWindowLimiter keeps one sorted-set member per admitted request,
// scored by its timestamp in milliseconds.
type SlidingWindowLimiter struct {
	redis  *storage.RedisClient
	name   string
	limit  int
	window time.Duration
	clock  clockwork.Clock
}

func NewSlidingWindowLimiter(redis *storage.RedisClient, cfg Config) *SlidingWindowLimiter {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}

	return &SlidingWindowLimiter{
		redis:  redis,
		name:   cfg.Name,
		limit:  cfg.Limit,
		window: cfg.Window,
		clock:  cfg.Clock,
	}
}

func (s *SlidingWindowLimiter) redisKey(key string) string {
	return fmt.Sprintf("ratelimit:%s:sliding:%s", s.name, key)
}

// count drops expired members and returns how many remain
func (s *SlidingWindowLimiter) count(ctx context.Context, redisKey string, now time.Time) (int64, error) {
	windowStart := now.Add(-s.window)

	pipe := s.redis.Pipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "-inf", "("+strconv.FormatInt(windowStart.UnixMilli(), 10))
	countCmd := pipe.ZCard(ctx, redisKey)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}

	return countCmd.Val(), nil
}

func (s *SlidingWindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := s.redisKey(key)
	now := s.clock.Now()

	count, err := s.count(ctx, redisKey, now)
	if err != nil {
		return false, err
	}

	if count >= int64(s.limit) {
		return false, nil
	}

	// Members must be unique even when two requests share a timestamp
	if err := s.redis.ZAdd(ctx, redisKey, redis.Z{
		Score:  float64(now.UnixMilli()),
		Member: strconv.FormatInt(now.UnixNano(), 10) + ":" + uuid.NewString(),
	}); err != nil {
		return false, err
	}
	if err := s.redis.Expire(ctx, redisKey, s.window); err != nil {
		return false, err
	}

	return true, nil
}

func (s *SlidingWindowLimiter) Remaining(ctx context.Context, key string) (int, error) {
	count, err := s.count(ctx, s.redisKey(key), s.clock.Now())
	if err != nil {
		return 0, err
	}

	return max(s.limit-int(count), 0), nil
}

func (s *SlidingWindowLimiter) Limit() int {
	return s.limit
}

func (s *SlidingWindowLimiter) Window() time.Duration {
	return s.window
}

// Reset is when the oldest request in the window expires
func (s *SlidingWindowLimiter) Reset(ctx context.Context, key string) (time.Time, error) {
	oldest, err := s.redis.ZRangeWithScores(ctx, s.redisKey(key), 0, 0)
	if err != nil {
		return time.Time{}, err
	}
	if len(oldest) == 0 {
		return s.clock.Now(), nil
	}

	return time.UnixMilli(int64(oldest[0].Score)).Add(s.window), nil
}
