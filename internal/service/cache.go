package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aman-churiwal/weather-dashboard/internal/metrics"
	"github.com/aman-churiwal/weather-dashboard/internal/storage"
	"github.com/redis/go-redis/v9"
)

const cachePrefix = "weather:cache:"

// ResponseCache memoizes upstream responses in redis. Entries expire on
// their own TTL; a later TTL change only affects new writes.
type ResponseCache struct {
	redis   *storage.RedisClient
	config  SettingsSource
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewResponseCache(redisClient *storage.RedisClient, config SettingsSource, opts ...Option) *ResponseCache {
	o := buildOptions(opts)

	return &ResponseCache{
		redis:   redisClient,
		config:  config,
		logger:  o.logger,
		metrics: o.metrics,
	}
}

// Get returns the stored JSON for key. A miss is (nil, false, nil).
func (c *ResponseCache) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	data, err := c.redis.GetBytes(ctx, cachePrefix+key)
	if errors.Is(err, redis.Nil) {
		c.metrics.ObserveCache(false)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get %s: %w", key, err)
	}

	c.metrics.ObserveCache(true)
	return json.RawMessage(data), true, nil
}

// Set stores value under the configured CACHE_TTL_SECONDS
func (c *ResponseCache) Set(ctx context.Context, key string, value any) error {
	return c.SetWithTTL(ctx, key, value, c.config.Settings().CacheTTL())
}

// SetWithTTL stores value as JSON. A non-positive ttl disables the write.
func (c *ResponseCache) SetWithTTL(ctx context.Context, key string, value any, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case json.RawMessage:
		data = v
	case []byte:
		data = v
	default:
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("cache encode %s: %w", key, err)
		}
		data = encoded
	}

	if err := c.redis.Set(ctx, cachePrefix+key, data, ttl); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

func (c *ResponseCache) Delete(ctx context.Context, key string) error {
	_, err := c.redis.Del(ctx, cachePrefix+key)
	return err
}

// Flush drops every cached response and returns how many were removed
func (c *ResponseCache) Flush(ctx context.Context) (int64, error) {
	n, err := c.redis.DeleteByPattern(ctx, cachePrefix+"*")
	if err != nil {
		return 0, fmt.Errorf("cache flush: %w", err)
	}

	c.logger.Info("response cache flushed", "keys", n)
	return n, nil
}
