package ratelimit

import (
	"time"

	"github.com/aman-churiwal/weather-dashboard/internal/storage"
	"github.com/jonboulle/clockwork"
)

const (
	AlgorithmFixedWindow   = "fixed_window"
	AlgorithmSlidingWindow = "sliding_window"
)

type Config struct {
	// Name scopes the redis keys so limiters never share counters
	Name      string
	Algorithm string
	Limit     int
	Window    time.Duration
	Clock     clockwork.Clock
}

func NewLimiter(redis *storage.RedisClient, cfg Config) Limiter {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}

	switch cfg.Algorithm {
	case AlgorithmSlidingWindow:
		return NewSlidingWindowLimiter(redis, cfg)
	default:
		return NewFixedWindow(redis, cfg)
	}
}
