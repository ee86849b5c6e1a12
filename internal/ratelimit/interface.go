package ratelimit

import (
	"context"
	"time"
)

// Limiter throttles requests per key (client IP) inside a named scope
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)

	Remaining(ctx context.Context, key string) (int, error)

	Limit() int

	Window() time.Duration

	// Reset returns when the next slot frees up for key
	Reset(ctx context.Context, key string) (time.Time, error)
}
