package middleware

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"

	"github.com/aman-churiwal/weather-dashboard/internal/ratelimit"
	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
)

// RateLimit throttles by client IP. A redis failure lets the request through.
func RateLimit(limiter ratelimit.Limiter, clock clockwork.Clock, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := c.ClientIP()

		allowed, err := limiter.Allow(ctx, key)
		if err != nil {
			logger.Warn("rate limit check failed", "error", err, "client_ip", key)
			c.Next()
			return
		}

		remaining, _ := limiter.Remaining(ctx, key)
		resetTime, _ := limiter.Reset(ctx, key)

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", limiter.Limit()))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", resetTime.Unix()))

		if !allowed {
			retryAfter := int(math.Ceil(resetTime.Sub(clock.Now()).Seconds()))
			if retryAfter < 0 {
				retryAfter = 0
			}

			c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Too many requests, please try again later",
				"limit":       limiter.Limit(),
				"retry_after": retryAfter,
			})
			return
		}

		c.Next()
	}
}
