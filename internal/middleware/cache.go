package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

const HeaderCache = "X-Cache"

type ResponseLookup interface {
	Get(ctx context.Context, key string) (json.RawMessage, bool, error)
}

// ResponseCache serves cached upstream responses. A hit ends the chain, so
// admission and the ledger are never touched. Redis errors count as a miss.
func ResponseCache(cache ResponseLookup, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		q, ok := Query(c)
		if !ok {
			c.Next()
			return
		}

		raw, hit, err := cache.Get(c.Request.Context(), q.CacheKey())
		if err != nil {
			logger.Warn("response cache unavailable", "key", q.CacheKey(), "error", err)
		}

		if hit {
			c.Header(HeaderCache, "HIT")
			c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
			c.Abort()
			return
		}

		c.Header(HeaderCache, "MISS")
		c.Next()
	}
}
