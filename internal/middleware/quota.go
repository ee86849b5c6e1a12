package middleware

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/aman-churiwal/weather-dashboard/internal/metrics"
	"github.com/aman-churiwal/weather-dashboard/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

type Admitter interface {
	Check(ctx context.Context, userID uuid.UUID) (service.Decision, error)
}

type QuotaConfig struct {
	// FailOpen admits requests when the admission check itself fails
	FailOpen bool
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Clock    clockwork.Clock
}

var denialMessages = map[service.Reason]string{
	service.ReasonProjectQuotaExceeded: "The service has reached its daily weather data limit. Please try again later.",
	service.ReasonUserQuotaExceeded:    "You have reached your daily weather data limit.",
	service.ReasonNoQuotaAssigned:      "No weather data quota has been assigned to your account. Contact an administrator.",
}

// QuotaAdmission runs the admission check for the authenticated caller.
// It must run after RequireAuth and ResponseCache.
func QuotaAdmission(admitter Admitter, cfg QuotaConfig) gin.HandlerFunc {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}

	return func(c *gin.Context) {
		userID, ok := UserID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		decision, err := admitter.Check(c.Request.Context(), userID)
		if err != nil {
			if cfg.FailOpen {
				cfg.Logger.Warn("admission check failed, admitting request",
					"user_id", userID, "request_id", c.GetString(KeyRequestID), "error", err)
				cfg.Metrics.IncrementFailOpen()
				c.Next()
				return
			}

			cfg.Logger.Error("admission check failed", "user_id", userID, "error", err)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"error": "Quota service unavailable, please try again later",
			})
			return
		}

		c.Set(KeyDecision, decision)

		if decision.Allowed {
			c.Header("X-Quota-Limit", strconv.FormatInt(decision.Limit, 10))
			// This request will consume one slot
			c.Header("X-Quota-Remaining", strconv.FormatInt(max(decision.Remaining-1, 0), 10))
			c.Next()
			return
		}

		if decision.Reason == service.ReasonUserQuotaExceeded {
			wait := decision.RetryAfter(cfg.Clock.Now())
			c.Header("Retry-After", strconv.FormatInt(int64(math.Ceil(wait.Seconds())), 10))
		}

		body := gin.H{
			"error":  denialMessages[decision.Reason],
			"reason": decision.Reason,
			"used":   decision.Used,
			"limit":  decision.Limit,
		}
		if decision.NextAvailableAt != nil {
			body["next_available_at"] = decision.NextAvailableAt
			body["next_available_message"] = decision.NextAvailableMessage
			body["hits_expiring_soon"] = decision.HitsExpiringSoon
		}

		c.AbortWithStatusJSON(http.StatusTooManyRequests, body)
	}
}
