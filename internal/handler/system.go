package handler

import (
	"net/http"

	"github.com/aman-churiwal/weather-dashboard/internal/circuitbreaker"
	"github.com/aman-churiwal/weather-dashboard/internal/healthcheck"
	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
)

type BreakerControl interface {
	BreakerMetrics() circuitbreaker.Metrics
	ResetBreaker()
}

// Handles system-related endpoints
type SystemHandler struct {
	breaker BreakerControl
	checker *healthcheck.Checker
	clock   clockwork.Clock
}

func NewSystemHandler(breaker BreakerControl, checker *healthcheck.Checker, clock clockwork.Clock) *SystemHandler {
	return &SystemHandler{
		breaker: breaker,
		checker: checker,
		clock:   clock,
	}
}

// Handles GET /health
func (h *SystemHandler) Health(c *gin.Context) {
	overall := h.checker.OverallHealth()

	statusCode := http.StatusOK
	if overall != healthcheck.Healthy {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, gin.H{
		"status":    overall,
		"service":   "weather-dashboard",
		"timestamp": h.clock.Now().Unix(),
		"checks":    h.checker.GetAllStatus(),
	})
}

// Returns the status of the upstream circuit breaker
func (h *SystemHandler) CircuitBreakerStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.breaker.BreakerMetrics())
}

// Manually resets the upstream circuit breaker
func (h *SystemHandler) ResetCircuitBreaker(c *gin.Context) {
	h.breaker.ResetBreaker()

	c.JSON(http.StatusOK, gin.H{
		"message": "Circuit breaker reset successfully",
	})
}
