package middleware

import (
	"github.com/aman-churiwal/weather-dashboard/internal/service"
	"github.com/aman-churiwal/weather-dashboard/internal/weather"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Gin context keys set by this package
const (
	KeyRequestID = "request_id"
	KeyUserID    = "user_id"
	KeyEmail     = "email"
	KeyRole      = "role"
	KeyQuery     = "weather_query"
	KeyDecision  = "quota_decision"
)

// UserID returns the authenticated caller, set by RequireAuth
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(KeyUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// Query returns the validated weather query, set by BindWeatherQuery
func Query(c *gin.Context) (weather.Query, bool) {
	v, ok := c.Get(KeyQuery)
	if !ok {
		return weather.Query{}, false
	}
	q, ok := v.(weather.Query)
	return q, ok
}

// Decision returns the admission decision, set by QuotaAdmission
func Decision(c *gin.Context) (service.Decision, bool) {
	v, ok := c.Get(KeyDecision)
	if !ok {
		return service.Decision{}, false
	}
	d, ok := v.(service.Decision)
	return d, ok
}
