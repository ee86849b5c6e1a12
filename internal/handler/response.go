package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/aman-churiwal/weather-dashboard/internal/circuitbreaker"
	"github.com/aman-churiwal/weather-dashboard/internal/middleware"
	"github.com/aman-churiwal/weather-dashboard/internal/service"
	"github.com/aman-churiwal/weather-dashboard/internal/weather"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// respondError maps service errors to HTTP responses. Unknown errors are
// attached to the gin context for the request logger and reported as 500.
func respondError(c *gin.Context, err error) {
	var (
		validationErr *service.ValidationError
		overErr       *service.OverAllocationError
		poolErr       *service.PoolUnderAllocationError
		notFoundErr   *service.NotFoundError
		conflictErr   *service.ConflictError
		upstreamErr   *weather.UpstreamError
	)

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error(), "field": validationErr.Field})
	case errors.As(err, &overErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":          overErr.Error(),
			"code":           "OVER_ALLOCATION",
			"requested":      overErr.Requested,
			"max_assignable": overErr.MaxAssignable,
		})
	case errors.As(err, &poolErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":          poolErr.Error(),
			"code":           "POOL_UNDER_ALLOCATION",
			"new_pool":       poolErr.NewPool,
			"total_assigned": poolErr.TotalAssigned,
		})
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundErr.Error()})
	case errors.As(err, &conflictErr):
		c.JSON(http.StatusConflict, gin.H{"error": conflictErr.Error()})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
	case errors.Is(err, weather.ErrLocationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Location not found"})
	case errors.Is(err, circuitbreaker.ErrCircuitOpen):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Weather service temporarily unavailable"})
	case errors.Is(err, context.DeadlineExceeded):
		_ = c.Error(err)
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "Weather service timed out"})
	case errors.As(err, &upstreamErr):
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Weather service error"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func currentUser(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
	}
	return id, ok
}

func parseIDParam(c *gin.Context, name, resource string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + resource + " ID"})
		return uuid.Nil, false
	}
	return id, true
}
