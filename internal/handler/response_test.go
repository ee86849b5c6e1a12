package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aman-churiwal/weather-dashboard/internal/circuitbreaker"
	"github.com/aman-churiwal/weather-dashboard/internal/service"
	"github.com/aman-churiwal/weather-dashboard/internal/weather"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", &service.ValidationError{Field: "daily_limit", Message: "must be non-negative"}, http.StatusBadRequest},
		{"over allocation", &service.OverAllocationError{Requested: 900, MaxAssignable: 750}, http.StatusBadRequest},
		{"pool under allocation", &service.PoolUnderAllocationError{Key: "ASSIGNABLE_PERCENT", Value: 1, NewPool: 8, TotalAssigned: 20}, http.StatusBadRequest},
		{"not found", &service.NotFoundError{Resource: "user"}, http.StatusNotFound},
		{"conflict", &service.ConflictError{Message: "exists"}, http.StatusConflict},
		{"credentials", service.ErrInvalidCredentials, http.StatusUnauthorized},
		{"unknown location", fmt.Errorf("fetch: %w", weather.ErrLocationNotFound), http.StatusNotFound},
		{"circuit open", circuitbreaker.ErrCircuitOpen, http.StatusServiceUnavailable},
		{"upstream", &weather.UpstreamError{StatusCode: 500, Message: "boom"}, http.StatusBadGateway},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"ledger", &service.InternalLedgerError{Op: "count", Err: errors.New("db down")}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			respondError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			var body map[string]any
			assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestRespondError_HidesInternalDetails(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	respondError(c, errors.New("pq: password authentication failed"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "pq:")
	assert.Len(t, c.Errors, 1)
}

func TestRawValue(t *testing.T) {
	assert.Equal(t, "100", rawValue(json.RawMessage(`"100"`)))
	assert.Equal(t, "100", rawValue(json.RawMessage(`100`)))
	assert.Equal(t, "1.5", rawValue(json.RawMessage(` 1.5 `)))
}
