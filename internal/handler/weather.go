package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/aman-churiwal/weather-dashboard/internal/middleware"
	"github.com/aman-churiwal/weather-dashboard/internal/weather"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type WeatherFetcher interface {
	Fetch(ctx context.Context, userID uuid.UUID, q weather.Query) (json.RawMessage, error)
}

type WeatherHandler struct {
	service WeatherFetcher
}

func NewWeatherHandler(service WeatherFetcher) *WeatherHandler {
	return &WeatherHandler{service: service}
}

// Get serves every weather endpoint once the cache has missed and admission
// has allowed the call.
func (h *WeatherHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	q, ok := middleware.Query(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing weather query"})
		return
	}

	raw, err := h.service.Fetch(c.Request.Context(), userID, q)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}
