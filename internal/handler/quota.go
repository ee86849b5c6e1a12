package handler

import (
	"net/http"

	"github.com/aman-churiwal/weather-dashboard/internal/service"
	"github.com/gin-gonic/gin"
)

type QuotaHandler struct {
	usage *service.UsageService
}

func NewQuotaHandler(usage *service.UsageService) *QuotaHandler {
	return &QuotaHandler{usage: usage}
}

// Handles GET /api/weather/quota
func (h *QuotaHandler) Status(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	status, err := h.usage.Status(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}
