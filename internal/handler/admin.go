package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/aman-churiwal/weather-dashboard/internal/service"
	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	usage      *service.UsageService
	allocation *service.AllocationService
	config     *service.ConfigService
	cache      *service.ResponseCache
	auth       *service.AuthService
}

func NewAdminHandler(
	usage *service.UsageService,
	allocation *service.AllocationService,
	config *service.ConfigService,
	cache *service.ResponseCache,
	auth *service.AuthService,
) *AdminHandler {
	return &AdminHandler{
		usage:      usage,
		allocation: allocation,
		config:     config,
		cache:      cache,
		auth:       auth,
	}
}

// Handles GET /api/admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.usage.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}

// Handles GET /api/admin/users/:id/quota
func (h *AdminHandler) GetUserQuota(c *gin.Context) {
	userID, ok := parseIDParam(c, "id", "user")
	if !ok {
		return
	}

	detail, err := h.usage.UserQuota(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

// Handles PUT /api/admin/users/:id/limit
func (h *AdminHandler) SetUserQuota(c *gin.Context) {
	adminID, ok := currentUser(c)
	if !ok {
		return
	}
	userID, ok := parseIDParam(c, "id", "user")
	if !ok {
		return
	}

	var req struct {
		DailyLimit *int `json:"daily_limit" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "daily_limit is required and must be an integer"})
		return
	}

	ctx := c.Request.Context()
	if _, err := h.auth.GetUser(ctx, userID); err != nil {
		respondError(c, err)
		return
	}

	limit, err := h.allocation.SetUserLimit(ctx, userID, *req.DailyLimit, adminID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":     limit.UserID,
		"daily_limit": limit.DailyLimit,
		"updated_by":  limit.UpdatedBy,
	})
}

// Handles GET /api/admin/quota-stats
func (h *AdminHandler) QuotaStats(c *gin.Context) {
	stats, err := h.usage.ProjectStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// Handles GET /api/admin/quota-pool
func (h *AdminHandler) QuotaPool(c *gin.Context) {
	pool, err := h.allocation.AssignableRemaining(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, pool)
}

// Handles GET /api/admin/config
func (h *AdminHandler) GetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, h.config.GetAll())
}

// Handles PUT /api/admin/config
func (h *AdminHandler) UpdateConfig(c *gin.Context) {
	adminID, ok := currentUser(c)
	if !ok {
		return
	}

	var req struct {
		Key   string          `json:"key" binding:"required"`
		Value json.RawMessage `json:"value" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "key and value are required"})
		return
	}

	entry, computed, err := h.allocation.UpdateConfig(c.Request.Context(), req.Key, rawValue(req.Value), adminID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"config":   entry,
		"computed": computed,
	})
}

// rawValue accepts both "100" and 100
func rawValue(v json.RawMessage) string {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(v))
}

// Handles DELETE /api/admin/cache
func (h *AdminHandler) FlushCache(c *gin.Context) {
	n, err := h.cache.Flush(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cache flushed",
		"deleted": n,
	})
}
