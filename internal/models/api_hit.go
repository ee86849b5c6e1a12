package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Endpoint identifies which upstream weather call consumed quota
type Endpoint string

const (
	EndpointCurrent  Endpoint = "current"
	EndpointForecast Endpoint = "forecast"
	EndpointSearch   Endpoint = "search"
	EndpointHistory  Endpoint = "history"
)

func (e Endpoint) IsValid() bool {
	switch e {
	case EndpointCurrent, EndpointForecast, EndpointSearch, EndpointHistory:
		return true
	default:
		return false
	}
}

// Represents one successful upstream call. Rows are never updated.
type APIHit struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;index:idx_user_hit_time,priority:1" json:"user_id"`
	Endpoint Endpoint  `gorm:"type:varchar(16);not null" json:"endpoint"`
	HitAt    time.Time `gorm:"not null;index:idx_user_hit_time,priority:2;index:idx_hit_time" json:"hit_at"`
}

func (h *APIHit) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}

func (APIHit) TableName() string {
	return "api_hits"
}
