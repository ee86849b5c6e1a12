package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AppConfig is one admin-editable policy setting. Values are stored as
// decimal strings and parsed by the config service.
type AppConfig struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key" json:"-"`
	Key         string     `gorm:"uniqueIndex:app_config_key_unique;not null" json:"key"`
	Value       string     `gorm:"not null" json:"value"`
	Description string     `json:"description"`
	UpdatedBy   *uuid.UUID `gorm:"type:uuid" json:"updated_by,omitempty"`
	CreatedAt   time.Time  `json:"-"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (c *AppConfig) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (AppConfig) TableName() string {
	return "app_config"
}
