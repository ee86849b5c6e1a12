package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserLimit is the daily allowance granted to one user. At most one row per user.
type UserLimit struct {
	ID         uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	UserID     uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	DailyLimit int        `gorm:"not null;default:0;check:daily_limit >= 0" json:"daily_limit"`
	UpdatedBy  *uuid.UUID `gorm:"type:uuid" json:"updated_by,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (l *UserLimit) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

func (UserLimit) TableName() string {
	return "user_limits"
}
