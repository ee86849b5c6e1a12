package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Favorite struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:unique_user_city,priority:1" json:"user_id"`
	CityName  string    `gorm:"not null;uniqueIndex:unique_user_city,priority:2" json:"city_name"`
	Country   string    `json:"country,omitempty"`
	Lat       float64   `gorm:"not null" json:"lat"`
	Lon       float64   `gorm:"not null" json:"lon"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (f *Favorite) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

func (Favorite) TableName() string {
	return "favorites"
}
