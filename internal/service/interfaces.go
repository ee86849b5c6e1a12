package service

import (
	"context"
	"time"

	"github.com/aman-churiwal/weather-dashboard/internal/models"
	"github.com/google/uuid"
)

// Storage contracts. The gorm repositories satisfy these; tests use in-memory fakes.

type HitStore interface {
	Create(ctx context.Context, hit *models.APIHit) error
	CountSince(ctx context.Context, userID *uuid.UUID, since time.Time) (int64, error)
	CountBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) (int64, error)
	FindOldestSince(ctx context.Context, userID uuid.UUID, since time.Time) (*models.APIHit, error)
	CountByEndpoint(ctx context.Context, since time.Time) (map[models.Endpoint]int64, error)
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}

type UserLimitStore interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.UserLimit, error)
	Upsert(ctx context.Context, userID uuid.UUID, dailyLimit int, updatedBy *uuid.UUID) (*models.UserLimit, error)
	SumDailyLimits(ctx context.Context) (int64, error)
}

type AppConfigStore interface {
	FindAll(ctx context.Context) ([]models.AppConfig, error)
	FindByKey(ctx context.Context, key string) (*models.AppConfig, error)
	CreateIfAbsent(ctx context.Context, entry *models.AppConfig) (bool, error)
	Upsert(ctx context.Context, key, value string, updatedBy *uuid.UUID) (*models.AppConfig, error)
}

type UserStore interface {
	CreateWithLimit(ctx context.Context, user *models.User, limit *models.UserLimit) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error
}

type FavoriteStore interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Favorite, error)
	FindByCity(ctx context.Context, userID uuid.UUID, city string) (*models.Favorite, error)
	Create(ctx context.Context, favorite *models.Favorite) error
	Delete(ctx context.Context, id, userID uuid.UUID) (bool, error)
}
