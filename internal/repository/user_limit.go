package repository

import (
	"context"
	"errors"

	"github.com/aman-churiwal/weather-dashboard/internal/models"
	"github.com/aman-churiwal/weather-dashboard/internal/storage"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserLimitRepository struct {
	db *storage.Postgres
}

func NewUserLimitRepository(db *storage.Postgres) *UserLimitRepository {
	return &UserLimitRepository{db: db}
}

func (r *UserLimitRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.UserLimit, error) {
	var limit models.UserLimit
	err := r.db.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&limit).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &limit, nil
}

// Inserts or replaces the user's limit and returns the stored row
func (r *UserLimitRepository) Upsert(ctx context.Context, userID uuid.UUID, dailyLimit int, updatedBy *uuid.UUID) (*models.UserLimit, error) {
	limit := models.UserLimit{
		UserID:     userID,
		DailyLimit: dailyLimit,
		UpdatedBy:  updatedBy,
	}

	err := r.db.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"daily_limit", "updated_by", "updated_at"}),
		}).
		Create(&limit).Error
	if err != nil {
		return nil, err
	}

	return r.FindByUserID(ctx, userID)
}

// Sums daily_limit across all users
func (r *UserLimitRepository) SumDailyLimits(ctx context.Context) (int64, error) {
	var total int64

	err := r.db.DB.WithContext(ctx).
		Model(&models.UserLimit{}).
		Select("COALESCE(SUM(daily_limit), 0)").
		Scan(&total).Error

	return total, err
}
