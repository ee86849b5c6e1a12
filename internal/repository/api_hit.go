package repository

import (
	"context"
	"errors"
	"time"

	"github.com/aman-churiwal/weather-dashboard/internal/models"
	"github.com/aman-churiwal/weather-dashboard/internal/storage"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type APIHitRepository struct {
	db *storage.Postgres
}

func NewAPIHitRepository(db *storage.Postgres) *APIHitRepository {
	return &APIHitRepository{db: db}
}

// Inserts a new hit
func (r *APIHitRepository) Create(ctx context.Context, hit *models.APIHit) error {
	return r.db.DB.WithContext(ctx).Create(hit).Error
}

// Counts hits at or after since. A nil userID counts project-wide.
func (r *APIHitRepository) CountSince(ctx context.Context, userID *uuid.UUID, since time.Time) (int64, error) {
	var count int64

	query := r.db.DB.WithContext(ctx).
		Model(&models.APIHit{}).
		Where("hit_at >= ?", since)

	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}

	err := query.Count(&count).Error
	return count, err
}

// Counts a user's hits in the closed range [from, to]
func (r *APIHitRepository) CountBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) (int64, error) {
	var count int64

	err := r.db.DB.WithContext(ctx).
		Model(&models.APIHit{}).
		Where("user_id = ? AND hit_at >= ? AND hit_at <= ?", userID, from, to).
		Count(&count).Error

	return count, err
}

// Returns the earliest hit for a user at or after since, or nil
func (r *APIHitRepository) FindOldestSince(ctx context.Context, userID uuid.UUID, since time.Time) (*models.APIHit, error) {
	var hit models.APIHit

	err := r.db.DB.WithContext(ctx).
		Where("user_id = ? AND hit_at >= ?", userID, since).
		Order("hit_at ASC").
		First(&hit).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &hit, nil
}

// Returns hit counts grouped by endpoint since the given time
func (r *APIHitRepository) CountByEndpoint(ctx context.Context, since time.Time) (map[models.Endpoint]int64, error) {
	rows, err := r.db.DB.WithContext(ctx).
		Model(&models.APIHit{}).
		Select("endpoint, COUNT(*) as count").
		Where("hit_at >= ?", since).
		Group("endpoint").
		Rows()

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make(map[models.Endpoint]int64)
	for rows.Next() {
		var endpoint string
		var count int64

		if err := rows.Scan(&endpoint, &count); err != nil {
			return nil, err
		}
		results[models.Endpoint(endpoint)] = count
	}

	return results, rows.Err()
}

// Deletes hits older than the specified time
func (r *APIHitRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.DB.WithContext(ctx).
		Where("hit_at < ?", before).
		Delete(&models.APIHit{})

	return result.RowsAffected, result.Error
}
