package repository

import (
	"context"
	"errors"

	"github.com/aman-churiwal/weather-dashboard/internal/models"
	"github.com/aman-churiwal/weather-dashboard/internal/storage"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FavoriteRepository struct {
	db *storage.Postgres
}

func NewFavoriteRepository(db *storage.Postgres) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

func (r *FavoriteRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Favorite, error) {
	var favorites []models.Favorite
	err := r.db.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&favorites).Error

	return favorites, err
}

func (r *FavoriteRepository) FindByCity(ctx context.Context, userID uuid.UUID, city string) (*models.Favorite, error) {
	var favorite models.Favorite
	err := r.db.DB.WithContext(ctx).
		Where("user_id = ? AND city_name = ?", userID, city).
		First(&favorite).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &favorite, nil
}

func (r *FavoriteRepository) Create(ctx context.Context, favorite *models.Favorite) error {
	return r.db.DB.WithContext(ctx).Create(favorite).Error
}

// Deletes a favorite owned by userID; reports whether a row was removed
func (r *FavoriteRepository) Delete(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	result := r.db.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Favorite{})

	return result.RowsAffected > 0, result.Error
}
