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

type AppConfigRepository struct {
	db *storage.Postgres
}

func NewAppConfigRepository(db *storage.Postgres) *AppConfigRepository {
	return &AppConfigRepository{db: db}
}

// Retrieves every entry ordered by key
func (r *AppConfigRepository) FindAll(ctx context.Context) ([]models.AppConfig, error) {
	var entries []models.AppConfig
	err := r.db.DB.WithContext(ctx).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "key"}}).
		Find(&entries).Error

	return entries, err
}

func (r *AppConfigRepository) FindByKey(ctx context.Context, key string) (*models.AppConfig, error) {
	var entry models.AppConfig
	err := r.db.DB.WithContext(ctx).
		Where(map[string]interface{}{"key": key}).
		First(&entry).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &entry, nil
}

// Inserts the entry unless the key already exists; reports whether it was created
func (r *AppConfigRepository) CreateIfAbsent(ctx context.Context, entry *models.AppConfig) (bool, error) {
	result := r.db.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoNothing: true,
		}).
		Create(entry)

	return result.RowsAffected > 0, result.Error
}

// Writes a new value for key, creating the row if missing
func (r *AppConfigRepository) Upsert(ctx context.Context, key, value string, updatedBy *uuid.UUID) (*models.AppConfig, error) {
	entry := models.AppConfig{
		Key:       key,
		Value:     value,
		UpdatedBy: updatedBy,
	}

	err := r.db.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_by", "updated_at"}),
		}).
		Create(&entry).Error
	if err != nil {
		return nil, err
	}

	return r.FindByKey(ctx, key)
}
