package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/aman-churiwal/weather-dashboard/internal/models"
	"github.com/google/uuid"
)

type FavoriteService struct {
	favorites FavoriteStore
}

func NewFavoriteService(favorites FavoriteStore) *FavoriteService {
	return &FavoriteService{favorites: favorites}
}

type AddFavoriteInput struct {
	CityName string  `json:"city_name" binding:"required"`
	Country  string  `json:"country"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
}

func (s *FavoriteService) List(ctx context.Context, userID uuid.UUID) ([]models.Favorite, error) {
	favorites, err := s.favorites.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	return favorites, nil
}

func (s *FavoriteService) Add(ctx context.Context, userID uuid.UUID, in AddFavoriteInput) (*models.Favorite, error) {
	city := strings.TrimSpace(in.CityName)
	if city == "" || len(city) > 100 {
		return nil, newValidationError("city_name", "must be between 1 and 100 characters")
	}
	if in.Lat < -90 || in.Lat > 90 {
		return nil, newValidationError("lat", "must be between -90 and 90")
	}
	if in.Lon < -180 || in.Lon > 180 {
		return nil, newValidationError("lon", "must be between -180 and 180")
	}

	existing, err := s.favorites.FindByCity(ctx, userID, city)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &ConflictError{Message: "city is already a favorite"}
	}

	favorite := &models.Favorite{
		UserID:   userID,
		CityName: city,
		Country:  strings.TrimSpace(in.Country),
		Lat:      in.Lat,
		Lon:      in.Lon,
	}
	if err := s.favorites.Create(ctx, favorite); err != nil {
		return nil, fmt.Errorf("failed to add favorite: %w", err)
	}

	return favorite, nil
}

func (s *FavoriteService) Remove(ctx context.Context, userID, id uuid.UUID) error {
	deleted, err := s.favorites.Delete(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	if !deleted {
		return &NotFoundError{Resource: "favorite"}
	}
	return nil
}
