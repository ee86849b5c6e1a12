package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/aman-churiwal/weather-dashboard/internal/models"
	"github.com/google/uuid"
)

type SettingsService struct {
	users UserStore
}

func NewSettingsService(users UserStore) *SettingsService {
	return &SettingsService{users: users}
}

type UserSettings struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	UnitPref string `json:"unit_pref"`
}

// Nil fields are left unchanged
type UpdateSettingsInput struct {
	Name     *string `json:"name"`
	UnitPref *string `json:"unit_pref"`
}

func (s *SettingsService) Get(ctx context.Context, userID uuid.UUID) (*UserSettings, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &NotFoundError{Resource: "user"}
	}

	return &UserSettings{Name: user.Name, Email: user.Email, UnitPref: user.UnitPref}, nil
}

func (s *SettingsService) Update(ctx context.Context, userID uuid.UUID, in UpdateSettingsInput) (*UserSettings, error) {
	updates := map[string]interface{}{}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" || len(name) > 100 {
			return nil, newValidationError("name", "must be between 1 and 100 characters")
		}
		updates["name"] = name
	}

	if in.UnitPref != nil {
		switch *in.UnitPref {
		case models.UnitCelsius, models.UnitFahrenheit:
			updates["unit_pref"] = *in.UnitPref
		default:
			return nil, newValidationError("unit_pref", "must be %q or %q", models.UnitCelsius, models.UnitFahrenheit)
		}
	}

	if len(updates) > 0 {
		if err := s.users.Update(ctx, userID, updates); err != nil {
			return nil, fmt.Errorf("failed to update settings: %w", err)
		}
	}

	return s.Get(ctx, userID)
}
