package service

import (
	"context"
	"errors"
	"testing"

	"github.com/aman-churiwal/weather-dashboard/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFavoriteService(t *testing.T) {
	ctx := context.Background()
	svc := NewFavoriteService(&memFavorites{})
	user := uuid.New()

	fav, err := svc.Add(ctx, user, AddFavoriteInput{CityName: " Paris ", Country: "France", Lat: 48.85, Lon: 2.35})
	require.NoError(t, err)
	assert.Equal(t, "Paris", fav.CityName)

	_, err = svc.Add(ctx, user, AddFavoriteInput{CityName: "Paris", Lat: 48.85, Lon: 2.35})
	var conflict *ConflictError
	assert.True(t, errors.As(err, &conflict))

	_, err = svc.Add(ctx, user, AddFavoriteInput{CityName: "Nowhere", Lat: 123})
	var valErr *ValidationError
	assert.True(t, errors.As(err, &valErr))

	list, err := svc.List(ctx, user)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	otherUser := uuid.New()
	err = svc.Remove(ctx, otherUser, fav.ID)
	var notFound *NotFoundError
	assert.True(t, errors.As(err, &notFound), "cannot remove another user's favorite")

	require.NoError(t, svc.Remove(ctx, user, fav.ID))
	list, err = svc.List(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSettingsService(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	user := addUser(t, env, "jane@example.com", 10)
	svc := NewSettingsService(env.users)

	unit := models.UnitFahrenheit
	name := "Jane Doe"
	settings, err := svc.Update(ctx, user.ID, UpdateSettingsInput{UnitPref: &unit, Name: &name})
	require.NoError(t, err)
	assert.Equal(t, models.UnitFahrenheit, settings.UnitPref)
	assert.Equal(t, "Jane Doe", settings.Name)

	kelvin := "kelvin"
	_, err = svc.Update(ctx, user.ID, UpdateSettingsInput{UnitPref: &kelvin})
	var valErr *ValidationError
	assert.True(t, errors.As(err, &valErr))

	_, err = svc.Get(ctx, uuid.New())
	var notFound *NotFoundError
	assert.True(t, errors.As(err, &notFound))
}
