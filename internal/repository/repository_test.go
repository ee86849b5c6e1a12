package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aman-churiwal/weather-dashboard/internal/models"
	"github.com/aman-churiwal/weather-dashboard/internal/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *storage.Postgres {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	pg := storage.FromDB(db)
	require.NoError(t, pg.AutoMigrate())
	return pg
}

func createUser(t *testing.T, db *storage.Postgres, email string) *models.User {
	t.Helper()

	user := &models.User{Email: email, Name: "Test", PasswordHash: "x"}
	require.NoError(t, NewUserRepository(db).CreateWithLimit(context.Background(), user, nil))
	return user
}

func TestAPIHitRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewAPIHitRepository(db)

	alice := createUser(t, db, "alice@example.com")
	bob := createUser(t, db, "bob@example.com")

	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	hits := []models.APIHit{
		{UserID: alice.ID, Endpoint: models.EndpointCurrent, HitAt: t0},
		{UserID: alice.ID, Endpoint: models.EndpointForecast, HitAt: t0.Add(time.Hour)},
		{UserID: alice.ID, Endpoint: models.EndpointCurrent, HitAt: t0.Add(2 * time.Hour)},
		{UserID: bob.ID, Endpoint: models.EndpointSearch, HitAt: t0.Add(30 * time.Minute)},
	}
	for i := range hits {
		require.NoError(t, repo.Create(ctx, &hits[i]))
	}

	t.Run("counts per user and project-wide", func(t *testing.T) {
		n, err := repo.CountSince(ctx, &alice.ID, t0)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)

		n, err = repo.CountSince(ctx, nil, t0)
		require.NoError(t, err)
		assert.Equal(t, int64(4), n)
	})

	t.Run("window lower bound is inclusive", func(t *testing.T) {
		n, err := repo.CountSince(ctx, &alice.ID, t0.Add(time.Second))
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})

	t.Run("count between is closed on both ends", func(t *testing.T) {
		n, err := repo.CountBetween(ctx, alice.ID, t0, t0.Add(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})

	t.Run("oldest since orders by hit time", func(t *testing.T) {
		hit, err := repo.FindOldestSince(ctx, alice.ID, t0.Add(time.Minute))
		require.NoError(t, err)
		require.NotNil(t, hit)
		assert.Equal(t, models.EndpointForecast, hit.Endpoint)

		hit, err = repo.FindOldestSince(ctx, alice.ID, t0.Add(3*time.Hour))
		require.NoError(t, err)
		assert.Nil(t, hit)
	})

	t.Run("groups by endpoint", func(t *testing.T) {
		counts, err := repo.CountByEndpoint(ctx, t0)
		require.NoError(t, err)
		assert.Equal(t, int64(2), counts[models.EndpointCurrent])
		assert.Equal(t, int64(1), counts[models.EndpointForecast])
		assert.Equal(t, int64(1), counts[models.EndpointSearch])
	})

	t.Run("deletes only rows strictly older than cutoff", func(t *testing.T) {
		removed, err := repo.DeleteOlderThan(ctx, t0.Add(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, int64(2), removed)

		n, err := repo.CountSince(ctx, nil, t0)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})
}

func TestUserLimitRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewUserLimitRepository(db)

	admin := createUser(t, db, "admin@example.com")
	alice := createUser(t, db, "alice@example.com")
	bob := createUser(t, db, "bob@example.com")

	total, err := repo.SumDailyLimits(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)

	missing, err := repo.FindByUserID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Nil(t, missing)

	created, err := repo.Upsert(ctx, alice.ID, 10, &admin.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, created.DailyLimit)

	updated, err := repo.Upsert(ctx, alice.ID, 25, &admin.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID, "upsert must keep a single row per user")
	assert.Equal(t, 25, updated.DailyLimit)
	require.NotNil(t, updated.UpdatedBy)
	assert.Equal(t, admin.ID, *updated.UpdatedBy)

	_, err = repo.Upsert(ctx, bob.ID, 5, nil)
	require.NoError(t, err)

	total, err = repo.SumDailyLimits(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(30), total)
}

func TestAppConfigRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewAppConfigRepository(db)

	created, err := repo.CreateIfAbsent(ctx, &models.AppConfig{Key: "PROJECT_FREE_LIMIT", Value: "1000"})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.CreateIfAbsent(ctx, &models.AppConfig{Key: "PROJECT_FREE_LIMIT", Value: "5"})
	require.NoError(t, err)
	assert.False(t, created)

	entry, err := repo.FindByKey(ctx, "PROJECT_FREE_LIMIT")
	require.NoError(t, err)
	assert.Equal(t, "1000", entry.Value, "seeding must not overwrite an existing value")

	_, err = repo.Upsert(ctx, "PROJECT_FREE_LIMIT", "2000", nil)
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, "CACHE_TTL_SECONDS", "30", nil)
	require.NoError(t, err)

	entries, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "CACHE_TTL_SECONDS", entries[0].Key)
	assert.Equal(t, "2000", entries[1].Value)
}

func TestFavoriteRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewFavoriteRepository(db)

	alice := createUser(t, db, "alice@example.com")
	bob := createUser(t, db, "bob@example.com")

	fav := &models.Favorite{UserID: alice.ID, CityName: "Paris", Country: "France", Lat: 48.85, Lon: 2.35}
	require.NoError(t, repo.Create(ctx, fav))

	dup := &models.Favorite{UserID: alice.ID, CityName: "Paris", Lat: 1, Lon: 1}
	assert.Error(t, repo.Create(ctx, dup), "unique (user, city)")

	found, err := repo.FindByCity(ctx, alice.ID, "Paris")
	require.NoError(t, err)
	require.NotNil(t, found)

	removed, err := repo.Delete(ctx, fav.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, removed, "only the owner can remove a favorite")

	removed, err = repo.Delete(ctx, fav.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	list, err := repo.ListByUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}
