package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/aman-churiwal/weather-dashboard/internal/models"
	"github.com/google/uuid"
)

var errStore = errors.New("store unavailable")

type memHits struct {
	mu   sync.Mutex
	hits []models.APIHit
	err  error
}

func (m *memHits) Create(_ context.Context, hit *models.APIHit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if hit.ID == uuid.Nil {
		hit.ID = uuid.New()
	}
	m.hits = append(m.hits, *hit)
	return nil
}

func (m *memHits) add(userID uuid.UUID, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hits = append(m.hits, models.APIHit{ID: uuid.New(), UserID: userID, Endpoint: models.EndpointCurrent, HitAt: at.UTC()})
}

func (m *memHits) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.hits)
}

func (m *memHits) CountSince(_ context.Context, userID *uuid.UUID, since time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	var n int64
	for _, h := range m.hits {
		if !h.HitAt.Before(since) && (userID == nil || h.UserID == *userID) {
			n++
		}
	}
	return n, nil
}

func (m *memHits) CountBetween(_ context.Context, userID uuid.UUID, from, to time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	var n int64
	for _, h := range m.hits {
		if h.UserID == userID && !h.HitAt.Before(from) && !h.HitAt.After(to) {
			n++
		}
	}
	return n, nil
}

func (m *memHits) FindOldestSince(_ context.Context, userID uuid.UUID, since time.Time) (*models.APIHit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var oldest *models.APIHit
	for i := range m.hits {
		h := m.hits[i]
		if h.UserID != userID || h.HitAt.Before(since) {
			continue
		}
		if oldest == nil || h.HitAt.Before(oldest.HitAt) {
			oldest = &h
		}
	}
	return oldest, nil
}

func (m *memHits) CountByEndpoint(_ context.Context, since time.Time) (map[models.Endpoint]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	counts := map[models.Endpoint]int64{}
	for _, h := range m.hits {
		if !h.HitAt.Before(since) {
			counts[h.Endpoint]++
		}
	}
	return counts, nil
}

func (m *memHits) DeleteOlderThan(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	kept := m.hits[:0]
	var n int64
	for _, h := range m.hits {
		if h.HitAt.Before(before) {
			n++
			continue
		}
		kept = append(kept, h)
	}
	m.hits = kept
	return n, nil
}

type memLimits struct {
	mu     sync.Mutex
	limits map[uuid.UUID]*models.UserLimit
	err    error
}

func newMemLimits() *memLimits {
	return &memLimits{limits: map[uuid.UUID]*models.UserLimit{}}
}

func (m *memLimits) FindByUserID(_ context.Context, userID uuid.UUID) (*models.UserLimit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if l, ok := m.limits[userID]; ok {
		c := *l
		return &c, nil
	}
	return nil, nil
}

func (m *memLimits) Upsert(_ context.Context, userID uuid.UUID, dailyLimit int, updatedBy *uuid.UUID) (*models.UserLimit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	l, ok := m.limits[userID]
	if !ok {
		l = &models.UserLimit{ID: uuid.New(), UserID: userID}
		m.limits[userID] = l
	}
	l.DailyLimit = dailyLimit
	l.UpdatedBy = updatedBy
	c := *l
	return &c, nil
}

func (m *memLimits) SumDailyLimits(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	var sum int64
	for _, l := range m.limits {
		sum += int64(l.DailyLimit)
	}
	return sum, nil
}

func (m *memLimits) set(userID uuid.UUID, dailyLimit int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limits[userID] = &models.UserLimit{ID: uuid.New(), UserID: userID, DailyLimit: dailyLimit}
}

type memConfig struct {
	mu      sync.Mutex
	entries map[string]models.AppConfig
	err     error
	findErr error
}

func newMemConfig() *memConfig {
	return &memConfig{entries: map[string]models.AppConfig{}}
}

func (m *memConfig) FindAll(_ context.Context) ([]models.AppConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.findErr != nil {
		return nil, m.findErr
	}
	out := make([]models.AppConfig, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *memConfig) FindByKey(_ context.Context, key string) (*models.AppConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[key]; ok {
		return &e, nil
	}
	return nil, nil
}

func (m *memConfig) CreateIfAbsent(_ context.Context, entry *models.AppConfig) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	if _, ok := m.entries[entry.Key]; ok {
		return false, nil
	}
	m.entries[entry.Key] = *entry
	return true, nil
}

func (m *memConfig) Upsert(_ context.Context, key, value string, updatedBy *uuid.UUID) (*models.AppConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	e := m.entries[key]
	e.Key = key
	e.Value = value
	e.UpdatedBy = updatedBy
	m.entries[key] = e
	return &e, nil
}

type memUsers struct {
	mu     sync.Mutex
	users  map[uuid.UUID]*models.User
	limits *memLimits
}

func newMemUsers(limits *memLimits) *memUsers {
	return &memUsers{users: map[uuid.UUID]*models.User{}, limits: limits}
}

func (m *memUsers) CreateWithLimit(ctx context.Context, user *models.User, limit *models.UserLimit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now()
	c := *user
	m.users[user.ID] = &c
	if limit != nil {
		limit.UserID = user.ID
		m.limits.set(user.ID, limit.DailyLimit)
	}
	return nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

func (m *memUsers) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	u, ok := m.users[id]
	m.mu.Unlock()
	if !ok {
		return nil, nil
	}
	c := *u
	c.UserLimit, _ = m.limits.FindByUserID(ctx, id)
	return &c, nil
}

func (m *memUsers) List(ctx context.Context) ([]models.User, error) {
	m.mu.Lock()
	out := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	for i := range out {
		out[i].UserLimit, _ = m.limits.FindByUserID(ctx, out[i].ID)
	}
	return out, nil
}

func (m *memUsers) Update(_ context.Context, id uuid.UUID, updates map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil
	}
	if v, ok := updates["name"].(string); ok {
		u.Name = v
	}
	if v, ok := updates["unit_pref"].(string); ok {
		u.UnitPref = v
	}
	return nil
}

type memFavorites struct {
	mu        sync.Mutex
	favorites []models.Favorite
}

func (m *memFavorites) ListByUser(_ context.Context, userID uuid.UUID) ([]models.Favorite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Favorite
	for _, f := range m.favorites {
		if f.UserID == userID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *memFavorites) FindByCity(_ context.Context, userID uuid.UUID, city string) (*models.Favorite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.favorites {
		if f.UserID == userID && f.CityName == city {
			c := f
			return &c, nil
		}
	}
	return nil, nil
}

func (m *memFavorites) Create(_ context.Context, favorite *models.Favorite) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if favorite.ID == uuid.Nil {
		favorite.ID = uuid.New()
	}
	m.favorites = append(m.favorites, *favorite)
	return nil
}

func (m *memFavorites) Delete(_ context.Context, id, userID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, f := range m.favorites {
		if f.ID == id && f.UserID == userID {
			m.favorites = append(m.favorites[:i], m.favorites[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}
