package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"

	"github.com/aman-churiwal/weather-dashboard/internal/models"
	"github.com/aman-churiwal/weather-dashboard/internal/quota"
	"github.com/google/uuid"
)

// ConfigSnapshot is an immutable view of the stored policy settings.
// Reloads swap the whole snapshot; readers never see a partial update.
type ConfigSnapshot struct {
	Entries  []models.AppConfig
	Settings quota.Settings
}

// ConfigView is the admin representation of the settings
type ConfigView struct {
	Configs  []models.AppConfig `json:"configs"`
	Computed quota.Policy       `json:"computed"`
}

type ConfigService struct {
	store    AppConfigStore
	logger   *slog.Logger
	snapshot atomic.Pointer[ConfigSnapshot]
}

func NewConfigService(store AppConfigStore, opts ...Option) *ConfigService {
	o := buildOptions(opts)

	s := &ConfigService{
		store:  store,
		logger: o.logger,
	}
	s.snapshot.Store(defaultSnapshot())

	return s
}

func defaultSnapshot() *ConfigSnapshot {
	entries := make([]models.AppConfig, 0, len(quota.Keys))
	for _, k := range quota.Keys {
		d := quota.Defaults[k]
		entries = append(entries, models.AppConfig{
			Key:         string(k),
			Value:       strconv.Itoa(d.Value),
			Description: d.Description,
		})
	}
	return &ConfigSnapshot{Entries: entries, Settings: quota.DefaultSettings()}
}

// SeedDefaults creates any missing key with its default value and loads the
// snapshot. Existing values are left alone, so repeated calls are no-ops.
func (s *ConfigService) SeedDefaults(ctx context.Context) error {
	for _, k := range quota.Keys {
		d := quota.Defaults[k]
		created, err := s.store.CreateIfAbsent(ctx, &models.AppConfig{
			Key:         string(k),
			Value:       strconv.Itoa(d.Value),
			Description: d.Description,
		})
		if err != nil {
			return fmt.Errorf("failed to seed %s: %w", k, err)
		}
		if created {
			s.logger.Info("seeded config default", "key", k, "value", d.Value)
		}
	}

	return s.Reload(ctx)
}

// Reload replaces the snapshot with the current contents of the store.
// Stored values that fail validation fall back to their defaults.
func (s *ConfigService) Reload(ctx context.Context) error {
	rows, err := s.store.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	settings := quota.DefaultSettings()
	entries := make([]models.AppConfig, 0, len(rows))
	for _, row := range rows {
		k := quota.Key(row.Key)
		if !k.IsValid() {
			continue
		}

		v, err := quota.ParseValue(k, row.Value)
		if err != nil {
			s.logger.Warn("ignoring invalid stored config value", "key", row.Key, "value", row.Value, "error", err)
			continue
		}

		settings = settings.With(k, v)
		entries = append(entries, row)
	}

	s.snapshot.Store(&ConfigSnapshot{Entries: entries, Settings: settings})
	return nil
}

// apply swaps in a snapshot with one entry replaced
func (s *ConfigService) apply(entry models.AppConfig, k quota.Key, v int) {
	prev := s.snapshot.Load()

	entries := make([]models.AppConfig, 0, len(prev.Entries)+1)
	replaced := false
	for _, e := range prev.Entries {
		if e.Key == entry.Key {
			e = entry
			replaced = true
		}
		entries = append(entries, e)
	}
	if !replaced {
		entries = append(entries, entry)
	}

	s.snapshot.Store(&ConfigSnapshot{Entries: entries, Settings: prev.Settings.With(k, v)})
}

func (s *ConfigService) Snapshot() *ConfigSnapshot {
	return s.snapshot.Load()
}

func (s *ConfigService) Settings() quota.Settings {
	return s.snapshot.Load().Settings
}

// Policy is recomputed from the current snapshot on every call
func (s *ConfigService) Policy() quota.Policy {
	return s.Settings().Policy()
}

// Get returns the raw stored value for key, or its default when the store
// has none. Unknown keys return "".
func (s *ConfigService) Get(key string) string {
	for _, e := range s.snapshot.Load().Entries {
		if e.Key == key {
			return e.Value
		}
	}
	if d, ok := quota.Defaults[quota.Key(key)]; ok {
		return strconv.Itoa(d.Value)
	}
	return ""
}

// GetInt returns the parsed value for key, or 0 for unknown keys
func (s *ConfigService) GetInt(key string) int {
	return s.Settings().Get(quota.Key(key))
}

func (s *ConfigService) GetAll() ConfigView {
	snap := s.snapshot.Load()
	configs := make([]models.AppConfig, len(snap.Entries))
	copy(configs, snap.Entries)

	return ConfigView{
		Configs:  configs,
		Computed: snap.Settings.Policy(),
	}
}

// Update validates and stores a single setting, then reloads the snapshot
// before returning. Pool-level validation is done by AllocationService.
func (s *ConfigService) Update(ctx context.Context, key, raw string, updatedBy uuid.UUID) (*models.AppConfig, error) {
	k := quota.Key(key)
	v, err := quota.ParseValue(k, raw)
	if err != nil {
		return nil, &ValidationError{Field: key, Message: err.Error()}
	}

	return s.set(ctx, k, v, updatedBy)
}

func (s *ConfigService) set(ctx context.Context, k quota.Key, v int, updatedBy uuid.UUID) (*models.AppConfig, error) {
	var by *uuid.UUID
	if updatedBy != uuid.Nil {
		by = &updatedBy
	}

	entry, err := s.store.Upsert(ctx, string(k), strconv.Itoa(v), by)
	if err != nil {
		return nil, fmt.Errorf("failed to update %s: %w", k, err)
	}

	if err := s.Reload(ctx); err != nil {
		// The write is committed, so apply it locally until the next reload
		s.logger.Warn("config reload failed after update, applying value locally", "key", k, "error", err)
		s.apply(*entry, k, v)
	}

	s.logger.Info("config updated", "key", k, "value", v, "updated_by", updatedBy)
	return entry, nil
}
