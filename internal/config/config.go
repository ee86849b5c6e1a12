package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server         ServerConfig         `json:"server"`
	Database       DatabaseConfig       `json:"database"`
	Redis          RedisConfig          `json:"redis"`
	Auth           AuthConfig           `json:"auth"`
	Weather        WeatherConfig        `json:"weather"`
	Quota          QuotaConfig          `json:"quota"`
	RateLimit      RateLimitConfig      `json:"rate_limit"`
	CircuitBreaker CircuitBreakerConfig `json:"circuit_breaker"`
}

type ServerConfig struct {
	Port          string `json:"port"`
	Environment   string `json:"environment"`
	AllowedOrigin string `json:"allowed_origin"`
}

type DatabaseConfig struct {
	DSN string `json:"dsn"`
}

type RedisConfig struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type AuthConfig struct {
	JWTSecret      string `json:"-"` // env only (JWT_SECRET)
	JWTExpiryHours int    `json:"jwt_expiry_hours"`
	// Registering with this address grants the admin role
	AdminEmail string `json:"admin_email"`
}

type WeatherConfig struct {
	BaseURL        string `json:"base_url"`
	APIKey         string `json:"-"` // env only (WEATHER_API_KEY)
	TimeoutSeconds int    `json:"timeout_seconds"`
}

type QuotaConfig struct {
	// Admit requests when the usage ledger cannot be read
	FailOpen               bool `json:"fail_open"`
	CleanupIntervalMinutes int  `json:"cleanup_interval_minutes"`
}

type RateLimitConfig struct {
	GeneralPerMinute  int `json:"general_per_minute"`
	AuthAttempts      int `json:"auth_attempts"`
	AuthWindowMinutes int `json:"auth_window_minutes"`
}

type CircuitBreakerConfig struct {
	MaxFailures    int `json:"max_failures"`
	TimeoutSeconds int `json:"timeout_seconds"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:          "5001",
			Environment:   "development",
			AllowedOrigin: "http://localhost:5002",
		},
		Redis: RedisConfig{
			Host: "localhost",
			Port: "6379",
		},
		Auth: AuthConfig{
			JWTExpiryHours: 24 * 7,
		},
		Weather: WeatherConfig{
			BaseURL:        "https://api.weatherapi.com/v1",
			TimeoutSeconds: 10,
		},
		Quota: QuotaConfig{
			FailOpen:               true,
			CleanupIntervalMinutes: 60,
		},
		RateLimit: RateLimitConfig{
			GeneralPerMinute:  60,
			AuthAttempts:      10,
			AuthWindowMinutes: 15,
		},
		CircuitBreaker: CircuitBreakerConfig{
			MaxFailures:    5,
			TimeoutSeconds: 30,
		},
	}
}

// Load reads the JSON config at path on top of the defaults and then applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	file, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(file, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Server.Port, "PORT")
	setString(&c.Server.Environment, "APP_ENV")
	setString(&c.Server.AllowedOrigin, "CLIENT_URL")
	setString(&c.Database.DSN, "DATABASE_URL")
	setString(&c.Redis.Host, "REDIS_HOST")
	setString(&c.Redis.Port, "REDIS_PORT")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setString(&c.Auth.JWTSecret, "JWT_SECRET")
	setString(&c.Auth.AdminEmail, "ADMIN_EMAIL")
	setString(&c.Weather.BaseURL, "WEATHER_API_BASE")
	setString(&c.Weather.APIKey, "WEATHER_API_KEY")

	if err := setInt(&c.Redis.DB, "REDIS_DB"); err != nil {
		return err
	}
	if err := setInt(&c.Auth.JWTExpiryHours, "JWT_EXPIRY_HOURS"); err != nil {
		return err
	}

	if v, ok := os.LookupEnv("QUOTA_FAIL_OPEN"); ok {
		failOpen, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid QUOTA_FAIL_OPEN: %w", err)
		}
		c.Quota.FailOpen = failOpen
	}

	return nil
}

func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return errors.New("database dsn is required (DATABASE_URL)")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("jwt secret is required (JWT_SECRET)")
	}
	if c.Weather.TimeoutSeconds <= 0 {
		return errors.New("weather timeout_seconds must be positive")
	}
	if c.Quota.CleanupIntervalMinutes <= 0 {
		return errors.New("quota cleanup_interval_minutes must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

func (r RedisConfig) GetRedisAddr() string {
	return r.Host + ":" + r.Port
}

func (w WeatherConfig) Timeout() time.Duration {
	return time.Duration(w.TimeoutSeconds) * time.Second
}

func (q QuotaConfig) CleanupInterval() time.Duration {
	return time.Duration(q.CleanupIntervalMinutes) * time.Minute
}

func (a AuthConfig) JWTExpiry() time.Duration {
	return time.Duration(a.JWTExpiryHours) * time.Hour
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}
