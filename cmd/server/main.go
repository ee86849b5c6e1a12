package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aman-churiwal/weather-dashboard/internal/config"
	"github.com/aman-churiwal/weather-dashboard/internal/server"
	"github.com/aman-churiwal/weather-dashboard/internal/storage"
	"github.com/joho/godotenv"
	"gorm.io/gorm/logger"
)

func main() {
	// Load env if it exists
	_ = godotenv.Load()

	cfg, err := config.Load("config.json")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg)
	slog.SetDefault(log)

	dbLogLevel := logger.Warn
	if cfg.IsProduction() {
		dbLogLevel = logger.Error
	}

	postgres, err := storage.NewPostgres(cfg.Database.DSN, dbLogLevel)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer postgres.Close()

	if err := postgres.AutoMigrate(); err != nil {
		log.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}
	log.Info("connected to database")

	redis, err := storage.NewRedis(
		cfg.Redis.GetRedisAddr(),
		cfg.Redis.Password,
		cfg.Redis.DB,
	)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redis.Close()
	log.Info("connected to redis")

	srv := server.New(cfg, redis, postgres, server.WithLogger(log))

	bootCtx, cancelBoot := context.WithTimeout(context.Background(), 10*time.Second)
	err = srv.Bootstrap(bootCtx)
	cancelBoot()
	if err != nil {
		log.Error("failed to load quota configuration", "error", err)
		os.Exit(1)
	}

	go func() {
		addr := ":" + cfg.Server.Port
		if err := srv.Run(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	log.Info("server exited")
}

func newLogger(cfg *config.Config) *slog.Logger {
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
