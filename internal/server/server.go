package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/aman-churiwal/weather-dashboard/internal/circuitbreaker"
	"github.com/aman-churiwal/weather-dashboard/internal/config"
	"github.com/aman-churiwal/weather-dashboard/internal/handler"
	"github.com/aman-churiwal/weather-dashboard/internal/healthcheck"
	"github.com/aman-churiwal/weather-dashboard/internal/metrics"
	"github.com/aman-churiwal/weather-dashboard/internal/middleware"
	"github.com/aman-churiwal/weather-dashboard/internal/models"
	"github.com/aman-churiwal/weather-dashboard/internal/ratelimit"
	"github.com/aman-churiwal/weather-dashboard/internal/repository"
	"github.com/aman-churiwal/weather-dashboard/internal/service"
	"github.com/aman-churiwal/weather-dashboard/internal/storage"
	"github.com/aman-churiwal/weather-dashboard/internal/weather"
	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	router   *gin.Engine
	config   *config.Config
	redis    *storage.RedisClient
	postgres *storage.Postgres
	logger   *slog.Logger
	clock    clockwork.Clock
	registry *prometheus.Registry
	metrics  *metrics.Metrics

	checker       *healthcheck.Checker
	configService *service.ConfigService
	cleanup       *service.CleanupWorker
	weatherClient *weather.Client

	authService     *service.AuthService
	admission       *service.AdmissionController
	responseCache   *service.ResponseCache
	generalLimiter  ratelimit.Limiter
	authLimiter     ratelimit.Limiter
	authHandler     *handler.AuthHandler
	weatherHandler  *handler.WeatherHandler
	quotaHandler    *handler.QuotaHandler
	adminHandler    *handler.AdminHandler
	favoriteHandler *handler.FavoriteHandler
	settingsHandler *handler.SettingsHandler
	systemHandler   *handler.SystemHandler
	stopBackground  context.CancelFunc
	httpServer      *http.Server
}

type Option func(*Server)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

func WithClock(clock clockwork.Clock) Option {
	return func(s *Server) {
		s.clock = clock
	}
}

// WithRegistry replaces the registry served on /metrics
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) {
		s.registry = reg
	}
}

func New(cfg *config.Config, redis *storage.RedisClient, postgres *storage.Postgres, opts ...Option) *Server {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		router:   gin.New(),
		config:   cfg,
		redis:    redis,
		postgres: postgres,
		logger:   slog.Default(),
		clock:    clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
		s.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	s.metrics = metrics.New(s.registry)

	s.initializeServices()

	// Setup middleware
	s.setupMiddleware()

	// Setup routes
	s.setupRoutes()

	return s
}

func (s *Server) initializeServices() {
	svcOpts := []service.Option{
		service.WithLogger(s.logger),
		service.WithClock(s.clock),
		service.WithMetrics(s.metrics),
	}

	hits := repository.NewAPIHitRepository(s.postgres)
	limits := repository.NewUserLimitRepository(s.postgres)
	users := repository.NewUserRepository(s.postgres)
	appConfig := repository.NewAppConfigRepository(s.postgres)
	favorites := repository.NewFavoriteRepository(s.postgres)

	s.configService = service.NewConfigService(appConfig, svcOpts...)
	ledger := service.NewUsageLedger(hits, svcOpts...)
	allocation := service.NewAllocationService(s.configService, limits, svcOpts...)
	usage := service.NewUsageService(s.configService, ledger, limits, users, allocation)
	s.admission = service.NewAdmissionController(s.configService, ledger, limits, svcOpts...)
	s.responseCache = service.NewResponseCache(s.redis, s.configService, svcOpts...)
	s.cleanup = service.NewCleanupWorker(ledger, s.config.Quota.CleanupInterval(), svcOpts...)
	s.authService = service.NewAuthService(users, allocation, service.AuthConfig{
		JWTSecret:  s.config.Auth.JWTSecret,
		JWTExpiry:  s.config.Auth.JWTExpiry(),
		AdminEmail: s.config.Auth.AdminEmail,
	}, svcOpts...)

	s.weatherClient = weather.NewClient(weather.Config{
		BaseURL: s.config.Weather.BaseURL,
		APIKey:  s.config.Weather.APIKey,
		Timeout: s.config.Weather.Timeout(),
		Breaker: circuitbreaker.New(circuitbreaker.Config{
			MaxFailures: s.config.CircuitBreaker.MaxFailures,
			Timeout:     time.Duration(s.config.CircuitBreaker.TimeoutSeconds) * time.Second,
			IsNeutral:   weather.IsNeutral,
			Clock:       s.clock,
		}),
	})
	weatherService := service.NewWeatherService(s.weatherClient, ledger, s.responseCache, svcOpts...)

	s.checker = healthcheck.NewChecker(&healthcheck.Config{
		Probes: []healthcheck.Probe{
			{Name: "database", Check: s.postgres.Ping},
			{Name: "redis", Check: s.redis.Ping},
		},
		Clock:  s.clock,
		Logger: s.logger,
	})

	s.generalLimiter = ratelimit.NewLimiter(s.redis, ratelimit.Config{
		Name:      "general",
		Algorithm: ratelimit.AlgorithmFixedWindow,
		Limit:     s.config.RateLimit.GeneralPerMinute,
		Window:    time.Minute,
		Clock:     s.clock,
	})
	s.authLimiter = ratelimit.NewLimiter(s.redis, ratelimit.Config{
		Name:      "auth",
		Algorithm: ratelimit.AlgorithmSlidingWindow,
		Limit:     s.config.RateLimit.AuthAttempts,
		Window:    time.Duration(s.config.RateLimit.AuthWindowMinutes) * time.Minute,
		Clock:     s.clock,
	})

	s.authHandler = handler.NewAuthHandler(s.authService)
	s.weatherHandler = handler.NewWeatherHandler(weatherService)
	s.quotaHandler = handler.NewQuotaHandler(usage)
	s.adminHandler = handler.NewAdminHandler(usage, allocation, s.configService, s.responseCache, s.authService)
	s.favoriteHandler = handler.NewFavoriteHandler(service.NewFavoriteService(favorites))
	s.settingsHandler = handler.NewSettingsHandler(service.NewSettingsService(users))
	s.systemHandler = handler.NewSystemHandler(s.weatherClient, s.checker, s.clock)
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recovery(s.logger))
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.CORS(s.config.Server.AllowedOrigin))
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.systemHandler.Health)
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	api := s.router.Group("/api")
	api.Use(middleware.RateLimit(s.generalLimiter, s.clock, s.logger))

	requireAuth := middleware.RequireAuth(s.authService)

	auth := api.Group("/auth")
	{
		authLimit := middleware.RateLimit(s.authLimiter, s.clock, s.logger)
		auth.POST("/register", authLimit, s.authHandler.Register)
		auth.POST("/login", authLimit, s.authHandler.Login)
		auth.GET("/me", requireAuth, s.authHandler.Me)
	}

	admission := middleware.QuotaAdmission(s.admission, middleware.QuotaConfig{
		FailOpen: s.config.Quota.FailOpen,
		Logger:   s.logger,
		Metrics:  s.metrics,
		Clock:    s.clock,
	})
	cached := middleware.ResponseCache(s.responseCache, s.logger)

	weatherRoutes := api.Group("/weather", requireAuth)
	weatherRoutes.GET("/quota", s.quotaHandler.Status)
	for _, endpoint := range []models.Endpoint{
		models.EndpointCurrent,
		models.EndpointForecast,
		models.EndpointSearch,
		models.EndpointHistory,
	} {
		weatherRoutes.GET("/"+string(endpoint),
			middleware.BindWeatherQuery(endpoint, s.clock),
			cached,
			admission,
			s.weatherHandler.Get,
		)
	}

	favorites := api.Group("/favorites", requireAuth)
	{
		favorites.GET("", s.favoriteHandler.List)
		favorites.POST("", s.favoriteHandler.Add)
		favorites.DELETE("/:id", s.favoriteHandler.Remove)
	}

	settings := api.Group("/settings", requireAuth)
	{
		settings.GET("", s.settingsHandler.Get)
		settings.PUT("", s.settingsHandler.Update)
	}

	admin := api.Group("/admin", requireAuth, middleware.AdminOnly())
	{
		admin.GET("/users", s.adminHandler.ListUsers)
		admin.GET("/users/:id/quota", s.adminHandler.GetUserQuota)
		admin.PUT("/users/:id/limit", s.adminHandler.SetUserQuota)
		admin.GET("/quota-stats", s.adminHandler.QuotaStats)
		admin.GET("/quota-pool", s.adminHandler.QuotaPool)
		admin.GET("/config", s.adminHandler.GetConfig)
		admin.PUT("/config", s.adminHandler.UpdateConfig)
		admin.DELETE("/cache", s.adminHandler.FlushCache)
		admin.GET("/circuit-breaker", s.systemHandler.CircuitBreakerStatus)
		admin.POST("/circuit-breaker/reset", s.systemHandler.ResetCircuitBreaker)
	}
}

// Bootstrap seeds the policy defaults, loads them and starts the health
// checker and ledger cleanup. Call once before Run.
func (s *Server) Bootstrap(ctx context.Context) error {
	if err := s.configService.SeedDefaults(ctx); err != nil {
		return err
	}

	bgCtx, cancel := context.WithCancel(context.Background())
	s.stopBackground = cancel

	s.checker.Start()
	go s.cleanup.Run(bgCtx)

	return nil
}

func (s *Server) Run(addr string) error {
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	s.logger.Info("starting weather dashboard api", "addr", addr, "environment", s.config.Server.Environment)

	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")

	if s.stopBackground != nil {
		s.stopBackground()
		s.checker.Stop()
	}

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}

	return nil
}

func (s *Server) GetRouter() *gin.Engine {
	return s.router
}
