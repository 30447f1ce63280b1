package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/richxcame/transit-ops/internal/analytics"
	"github.com/richxcame/transit-ops/internal/maintenance"
	"github.com/richxcame/transit-ops/internal/store"
	"github.com/richxcame/transit-ops/pkg/cache"
	"github.com/richxcame/transit-ops/pkg/common"
	"github.com/richxcame/transit-ops/pkg/config"
	"github.com/richxcame/transit-ops/pkg/database"
	"github.com/richxcame/transit-ops/pkg/errors"
	"github.com/richxcame/transit-ops/pkg/eventbus"
	"github.com/richxcame/transit-ops/pkg/health"
	"github.com/richxcame/transit-ops/pkg/logger"
	"github.com/richxcame/transit-ops/pkg/middleware"
	"github.com/richxcame/transit-ops/pkg/models"
	"github.com/richxcame/transit-ops/pkg/redis"
	"github.com/richxcame/transit-ops/pkg/resilience"
	"github.com/richxcame/transit-ops/pkg/tracing"
	"go.uber.org/zap"
)

const (
	serviceName = "transit-ops"
	version     = "1.0.0"

	writerQueueSize = 64

	// idle per-replica consumers are reaped after this long
	invalidationConsumerTTL = time.Hour
)

func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	if err := logger.Init(cfg.Server.Environment, serviceName); err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer logger.Sync()
	if err := logger.SetLevel(cfg.Server.LogLevel); err != nil {
		logger.Warn("Ignoring LOG_LEVEL", zap.Error(err))
	}

	logger.Info("Starting transit operations service",
		zap.String("service", serviceName),
		zap.String("version", version),
		zap.String("environment", cfg.Server.Environment),
		zap.String("store_backend", cfg.Store.Backend),
	)

	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	// Initialize Sentry for error tracking
	sentryConfig := errors.DefaultSentryConfig(serviceName)
	sentryConfig.Release = version
	if err := errors.InitSentry(sentryConfig); err != nil {
		logger.Warn("Sentry disabled, continuing without error tracking", zap.Error(err))
	} else {
		defer errors.Flush(2 * time.Second)
		logger.Info("Sentry error tracking initialized")
	}

	// Initialize OpenTelemetry tracer
	tp, err := tracing.InitTracer(tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: version,
		Environment:    cfg.Server.Environment,
		OTLPEndpoint:   cfg.Tracing.OTLPEndpoint,
		SampleRate:     cfg.Tracing.SampleRate,
		Enabled:        cfg.Tracing.Enabled,
		StoreBackend:   cfg.Store.Backend,
	}, logger.Get())
	if err != nil {
		logger.Warn("Failed to initialize tracer, continuing without tracing", zap.Error(err))
	} else if tp != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracing.Shutdown(shutdownCtx); err != nil {
				logger.Warn("Failed to shutdown tracer", zap.Error(err))
			}
		}()
	}

	healthChecks := make(map[string]func() error)

	backend, closeBackend, err := openBackend(rootCtx, cfg)
	if err != nil {
		logger.Fatal("Failed to open record store", zap.Error(err), zap.String("backend", cfg.Store.Backend))
	}
	defer closeBackend()
	healthChecks["store"] = health.NewCachedChecker(
		health.PingChecker(backend.Name(), backend.Ping, health.DefaultTimeout), 5*time.Second).Check

	var records store.Store = backend
	if cfg.Resilience.CircuitBreaker.Enabled {
		guarded := store.NewGuarded(backend, resilience.SettingsFromConfig("store-"+backend.Name(), cfg.Resilience.CircuitBreaker))
		healthChecks["store_breaker"] = health.BreakerChecker(guarded.BreakerState)
		records = guarded
	}

	var cached *store.Cached
	if cfg.Store.CacheEnabled {
		redisClient, err := redis.NewRedisClient(&cfg.Redis)
		if err != nil {
			logger.Warn("Redis unavailable, serving snapshots uncached", zap.Error(err))
		} else {
			defer redisClient.Close()
			manager := cache.NewManager(redisClient)
			// snapshots written by a previous deploy may predate schema changes
			if purged, err := manager.Invalidate(rootCtx, cache.Keys.SnapshotPattern()); err != nil {
				logger.Warn("Failed to purge cached snapshots", zap.Error(err))
			} else if purged > 0 {
				logger.Info("Purged cached snapshots", zap.Int("keys", purged))
			}
			cached = store.NewCached(records, manager, cfg.Store.CacheTTL())
			records = cached
			healthChecks["redis"] = health.PingChecker("redis", redisClient.Ping, health.DefaultTimeout)
			logger.Info("Snapshot cache enabled", zap.Duration("ttl", cfg.Store.CacheTTL()))
		}
	}

	var publisher eventbus.Publisher = eventbus.NopPublisher{}
	if cfg.NATS.Enabled {
		bus, err := eventbus.New(eventbus.Config{
			URL:        cfg.NATS.URL,
			Name:       serviceName,
			StreamName: cfg.NATS.StreamName,
			Retention:  time.Duration(cfg.NATS.RetentionHours) * time.Hour,
		})
		if err != nil {
			logger.Warn("NATS unavailable, ticket events disabled", zap.Error(err))
		} else {
			defer bus.Close()
			publisher = bus
			healthChecks["nats"] = health.ConnectedChecker("nats", bus.Connected)
			if cached != nil {
				subscribeInvalidation(rootCtx, bus, cached)
			}
		}
	}

	writer := maintenance.NewWriter(records, writerQueueSize)
	defer writer.Close()

	analyticsService := analytics.NewService(records,
		analytics.WithFetchTimeout(time.Duration(cfg.Timeout.StoreFetchTimeout)*time.Second))
	analyticsHandler := analytics.NewHandler(analyticsService)

	maintenanceService := maintenance.NewService(writer, maintenance.WithPublisher(publisher))
	maintenanceHandler := maintenance.NewHandler(maintenanceService)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RecoveryWithSentry())
	router.Use(middleware.SentryMiddleware())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestTimeout(&cfg.Timeout))
	router.Use(middleware.RequestLogger(serviceName))
	router.Use(middleware.CORS(cfg.Server.CORSOrigins))
	router.Use(middleware.Metrics(serviceName))
	if cfg.Tracing.Enabled {
		router.Use(middleware.TracingMiddleware(serviceName))
	}
	router.Use(middleware.ErrorHandler())

	router.GET("/healthz", common.HealthCheck(serviceName, version))
	router.GET("/health/live", common.LivenessProbe(serviceName, version))
	router.GET("/health/ready", common.ReadinessProbe(serviceName, version, healthChecks, "redis", "nats"))
	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": serviceName,
			"version": version,
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(cfg.JWT.Secret))

	reads := api.Group("")
	reads.Use(middleware.RequireRole(models.RoleAdmin, models.RoleFleetManager, models.RoleSupervisor))
	{
		reads.GET("/analytics/reports", analyticsHandler.GetReport)
		reads.GET("/analytics/reports/:type", analyticsHandler.GetReportByType)
		reads.GET("/analytics/trends", analyticsHandler.GetTrends)
		reads.GET("/analytics/leaderboards/:dimension", analyticsHandler.GetLeaderboard)

		reads.GET("/maintenance/schedule", analyticsHandler.GetMaintenanceSchedule)
		reads.GET("/maintenance/vehicles/:id", analyticsHandler.GetVehicleMaintenance)
	}

	writes := api.Group("/maintenance")
	writes.Use(middleware.RequireRole(models.RoleAdmin, models.RoleFleetManager))
	maintenanceHandler.RegisterRoutes(writes)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("Server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server stopped")
}

// openBackend connects the configured record store. The returned func
// releases its connections.
func openBackend(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	switch cfg.Store.Backend {
	case config.StoreBackendMongo:
		client, db, err := database.NewMongoDatabase(ctx, &cfg.Mongo)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Connected to MongoDB", zap.String("database", cfg.Mongo.Database))
		return store.NewMongo(db), func() { database.CloseMongo(client) }, nil

	case config.StoreBackendFile:
		files, err := store.NewFile(cfg.Store.DataDir)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Using file record store", zap.String("dir", cfg.Store.DataDir))
		return files, func() {}, nil

	default:
		if cfg.Database.AutoMigrate {
			if err := database.Migrate(cfg.Database.URL()); err != nil {
				return nil, nil, fmt.Errorf("migrate: %w", err)
			}
		}
		pool, err := database.NewPostgresPool(&cfg.Database, cfg.Timeout.DatabaseQueryTimeout)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Connected to PostgreSQL", zap.String("database", cfg.Database.DBName))
		return store.NewPostgres(pool), func() { database.Close(pool) }, nil
	}
}

// subscribeInvalidation drops this replica's cached snapshot whenever any
// replica commits a ticket change.
func subscribeInvalidation(ctx context.Context, bus *eventbus.Bus, cached *store.Cached) {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = fmt.Sprintf("pid-%d", os.Getpid())
	}
	consumer := "snapshot-cache-" + sanitizeConsumer(host)

	err = bus.Subscribe(ctx, eventbus.SubjectTicketAll, consumer, func(ctx context.Context, event *eventbus.Event) error {
		cached.Invalidate(ctx)
		return nil
	}, eventbus.WithInactiveThreshold(invalidationConsumerTTL))
	if err != nil {
		logger.Warn("Cross-replica cache invalidation disabled", zap.Error(err))
	}
}

// sanitizeConsumer keeps characters JetStream allows in consumer names
func sanitizeConsumer(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
