package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"infinite-experiment/hangar/internal/api"
	"infinite-experiment/hangar/internal/auth"
	"infinite-experiment/hangar/internal/changefeed"
	"infinite-experiment/hangar/internal/common"
	"infinite-experiment/hangar/internal/config"
	"infinite-experiment/hangar/internal/db"
	"infinite-experiment/hangar/internal/logging"
	"infinite-experiment/hangar/internal/metrics"
	"infinite-experiment/hangar/internal/middleware"
	"infinite-experiment/hangar/internal/routes"
	"infinite-experiment/hangar/internal/services"
	"infinite-experiment/hangar/internal/workers"

	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize structured logging
	if err := logging.Init(cfg.AppEnv); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logging.Close()

	logging.Info("Hangar starting up",
		"environment", cfg.AppEnv,
		"timestamp", time.Now().Format(time.RFC3339),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to DB with sqlx
	sqlDB, err := db.InitPostgres(cfg.DatabaseURL)
	if err != nil {
		logging.Fatal("Failed to connect to Postgres (sqlx)", "error", err)
	}
	defer sqlDB.Close()
	logging.Info("Connected to Postgres (sqlx)")

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, sqlDB); err != nil {
			logging.Fatal("Failed to apply migrations", "error", err)
		}
	}

	// Connect to DB with GORM
	ormDB, err := db.InitPostgresORM(cfg.DatabaseURL)
	if err != nil {
		logging.Fatal("Failed to connect to Postgres (GORM)", "error", err)
	}

	var redisClient *redis.Client
	if cfg.RedisEnabled {
		redisClient = common.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
		defer redisClient.Close()
	}

	metricsReg := metrics.NewMetricsRegistry()
	hub := changefeed.NewHub(cfg.RealtimeBufferSize, metricsReg)

	var publisher services.ChangePublisher
	if cfg.ServicePublish {
		publisher = hub
		logging.Info("Realtime changes published by the services")
	} else {
		source := changefeed.NewPgSource(cfg.DatabaseURL, hub)
		go func() {
			if err := source.Run(ctx); err != nil {
				logging.Error("Change listener stopped", "error", err)
			}
		}()
	}

	deps, err := api.InitDependencies(ctx, api.Options{
		ORM:           ormDB,
		SQL:           sqlDB,
		Redis:         redisClient,
		Auth:          auth.NewAuthenticator(cfg.JWTSecret, cfg.AnonKey, cfg.ServiceRoleKey),
		Hub:           hub,
		Metrics:       metricsReg,
		Publisher:     publisher,
		AdminCacheTTL: cfg.AdminCacheTTL,

		TrustProxyHeaders: cfg.TrustProxyHeaders,
	})
	if err != nil {
		logging.Fatal("Failed to initialize dependencies", "error", err)
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst, metricsReg)
	workers.InitWorkers(ctx, workers.Config{
		AlertWorkers:  cfg.SafetyAlertWorkers,
		MonitorPeriod: cfg.SafetyMonitorPeriod,
		MaxStreamLen:  10000,
	}, deps.Services.Alerts, limiter, metricsReg)

	upSince := time.Now()
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           routes.RegisterRoutes(deps, limiter, upSince),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.Error("Graceful shutdown failed", "error", err)
		}
	}()

	logging.Info("Server starting",
		"port", cfg.HTTPPort,
		"environment", cfg.AppEnv,
	)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logging.Fatal("Server failed", "error", err)
	}
	logging.Info("Server stopped")
}
