package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fintrackhq/fintrack-go/internal/config"
	"github.com/fintrackhq/fintrack-go/internal/domain"
	"github.com/fintrackhq/fintrack-go/internal/handler"
	"github.com/fintrackhq/fintrack-go/internal/infra/cache"
	"github.com/fintrackhq/fintrack-go/internal/infra/mirror"
	"github.com/fintrackhq/fintrack-go/internal/infra/observability"
	"github.com/fintrackhq/fintrack-go/internal/infra/remote"
	"github.com/fintrackhq/fintrack-go/internal/infra/resilience"
	"github.com/fintrackhq/fintrack-go/internal/port"
	"github.com/fintrackhq/fintrack-go/internal/service"
	"github.com/fintrackhq/fintrack-go/internal/syncer"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel, "fintrack-api")
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("poll_interval", cfg.PollInterval),
		zap.Duration("flush_interval", cfg.FlushInterval),
		zap.String("mirror_db", cfg.MirrorPath),
		zap.String("mirror_dir", cfg.MirrorDir),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Duration("jwt_access_ttl", cfg.JWTAccessTTL),
	)

	if cfg.RemoteURL == "" {
		logger.Fatal("REMOTE_STORE_URL is required")
	}

	// --- Tracing ---
	shutdownTracer, err := observability.InitTracer(cfg.OTLPEndpoint, "fintrack-api")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdownTracer(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Remote document store ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("remote-store")
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	store := remote.NewClient(
		httpClient,
		cfg.RemoteURL,
		cfg.RemoteAnonKey,
		cfg.RemoteServiceKey,
		cfg.PollInterval,
		cb,
		resilienceCfg,
		logger,
	)

	// --- Local mirror (sqlite primary, flat files as fallback) ---
	var primary port.MirrorStore
	if cfg.MirrorPath != "" {
		sqlite, err := mirror.NewSQLite(cfg.MirrorPath)
		if err != nil {
			logger.Warn("mirror: sqlite unavailable, flat files only", zap.Error(err))
		} else {
			defer sqlite.Close()
			primary = sqlite
		}
	}
	mirrorStore := mirror.NewStore(primary, mirror.NewFlatfile(cfg.MirrorDir, cfg.MirrorKeyPrefix), metrics, logger)

	// appCtx bounds everything that outlives a request: sync
	// controllers and the status subscription.
	appCtx, cancelApp := context.WithCancel(context.Background())
	defer cancelApp()

	// --- Sync controllers ---
	supervisor := syncer.NewSupervisor(store, mirrorStore, cfg.FlushInterval, metrics, logger)
	defer supervisor.Shutdown()

	// --- Access gate ---
	profileCache := cache.New[*domain.UserProfile](cfg.CacheTTL)
	gate := service.NewAccessGate(store, store, store, profileCache, logger)
	go func() {
		if err := gate.Run(appCtx); err != nil {
			logger.Error("gate: status subscription stopped", zap.Error(err))
		}
	}()

	// --- Services ---
	activity := service.NewActivityService(store, logger)
	svcs := handler.Services{
		Auth:          service.NewAuthService(store, store, cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL, logger),
		Transactions:  service.NewTransactionService(store, supervisor, activity, metrics, logger),
		Projects:      service.NewProjectService(store, store, store, supervisor, activity, metrics, logger),
		Categories:    service.NewCategoryService(store, activity, logger),
		Notifications: service.NewNotificationService(store, supervisor, logger),
		Backup:        service.NewBackupService(store, store, logger),
		Gate:          gate,
		Sync:          supervisor,
	}
	svcs.Admin = service.NewAdminService(store, gate, activity, mirrorStore, logger)

	// --- Router ---
	router := handler.NewRouter(appCtx, svcs, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	cancelApp()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
