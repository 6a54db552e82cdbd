package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/estemplate/internal/catalog"
	"github.com/kailas-cloud/estemplate/internal/config"
	"github.com/kailas-cloud/estemplate/internal/db"
	dbRedis "github.com/kailas-cloud/estemplate/internal/db/redis"
	"github.com/kailas-cloud/estemplate/internal/db/sqlstore"
	"github.com/kailas-cloud/estemplate/internal/domain/mapping"
	logpkg "github.com/kailas-cloud/estemplate/internal/logger"
	"github.com/kailas-cloud/estemplate/internal/metrics"
	"github.com/kailas-cloud/estemplate/internal/repository/templatestore"
	chiTransport "github.com/kailas-cloud/estemplate/internal/transport/chi"
	healthuc "github.com/kailas-cloud/estemplate/internal/usecase/health"
	renderuc "github.com/kailas-cloud/estemplate/internal/usecase/render"
	"github.com/kailas-cloud/estemplate/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting estemplate API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("catalog_paths", cfg.Catalog.Paths),
	)

	metrics.RegisterRenderMetrics()

	cat, err := catalog.Load(cfg.Catalog.Paths...)
	if err != nil {
		logger.Fatal("Failed to load schema catalog", zap.Error(err))
	}
	metrics.CatalogDocuments.Set(float64(cat.Len()))
	logger.Info("Schema catalog loaded", zap.Int("documents", cat.Len()), zap.Strings("names", cat.Names()))

	ctx := context.Background()
	store, err := openStore(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to open template store", zap.Error(err))
	}

	// Pass nil interfaces (not typed nil pointers) when no store is configured.
	var (
		repo   renderuc.Repository
		pinger healthuc.DBPinger
	)
	if store != nil {
		defer store.Close()
		repo = templatestore.New(store, cfg.Storage.KeyPrefix, metrics.TemplateStoreTotal, logger)
		pinger = store
	}

	renderSvc := renderuc.New(cat, mapping.Default(), repo, logger, renderuc.WithDocType(cfg.Render.DocType))
	healthSvc := healthuc.New(pinger, cat)

	server := chiTransport.NewServer(renderSvc, healthSvc, logger)
	r := chiTransport.NewRouter(server, cfg.Auth.APIKeys)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// openStore connects to the configured template store. Returns nil when publishing is disabled.
func openStore(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (db.Store, error) {
	if !cfg.Enabled() {
		logger.Info("Template store disabled; publishing endpoints return 501")
		return nil, nil
	}

	store, err := newStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("create %s store: %w", cfg.Driver, err)
	}

	if err := store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("%s not ready: %w", cfg.Driver, err)
	}
	logger.Info("Connected to template store", zap.String("driver", cfg.Driver), zap.Strings("addrs", cfg.Addrs))
	return store, nil
}

func newStore(cfg config.DatabaseConfig) (db.Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite, config.DriverPostgres:
		return sqlstore.NewStore(sqlstore.Config{Driver: cfg.Driver, DSN: cfg.DSN})
	default:
		// Redis and Valkey speak the same protocol for the commands in use.
		return dbRedis.NewStore(dbRedis.Config{
			Addrs:      cfg.Addrs,
			Password:   cfg.Password,
			ClientName: "estemplate",
		})
	}
}
