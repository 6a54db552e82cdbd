package sdk

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/estemplate/internal/catalog"
	"github.com/kailas-cloud/estemplate/internal/db"
	dbRedis "github.com/kailas-cloud/estemplate/internal/db/redis"
	"github.com/kailas-cloud/estemplate/internal/db/sqlstore"
	"github.com/kailas-cloud/estemplate/internal/domain"
	"github.com/kailas-cloud/estemplate/internal/domain/batch"
	"github.com/kailas-cloud/estemplate/internal/domain/mapping"
	"github.com/kailas-cloud/estemplate/internal/repository/templatestore"
	healthuc "github.com/kailas-cloud/estemplate/internal/usecase/health"
	renderuc "github.com/kailas-cloud/estemplate/internal/usecase/render"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultKeyPrefix        = "estemplate:"
)

// Внутренний интерфейс для подмены в тестах.
type renderUseCase interface {
	Documents() []renderuc.DocumentInfo
	Mapping(ctx context.Context, name, role string, timestamp bool) (mapping.Mapping, error)
	Template(ctx context.Context, name, title, role, docType string) (*mapping.Template, error)
	Publish(ctx context.Context, name, title, role, docType string) (domain.PublishedTemplate, error)
	PublishRoles(ctx context.Context, name, title string, roles []string, docType string) ([]batch.Result, error)
	Published(ctx context.Context, templateName string) (domain.PublishedTemplate, error)
	ListPublished(ctx context.Context) ([]domain.PublishedTemplate, error)
	Unpublish(ctx context.Context, templateName string) error
}

// Client is the estemplate SDK entry point.
type Client struct {
	store     db.Store
	renderSvc renderUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New creates a Client. When a store is configured it connects and uses ctx
// for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		renderer:  mapping.Default(),
		docType:   mapping.DefaultDocType,
		keyPrefix: defaultKeyPrefix,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	cat, err := loadCatalog(cfg)
	if err != nil {
		return nil, err
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	if cfg.driver == "" {
		return wireClient(nil, cat, cfg, obs), nil
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("estemplate: database not ready: %w", err)
	}
	return wireClient(store, cat, cfg, obs), nil
}

func loadCatalog(cfg *clientConfig) (*catalog.Catalog, error) {
	if cfg.catalog != nil {
		return cfg.catalog, nil
	}
	if len(cfg.schemaPaths) == 0 {
		return nil, errors.New("estemplate: schema catalog required (use WithCatalog or WithSchemaPaths)")
	}
	cat, err := catalog.Load(cfg.schemaPaths...)
	if err != nil {
		return nil, fmt.Errorf("estemplate: load catalog: %w", err)
	}
	return cat, nil
}

// createStore opens the template store. Redis and Valkey speak the same
// protocol and share one client; SQLite and Postgres share the SQL store.
func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "valkey", "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:      cfg.addrs,
			Password:   cfg.password,
			ClientName: "estemplate-sdk",
		})
		if err != nil {
			return nil, fmt.Errorf("estemplate: create %s store: %w", cfg.driver, err)
		}
		return s, nil
	case sqlstore.DriverSQLite, sqlstore.DriverPostgres:
		s, err := sqlstore.NewStore(sqlstore.Config{Driver: cfg.driver, DSN: cfg.dsn})
		if err != nil {
			return nil, fmt.Errorf("estemplate: create %s store: %w", cfg.driver, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("estemplate: unknown driver %q", cfg.driver)
	}
}

// wireClient builds the services. store may be nil, which disables publishing.
func wireClient(store db.Store, cat *catalog.Catalog, cfg *clientConfig, obs *observer) *Client {
	logger := zap.NewNop()

	var (
		repo   renderuc.Repository
		pinger healthuc.DBPinger
	)
	if store != nil {
		repo = templatestore.New(store, cfg.keyPrefix, obs.lookupCounter(), logger)
		pinger = store
	}

	return &Client{
		store:     store,
		renderSvc: renderuc.New(cat, cfg.renderer, repo, logger, renderuc.WithDocType(cfg.docType)),
		healthSvc: healthuc.New(pinger, cat),
		obs:       obs,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks template store connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if c.store == nil {
		return ErrStoreDisabled
	}
	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}
