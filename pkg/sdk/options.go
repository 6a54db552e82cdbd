package sdk

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/estemplate/internal/catalog"
	"github.com/kailas-cloud/estemplate/internal/db/sqlstore"
	"github.com/kailas-cloud/estemplate/internal/domain/mapping"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver   string // "valkey", "redis", "sqlite" or "postgres"
	addrs    []string
	password string
	dsn      string

	catalog     *catalog.Catalog
	schemaPaths []string
	renderer    *mapping.Renderer
	docType     string
	keyPrefix   string

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithValkey stores published templates in a Valkey instance.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "valkey"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedis stores published templates in a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithSQLite stores published templates in a local SQLite file.
func WithSQLite(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = sqlstore.DriverSQLite
		c.dsn = path
	})
}

// WithPostgres stores published templates in a Postgres table.
func WithPostgres(dsn string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = sqlstore.DriverPostgres
		c.dsn = dsn
	})
}

// WithCatalog renders from an already loaded catalog.
func WithCatalog(cat *catalog.Catalog) Option {
	return optionFunc(func(c *clientConfig) {
		c.catalog = cat
	})
}

// WithSchemaPaths loads the catalog from YAML files or directories.
// Ignored when WithCatalog is also given.
func WithSchemaPaths(paths ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.schemaPaths = append(c.schemaPaths, paths...)
	})
}

// WithRenderer replaces the default renderer, e.g. one built with custom rules.
func WithRenderer(r *mapping.Renderer) Option {
	return optionFunc(func(c *clientConfig) {
		c.renderer = r
	})
}

// WithDocType sets the mapping type name used when a call passes none.
// Default: "content".
func WithDocType(docType string) Option {
	return optionFunc(func(c *clientConfig) {
		c.docType = docType
	})
}

// WithKeyPrefix sets the prefix of published template keys.
// Default: "estemplate:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts, durations and
// template store lookups) on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
