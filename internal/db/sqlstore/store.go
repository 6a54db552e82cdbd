// Package sqlstore implements db.Store on top of database/sql. SQLite keeps
// published templates in a local file; Postgres shares them between replicas.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/kailas-cloud/estemplate/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds connection parameters for a SQL store.
type Config struct {
	Driver string // sqlite or postgres
	DSN    string // file path for sqlite, connection string for postgres
}

// Store implements db.Store over a single key/value table.
type Store struct {
	db *sql.DB
	q  queries
}

// NewStore opens the database. The table is created by WaitForReady.
func NewStore(cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("dsn is required")
	}

	switch cfg.Driver {
	case DriverSQLite:
		conn, err := sql.Open("sqlite", sqliteDSN(cfg.DSN))
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite: %w", err)
		}
		// SQLite serializes writers; one connection avoids SQLITE_BUSY.
		conn.SetMaxOpenConns(1)
		return &Store{db: conn, q: sqliteQueries}, nil
	case DriverPostgres:
		pgCfg, err := pgx.ParseConfig(cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to parse postgres dsn: %w", err)
		}
		return &Store{db: stdlib.OpenDB(*pgCfg), q: postgresQueries}, nil
	default:
		return nil, fmt.Errorf("unsupported driver %q", cfg.Driver)
	}
}

func sqliteDSN(p string) string {
	if strings.Contains(p, "?") {
		return p + "&_pragma=busy_timeout(5000)"
	}
	return p + "?_pragma=busy_timeout(5000)"
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	_ = s.db.Close()
}

// WaitForReady polls Ping until the database responds or timeout expires,
// then makes sure the table exists.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if err := s.Ping(ctx); err == nil {
			return s.Migrate(ctx)
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for database: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// Migrate creates the key/value table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.q.createTable); err != nil {
		return &db.Error{Op: db.OpMigrate, Err: err}
	}
	return nil
}

// Get retrieves a value by key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, s.q.get, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, db.ErrKeyNotFound
	}
	if err != nil {
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return value, nil
}

// Set stores a value at the given key.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if _, err := s.db.ExecContext(ctx, s.q.upsert, key, value); err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

// SetMulti stores several values in one transaction.
func (s *Store) SetMulti(ctx context.Context, items []db.SetItem) error {
	if len(items) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, s.q.upsert)
	if err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	defer func() { _ = stmt.Close() }()

	for _, it := range items {
		if _, err := stmt.ExecContext(ctx, it.Key, it.Value); err != nil {
			return &db.Error{Op: db.OpSet, Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

// Del removes a key. Returns db.ErrKeyNotFound when nothing was deleted.
func (s *Store) Del(ctx context.Context, key string) error {
	res, err := s.db.ExecContext(ctx, s.q.del, key)
	if err != nil {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	if n == 0 {
		return db.ErrKeyNotFound
	}
	return nil
}

// Exists checks if a key exists.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, s.q.exists, key).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, &db.Error{Op: db.OpExists, Err: err}
	}
	return true, nil
}

// Scan returns keys matching a glob pattern (the SCAN MATCH syntax).
// Rows are narrowed in SQL by the literal prefix of the pattern.
func (s *Store) Scan(ctx context.Context, pattern string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.q.scanPrefix, literalPrefix(pattern))
	if err != nil {
		return nil, &db.Error{Op: db.OpScan, Err: err}
	}
	defer func() { _ = rows.Close() }()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, &db.Error{Op: db.OpScan, Err: err}
		}
		if globMatch(pattern, key) {
			keys = append(keys, key)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpScan, Err: err}
	}
	return keys, nil
}

// literalPrefix returns the part of pattern before the first glob metacharacter.
func literalPrefix(pattern string) string {
	if i := strings.IndexAny(pattern, `*?[\`); i >= 0 {
		return pattern[:i]
	}
	return pattern
}
