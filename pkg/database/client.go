// Package database provides the sqlite client and migration utilities for
// the sensor, session, and alert tables.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // register sqlite3 driver
)

// Config holds store configuration.
type Config struct {
	// Path is the sqlite database file, or ":memory:" for tests.
	Path string

	// Connection pool settings. sqlite with WAL supports concurrent
	// readers but a single writer; MaxOpenConns caps reader fan-out.
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	BusyTimeout     time.Duration
}

// DefaultConfig returns pool settings suitable for the request fan-out the
// service runs with.
func DefaultConfig(path string) Config {
	return Config{
		Path:            path,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		BusyTimeout:     5 * time.Second,
	}
}

// Client wraps the sql.DB pool.
type Client struct {
	db *sql.DB
}

// DB returns the underlying pool for direct queries and health checks.
func (c *Client) DB() *sql.DB { return c.db }

// Close closes the pool.
func (c *Client) Close() error { return c.db.Close() }

// NewClient opens the store, enables WAL mode, applies migrations, and
// verifies connectivity.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Path != ":memory:" && !strings.HasPrefix(cfg.Path, "file:") {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	var dsn string
	switch {
	case cfg.Path == ":memory:":
		// Shared cache keeps the schema visible across pool connections.
		dsn = "file::memory:?cache=shared&_busy_timeout=5000"
	case strings.HasPrefix(cfg.Path, "file:"):
		// Caller-supplied DSN, already carrying its options.
		dsn = cfg.Path
	default:
		dsn = fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d",
			cfg.Path, cfg.BusyTimeout.Milliseconds())
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping store: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return &Client{db: db}, nil
}
