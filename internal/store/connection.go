// Package store provides the bi-temporal timeline storage backends
// (PostgreSQL and in-memory) and the connection/config plumbing around them.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

const (
	postgresDriver = "postgres"
	ctxTimeout     = 5 * time.Second
)

// Connection is a pooled PostgreSQL connection.
type Connection struct {
	*sql.DB
}

// NewConnection opens a pooled connection and verifies it with an immediate
// health check.
func NewConnection(cfg *Config) (*Connection, error) {
	db, err := sql.Open(postgresDriver, cfg.databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), ctxTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("database health check failed: %w", err)
	}

	return &Connection{db}, nil
}

// HealthCheck pings the database, defaulting to a 5s timeout if ctx is nil.
func (c *Connection) HealthCheck(ctx context.Context) error { //nolint: contextcheck
	if ctx == nil {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(context.Background(), ctxTimeout)

		defer cancel()
	}

	return c.PingContext(ctx)
}

// Close closes the connection pool. Safe to call multiple times.
func (c *Connection) Close() error {
	return c.DB.Close()
}

// Stats returns connection pool statistics for monitoring.
func (c *Connection) Stats() sql.DBStats {
	return c.DB.Stats()
}
