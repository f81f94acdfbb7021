package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/platinummonkey/folio/pkg/config"
)

const defaultConnectTimeout = 2 * time.Second

// Open connects to PostgreSQL, sizes the pool from cfg and pings the
// server within the connect timeout
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	ConfigurePool(db, cfg)

	if err := Ping(ctx, db, cfg.ConnectTimeout); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// ConfigurePool applies the pool limits of cfg to db. Overflow requests
// wait for a free connection.
func ConfigurePool(db *sql.DB, cfg config.DatabaseConfig) {
	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		db.SetMaxIdleConns(cfg.MinConns)
	}
	db.SetConnMaxIdleTime(cfg.IdleTimeout)
	db.SetConnMaxLifetime(time.Hour)
}

// Ping checks connectivity, bounded by timeout (2s when zero)
func Ping(ctx context.Context, db *sql.DB, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping postgres: %w", err)
	}
	return nil
}
