// Package store persists transcription history in PostgreSQL.
package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	pool    *pgxpool.Pool
	initErr error
	once    sync.Once
)

// InitDB initializes the shared connection pool. Later calls return the
// result of the first, including its error.
func InitDB(ctx context.Context, dbURL string) error {
	once.Do(func() {
		if dbURL == "" {
			initErr = fmt.Errorf("DATABASE_URL not set")
			return
		}

		config, err := pgxpool.ParseConfig(dbURL)
		if err != nil {
			initErr = fmt.Errorf("failed to parse database config: %w", err)
			return
		}

		p, err := pgxpool.NewWithConfig(ctx, config)
		if err != nil {
			initErr = fmt.Errorf("failed to connect: %w", err)
			return
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			initErr = fmt.Errorf("failed to ping database: %w", err)
			return
		}
		pool = p
	})
	return initErr
}

// GetPool returns the database connection pool
func GetPool() *pgxpool.Pool {
	return pool
}

// Close closes the database connection pool
func Close() {
	if pool != nil {
		pool.Close()
	}
}
