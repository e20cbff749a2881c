// Package database owns the pgx pool used by the historian. The authority
// process never touches it; live rooms are held only in memory.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the global connection pool, set by Connect.
var DB *pgxpool.Pool

// Connect opens and pings a pool against the given database URL.
func Connect(ctx context.Context, databaseURL string) error {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return fmt.Errorf("ping database: %w", err)
	}

	DB = pool
	return nil
}

// Close releases the pool if one was opened.
func Close() {
	if DB != nil {
		DB.Close()
		DB = nil
	}
}
