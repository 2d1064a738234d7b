// internal/database/postgres.go
package database

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the global connection pool. It stays nil when DATABASE_URL is unset
// and round recording is skipped.
var DB *pgxpool.Pool

// Connect opens the pool from DATABASE_URL. A missing URL is not an error;
// the server simply runs without round recording.
func Connect(ctx context.Context) error {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		return nil
	}
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return fmt.Errorf("unable to create connection pool: %w", err)
	}
	DB = pool
	return nil
}

// Enabled reports whether round recording is configured.
func Enabled() bool {
	return DB != nil
}
