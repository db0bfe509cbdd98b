package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // registers the postgres driver
)

// OpenPostgres opens a connection pool against a Postgres database URL.
// Postgres serializes concurrent writers itself, so one pool serves both
// reads and writes.
func OpenPostgres(databaseURL string, maxOpen int) (*sql.DB, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("open postgres: database URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if maxOpen <= 0 {
		maxOpen = 10
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen / 2)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := ping(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}
