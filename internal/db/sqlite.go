// Package db opens the access store's connection pools and applies its
// embedded schema migrations.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver
)

// PoolMode selects how a SQLite pool is tuned.
type PoolMode string

const (
	// ModeWrite is a single-connection pool that takes the write lock on BEGIN,
	// so grant uniqueness checks and inserts never interleave.
	ModeWrite PoolMode = "write"
	// ModeRead is a multi-connection pool for access checks.
	ModeRead PoolMode = "read"
)

const defaultReadConns = 4

// sqlitePragmas apply to every connection in both modes.
var sqlitePragmas = map[string]string{
	"_journal_mode": "WAL",
	"_busy_timeout": "5000",
	"_synchronous":  "NORMAL",
	"_foreign_keys": "on",
}

// OpenSQLite opens a pool on the SQLite file at path. maxOpen sizes read
// pools (0 means 4) and is ignored for write pools.
func OpenSQLite(path string, mode PoolMode, maxOpen int) (*sql.DB, error) {
	switch mode {
	case ModeWrite:
		maxOpen = 1
	case ModeRead:
		if maxOpen <= 0 {
			maxOpen = defaultReadConns
		}
	default:
		return nil, fmt.Errorf("invalid SQLite mode %q: must be %q or %q", mode, ModeRead, ModeWrite)
	}

	pool, err := sql.Open("sqlite3", buildDSN(path, mode))
	if err != nil {
		return nil, fmt.Errorf("open sqlite (%s): %w", mode, err)
	}
	pool.SetMaxOpenConns(maxOpen)
	pool.SetMaxIdleConns(maxOpen)
	pool.SetConnMaxLifetime(time.Hour)

	if err := ping(pool); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("ping sqlite (%s): %w", mode, err)
	}
	return pool, nil
}

// OpenSQLitePair opens a write pool and a read pool over the same file.
// Mutations go through writeDB; resolver lookups through readDB.
func OpenSQLitePair(path string, readMaxOpen int) (writeDB, readDB *sql.DB, err error) {
	if writeDB, err = OpenSQLite(path, ModeWrite, 0); err != nil {
		return nil, nil, err
	}
	if readDB, err = OpenSQLite(path, ModeRead, readMaxOpen); err != nil {
		_ = writeDB.Close()
		return nil, nil, err
	}
	return writeDB, readDB, nil
}

func buildDSN(path string, mode PoolMode) string {
	params := url.Values{}
	for k, v := range sqlitePragmas {
		params.Set(k, v)
	}
	if mode == ModeWrite {
		params.Set("_txlock", "immediate")
	}
	return path + "?" + params.Encode()
}

func ping(pool *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return pool.PingContext(ctx)
}
