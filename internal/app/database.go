package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/SharedMindsApp/SharedMindsMobileApp-sub009/internal/config"
	internaldb "github.com/SharedMindsApp/SharedMindsMobileApp-sub009/internal/db"
)

// Database is an open store: a write pool and a read pool. For Postgres
// both point at the same pool.
type Database struct {
	WriteDB *sql.DB
	ReadDB  *sql.DB
	Dialect internaldb.Dialect
}

// OpenDatabase opens the store named by cfg and applies pending migrations.
func OpenDatabase(ctx context.Context, cfg *config.Config) (*Database, error) {
	dialect, err := internaldb.ParseDialect(cfg.DBDriver)
	if err != nil {
		return nil, err
	}

	d := &Database{Dialect: dialect}
	switch dialect {
	case internaldb.DialectPostgres:
		pg, err := internaldb.OpenPostgres(cfg.DatabaseURL, 0)
		if err != nil {
			return nil, err
		}
		d.WriteDB, d.ReadDB = pg, pg
	default:
		d.WriteDB, d.ReadDB, err = internaldb.OpenSQLitePair(cfg.DBPath, cfg.DBReadPool)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.DBPath, err)
		}
	}

	if err := internaldb.RunMigrations(ctx, d.WriteDB, dialect); err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return d, nil
}

// Close closes both pools.
func (d *Database) Close() error {
	if d.ReadDB == d.WriteDB {
		return d.WriteDB.Close()
	}
	return errors.Join(d.ReadDB.Close(), d.WriteDB.Close())
}
