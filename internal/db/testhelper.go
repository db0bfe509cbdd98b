package db

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
)

// OpenTestSQLite returns a migrated write/read pool pair backed by a file in
// t.TempDir(). Both pools are closed when the test ends.
func OpenTestSQLite(t *testing.T) (writeDB, readDB *sql.DB) {
	t.Helper()

	writeDB, readDB, err := OpenSQLitePair(filepath.Join(t.TempDir(), "access.sqlite"), 4)
	if err != nil {
		t.Fatalf("open test sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = readDB.Close()
		_ = writeDB.Close()
	})
	migrateForTest(t, writeDB, DialectSQLite)
	return writeDB, readDB
}

// accessTables lists every table in child-first order for truncation.
var accessTables = []string{
	"access_audit_log",
	"entity_permission_grants",
	"trackers",
	"subtracks",
	"tracks",
	"team_group_members",
	"team_groups",
	"team_members",
	"teams",
	"profiles",
}

// OpenTestPostgres connects to TEST_DATABASE_URL, migrates it and empties
// every access table before and after the test. The test is skipped when
// the variable is unset.
func OpenTestPostgres(t *testing.T) *sql.DB {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	pool, err := OpenPostgres(url, 8)
	if err != nil {
		t.Fatalf("open test postgres: %v", err)
	}
	migrateForTest(t, pool, DialectPostgres)

	truncate := func() {
		for _, table := range accessTables {
			if _, err := pool.Exec("DELETE FROM " + table); err != nil {
				t.Fatalf("empty %s: %v", table, err)
			}
		}
	}
	truncate()
	t.Cleanup(func() {
		truncate()
		_ = pool.Close()
	})
	return pool
}

func migrateForTest(t *testing.T, pool *sql.DB, d Dialect) {
	t.Helper()
	if err := RunMigrations(context.Background(), pool, d); err != nil {
		t.Fatalf("run %s migrations: %v", d, err)
	}
}
