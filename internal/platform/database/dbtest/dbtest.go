// Package dbtest opens migrated throwaway databases for tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"lenderhub/internal/platform/config"
	"lenderhub/internal/platform/database"
)

// NewSQLite returns a migrated SQLite database in a temp dir. It is closed
// when the test ends.
func NewSQLite(t testing.TB) *database.DB {
	t.Helper()

	db, err := database.Open(config.DatabaseConfig{
		Driver:         database.DialectSQLite,
		URL:            "file:" + filepath.Join(t.TempDir(), "lenderhub.db"),
		MaxConnections: 4,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(db, database.DirectionUp); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return db
}
