package testing

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/teranos/QVIZ/db"
)

// CreateTestDB opens a migrated SQLite database in a per-test temp
// directory. Cleanup is registered via t.Cleanup().
func CreateTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.OpenWithMigrations(filepath.Join(t.TempDir(), "qviz_test.db"), nil)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	t.Cleanup(func() {
		conn.Close()
	})

	return conn
}
