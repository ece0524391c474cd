package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate(t *testing.T) {
	t.Run("builds the specs schema", func(t *testing.T) {
		conn, err := Open(filepath.Join(t.TempDir(), "qviz.db"), nil)
		require.NoError(t, err)
		defer conn.Close()

		require.NoError(t, Migrate(conn, nil))

		for _, table := range []string{"schema_migrations", "specs"} {
			var count int
			err := conn.QueryRow(
				"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table,
			).Scan(&count)
			require.NoError(t, err)
			assert.Equal(t, 1, count, "table %s should exist", table)
		}
	})

	t.Run("records every version", func(t *testing.T) {
		conn, err := Open(filepath.Join(t.TempDir(), "qviz.db"), nil)
		require.NoError(t, err)
		defer conn.Close()

		require.NoError(t, Migrate(conn, nil))

		rows, err := conn.Query("SELECT version FROM schema_migrations ORDER BY version")
		require.NoError(t, err)
		defer rows.Close()

		var versions []string
		for rows.Next() {
			var v string
			require.NoError(t, rows.Scan(&v))
			versions = append(versions, v)
		}
		require.NoError(t, rows.Err())
		assert.Equal(t, []string{"000", "001"}, versions)
	})

	t.Run("is idempotent", func(t *testing.T) {
		conn, err := Open(filepath.Join(t.TempDir(), "qviz.db"), nil)
		require.NoError(t, err)
		defer conn.Close()

		require.NoError(t, Migrate(conn, nil))
		require.NoError(t, Migrate(conn, nil))

		var count int
		require.NoError(t, conn.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
		assert.Equal(t, 2, count, "reruns must not duplicate bookkeeping rows")
	})

	t.Run("fails on a closed connection", func(t *testing.T) {
		conn, err := Open(filepath.Join(t.TempDir(), "qviz.db"), nil)
		require.NoError(t, err)
		conn.Close()

		require.Error(t, Migrate(conn, nil))
	})
}

func TestOpenWithMigrations(t *testing.T) {
	conn, err := OpenWithMigrations(filepath.Join(t.TempDir(), "qviz.db"), nil)
	require.NoError(t, err)
	defer conn.Close()

	// Schema is usable immediately
	_, err = conn.Exec(
		"INSERT INTO specs (id, slug, title, payload) VALUES (?, ?, ?, ?)",
		"test-id", "test-slug", "smoke", []byte("{}"),
	)
	assert.NoError(t, err)
}
