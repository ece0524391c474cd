package db

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/QVIZ/errors"
)

func openTemp(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "qviz.db")
}

func TestOpen(t *testing.T) {
	t.Run("applies connection pragmas", func(t *testing.T) {
		dbPath := openTemp(t)

		conn, err := Open(dbPath, nil)
		require.NoError(t, err)
		defer conn.Close()

		var journalMode string
		require.NoError(t, conn.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
		assert.Equal(t, "wal", journalMode)

		var foreignKeys int
		require.NoError(t, conn.QueryRow("PRAGMA foreign_keys").Scan(&foreignKeys))
		assert.Equal(t, 1, foreignKeys)

		var busyTimeout int
		require.NoError(t, conn.QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout))
		assert.Equal(t, SQLiteBusyTimeoutMS, busyTimeout)
	})

	t.Run("creates the file on first open", func(t *testing.T) {
		dbPath := openTemp(t)
		_, err := os.Stat(dbPath)
		require.True(t, os.IsNotExist(err))

		conn, err := Open(dbPath, nil)
		require.NoError(t, err)
		defer conn.Close()

		_, err = os.Stat(dbPath)
		assert.NoError(t, err)
	})

	t.Run("unwritable path yields a wrapped error", func(t *testing.T) {
		conn, err := Open("/proc/nonexistent/qviz.db", nil)
		if err == nil && conn != nil {
			err = conn.Ping()
			conn.Close()
		}
		require.Error(t, err)
		assert.NotNil(t, errors.GetStack(err), "open errors carry stacks")
	})

	t.Run("accepts a logger", func(t *testing.T) {
		dbPath := openTemp(t)
		conn, err := Open(dbPath, zaptest.NewLogger(t).Sugar())
		require.NoError(t, err)
		conn.Close()
	})
}

func TestIsDatabaseClosed(t *testing.T) {
	assert.False(t, IsDatabaseClosed(nil))
	assert.False(t, IsDatabaseClosed(errors.New("disk I/O error")))
	assert.True(t, IsDatabaseClosed(ErrDatabaseClosed))
	assert.True(t, IsDatabaseClosed(errors.Wrap(ErrDatabaseClosed, "save spec")))

	dbPath := openTemp(t)
	conn, err := Open(dbPath, nil)
	require.NoError(t, err)
	conn.Close()

	_, err = conn.Exec("PRAGMA journal_mode")
	require.Error(t, err)
	assert.True(t, IsDatabaseClosed(err), "raw driver error should match by message")
}
