package commands

import (
	"database/sql"

	"github.com/teranos/QVIZ/am"
	"github.com/teranos/QVIZ/db"
	"github.com/teranos/QVIZ/errors"
	"github.com/teranos/QVIZ/logger"
)

// openDatabase opens and migrates a database at the given path. An empty
// path resolves through am config, falling back to ./qviz.db.
func openDatabase(dbPath string) (*sql.DB, error) {
	if dbPath == "" {
		path, err := am.GetDatabasePath()
		if err != nil {
			return nil, errors.Wrap(err, "failed to get database path")
		}
		if path == "" {
			dbPath = "qviz.db"
		} else {
			dbPath = path
		}
	}

	database, err := db.OpenWithMigrations(dbPath, logger.Logger)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database at %s", dbPath)
	}

	return database, nil
}

// resolveDatabasePath mirrors openDatabase's path resolution so the banner
// can show the path actually used.
func resolveDatabasePath(dbPath string) string {
	if dbPath != "" {
		return dbPath
	}
	path, err := am.GetDatabasePath()
	if err != nil || path == "" {
		return "qviz.db"
	}
	return path
}
