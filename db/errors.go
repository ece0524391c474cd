package db

import (
	"strings"

	"github.com/teranos/QVIZ/errors"
)

// ErrDatabaseClosed marks operations attempted after the connection was
// closed, which happens when an HTTP request races graceful shutdown.
var ErrDatabaseClosed = errors.New("database is closed")

// IsDatabaseClosed reports whether err means the connection is gone. The
// sql package and the sqlite driver return their own unwrappable error
// values for this, so a message check backs up the sentinel match.
func IsDatabaseClosed(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDatabaseClosed) {
		return true
	}
	return strings.Contains(err.Error(), "database is closed")
}
