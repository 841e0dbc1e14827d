package engine

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // register pure-Go SQLite driver
)

// DefaultBusyTimeoutMillis is applied by OpenWithPragmas.
const DefaultBusyTimeoutMillis = 5000

// Open opens a SQLite database using the modernc.org/sqlite driver.
//
// For file-based databases, pass a path like "./db.sqlite". For in-memory
// databases, pass ":memory:".
func Open(dsn string) (*sql.DB, error) { return sql.Open("sqlite", dsn) }

// OpenWithPragmas opens dsn and switches it to WAL journaling with a busy
// timeout, which lets a checkpoint writer and status readers share a file.
func OpenWithPragmas(dsn string) (*sql.DB, error) {
	db, err := Open(dsn)
	if err != nil {
		return nil, err
	}
	pragmas := fmt.Sprintf(`PRAGMA journal_mode=WAL; PRAGMA busy_timeout=%d;`, DefaultBusyTimeoutMillis)
	if _, err := db.Exec(pragmas); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("engine: pragmas: %w", err)
	}
	return db, nil
}
