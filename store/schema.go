package store

import (
	"database/sql"
)

const checkpointsSchema = `
CREATE TABLE IF NOT EXISTS checkpoints (
    id         TEXT PRIMARY KEY,
    body       BLOB NOT NULL,
    updated_at INTEGER NOT NULL
);
`

// EnsureSchema creates the checkpoints table in the provided database if it
// does not already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(checkpointsSchema)
	return err
}
