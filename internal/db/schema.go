package db

import (
	"database/sql"
	"fmt"
)

// schema holds the key-value snapshot table. Each key stores one JSON
// document (a partition, the user table, the session and so on).
const schema = `
CREATE TABLE IF NOT EXISTS state (
    key        TEXT PRIMARY KEY,
    value      BLOB NOT NULL,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
