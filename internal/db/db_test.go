package db

import (
	"path/filepath"
	"testing"
)

func TestEnsureSchemaIdempotent(t *testing.T) {
	database := NewTestDB(t)

	if err := EnsureSchema(database); err != nil {
		t.Fatalf("second EnsureSchema: %v", err)
	}

	if _, err := database.Exec(`INSERT INTO state (key, value) VALUES ('k', 'v')`); err != nil {
		t.Fatalf("inserting: %v", err)
	}

	var value string
	if err := database.QueryRow(`SELECT value FROM state WHERE key = 'k'`).Scan(&value); err != nil {
		t.Fatalf("selecting: %v", err)
	}
	if value != "v" {
		t.Errorf("expected v, got %q", value)
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lostfound.db")

	database, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer database.Close()

	if err := EnsureSchema(database); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
}
