package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"github.com/erazemk/lostfound/internal/db"
)

type dialect struct {
	get    string
	upsert string
	delete string
}

var sqliteDialect = dialect{
	get: `SELECT value FROM state WHERE key = ?`,
	upsert: `INSERT INTO state (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
	delete: `DELETE FROM state WHERE key = ?`,
}

var postgresDialect = dialect{
	get: `SELECT value FROM state WHERE key = $1`,
	upsert: `INSERT INTO state (key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT(key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
	delete: `DELETE FROM state WHERE key = $1`,
}

const postgresSchema = `CREATE TABLE IF NOT EXISTS state (
	key        TEXT PRIMARY KEY,
	value      BYTEA NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// SQL stores keys in the state table of a SQLite or Postgres database.
type SQL struct {
	db *sql.DB
	d  dialect
}

var (
	_ Adapter = (*SQL)(nil)
	_ Batcher = (*SQL)(nil)
)

// NewSQLite wraps an already opened SQLite database. The schema must exist.
func NewSQLite(database *sql.DB) *SQL {
	return &SQL{db: database, d: sqliteDialect}
}

// OpenSQLite opens the SQLite file at path and ensures the schema.
func OpenSQLite(path string) (*SQL, error) {
	database, err := db.Open(path)
	if err != nil {
		return nil, err
	}
	if err := db.EnsureSchema(database); err != nil {
		database.Close()
		return nil, err
	}
	return NewSQLite(database), nil
}

// OpenPostgres connects to Postgres through the pgx driver and ensures the state table.
func OpenPostgres(ctx context.Context, dsn string) (*SQL, error) {
	database, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := database.PingContext(ctx); err != nil {
		database.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := database.ExecContext(ctx, postgresSchema); err != nil {
		database.Close()
		return nil, fmt.Errorf("ensure state table: %w", err)
	}
	return &SQL{db: database, d: postgresDialect}, nil
}

// Get returns the value stored under key.
func (s *SQL) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, s.d.get, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting %s: %w", key, err)
	}
	return value, nil
}

// Set upserts a single key.
func (s *SQL) Set(ctx context.Context, key string, value []byte) error {
	if _, err := s.db.ExecContext(ctx, s.d.upsert, key, value); err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}
	return nil
}

// SetAll upserts or deletes every entry inside one transaction.
func (s *SQL) SetAll(ctx context.Context, entries []Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, e := range entries {
		if e.Remove {
			if _, err := tx.ExecContext(ctx, s.d.delete, e.Key); err != nil {
				return fmt.Errorf("delete %s: %w", e.Key, err)
			}
			continue
		}
		if _, err := tx.ExecContext(ctx, s.d.upsert, e.Key, e.Value); err != nil {
			return fmt.Errorf("upsert %s: %w", e.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *SQL) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, s.d.delete, key); err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQL) Close() error {
	return s.db.Close()
}
