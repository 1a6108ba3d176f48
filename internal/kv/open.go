package kv

import (
	"context"
	"fmt"
)

// Driver names a persistence backend.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
	DriverMemory   Driver = "memory"
)

// Options selects and configures a backend.
type Options struct {
	Driver Driver
	// Path is the SQLite database file.
	Path string
	// DSN is the Postgres connection string.
	DSN string
}

// Open returns the adapter named by opts.Driver. An empty driver means SQLite.
func Open(ctx context.Context, opts Options) (Adapter, error) {
	switch opts.Driver {
	case DriverSQLite, "":
		if opts.Path == "" {
			return nil, fmt.Errorf("sqlite driver requires a path")
		}
		return OpenSQLite(opts.Path)
	case DriverPostgres:
		if opts.DSN == "" {
			return nil, fmt.Errorf("postgres driver requires a dsn")
		}
		return OpenPostgres(ctx, opts.DSN)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
	}
}
