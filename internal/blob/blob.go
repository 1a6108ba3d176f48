// Package blob stores image bytes under opaque keys.
package blob

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrExists is returned by Put when the key is already taken. Keys are
	// content addressed, so callers usually treat it as success.
	ErrExists = errors.New("blob already exists")
	// ErrNotFound is returned by Get for an unknown key.
	ErrNotFound = errors.New("blob not found")
)

// Store is a create-only object store.
type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// Driver names a blob backend.
type Driver string

const (
	DriverFilesystem Driver = "fs"
	DriverS3         Driver = "s3"
	DriverMemory     Driver = "memory"
)

// Options selects and configures a backend.
type Options struct {
	Driver Driver
	// Root is the directory used by the fs driver.
	Root string
	S3   S3Config
}

// Open returns the store named by opts.Driver. An empty driver means fs.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case DriverFilesystem, "":
		return NewFilesystem(opts.Root)
	case DriverS3:
		return NewS3(ctx, opts.S3)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %q", opts.Driver)
	}
}

// checkKey rejects keys that are empty, absolute or escape the root.
func checkKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("empty key")
	}
	if strings.HasPrefix(key, "/") {
		return fmt.Errorf("invalid absolute key %q", key)
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." {
			return fmt.Errorf("invalid key %q", key)
		}
	}
	return nil
}
