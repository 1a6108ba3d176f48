// Package kv provides the key-value persistence adapter that backs the
// lost-and-found state. Values are opaque byte slices, usually JSON documents.
package kv

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when a key has never been written or was deleted.
var ErrNotFound = errors.New("key not found")

// Adapter is a minimal string-keyed store.
type Adapter interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Entry is a single key-value pair written by SetAll. A Remove entry
// deletes Key instead and ignores Value.
type Entry struct {
	Key    string
	Value  []byte
	Remove bool
}

// Batcher is implemented by adapters that can write several keys atomically.
type Batcher interface {
	SetAll(ctx context.Context, entries []Entry) error
}

// SetAll writes entries in one batch when the adapter supports it and falls
// back to sequential writes otherwise. The sequential path stops at the first
// failing key.
func SetAll(ctx context.Context, a Adapter, entries []Entry) error {
	if b, ok := a.(Batcher); ok {
		return b.SetAll(ctx, entries)
	}
	for _, e := range entries {
		if e.Remove {
			if err := a.Delete(ctx, e.Key); err != nil {
				return fmt.Errorf("deleting %s: %w", e.Key, err)
			}
			continue
		}
		if err := a.Set(ctx, e.Key, e.Value); err != nil {
			return fmt.Errorf("setting %s: %w", e.Key, err)
		}
	}
	return nil
}
