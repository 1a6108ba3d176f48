package blob

import (
	"context"
	"errors"
	"testing"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	fsStore, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("NewFilesystem: %v", err)
	}
	return map[string]Store{
		"memory": NewMemory(),
		"fs":     fsStore,
	}
}

func TestStorePutGetDelete(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Get(ctx, "images/a.jpg"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}

			if err := s.Put(ctx, "images/a.jpg", []byte("jpeg")); err != nil {
				t.Fatalf("Put: %v", err)
			}
			if err := s.Put(ctx, "images/a.jpg", []byte("other")); !errors.Is(err, ErrExists) {
				t.Errorf("expected ErrExists, got %v", err)
			}

			data, err := s.Get(ctx, "images/a.jpg")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if string(data) != "jpeg" {
				t.Errorf("expected original bytes, got %q", data)
			}

			if err := s.Delete(ctx, "images/a.jpg"); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if _, err := s.Get(ctx, "images/a.jpg"); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound after delete, got %v", err)
			}
			if err := s.Delete(ctx, "images/a.jpg"); err != nil {
				t.Errorf("deleting a missing blob: %v", err)
			}
		})
	}
}

func TestStoreRejectsBadKeys(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		for _, key := range []string{"", "  ", "/etc/passwd", "../escape", "images/../../x"} {
			if err := s.Put(ctx, key, []byte("x")); err == nil {
				t.Errorf("%s: expected error for key %q", name, key)
			}
		}
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Options{Driver: DriverMemory})
	if err != nil {
		t.Fatalf("Open memory: %v", err)
	}
	if _, ok := s.(*Memory); !ok {
		t.Errorf("expected *Memory, got %T", s)
	}

	s, err = Open(ctx, Options{Root: t.TempDir()})
	if err != nil {
		t.Fatalf("Open fs: %v", err)
	}
	if _, ok := s.(*Filesystem); !ok {
		t.Errorf("expected *Filesystem, got %T", s)
	}

	if _, err := Open(ctx, Options{Driver: DriverS3}); err == nil {
		t.Error("expected error for s3 without a bucket")
	}
	if _, err := Open(ctx, Options{Driver: "ftp"}); err == nil {
		t.Error("expected error for unknown driver")
	}
}
