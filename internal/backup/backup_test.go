package backup

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/lostfound/internal/kv"
)

var now = time.Date(2025, 11, 25, 12, 0, 0, 0, time.UTC)

func seeded(t *testing.T) *kv.Memory {
	t.Helper()
	ctx := context.Background()
	m := kv.NewMemory()
	require.NoError(t, m.Set(ctx, "items", []byte(`[{"id":"1","title":"Black Wallet"}]`)))
	require.NoError(t, m.Set(ctx, "users", []byte(`[]`)))
	require.NoError(t, m.Set(ctx, "theme", []byte(`"light"`)))
	return m
}

func TestWriteRead(t *testing.T) {
	ctx := context.Background()
	src := seeded(t)

	var buf bytes.Buffer
	written, err := Write(ctx, &buf, src, []string{"items", "claimed", "users", "theme"}, now)
	require.NoError(t, err)
	// claimed was never written and is skipped.
	assert.Equal(t, []string{"items", "theme", "users"}, written.Keys())

	dst := kv.NewMemory()
	read, err := Read(ctx, &buf, dst, nil)
	require.NoError(t, err)
	assert.Equal(t, now.Unix(), read.CreatedAt)
	assert.Equal(t, []string{"items", "theme", "users"}, dst.Keys())

	got, err := dst.Get(ctx, "items")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"1","title":"Black Wallet"}]`, string(got))
}

func TestReadRemovesKeysMissingFromDump(t *testing.T) {
	ctx := context.Background()
	keys := []string{"items", "claimed", "users", "theme", "session"}

	var buf bytes.Buffer
	_, err := Write(ctx, &buf, seeded(t), keys, now)
	require.NoError(t, err)

	dst := kv.NewMemory()
	require.NoError(t, dst.Set(ctx, "session", []byte(`{"username":"mallory","role":"admin"}`)))
	require.NoError(t, dst.Set(ctx, "claimed", []byte(`[{"id":"9"}]`)))
	require.NoError(t, dst.Set(ctx, "unrelated", []byte(`1`)))

	_, err = Read(ctx, &buf, dst, keys)
	require.NoError(t, err)

	// Listed keys absent from the dump are gone; unlisted keys are untouched.
	assert.Equal(t, []string{"items", "theme", "unrelated", "users"}, dst.Keys())
	_, err = dst.Get(ctx, "session")
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

func TestWriteIsDeterministic(t *testing.T) {
	ctx := context.Background()
	keys := []string{"theme", "items", "users"}

	var a, b bytes.Buffer
	_, err := Write(ctx, &a, seeded(t), keys, now)
	require.NoError(t, err)
	_, err = Write(ctx, &b, seeded(t), keys, now)
	require.NoError(t, err)

	assert.Equal(t, a.Bytes(), b.Bytes())
}

func TestReadRejectsGarbage(t *testing.T) {
	ctx := context.Background()
	dst := kv.NewMemory()

	_, err := Read(ctx, bytes.NewReader([]byte("not a dump")), dst, nil)
	require.Error(t, err)
	assert.Empty(t, dst.Keys())
}

func TestReadRejectsUnknownVersion(t *testing.T) {
	ctx := context.Background()

	raw, err := encMode.Marshal(Dump{Version: 99, Entries: map[string][]byte{"items": []byte("[]")}})
	require.NoError(t, err)

	dst := kv.NewMemory()
	_, err = Read(ctx, bytes.NewReader(encoder.EncodeAll(raw, nil)), dst, nil)
	require.ErrorContains(t, err, "unsupported dump version")
	assert.Empty(t, dst.Keys())
}
