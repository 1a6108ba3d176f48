// Package backup dumps persisted state to a compressed, deterministic CBOR
// document and restores it.
package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"

	"github.com/erazemk/lostfound/internal/kv"
)

// Version is the current dump format.
const Version = 1

// Dump is the decoded content of a backup.
type Dump struct {
	Version   int               `cbor:"1,keyasint"`
	CreatedAt int64             `cbor:"2,keyasint"` // unix seconds
	Entries   map[string][]byte `cbor:"3,keyasint"`
}

// Keys returns the dumped keys in sorted order.
func (d Dump) Keys() []string {
	keys := make([]string, 0, len(d.Entries))
	for k := range d.Entries {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
	encoder *zstd.Encoder
	decoder *zstd.Decoder
)

func init() {
	var err error

	// Core Deterministic Encoding: the same state always dumps to the same bytes.
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("backup: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("backup: CBOR decoder initialization failed: " + err.Error())
	}

	encoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("backup: zstd encoder initialization failed: " + err.Error())
	}
	decoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("backup: zstd decoder initialization failed: " + err.Error())
	}
}

// Write dumps the given keys from a to w. Absent keys are skipped.
func Write(ctx context.Context, w io.Writer, a kv.Adapter, keys []string, now time.Time) (Dump, error) {
	d := Dump{Version: Version, CreatedAt: now.Unix(), Entries: make(map[string][]byte)}
	for _, key := range keys {
		value, err := a.Get(ctx, key)
		if errors.Is(err, kv.ErrNotFound) {
			continue
		}
		if err != nil {
			return Dump{}, fmt.Errorf("reading %s: %w", key, err)
		}
		d.Entries[key] = value
	}

	raw, err := encMode.Marshal(d)
	if err != nil {
		return Dump{}, fmt.Errorf("encoding dump: %w", err)
	}
	if _, err := w.Write(encoder.EncodeAll(raw, nil)); err != nil {
		return Dump{}, fmt.Errorf("writing dump: %w", err)
	}
	return d, nil
}

// Decode reads and validates a dump from r without applying it.
func Decode(r io.Reader) (Dump, error) {
	compressed, err := io.ReadAll(r)
	if err != nil {
		return Dump{}, fmt.Errorf("reading dump: %w", err)
	}
	raw, err := decoder.DecodeAll(compressed, nil)
	if err != nil {
		return Dump{}, fmt.Errorf("decompressing dump: %w", err)
	}

	var d Dump
	if err := decMode.Unmarshal(raw, &d); err != nil {
		return Dump{}, fmt.Errorf("decoding dump: %w", err)
	}
	if d.Version != Version {
		return Dump{}, fmt.Errorf("unsupported dump version %d", d.Version)
	}
	return d, nil
}

// Apply writes every dumped entry to a in one batch. Keys listed in keys but
// missing from the dump are removed in the same batch, so a holds exactly
// the dumped state afterwards.
func Apply(ctx context.Context, a kv.Adapter, d Dump, keys []string) error {
	entries := make([]kv.Entry, 0, len(d.Entries)+len(keys))
	for _, key := range d.Keys() {
		entries = append(entries, kv.Entry{Key: key, Value: d.Entries[key]})
	}
	for _, key := range keys {
		if _, ok := d.Entries[key]; !ok {
			entries = append(entries, kv.Entry{Key: key, Remove: true})
		}
	}
	if err := kv.SetAll(ctx, a, entries); err != nil {
		return fmt.Errorf("restoring dump: %w", err)
	}
	return nil
}

// Read decodes a dump from r and applies it to a.
func Read(ctx context.Context, r io.Reader, a kv.Adapter, keys []string) (Dump, error) {
	d, err := Decode(r)
	if err != nil {
		return Dump{}, err
	}
	if err := Apply(ctx, a, d, keys); err != nil {
		return Dump{}, err
	}
	return d, nil
}
