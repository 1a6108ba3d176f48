package lifecycle

import (
	"context"
	"fmt"
	"io"

	"github.com/erazemk/lostfound/internal/backup"
	"github.com/erazemk/lostfound/internal/kv"
	"github.com/erazemk/lostfound/internal/model"
	"github.com/erazemk/lostfound/internal/store"
)

// PromptLoad gates replacing the stored state with a backup.
const PromptLoad = "Replace all data with the backup?"

// Dump writes every persisted key to w. Admin only, since the dump carries
// password hashes and the token signing secret.
func (e *Engine) Dump(ctx context.Context, w io.Writer) (backup.Dump, error) {
	return track(ctx, e, "dump", func() (backup.Dump, error) {
		sess := e.session(ctx)
		if err := requireAdmin(sess, "dumping data"); err != nil {
			return backup.Dump{}, err
		}
		d, err := backup.Write(ctx, w, e.adapter, store.AllKeys, e.now())
		if err != nil {
			return backup.Dump{}, err
		}
		e.logger.Info("state dumped", "keys", len(d.Entries), "user", sess.Username)
		return d, nil
	})
}

// LoadDump replaces the stored and in-memory state with the dump read
// from r. Keys missing from the dump are removed. Admin only. A dump whose
// state would not load is rejected before anything is written.
func (e *Engine) LoadDump(ctx context.Context, r io.Reader) (backup.Dump, error) {
	return track(ctx, e, "load", func() (backup.Dump, error) {
		sess := e.session(ctx)
		if err := requireAdmin(sess, "loading a backup"); err != nil {
			return backup.Dump{}, err
		}

		d, err := backup.Decode(r)
		if err != nil {
			return backup.Dump{}, err
		}

		staged := kv.NewMemory()
		if err := backup.Apply(ctx, staged, d, nil); err != nil {
			return backup.Dump{}, err
		}
		if err := store.NewState().Load(ctx, staged); err != nil {
			return backup.Dump{}, &model.ValidationError{Field: "backup", Message: "backup is not loadable: " + err.Error()}
		}

		if !e.confirmed(ctx, PromptLoad) {
			return backup.Dump{}, fmt.Errorf("load: %w", model.ErrAborted)
		}

		if err := backup.Apply(ctx, e.adapter, d, store.AllKeys); err != nil {
			return backup.Dump{}, err
		}
		if err := e.state.Load(ctx, staged); err != nil {
			return backup.Dump{}, err
		}
		e.logger.Warn("state replaced from backup", "keys", len(d.Entries), "user", sess.Username)
		return d, nil
	})
}
