// Package lifecycle applies the lost-and-found state transitions: it
// validates input, authorizes the acting session, mutates the record,
// identity and session stores and persists the touched keys.
package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/erazemk/lostfound/internal/kv"
	"github.com/erazemk/lostfound/internal/model"
	"github.com/erazemk/lostfound/internal/store"
)

// Confirmer gates destructive or unusual operations. Returning false
// aborts the operation before anything changes.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool {
	return f(ctx, prompt)
}

// Observer receives operation outcomes and partition sizes.
type Observer interface {
	Observe(ctx context.Context, op string, success bool, d time.Duration)
	Partitions(counts map[model.Partition]int)
}

// Confirmation prompts.
const (
	PromptFutureDate    = "Date is in the future. Continue?"
	PromptDelete        = "Delete this item?"
	PromptDeleteClaimed = "Delete from inventory?"
	PromptPurge         = "Permanently delete?"
	PromptClearAll      = "Clear all data?"
)

// Engine owns the application state. Mutations are serialized; reads see
// a consistent copy of each store.
type Engine struct {
	mu sync.Mutex

	state      *store.State
	adapter    kv.Adapter
	now        func() time.Time
	confirm    Confirmer
	observer   Observer
	logger     *slog.Logger
	bcryptCost int

	degraded atomic.Bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithConfirmer sets the confirmation gate. Without one every gate passes.
func WithConfirmer(c Confirmer) Option {
	return func(e *Engine) { e.confirm = c }
}

// WithObserver sets the metrics sink.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithBcryptCost sets the password hashing cost.
func WithBcryptCost(cost int) Option {
	return func(e *Engine) { e.bcryptCost = cost }
}

// New returns an engine with empty state backed by adapter. Call Load to
// read persisted state. A nil adapter keeps everything in memory.
func New(adapter kv.Adapter, opts ...Option) *Engine {
	if adapter == nil {
		adapter = kv.NewMemory()
	}
	e := &Engine{
		state:   store.NewState(),
		adapter: adapter,
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Load replaces the in-memory state with the persisted one. A failed read
// switches the engine to in-memory mode and is returned as a persistence
// error; the engine stays usable with empty state.
func (e *Engine) Load(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.state.Load(ctx, e.adapter); err != nil {
		e.degrade(err)
		return err
	}
	if e.observer != nil {
		e.observer.Partitions(e.state.Records.Counts())
	}
	return nil
}

// Degraded reports whether persistence has failed. Once degraded, state
// changes are kept in memory only.
func (e *Engine) Degraded() bool {
	return e.degraded.Load()
}

func (e *Engine) degrade(err error) {
	if e.degraded.CompareAndSwap(false, true) {
		e.logger.Warn("persistence failed, continuing in memory only", "error", err)
	}
}

// persist writes the given keys. On failure the in-memory change stands,
// the engine degrades and a *model.PersistenceError is returned. Once
// degraded, writes are skipped.
func (e *Engine) persist(ctx context.Context, keys ...string) error {
	if e.degraded.Load() {
		return nil
	}
	if err := e.state.Save(ctx, e.adapter, keys...); err != nil {
		var pe *model.PersistenceError
		if !errors.As(err, &pe) {
			err = &model.PersistenceError{Key: keys[0], Err: err}
		}
		e.degrade(err)
		return err
	}
	return nil
}

// confirmed asks the confirmer. A nil confirmer always proceeds.
func (e *Engine) confirmed(ctx context.Context, prompt string) bool {
	if e.confirm == nil {
		return true
	}
	return e.confirm.Confirm(ctx, prompt)
}

// track runs fn under the engine lock and reports the outcome. A
// persistence error still counts as success since the change was applied.
func track[T any](ctx context.Context, e *Engine, op string, fn func() (T, error)) (T, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	v, err := fn()
	e.observe(ctx, op, err == nil || errors.Is(err, model.ErrPersistence), time.Since(start))
	return v, err
}

func (e *Engine) observe(ctx context.Context, op string, success bool, d time.Duration) {
	if e.observer == nil {
		return
	}
	e.observer.Observe(ctx, op, success, d)
	e.observer.Partitions(e.state.Records.Counts())
}

type sessionKey struct{}

type sessionValue struct {
	s *model.Session
}

// WithSession attaches the acting session to ctx. A nil session marks the
// call as anonymous. Without it the engine uses the stored session.
func WithSession(ctx context.Context, s *model.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sessionValue{s: s})
}

// session resolves the acting session for a call.
func (e *Engine) session(ctx context.Context) *model.Session {
	if v, ok := ctx.Value(sessionKey{}).(sessionValue); ok {
		return v.s
	}
	return e.state.Sessions.Current()
}

func actor(s *model.Session) string {
	if s == nil {
		return model.Anonymous
	}
	return s.Username
}

// partitionKey maps a partition to its persisted key.
func partitionKey(p model.Partition) string {
	switch p {
	case model.PartitionClaimed:
		return store.KeyClaimed
	case model.PartitionDeleted:
		return store.KeyDeleted
	default:
		return store.KeyItems
	}
}
