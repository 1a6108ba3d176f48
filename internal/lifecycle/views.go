package lifecycle

import (
	"context"
	"fmt"

	"github.com/erazemk/lostfound/internal/export"
	"github.com/erazemk/lostfound/internal/model"
	"github.com/erazemk/lostfound/internal/query"
	"github.com/erazemk/lostfound/internal/store"
)

// List returns a filtered, sorted view of one partition.
func (e *Engine) List(_ context.Context, p model.Partition, f query.Filter) ([]model.Record, error) {
	records, err := e.state.Records.List(p)
	if err != nil {
		return nil, err
	}
	return query.Apply(records, f), nil
}

// Find returns a record and the partition holding it.
func (e *Engine) Find(_ context.Context, id string) (model.Record, model.Partition, error) {
	rec, p, ok := e.state.Records.Find(id)
	if !ok {
		return model.Record{}, "", fmt.Errorf("record %s: %w", id, model.ErrNotFound)
	}
	return rec, p, nil
}

// Counts returns the size of each partition.
func (e *Engine) Counts(_ context.Context) map[model.Partition]int {
	return e.state.Records.Counts()
}

// Categories returns the distinct categories of the active list.
func (e *Engine) Categories(_ context.Context) []string {
	records, _ := e.state.Records.List(model.PartitionActive)
	return query.Categories(records)
}

// History returns the transitions of one record, newest first.
func (e *Engine) History(_ context.Context, id string) []model.Transition {
	return e.state.History.ForRecord(id)
}

// ExportAll renders every record of every partition as CSV.
func (e *Engine) ExportAll(_ context.Context) ([]byte, error) {
	snap := e.state.Records.Snapshot()
	all := make([]model.Record, 0, len(snap.Active)+len(snap.Claimed)+len(snap.Deleted))
	all = append(all, snap.Active...)
	all = append(all, snap.Claimed...)
	all = append(all, snap.Deleted...)
	return export.CSV(all)
}

// ExportFiltered renders the filtered active view as CSV.
func (e *Engine) ExportFiltered(ctx context.Context, f query.Filter) ([]byte, error) {
	records, err := e.List(ctx, model.PartitionActive, f)
	if err != nil {
		return nil, err
	}
	return export.CSV(records)
}

// Theme returns the stored theme.
func (e *Engine) Theme(_ context.Context) string {
	return e.state.Theme()
}

// SetTheme stores the theme, light or dark.
func (e *Engine) SetTheme(ctx context.Context, theme string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.state.SetTheme(theme); err != nil {
		return err
	}
	return e.persist(ctx, store.KeyTheme)
}
