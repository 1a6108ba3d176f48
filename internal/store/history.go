package store

import (
	"slices"
	"sync"

	"github.com/erazemk/lostfound/internal/model"
)

// History is the transition log, newest first.
type History struct {
	mu      sync.RWMutex
	entries []model.Transition
}

// NewHistory returns an empty log.
func NewHistory() *History {
	return &History{}
}

// Append records t at the head of the log.
func (h *History) Append(t model.Transition) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append([]model.Transition{t}, h.entries...)
}

// ForRecord returns the transitions of one record, newest first.
func (h *History) ForRecord(id string) []model.Transition {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var out []model.Transition
	for _, t := range h.entries {
		if t.RecordID == id {
			out = append(out, t)
		}
	}
	return out
}

// All returns every transition, newest first.
func (h *History) All() []model.Transition {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Clone(h.entries)
}

// Replace swaps in entries.
func (h *History) Replace(entries []model.Transition) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = slices.Clone(entries)
}

// Clear empties the log.
func (h *History) Clear() {
	h.Replace(nil)
}
