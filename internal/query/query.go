// Package query derives filtered, sorted views of a record partition.
package query

import (
	"slices"
	"strings"

	"github.com/erazemk/lostfound/internal/model"
)

// All disables the type, category and verification filters, like an
// empty value.
const All = "all"

// Verification filter values.
const (
	VerifiedAll        = All
	VerifiedOnly       = "verified"
	VerifiedUnverified = "unverified"
)

// Sort orders.
const (
	SortNewest = "newest"
	SortOldest = "oldest"
)

// Filter selects and orders records. Empty fields do not filter.
type Filter struct {
	Type     string
	Category string
	Verified string
	Search   string
	Sort     string
}

// Apply returns the records matching f, sorted by creation time. The input
// is not modified.
func Apply(records []model.Record, f Filter) []model.Record {
	search := strings.ToLower(strings.TrimSpace(f.Search))

	out := make([]model.Record, 0, len(records))
	for _, r := range records {
		if !unset(f.Type) && r.Type != f.Type {
			continue
		}
		if !unset(f.Category) && r.Category != f.Category {
			continue
		}
		switch f.Verified {
		case VerifiedOnly:
			if !r.Verified() {
				continue
			}
		case VerifiedUnverified:
			if r.Verified() {
				continue
			}
		}
		if search != "" && !matches(r, search) {
			continue
		}
		out = append(out, r.Clone())
	}

	oldest := f.Sort == SortOldest
	slices.SortStableFunc(out, func(a, b model.Record) int {
		if oldest {
			return a.CreatedAt.Compare(b.CreatedAt)
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}

func unset(v string) bool {
	return v == "" || v == All
}

func matches(r model.Record, needle string) bool {
	for _, field := range []string{r.Title, r.Category, r.Location, r.Description} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

// Categories returns the distinct non-empty categories in first-seen order.
func Categories(records []model.Record) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range records {
		if r.Category == "" || seen[r.Category] {
			continue
		}
		seen[r.Category] = true
		out = append(out, r.Category)
	}
	return out
}
