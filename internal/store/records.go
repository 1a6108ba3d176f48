package store

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/lostfound/internal/model"
)

// Snapshot is a copy of all three partitions, newest first.
type Snapshot struct {
	Active  []model.Record
	Claimed []model.Record
	Deleted []model.Record
}

// Records holds the active, claimed and deleted partitions. An id lives in
// at most one partition. Every method either applies fully or leaves the
// partitions untouched, and returned records are copies.
type Records struct {
	mu      sync.RWMutex
	active  []model.Record
	claimed []model.Record
	deleted []model.Record
}

// NewRecords returns an empty record store.
func NewRecords() *Records {
	return &Records{}
}

func (s *Records) partition(p model.Partition) (*[]model.Record, error) {
	switch p {
	case model.PartitionActive:
		return &s.active, nil
	case model.PartitionClaimed:
		return &s.claimed, nil
	case model.PartitionDeleted:
		return &s.deleted, nil
	default:
		return nil, fmt.Errorf("unknown partition %q", p)
	}
}

// locate returns the partition and index holding id.
func (s *Records) locate(id string) (model.Partition, int, bool) {
	for _, p := range []model.Partition{model.PartitionActive, model.PartitionClaimed, model.PartitionDeleted} {
		list, _ := s.partition(p)
		if i := indexOf(*list, id); i >= 0 {
			return p, i, true
		}
	}
	return "", -1, false
}

func indexOf(list []model.Record, id string) int {
	return slices.IndexFunc(list, func(r model.Record) bool { return r.ID == id })
}

func prepend(list []model.Record, rec model.Record) []model.Record {
	return append([]model.Record{rec}, list...)
}

// take removes and returns the record with id from the named partition.
func (s *Records) take(p model.Partition, id string) (model.Record, error) {
	list, err := s.partition(p)
	if err != nil {
		return model.Record{}, err
	}
	i := indexOf(*list, id)
	if i < 0 {
		return model.Record{}, fmt.Errorf("record %s in %s: %w", id, p, model.ErrNotFound)
	}
	rec := (*list)[i]
	*list = slices.Delete(slices.Clone(*list), i, i+1)
	return rec, nil
}

// InsertActive prepends rec to the active partition. A missing id or
// creation time is assigned. An id already held by any partition is rejected.
func (s *Records) InsertActive(rec model.Record, now time.Time) (model.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec = rec.Clone()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if _, _, ok := s.locate(rec.ID); ok {
		return model.Record{}, &model.ValidationError{Field: "id", Message: fmt.Sprintf("record %s already exists", rec.ID)}
	}

	s.active = prepend(s.active, rec)
	return rec.Clone(), nil
}

// MoveActiveToClaimed moves an active record to the claimed partition and
// attaches claim. A verification left from an earlier claim is dropped, as
// it vouched for a different claimant.
func (s *Records) MoveActiveToClaimed(id string, claim model.Claim) (model.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.take(model.PartitionActive, id)
	if err != nil {
		return model.Record{}, err
	}
	rec = rec.Clone()
	rec.Claim = &claim
	rec.Verification = nil
	s.claimed = prepend(s.claimed, rec)
	return rec.Clone(), nil
}

// MoveToDeleted moves a record from the active or claimed partition to the
// bin and stamps its deletion time. Claim and verification are kept.
func (s *Records) MoveToDeleted(id string, from model.Partition, at time.Time) (model.Record, error) {
	if from != model.PartitionActive && from != model.PartitionClaimed {
		return model.Record{}, fmt.Errorf("cannot delete from %s", from)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.take(from, id)
	if err != nil {
		return model.Record{}, err
	}
	rec = rec.Clone()
	rec.DeletedAt = &at
	s.deleted = prepend(s.deleted, rec)
	return rec.Clone(), nil
}

// Restore moves a deleted record back to the active partition. Claim and
// verification fields stay on the record.
func (s *Records) Restore(id string) (model.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.take(model.PartitionDeleted, id)
	if err != nil {
		return model.Record{}, err
	}
	rec = rec.Clone()
	rec.DeletedAt = nil
	s.active = prepend(s.active, rec)
	return rec.Clone(), nil
}

// Purge removes a deleted record for good.
func (s *Records) Purge(id string) (model.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.take(model.PartitionDeleted, id)
	if err != nil {
		return model.Record{}, err
	}
	return rec.Clone(), nil
}

// UpdateFields applies patch to the record with id wherever it lives.
// Partition and position are unchanged.
func (s *Records) UpdateFields(id string, patch model.Patch) (model.Record, model.Partition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, i, ok := s.locate(id)
	if !ok {
		return model.Record{}, "", fmt.Errorf("record %s: %w", id, model.ErrNotFound)
	}
	list, _ := s.partition(p)
	rec := (*list)[i].Clone()
	patch.Apply(&rec)

	updated := slices.Clone(*list)
	updated[i] = rec
	*list = updated
	return rec.Clone(), p, nil
}

// ToggleVerification sets the verification of a claimed record when it has
// none and clears it otherwise.
func (s *Records) ToggleVerification(id, by string, at time.Time) (model.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.claimed, id)
	if i < 0 {
		return model.Record{}, fmt.Errorf("record %s in %s: %w", id, model.PartitionClaimed, model.ErrNotFound)
	}
	rec := s.claimed[i].Clone()
	if rec.Verification != nil {
		rec.Verification = nil
	} else {
		rec.Verification = &model.Verification{VerifiedBy: by, VerifiedAt: at}
	}

	updated := slices.Clone(s.claimed)
	updated[i] = rec
	s.claimed = updated
	return rec.Clone(), nil
}

// Find returns the record with id and the partition holding it.
func (s *Records) Find(id string) (model.Record, model.Partition, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, i, ok := s.locate(id)
	if !ok {
		return model.Record{}, "", false
	}
	list, _ := s.partition(p)
	return (*list)[i].Clone(), p, true
}

// List returns a copy of one partition, newest first.
func (s *Records) List(p model.Partition) ([]model.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list, err := s.partition(p)
	if err != nil {
		return nil, err
	}
	return cloneAll(*list), nil
}

// Counts returns the size of each partition.
func (s *Records) Counts() map[model.Partition]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[model.Partition]int{
		model.PartitionActive:  len(s.active),
		model.PartitionClaimed: len(s.claimed),
		model.PartitionDeleted: len(s.deleted),
	}
}

// Snapshot copies all partitions.
func (s *Records) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{
		Active:  cloneAll(s.active),
		Claimed: cloneAll(s.claimed),
		Deleted: cloneAll(s.deleted),
	}
}

// validateSnapshot fails if an id is empty or appears more than once
// across the partitions.
func validateSnapshot(snap Snapshot) error {
	seen := make(map[string]model.Partition)
	check := func(p model.Partition, list []model.Record) error {
		for _, r := range list {
			if r.ID == "" {
				return fmt.Errorf("record without id in %s", p)
			}
			if prev, ok := seen[r.ID]; ok {
				return fmt.Errorf("record %s appears in both %s and %s", r.ID, prev, p)
			}
			seen[r.ID] = p
		}
		return nil
	}
	if err := check(model.PartitionActive, snap.Active); err != nil {
		return err
	}
	if err := check(model.PartitionClaimed, snap.Claimed); err != nil {
		return err
	}
	return check(model.PartitionDeleted, snap.Deleted)
}

// Replace swaps in snap. It fails without changes if an id is empty or
// appears more than once across the partitions.
func (s *Records) Replace(snap Snapshot) error {
	if err := validateSnapshot(snap); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = cloneAll(snap.Active)
	s.claimed = cloneAll(snap.Claimed)
	s.deleted = cloneAll(snap.Deleted)
	return nil
}

// Clear empties every partition.
func (s *Records) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active, s.claimed, s.deleted = nil, nil, nil
}

func cloneAll(list []model.Record) []model.Record {
	out := make([]model.Record, len(list))
	for i, r := range list {
		out[i] = r.Clone()
	}
	return out
}
