package store

import (
	"errors"
	"testing"
	"time"

	"github.com/erazemk/lostfound/internal/model"
)

var testNow = time.Date(2025, 11, 25, 12, 0, 0, 0, time.UTC)

func insert(t *testing.T, s *Records, title string) model.Record {
	t.Helper()
	rec, err := s.InsertActive(model.Record{Type: model.TypeLost, Title: title}, testNow)
	if err != nil {
		t.Fatalf("InsertActive: %v", err)
	}
	return rec
}

// assertDisjoint fails if an id appears in more than one partition.
func assertDisjoint(t *testing.T, s *Records) {
	t.Helper()
	snap := s.Snapshot()
	seen := make(map[string]bool)
	for _, list := range [][]model.Record{snap.Active, snap.Claimed, snap.Deleted} {
		for _, r := range list {
			if seen[r.ID] {
				t.Fatalf("id %s appears in more than one partition", r.ID)
			}
			seen[r.ID] = true
		}
	}
}

func TestInsertActive(t *testing.T) {
	s := NewRecords()

	first := insert(t, s, "Umbrella")
	second := insert(t, s, "Keys")

	if first.ID == "" || first.ID == second.ID {
		t.Fatalf("expected distinct generated ids, got %q and %q", first.ID, second.ID)
	}
	if !first.CreatedAt.Equal(testNow) {
		t.Errorf("expected createdAt %v, got %v", testNow, first.CreatedAt)
	}

	active, _ := s.List(model.PartitionActive)
	if len(active) != 2 || active[0].ID != second.ID {
		t.Fatalf("expected newest first, got %+v", active)
	}

	_, err := s.InsertActive(model.Record{ID: first.ID, Title: "Copy"}, testNow)
	if !errors.Is(err, model.ErrValidation) {
		t.Errorf("expected duplicate id to be rejected, got %v", err)
	}
}

func TestMoveActiveToClaimed(t *testing.T) {
	s := NewRecords()
	rec := insert(t, s, "Black Wallet")

	claimed, err := s.MoveActiveToClaimed(rec.ID, model.Claim{ClaimedBy: "alice", ClaimedAt: testNow})
	if err != nil {
		t.Fatalf("MoveActiveToClaimed: %v", err)
	}
	if claimed.Claimant() != "alice" {
		t.Errorf("expected claimant alice, got %q", claimed.Claimant())
	}

	counts := s.Counts()
	if counts[model.PartitionActive] != 0 || counts[model.PartitionClaimed] != 1 {
		t.Errorf("unexpected counts %v", counts)
	}
	assertDisjoint(t, s)

	// Claiming again fails: the record is no longer active.
	if _, err := s.MoveActiveToClaimed(rec.ID, model.Claim{ClaimedBy: "bob"}); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	got, _, _ := s.Find(rec.ID)
	if got.Claimant() != "alice" {
		t.Error("failed claim must not change the record")
	}
}

func TestDeleteRestorePurge(t *testing.T) {
	s := NewRecords()
	rec := insert(t, s, "Black Wallet")
	s.MoveActiveToClaimed(rec.ID, model.Claim{ClaimedBy: "alice", ClaimedAt: testNow})
	s.ToggleVerification(rec.ID, "staff1", testNow)

	if _, err := s.MoveToDeleted(rec.ID, model.PartitionActive, testNow); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting from the wrong partition, got %v", err)
	}
	if _, err := s.MoveToDeleted(rec.ID, model.PartitionDeleted, testNow); err == nil {
		t.Fatal("expected error deleting from the bin")
	}

	deleted, err := s.MoveToDeleted(rec.ID, model.PartitionClaimed, testNow)
	if err != nil {
		t.Fatalf("MoveToDeleted: %v", err)
	}
	if deleted.DeletedAt == nil {
		t.Fatal("expected deletedAt to be set")
	}
	if !deleted.Verified() || deleted.Claimant() != "alice" {
		t.Error("expected claim and verification to survive deletion")
	}
	assertDisjoint(t, s)

	restored, err := s.Restore(rec.ID)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if restored.DeletedAt != nil {
		t.Error("expected deletedAt to be cleared")
	}
	if !restored.Verified() {
		t.Error("expected verification to be retained on restore")
	}
	if _, p, _ := s.Find(rec.ID); p != model.PartitionActive {
		t.Errorf("expected restored record in active, got %s", p)
	}

	reclaimed, err := s.MoveActiveToClaimed(rec.ID, model.Claim{ClaimedBy: "bob", ClaimedAt: testNow})
	if err != nil {
		t.Fatalf("reclaiming: %v", err)
	}
	if reclaimed.Verified() || reclaimed.Claimant() != "bob" {
		t.Errorf("a new claim must start unverified: %+v", reclaimed)
	}
	if _, err := s.MoveToDeleted(rec.ID, model.PartitionClaimed, testNow); err != nil {
		t.Fatalf("MoveToDeleted: %v", err)
	}
	if _, err := s.Restore(rec.ID); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	if _, err := s.Purge(rec.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound purging an active record, got %v", err)
	}

	s.MoveToDeleted(rec.ID, model.PartitionActive, testNow)
	if _, err := s.Purge(rec.ID); err != nil {
		t.Fatalf("Purge: %v", err)
	}
	if _, _, ok := s.Find(rec.ID); ok {
		t.Error("expected purged record to be gone")
	}
}

func TestUpdateFields(t *testing.T) {
	s := NewRecords()
	a := insert(t, s, "First")
	b := insert(t, s, "Second")
	s.MoveToDeleted(a.ID, model.PartitionActive, testNow)

	title := "First, renamed"
	rec, p, err := s.UpdateFields(a.ID, model.Patch{Title: &title})
	if err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	if p != model.PartitionDeleted {
		t.Errorf("expected record to stay deleted, got %s", p)
	}
	if rec.Title != title || rec.ID != a.ID || !rec.CreatedAt.Equal(a.CreatedAt) {
		t.Errorf("unexpected record %+v", rec)
	}

	active, _ := s.List(model.PartitionActive)
	if len(active) != 1 || active[0].ID != b.ID {
		t.Errorf("other partitions must be untouched, got %+v", active)
	}

	if _, _, err := s.UpdateFields("missing", model.Patch{Title: &title}); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestToggleVerificationIsItsOwnInverse(t *testing.T) {
	s := NewRecords()
	rec := insert(t, s, "Phone")

	if _, err := s.ToggleVerification(rec.ID, "staff1", testNow); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for an active record, got %v", err)
	}

	before, _ := s.MoveActiveToClaimed(rec.ID, model.Claim{ClaimedBy: "alice", ClaimedAt: testNow})

	on, err := s.ToggleVerification(rec.ID, "staff1", testNow)
	if err != nil {
		t.Fatalf("ToggleVerification: %v", err)
	}
	if on.VerifiedBy != "staff1" || !on.VerifiedAt.Equal(testNow) {
		t.Errorf("expected verification by staff1, got %+v", on.Verification)
	}

	off, err := s.ToggleVerification(rec.ID, "staff1", testNow)
	if err != nil {
		t.Fatalf("ToggleVerification: %v", err)
	}
	if off.Verified() != before.Verified() {
		t.Error("toggling twice should restore the original state")
	}
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	s := NewRecords()
	rec := insert(t, s, "Scarf")
	claimed, _ := s.MoveActiveToClaimed(rec.ID, model.Claim{ClaimedBy: "alice"})

	claimed.Claim.ClaimedBy = "mallory"
	list, _ := s.List(model.PartitionClaimed)
	list[0].Title = "changed"

	got, _, _ := s.Find(rec.ID)
	if got.Claimant() != "alice" || got.Title != "Scarf" {
		t.Errorf("store state leaked through a returned record: %+v", got)
	}
}

func TestReplaceRejectsSharedIDs(t *testing.T) {
	s := NewRecords()
	insert(t, s, "Existing")

	err := s.Replace(Snapshot{
		Active:  []model.Record{{ID: "1"}},
		Deleted: []model.Record{{ID: "1"}},
	})
	if err == nil {
		t.Fatal("expected error for an id in two partitions")
	}
	if s.Counts()[model.PartitionActive] != 1 {
		t.Error("failed Replace must leave the store unchanged")
	}

	if err := s.Replace(Snapshot{Claimed: []model.Record{{ID: "2"}}}); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	counts := s.Counts()
	if counts[model.PartitionActive] != 0 || counts[model.PartitionClaimed] != 1 {
		t.Errorf("unexpected counts %v", counts)
	}

	s.Clear()
	if _, _, ok := s.Find("2"); ok {
		t.Error("expected empty store after Clear")
	}
}
