package store

import (
	"context"
	"errors"
	"testing"

	"github.com/erazemk/lostfound/internal/db"
	"github.com/erazemk/lostfound/internal/kv"
	"github.com/erazemk/lostfound/internal/model"
)

func TestStateSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	a := kv.NewSQLite(db.NewTestDB(t))

	s := NewState()
	rec := insert(t, s.Records, "Black Wallet")
	s.Records.MoveActiveToClaimed(rec.ID, model.Claim{ClaimedBy: "alice", ClaimedAt: testNow})
	insert(t, s.Records, "Umbrella")
	s.Users.Add(model.User{Username: "alice", Role: model.RoleStudent})
	s.Sessions.Set(&model.Session{Username: "alice", Role: model.RoleStudent})
	s.History.Append(model.Transition{RecordID: rec.ID, Op: model.OpClaim})
	if err := s.SetTheme(ThemeLight); err != nil {
		t.Fatalf("SetTheme: %v", err)
	}

	if err := s.Save(ctx, a, StateKeys...); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded := NewState()
	if err := loaded.Load(ctx, a); err != nil {
		t.Fatalf("Load: %v", err)
	}

	counts := loaded.Records.Counts()
	if counts[model.PartitionActive] != 1 || counts[model.PartitionClaimed] != 1 {
		t.Errorf("unexpected counts %v", counts)
	}
	got, p, ok := loaded.Records.Find(rec.ID)
	if !ok || p != model.PartitionClaimed || got.Claimant() != "alice" {
		t.Errorf("claimed record did not survive: %+v in %s", got, p)
	}
	if sess := loaded.Sessions.Current(); sess == nil || sess.Username != "alice" {
		t.Errorf("expected alice session, got %+v", sess)
	}
	if loaded.Theme() != ThemeLight {
		t.Errorf("expected light theme, got %q", loaded.Theme())
	}
	if len(loaded.History.ForRecord(rec.ID)) != 1 {
		t.Error("expected history to survive")
	}
}

func TestStateSaveAnonymousSessionDeletesKey(t *testing.T) {
	ctx := context.Background()
	a := kv.NewMemory()
	s := NewState()

	s.Sessions.Set(&model.Session{Username: "alice"})
	if err := s.Save(ctx, a, KeySession); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := a.Get(ctx, KeySession); err != nil {
		t.Fatalf("expected session key, got %v", err)
	}

	s.Sessions.Clear()
	if err := s.Save(ctx, a, KeySession); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := a.Get(ctx, KeySession); !errors.Is(err, kv.ErrNotFound) {
		t.Errorf("expected session key to be deleted, got %v", err)
	}
}

func TestStateLoadEmptyAndCorrupt(t *testing.T) {
	ctx := context.Background()
	a := kv.NewMemory()

	s := NewState()
	if err := s.Load(ctx, a); err != nil {
		t.Fatalf("Load of empty adapter: %v", err)
	}
	if s.Theme() != DefaultTheme {
		t.Errorf("expected default theme, got %q", s.Theme())
	}

	insert(t, s.Records, "Kept")
	a.Set(ctx, KeyDeleted, []byte("{not json"))
	err := s.Load(ctx, a)
	if !errors.Is(err, model.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if s.Records.Counts()[model.PartitionActive] != 1 {
		t.Error("failed Load must not replace the state")
	}

	// Valid records next to an invalid user list: nothing is swapped in.
	a.Delete(ctx, KeyDeleted)
	a.Set(ctx, KeyItems, []byte(`[{"id":"r1","title":"Scarf"},{"id":"r2","title":"Mug"}]`))
	a.Set(ctx, KeyUsers, []byte(`[{"username":"a","role":"admin"},{"username":"b","role":"admin"}]`))
	err = s.Load(ctx, a)
	if !errors.Is(err, model.ErrAdminExists) {
		t.Fatalf("expected ErrAdminExists, got %v", err)
	}
	if _, _, ok := s.Records.Find("r1"); ok {
		t.Error("records were replaced by a failed Load")
	}
	if s.Records.Counts()[model.PartitionActive] != 1 {
		t.Errorf("expected the original record to stay, got %v", s.Records.Counts())
	}
}

func TestSetThemeRejectsUnknown(t *testing.T) {
	s := NewState()
	if err := s.SetTheme("purple"); !errors.Is(err, model.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
	if s.Theme() != ThemeDark {
		t.Errorf("expected dark theme, got %q", s.Theme())
	}
}
