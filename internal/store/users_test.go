package store

import (
	"errors"
	"testing"

	"github.com/erazemk/lostfound/internal/model"
)

func TestAddAndGetUser(t *testing.T) {
	s := NewUsers()

	if err := s.Add(model.User{Username: "alice", Role: model.RoleStudent}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	u, ok := s.Get("alice")
	if !ok {
		t.Fatal("expected user, got none")
	}
	if u.Role != model.RoleStudent {
		t.Errorf("expected role 'student', got %q", u.Role)
	}

	if _, ok := s.Get("Alice"); ok {
		t.Error("usernames are case sensitive")
	}
}

func TestDuplicateUser(t *testing.T) {
	s := NewUsers()
	s.Add(model.User{Username: "alice", Role: model.RoleStudent})

	err := s.Add(model.User{Username: "alice", Role: model.RoleStaff})
	if !errors.Is(err, model.ErrDuplicateUser) {
		t.Errorf("expected ErrDuplicateUser, got %v", err)
	}
	if len(s.List()) != 1 {
		t.Errorf("expected 1 user, got %d", len(s.List()))
	}
}

func TestSingleAdmin(t *testing.T) {
	s := NewUsers()
	if s.HasAdmin() {
		t.Fatal("empty store has no admin")
	}

	if err := s.Add(model.User{Username: "root", Role: model.RoleAdmin}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !s.HasAdmin() {
		t.Fatal("expected admin slot to be taken")
	}

	// The admin check wins over the duplicate check.
	err := s.Add(model.User{Username: "root", Role: model.RoleAdmin})
	if !errors.Is(err, model.ErrAdminExists) {
		t.Errorf("expected ErrAdminExists, got %v", err)
	}

	s.Clear()
	if s.HasAdmin() {
		t.Error("Clear should free the admin slot")
	}
}

func TestReplaceUsers(t *testing.T) {
	s := NewUsers()

	err := s.Replace([]model.User{
		{Username: "a", Role: model.RoleAdmin},
		{Username: "b", Role: model.RoleAdmin},
	})
	if !errors.Is(err, model.ErrAdminExists) {
		t.Errorf("expected ErrAdminExists, got %v", err)
	}

	err = s.Replace([]model.User{{Username: "a"}, {Username: "a"}})
	if !errors.Is(err, model.ErrDuplicateUser) {
		t.Errorf("expected ErrDuplicateUser, got %v", err)
	}

	if err := s.Replace([]model.User{{Username: "a"}, {Username: "b"}}); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if len(s.List()) != 2 {
		t.Errorf("expected 2 users, got %d", len(s.List()))
	}
}

func TestSessions(t *testing.T) {
	s := NewSessions()
	if s.Current() != nil {
		t.Fatal("expected anonymous session")
	}

	sess := &model.Session{Username: "alice", Role: model.RoleStudent}
	s.Set(sess)
	sess.Role = model.RoleAdmin

	got := s.Current()
	if got == nil || got.Role != model.RoleStudent {
		t.Fatalf("expected snapshotted student session, got %+v", got)
	}

	got.Username = "mallory"
	if s.Current().Username != "alice" {
		t.Error("Current must return a copy")
	}

	s.Clear()
	if s.Current() != nil {
		t.Error("expected anonymous after Clear")
	}
}

func TestHistory(t *testing.T) {
	h := NewHistory()
	h.Append(model.Transition{RecordID: "1", Op: model.OpReport})
	h.Append(model.Transition{RecordID: "2", Op: model.OpReport})
	h.Append(model.Transition{RecordID: "1", Op: model.OpClaim})

	got := h.ForRecord("1")
	if len(got) != 2 || got[0].Op != model.OpClaim {
		t.Errorf("expected newest-first history for 1, got %+v", got)
	}
	if len(h.All()) != 3 {
		t.Errorf("expected 3 entries, got %d", len(h.All()))
	}

	h.Clear()
	if len(h.All()) != 0 {
		t.Error("expected empty history")
	}
}
