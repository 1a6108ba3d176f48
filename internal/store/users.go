package store

import (
	"fmt"
	"slices"
	"sync"

	"github.com/erazemk/lostfound/internal/model"
)

// Users is the identity store: registered users in registration order.
type Users struct {
	mu    sync.RWMutex
	users []model.User
}

// NewUsers returns an empty identity store.
func NewUsers() *Users {
	return &Users{}
}

// Add registers u. The admin slot is checked before the username.
func (s *Users) Add(u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.Role == model.RoleAdmin && s.hasAdmin() {
		return model.ErrAdminExists
	}
	if s.index(u.Username) >= 0 {
		return fmt.Errorf("user %q: %w", u.Username, model.ErrDuplicateUser)
	}

	s.users = append(slices.Clone(s.users), u)
	return nil
}

// Get returns a user by username. Usernames are case sensitive.
func (s *Users) Get(username string) (model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.index(username)
	if i < 0 {
		return model.User{}, false
	}
	return s.users[i], true
}

// HasAdmin reports whether the admin slot is taken.
func (s *Users) HasAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasAdmin()
}

// List returns all users in registration order.
func (s *Users) List() []model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.users)
}

// Replace swaps in users, rejecting duplicate usernames and a second admin.
func (s *Users) Replace(users []model.User) error {
	if err := validateUsers(users); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = slices.Clone(users)
	return nil
}

// validateUsers fails on a repeated username or more than one admin.
func validateUsers(users []model.User) error {
	seen := make(map[string]bool, len(users))
	admins := 0
	for _, u := range users {
		if seen[u.Username] {
			return fmt.Errorf("user %q: %w", u.Username, model.ErrDuplicateUser)
		}
		seen[u.Username] = true
		if u.Role == model.RoleAdmin {
			admins++
		}
	}
	if admins > 1 {
		return model.ErrAdminExists
	}
	return nil
}

// Clear removes every user, which frees the admin slot.
func (s *Users) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = nil
}

func (s *Users) index(username string) int {
	return slices.IndexFunc(s.users, func(u model.User) bool { return u.Username == username })
}

func (s *Users) hasAdmin() bool {
	return slices.ContainsFunc(s.users, func(u model.User) bool { return u.Role == model.RoleAdmin })
}
