package store

import (
	"sync"

	"github.com/erazemk/lostfound/internal/model"
)

// Sessions holds the process-wide signed-in identity used by the CLI.
type Sessions struct {
	mu      sync.RWMutex
	current *model.Session
}

// NewSessions returns an anonymous session store.
func NewSessions() *Sessions {
	return &Sessions{}
}

// Current returns a copy of the session, or nil when anonymous.
func (s *Sessions) Current() *model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	cp := *s.current
	return &cp
}

// Set replaces the session. A nil session signs out.
func (s *Sessions) Set(sess *model.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess == nil {
		s.current = nil
		return
	}
	cp := *sess
	s.current = &cp
}

// Clear signs out.
func (s *Sessions) Clear() {
	s.Set(nil)
}
