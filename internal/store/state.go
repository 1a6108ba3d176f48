package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/erazemk/lostfound/internal/kv"
	"github.com/erazemk/lostfound/internal/model"
)

// Persisted keys.
const (
	KeyItems         = "items"
	KeyClaimed       = "claimed"
	KeyDeleted       = "deleted"
	KeyUsers         = "users"
	KeySession       = "session"
	KeyTheme         = "theme"
	KeyHistory       = "history"
	KeyJWTSecret     = "jwt_secret"
	KeyRevokedTokens = "revoked_tokens"
)

// StateKeys are the keys owned by State, in load order.
var StateKeys = []string{KeyItems, KeyClaimed, KeyDeleted, KeyUsers, KeySession, KeyTheme, KeyHistory}

// AllKeys are StateKeys plus the server-side auth keys. Backups cover these.
var AllKeys = []string{KeyItems, KeyClaimed, KeyDeleted, KeyUsers, KeySession, KeyTheme, KeyHistory, KeyJWTSecret, KeyRevokedTokens}

// Themes.
const (
	ThemeLight   = "light"
	ThemeDark    = "dark"
	DefaultTheme = ThemeDark
)

// State is everything the lifecycle engine owns.
type State struct {
	Records  *Records
	Users    *Users
	Sessions *Sessions
	History  *History

	mu    sync.RWMutex
	theme string
}

// NewState returns empty stores with the default theme.
func NewState() *State {
	return &State{
		Records:  NewRecords(),
		Users:    NewUsers(),
		Sessions: NewSessions(),
		History:  NewHistory(),
		theme:    DefaultTheme,
	}
}

// Theme returns the stored theme.
func (s *State) Theme() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.theme
}

// SetTheme stores theme. Only light and dark are accepted.
func (s *State) SetTheme(theme string) error {
	if theme != ThemeLight && theme != ThemeDark {
		return &model.ValidationError{Field: "theme", Message: fmt.Sprintf("unknown theme %q", theme)}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.theme = theme
	return nil
}

// Load replaces the in-memory state with the persisted snapshots. Absent
// keys load as empty. On error nothing is replaced.
func (s *State) Load(ctx context.Context, a kv.Adapter) error {
	var (
		snap    Snapshot
		users   []model.User
		session *model.Session
		history []model.Transition
		theme   = DefaultTheme
	)

	targets := map[string]any{
		KeyItems:   &snap.Active,
		KeyClaimed: &snap.Claimed,
		KeyDeleted: &snap.Deleted,
		KeyUsers:   &users,
		KeySession: &session,
		KeyTheme:   &theme,
		KeyHistory: &history,
	}
	for _, key := range StateKeys {
		data, err := a.Get(ctx, key)
		if errors.Is(err, kv.ErrNotFound) {
			continue
		}
		if err != nil {
			return &model.PersistenceError{Key: key, Err: err}
		}
		if err := json.Unmarshal(data, targets[key]); err != nil {
			return &model.PersistenceError{Key: key, Err: fmt.Errorf("decoding: %w", err)}
		}
	}

	// Check everything before swapping anything in.
	if err := validateSnapshot(snap); err != nil {
		return &model.PersistenceError{Key: KeyItems, Err: err}
	}
	if err := validateUsers(users); err != nil {
		return &model.PersistenceError{Key: KeyUsers, Err: err}
	}

	if err := s.Records.Replace(snap); err != nil {
		return &model.PersistenceError{Key: KeyItems, Err: err}
	}
	if err := s.Users.Replace(users); err != nil {
		return &model.PersistenceError{Key: KeyUsers, Err: err}
	}
	s.Sessions.Set(session)
	s.History.Replace(history)
	if theme != ThemeLight && theme != ThemeDark {
		theme = DefaultTheme
	}
	s.mu.Lock()
	s.theme = theme
	s.mu.Unlock()
	return nil
}

// Save writes the named keys. Keys other than session go out in a single
// batch; an anonymous session deletes the session key.
func (s *State) Save(ctx context.Context, a kv.Adapter, keys ...string) error {
	var entries []kv.Entry
	saveSession := false

	for _, key := range keys {
		var v any
		switch key {
		case KeyItems:
			v = s.Records.Snapshot().Active
		case KeyClaimed:
			v = s.Records.Snapshot().Claimed
		case KeyDeleted:
			v = s.Records.Snapshot().Deleted
		case KeyUsers:
			v = s.Users.List()
		case KeyHistory:
			v = s.History.All()
		case KeyTheme:
			v = s.Theme()
		case KeySession:
			saveSession = true
			continue
		default:
			return fmt.Errorf("unknown state key %q", key)
		}
		data, err := json.Marshal(v)
		if err != nil {
			return &model.PersistenceError{Key: key, Err: fmt.Errorf("encoding: %w", err)}
		}
		entries = append(entries, kv.Entry{Key: key, Value: data})
	}

	if len(entries) > 0 {
		if err := kv.SetAll(ctx, a, entries); err != nil {
			return &model.PersistenceError{Key: entries[0].Key, Err: err}
		}
	}

	if saveSession {
		if err := s.saveSession(ctx, a); err != nil {
			return &model.PersistenceError{Key: KeySession, Err: err}
		}
	}
	return nil
}

func (s *State) saveSession(ctx context.Context, a kv.Adapter) error {
	sess := s.Sessions.Current()
	if sess == nil {
		return a.Delete(ctx, KeySession)
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encoding: %w", err)
	}
	return a.Set(ctx, KeySession, data)
}
