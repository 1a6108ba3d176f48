package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/erazemk/lostfound/internal/kv"
)

// TokenList is the persisted set of revoked JWT ids.
type TokenList struct {
	a   kv.Adapter
	now func() time.Time
	mu  sync.Mutex
}

// NewTokenList returns a revocation list stored in a.
func NewTokenList(a kv.Adapter) *TokenList {
	return &TokenList{a: a, now: time.Now}
}

func (l *TokenList) load(ctx context.Context) (map[string]time.Time, error) {
	revoked := make(map[string]time.Time)
	data, err := l.a.Get(ctx, KeyRevokedTokens)
	if errors.Is(err, kv.ErrNotFound) {
		return revoked, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &revoked); err != nil {
		return nil, fmt.Errorf("decoding revoked tokens: %w", err)
	}
	return revoked, nil
}

// Revoke adds a token's JTI to the revocation list.
func (l *TokenList) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	revoked, err := l.load(ctx)
	if err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}
	revoked[jti] = expiresAt

	// Opportunistically clean up expired revocations.
	now := l.now()
	for id, exp := range revoked {
		if exp.Before(now) {
			delete(revoked, id)
		}
	}

	data, err := json.Marshal(revoked)
	if err != nil {
		return fmt.Errorf("encoding revoked tokens: %w", err)
	}
	if err := l.a.Set(ctx, KeyRevokedTokens, data); err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}
	return nil
}

// IsRevoked checks if a token's JTI has been revoked.
func (l *TokenList) IsRevoked(ctx context.Context, jti string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	revoked, err := l.load(ctx)
	if err != nil {
		return false, fmt.Errorf("checking token revocation: %w", err)
	}
	_, ok := revoked[jti]
	return ok, nil
}
