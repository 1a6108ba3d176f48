package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/erazemk/lostfound/internal/kv"
)

// GetJWTSecret retrieves the JWT secret from the adapter.
// If no secret exists, it generates one, stores it, and returns it.
func GetJWTSecret(ctx context.Context, a kv.Adapter) (string, error) {
	data, err := a.Get(ctx, KeyJWTSecret)
	if err == nil {
		var secret string
		if err := json.Unmarshal(data, &secret); err != nil {
			return "", fmt.Errorf("decoding jwt_secret: %w", err)
		}
		return secret, nil
	}
	if !errors.Is(err, kv.ErrNotFound) {
		return "", fmt.Errorf("querying jwt_secret: %w", err)
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating jwt secret: %w", err)
	}
	secret := hex.EncodeToString(buf)

	data, err = json.Marshal(secret)
	if err != nil {
		return "", fmt.Errorf("encoding jwt_secret: %w", err)
	}
	if err := a.Set(ctx, KeyJWTSecret, data); err != nil {
		return "", fmt.Errorf("storing jwt_secret: %w", err)
	}
	return secret, nil
}
