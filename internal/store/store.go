// Package store provides the key-value persistence layer backing the
// registries. The production store is Redis; tests use the in-memory
// implementation. Values are opaque byte slices; registries serialize
// their records as JSON.
package store

import (
	"context"
	"encoding/json"
)

// Keys under which registry state is persisted. These mirror the browser
// local-storage keys the application grew up with.
const (
	KeyRegisteredUsers = "registeredUsers"
	KeyCurrentUser     = "currentUser"
	KeyReviews         = "reviews"
	KeyGames           = "games"
)

// Store is a minimal key-value store. Get reports found=false for a
// missing key rather than an error. Writes are last-writer-wins.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}

// GetJSON reads key and unmarshals it into dest.
// Returns (true, nil) if found and unmarshaled, (false, nil) if not found.
func GetJSON(ctx context.Context, s Store, key string, dest any) (bool, error) {
	b, found, err := s.Get(ctx, key)
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal(b, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals v and writes it under key.
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Set(ctx, key, b)
}
