// Package store implements the durable key/value store the session layer
// uses to keep the auth token and the cached profile across restarts.
//
// The contract is deliberately thin: no validation, no encryption, no
// expiry. Callers treat any read failure as "value absent".
package store

import "context"

// Store is a durable string-keyed byte map.
//
// Load returns (nil, nil) when the key is absent.
type Store interface {
	Save(ctx context.Context, key string, value []byte) error
	Load(ctx context.Context, key string) ([]byte, error)
	Clear(ctx context.Context, key string) error
}

// BatchStore is implemented by stores that can apply several writes
// atomically. The session layer uses it to keep the token and the profile
// snapshot moving as a pair; callers fall back to sequential Store calls
// when the upgrade is unavailable.
type BatchStore interface {
	Store
	SaveAll(ctx context.Context, entries map[string][]byte) error
	ClearAll(ctx context.Context, keys ...string) error
}
