// Package kvstore provides a small expiring key-value store used for
// short-lived state such as one-time password challenges.
package kvstore

import (
	"context"
	"time"
)

// Store keeps opaque values under string keys for a bounded time.
// Get returns common.ErrorNotFound for missing or expired keys.
type Store interface {
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
