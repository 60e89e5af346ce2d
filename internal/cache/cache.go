// Package cache stores short-lived JSON values, in Redis when configured and
// in process memory otherwise.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache: miss")

// Cache is a key/value store with per-key expiry.
type Cache interface {
	// Get decodes the value stored under key into dest.
	Get(ctx context.Context, key string, dest any) error
	// Set stores value under key for ttl. A zero ttl keeps the key forever.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	// SetNX marks key for ttl and reports whether it was absent before.
	SetNX(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
	Close() error
}
