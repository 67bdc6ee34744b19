// Package kvx is the shared key-value store behind login throttles, lockouts,
// sessions and cached permission sets. Every key carries its own TTL so state
// ages out without a sweeper.
package kvx

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key does not exist or has expired.
var ErrNotFound = errors.New("kvx: not found")

// Store is implemented by Memory and Redis.
type Store interface {
	// Get returns the value stored at key.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value at key. A ttl of zero keeps the key until deleted.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// SetNX stores value only when key is absent and reports whether it did.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	// Incr increments the integer at key (missing counts as zero), then
	// resets its ttl, and returns the new value.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)

	// TTL returns the remaining lifetime of key. Keys without expiry return 0.
	TTL(ctx context.Context, key string) (time.Duration, error)

	// Del removes keys. Missing keys are ignored.
	Del(ctx context.Context, keys ...string) error

	Ping(ctx context.Context) error
	Close() error
}
