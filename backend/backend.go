// Package backend defines the shared key-value store consumed by chunkcache.
//
// A backend stores hash-shaped entries (field -> string value) with a TTL and
// provides a cross-process lock over named resources. Per-call deadlines are
// carried by the context passed to every method.
//
// Important: the keyspaces "bte:cacheContent:" and "bte:cachingLock:" are
// owned by chunkcache. External code MUST NOT write under these prefixes.
package backend

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrLockTimeout is returned by WithLock when the lock could not be
	// acquired within the wait budget.
	ErrLockTimeout = errors.New("backend: lock acquisition timed out")
	// ErrDisabled is returned by operations on a disabled backend.
	ErrDisabled = errors.New("backend: disabled")
)

// Backend is the narrow storage contract used by the cache.
// Implementations must be safe for concurrent use.
type Backend interface {
	// Enabled reports whether the backend is usable. A disabled backend turns
	// cache writes into no-ops and lookups into misses.
	Enabled() bool

	// WithLock acquires a lock over all keys, runs fn, and releases the lock
	// on every exit path, including fn panicking. If the lock is not acquired
	// within wait it returns ErrLockTimeout without calling fn.
	WithLock(ctx context.Context, keys []string, wait time.Duration, fn func(ctx context.Context) error) error

	// Delete removes key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	// SetExpiry sets the TTL of key. ttl <= 0 removes any expiry.
	SetExpiry(ctx context.Context, key string, ttl time.Duration) error

	// SetHashField sets one field of the hash stored at key.
	SetHashField(ctx context.Context, key, field, value string) error

	// GetAllHashFields returns every field of the hash at key; an empty map
	// when the key does not exist.
	GetAllHashFields(ctx context.Context, key string) (map[string]string, error)

	// Close releases resources.
	Close(ctx context.Context) error
}
