package chunkcache

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/unkn0wn-root/chunkcache/backend"
	"github.com/unkn0wn-root/chunkcache/codec"
)

// Cache stores ordered record sequences under a content hash in a shared
// backend. It never fails the caller: Write swallows every error and Lookup
// reports any failure as a miss.
type Cache[V any] interface {
	Enabled() bool
	Close(context.Context) error

	// Write replaces the entry for hash with records. Failures are logged and
	// reported through Hooks; the entry is left either complete or absent.
	Write(ctx context.Context, hash string, records []V)

	// Lookup returns the records stored for hash, in write order, and extends
	// the entry's TTL. ok is false on a miss or on any failure.
	Lookup(ctx context.Context, hash string) (records []V, ok bool)
}

// Options tune the behavior of the cache.
// Only Backend is required; others have sensible defaults.
type Options[V any] struct {
	// Required
	Backend backend.Backend

	Codec          codec.Codec[V]       // nil => codec.JSON[V]
	Logger         Logger               // if nil, NopLogger is used
	Hooks          Hooks                // if nil, NopHooks is used
	TracerProvider trace.TracerProvider // nil => otel.GetTracerProvider()

	TTL       time.Duration // 0 => TTLFromEnv(); NoExpiry disables expiry
	LockWait  time.Duration // 0 => 30s
	OpTimeout time.Duration // per backend call; 0 => 10s
	Disabled  bool          // default false (enabled)
}

func New[V any](opts Options[V]) (Cache[V], error) {
	return newCache[V](opts)
}
