package chunkcache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/unkn0wn-root/chunkcache/backend"
	"github.com/unkn0wn-root/chunkcache/chunk"
	"github.com/unkn0wn-root/chunkcache/codec"
)

const tracerName = "github.com/unkn0wn-root/chunkcache"

type cache[V any] struct {
	be        backend.Backend
	codec     codec.Codec[V]
	log       Logger
	hooks     Hooks
	tracer    trace.Tracer
	enabled   bool
	ttl       time.Duration // <= 0 => no expiry
	lockWait  time.Duration
	opTimeout time.Duration
}

func newCache[V any](opts Options[V]) (*cache[V], error) {
	if opts.Backend == nil {
		return nil, fmt.Errorf("chunkcache: backend is required")
	}

	c := &cache[V]{
		be:      opts.Backend,
		enabled: !opts.Disabled,
	}

	// defaults
	c.codec = coalesce[codec.Codec[V]](opts.Codec, codec.JSON[V]{})
	c.log = coalesce[Logger](opts.Logger, NopLogger{})
	c.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	c.lockWait = coalesce[time.Duration](opts.LockWait, defaultLockWait)
	c.opTimeout = coalesce[time.Duration](opts.OpTimeout, defaultOpTimeout)
	c.ttl = coalesce[time.Duration](opts.TTL, TTLFromEnv())

	tp := opts.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	c.tracer = tp.Tracer(tracerName)

	return c, nil
}

// Enabled reports whether calls reach the backend at all.
func (c *cache[V]) Enabled() bool { return c.enabled && c.be.Enabled() }

func (c *cache[V]) Close(ctx context.Context) error {
	return c.be.Close(ctx)
}

func (c *cache[V]) Write(ctx context.Context, hash string, records []V) {
	defer c.recover(ctx, OpWrite, hash)
	_ = c.write(ctx, hash, records)
}

func (c *cache[V]) Lookup(ctx context.Context, hash string) ([]V, bool) {
	defer c.recover(ctx, OpLookup, hash)
	recs, ok, _ := c.lookup(ctx, hash)
	return recs, ok
}

// write returns the failure Write swallows.
func (c *cache[V]) write(ctx context.Context, hash string, records []V) (err error) {
	log := c.logger(ctx, hash)
	if !c.Enabled() {
		log.Debug("backend unavailable, skipping cache write", nil)
		return nil
	}
	if hash == "" {
		log.Warn("refusing to cache under an empty hash", nil)
		return ErrEmptyHash
	}

	ctx, span := c.tracer.Start(ctx, "chunkcache.Write", trace.WithAttributes(
		attribute.String("chunkcache.hash", hash),
		attribute.Int("chunkcache.records", len(records)),
	))
	defer func() { endSpan(span, err) }()
	defer func() {
		if r := recover(); r != nil {
			err = c.panicked(ctx, OpWrite, hash, r)
			c.hooks.WriteAborted(hash, err)
		}
	}()

	log.Debug("caching records", Fields{"records": len(records)})
	key := EntryKey(hash)
	chunks := 0

	err = c.be.WithLock(ctx, []string{LockKey(hash)}, c.lockWait, func(ctx context.Context) error {
		// old and new chunk generations must never mix
		if err := c.op(ctx, func(ctx context.Context) error { return c.be.Delete(ctx, key) }); err != nil {
			c.hooks.BackendError(OpWrite, hash, err)
			return fmt.Errorf("delete previous entry: %w", err)
		}

		n, err := chunk.Encode(c.codec, records, func(i int, s string) error {
			return c.op(ctx, func(ctx context.Context) error {
				return c.be.SetHashField(ctx, key, strconv.Itoa(i), s)
			})
		})
		chunks = n
		if err != nil {
			werr := &WriteError{Hash: hash, Index: n, Err: err}
			// the lock may already be lost; cleanup must still run
			cctx := context.WithoutCancel(ctx)
			if derr := c.op(cctx, func(ctx context.Context) error { return c.be.Delete(ctx, key) }); derr != nil {
				werr.CleanupErr = derr
			}
			return werr
		}

		if c.ttl > 0 {
			if err := c.op(ctx, func(ctx context.Context) error { return c.be.SetExpiry(ctx, key, c.ttl) }); err != nil {
				log.Warn("failed to set cache expiry", Fields{"err": err})
				c.hooks.ExpiryFailed(hash, err)
			}
		}
		return nil
	})

	var werr *WriteError
	switch {
	case err == nil:
	case errors.Is(err, backend.ErrLockTimeout):
		log.Warn("cache lock timed out, skipping cache write", Fields{"wait": c.lockWait})
		c.hooks.LockTimeout(OpWrite, hash)
		return err
	case errors.As(err, &werr):
		if werr.Orphaned() {
			log.Error("unable to remove partial cache entry; lookups may return incomplete results until it is rewritten or expires",
				Fields{"key": key, "err": werr.Err, "cleanup_err": werr.CleanupErr})
			c.hooks.OrphanedEntry(hash, werr.CleanupErr)
		}
		log.Warn("cache write failed", Fields{"chunk": werr.Index, "err": werr.Err})
		c.hooks.WriteAborted(hash, werr)
		return err
	default:
		log.Warn("cache write failed", Fields{"err": err})
		return err
	}

	span.SetAttributes(attribute.Int("chunkcache.chunks", chunks))
	log.Debug("cached records", Fields{"records": len(records), "chunks": chunks})
	c.hooks.Written(hash, len(records), chunks)
	return nil
}

// lookup returns the failure Lookup converts into a miss.
func (c *cache[V]) lookup(ctx context.Context, hash string) (out []V, ok bool, err error) {
	log := c.logger(ctx, hash)
	if !c.Enabled() {
		log.Debug("backend unavailable, skipping cache lookup", nil)
		return nil, false, nil
	}
	if hash == "" {
		return nil, false, ErrEmptyHash
	}

	ctx, span := c.tracer.Start(ctx, "chunkcache.Lookup", trace.WithAttributes(
		attribute.String("chunkcache.hash", hash),
	))
	defer func() {
		span.SetAttributes(attribute.Bool("chunkcache.hit", ok))
		endSpan(span, err)
	}()
	defer func() {
		if r := recover(); r != nil {
			out, ok = nil, false
			err = c.panicked(ctx, OpLookup, hash, r)
			c.hooks.BackendError(OpLookup, hash, err)
		}
	}()

	log.Debug("beginning cache lookup", nil)
	key := EntryKey(hash)

	err = c.be.WithLock(ctx, []string{LockKey(hash)}, c.lockWait, func(ctx context.Context) error {
		var fields map[string]string
		if err := c.op(ctx, func(ctx context.Context) (err error) {
			fields, err = c.be.GetAllHashFields(ctx, key)
			return err
		}); err != nil {
			c.hooks.BackendError(OpLookup, hash, err)
			return err
		}
		if len(fields) == 0 {
			return nil
		}

		recs, err := c.decode(fields)
		if err != nil {
			log.Warn("dropping undecodable cache entry", Fields{"err": err, "chunks": len(fields)})
			c.hooks.DecodeFailed(hash, err)
			// self-heal corrupt
			_ = c.op(ctx, func(ctx context.Context) error { return c.be.Delete(ctx, key) })
			return err
		}
		if recs == nil {
			recs = []V{}
		}
		out, ok = recs, true

		if c.ttl > 0 {
			if err := c.op(ctx, func(ctx context.Context) error { return c.be.SetExpiry(ctx, key, c.ttl) }); err != nil {
				log.Warn("failed to refresh cache expiry", Fields{"err": err})
				c.hooks.ExpiryFailed(hash, err)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, backend.ErrLockTimeout) {
			log.Warn("cache lock timed out, treating lookup as a miss", Fields{"wait": c.lockWait})
			c.hooks.LockTimeout(OpLookup, hash)
		} else {
			log.Warn("cache lookup failed", Fields{"err": err})
		}
		return nil, false, err
	}

	if !ok {
		log.Debug("no cached content found", nil)
	} else {
		log.Debug("found cached content", Fields{"records": len(out)})
		span.SetAttributes(attribute.Int("chunkcache.records", len(out)))
	}
	c.hooks.Lookup(hash, ok, len(out))
	return out, ok, nil
}

func (c *cache[V]) decode(fields map[string]string) ([]V, error) {
	values, err := sortedValues(fields)
	if err != nil {
		return nil, err
	}
	return chunk.Decode(c.codec, values)
}

// op bounds a single backend call by opTimeout.
func (c *cache[V]) op(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()
	return fn(ctx)
}

func (c *cache[V]) logger(ctx context.Context, hash string) Logger {
	base := Fields{"hash": hash}
	if label, ok := LabelFrom(ctx); ok {
		base["label"] = label
	}
	return scoped{l: loggerFrom(ctx, c.log), base: base}
}

// recover keeps a panicking codec or backend from reaching the caller.
func (c *cache[V]) recover(ctx context.Context, op, hash string) {
	if r := recover(); r != nil {
		_ = c.panicked(ctx, op, hash, r)
	}
}

func (c *cache[V]) panicked(ctx context.Context, op, hash string, r any) error {
	c.logger(ctx, hash).Error("recovered panic in cache "+op, Fields{"panic": r})
	return fmt.Errorf("%w: %v", ErrPanic, r)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("chunkcache.outcome", "failed"))
	} else {
		span.SetAttributes(attribute.String("chunkcache.outcome", "ok"))
	}
	span.End()
}
