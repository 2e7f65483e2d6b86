package redis

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/chunkcache/backend"
)

// ErrLockLost is the cancellation cause seen by a locked action whose lock
// was taken over after expiring.
var ErrLockLost = errors.New("redis backend: lock lost")

var (
	releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

	extendScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)
)

// WithLock takes one SET NX PX lock per key (sorted, de-duplicated) under a
// single owner token. The action's context is cancelled with ErrLockLost if
// any key stops belonging to the token while the action runs.
func (r *Redis) WithLock(ctx context.Context, keys []string, wait time.Duration, fn func(ctx context.Context) error) error {
	if !r.Enabled() {
		return backend.ErrDisabled
	}
	keys = slices.Clone(keys)
	slices.Sort(keys)
	keys = slices.Compact(keys)
	token := uuid.NewString()

	held, err := r.acquire(ctx, keys, token, wait)
	defer r.release(ctx, held, token)
	if err != nil {
		return err
	}

	fnCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.keepAlive(fnCtx, held, token, stop, cancel)
	}()
	defer func() {
		close(stop)
		<-done
	}()

	return fn(fnCtx)
}

func (r *Redis) acquire(ctx context.Context, keys []string, token string, wait time.Duration) ([]string, error) {
	deadline := time.Now().Add(wait)
	held := make([]string, 0, len(keys))
	for _, k := range keys {
		for attempt := 0; ; attempt++ {
			ok, err := r.rdb.SetNX(ctx, k, token, r.lockTTL).Result()
			if err != nil {
				return held, fmt.Errorf("redis backend: lock %q: %w", k, err)
			}
			if ok {
				held = append(held, k)
				break
			}
			delay := r.backoff(attempt)
			remaining := time.Until(deadline)
			if remaining <= 0 {
				return held, backend.ErrLockTimeout
			}
			if delay > remaining {
				delay = remaining
			}
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return held, ctx.Err()
			case <-timer.C:
			}
		}
	}
	return held, nil
}

// backoff is exponential with ±20% jitter, capped at maxRetryDelay.
func (r *Redis) backoff(attempt int) time.Duration {
	d := r.retryDelay << min(attempt, 10)
	if d > maxRetryDelay || d <= 0 {
		d = maxRetryDelay
	}
	jitter := float64(d) * 0.2
	return d + time.Duration((rand.Float64()*2-1)*jitter)
}

func (r *Redis) keepAlive(ctx context.Context, keys []string, token string, stop <-chan struct{}, cancel context.CancelCauseFunc) {
	if len(keys) == 0 {
		return
	}
	t := time.NewTicker(r.lockTTL / 3)
	defer t.Stop()
	ms := r.lockTTL.Milliseconds()
	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-t.C:
			for _, k := range keys {
				n, err := extendScript.Run(ctx, r.rdb, []string{k}, token, ms).Int()
				if err != nil {
					// transient; the key still has the rest of its TTL
					continue
				}
				if n == 0 {
					cancel(ErrLockLost)
					return
				}
			}
		}
	}
}

func (r *Redis) release(ctx context.Context, keys []string, token string) {
	if len(keys) == 0 {
		return
	}
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()
	for _, k := range keys {
		// a failed release leaves the key to expire after lockTTL
		_ = releaseScript.Run(rctx, r.rdb, []string{k}, token).Err()
	}
}
