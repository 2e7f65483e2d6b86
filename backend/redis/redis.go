package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/chunkcache/backend"
)

var ErrNilClient = errors.New("redis backend: nil client")

const (
	defaultLockTTL    = 30 * time.Second
	minLockTTL        = 10 * time.Millisecond
	defaultRetryDelay = 50 * time.Millisecond
	maxRetryDelay     = time.Second
	releaseTimeout    = 5 * time.Second
)

type Redis struct {
	rdb         goredis.UniversalClient
	closeClient bool
	disabled    bool
	lockTTL     time.Duration
	retryDelay  time.Duration
}

var _ backend.Backend = (*Redis)(nil)

type Config struct {
	Client      goredis.UniversalClient
	CloseClient bool // set true only if this backend exclusively owns the client
	Disabled    bool

	// LockTTL bounds how long a crashed holder can block others. Live holders
	// keep extending it. 0 => 30s; values below 10ms are raised to 10ms.
	LockTTL time.Duration
	// RetryDelay is the first back-off between lock attempts. 0 => 50ms.
	RetryDelay time.Duration
}

func New(cfg Config) (*Redis, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	r := &Redis{
		rdb:         cfg.Client,
		closeClient: cfg.CloseClient,
		disabled:    cfg.Disabled,
		lockTTL:     cfg.LockTTL,
		retryDelay:  cfg.RetryDelay,
	}
	switch {
	case r.lockTTL <= 0:
		r.lockTTL = defaultLockTTL
	case r.lockTTL < minLockTTL:
		r.lockTTL = minLockTTL
	}
	if r.retryDelay <= 0 {
		r.retryDelay = defaultRetryDelay
	}
	return r, nil
}

func (r *Redis) Enabled() bool { return r != nil && !r.disabled }

func (r *Redis) Delete(ctx context.Context, key string) error {
	if !r.Enabled() {
		return backend.ErrDisabled
	}
	return r.rdb.Del(ctx, key).Err()
}

func (r *Redis) SetExpiry(ctx context.Context, key string, ttl time.Duration) error {
	if !r.Enabled() {
		return backend.ErrDisabled
	}
	if ttl <= 0 {
		return r.rdb.Persist(ctx, key).Err()
	}
	return r.rdb.Expire(ctx, key, ttl).Err()
}

func (r *Redis) SetHashField(ctx context.Context, key, field, value string) error {
	if !r.Enabled() {
		return backend.ErrDisabled
	}
	return r.rdb.HSet(ctx, key, field, value).Err()
}

func (r *Redis) GetAllHashFields(ctx context.Context, key string) (map[string]string, error) {
	if !r.Enabled() {
		return nil, backend.ErrDisabled
	}
	m, err := r.rdb.HGetAll(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return map[string]string{}, nil
	}
	return m, err
}

// TTL reports the remaining expiry of key. It returns -1 for keys without
// expiry and -2 for missing keys, as Redis does.
func (r *Redis) TTL(ctx context.Context, key string) (time.Duration, error) {
	d, err := r.rdb.TTL(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	return d, nil
}

// Ping checks the Redis connection.
func (r *Redis) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

// Close releases the underlying redis client only when this backend owns it.
// Safe to call multiple times; repeated calls become no-ops.
func (r *Redis) Close(context.Context) error {
	if r.closeClient {
		if err := r.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}
