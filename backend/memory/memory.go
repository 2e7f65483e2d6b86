// Package memory is a single-process implementation of backend.Backend.
// It keeps the exact semantics of the shared store (hash entries, TTLs,
// lock staleness, locks extended while their action runs) and is meant for
// tests and local development.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/unkn0wn-root/chunkcache/backend"
)

const (
	defaultLockTTL      = 30 * time.Second
	defaultPollInterval = 2 * time.Millisecond
)

type entry struct {
	fields map[string]string
	exp    time.Time // zero => no TTL
}

type lockHold struct {
	owner uint64
	exp   time.Time
}

type Memory struct {
	mu      sync.Mutex
	entries map[string]*entry
	locks   map[string]lockHold
	nextID  uint64

	disabled bool
	lockTTL  time.Duration
	poll     time.Duration
	now      func() time.Time
}

var _ backend.Backend = (*Memory)(nil)

type Config struct {
	Disabled bool
	// LockTTL is the staleness bound of a lock. 0 => 30s.
	LockTTL time.Duration
	// PollInterval is how often a waiting WithLock retries. 0 => 2ms.
	PollInterval time.Duration
	// Now overrides the clock (tests). nil => time.Now.
	Now func() time.Time
}

func New(cfg Config) *Memory {
	m := &Memory{
		entries:  make(map[string]*entry),
		locks:    make(map[string]lockHold),
		disabled: cfg.Disabled,
		lockTTL:  cfg.LockTTL,
		poll:     cfg.PollInterval,
		now:      cfg.Now,
	}
	if m.lockTTL <= 0 {
		m.lockTTL = defaultLockTTL
	}
	if m.poll <= 0 {
		m.poll = defaultPollInterval
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

func (m *Memory) Enabled() bool { return !m.disabled }

func (m *Memory) WithLock(ctx context.Context, keys []string, wait time.Duration, fn func(ctx context.Context) error) error {
	if m.disabled {
		return backend.ErrDisabled
	}
	keys = slices.Clone(keys)
	slices.Sort(keys)
	keys = slices.Compact(keys)

	m.mu.Lock()
	m.nextID++
	owner := m.nextID
	m.mu.Unlock()

	deadline := time.Now().Add(wait)
	t := time.NewTicker(m.poll)
	defer t.Stop()
	for !m.tryLock(keys, owner) {
		if !time.Now().Before(deadline) {
			return backend.ErrLockTimeout
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	defer m.unlock(keys, owner)

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.keepAlive(keys, owner, stop)
	}()
	defer func() {
		close(stop)
		<-done
	}()
	return fn(ctx)
}

// keepAlive pushes the staleness deadline of owner's keys forward every
// lockTTL/3 until stop closes.
func (m *Memory) keepAlive(keys []string, owner uint64, stop <-chan struct{}) {
	t := time.NewTicker(max(m.lockTTL/3, time.Millisecond))
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			m.mu.Lock()
			exp := m.now().Add(m.lockTTL)
			for _, k := range keys {
				if h, ok := m.locks[k]; ok && h.owner == owner {
					m.locks[k] = lockHold{owner: owner, exp: exp}
				}
			}
			m.mu.Unlock()
		}
	}
}

// tryLock takes all keys or none.
func (m *Memory) tryLock(keys []string, owner uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for _, k := range keys {
		if h, ok := m.locks[k]; ok && now.Before(h.exp) {
			return false
		}
	}
	for _, k := range keys {
		m.locks[k] = lockHold{owner: owner, exp: now.Add(m.lockTTL)}
	}
	return true
}

func (m *Memory) unlock(keys []string, owner uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		if h, ok := m.locks[k]; ok && h.owner == owner {
			delete(m.locks, k)
		}
	}
}

// Locked reports whether key is currently held by a live lock.
func (m *Memory) Locked(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.locks[key]
	return ok && m.now().Before(h.exp)
}

func (m *Memory) Delete(_ context.Context, key string) error {
	if m.disabled {
		return backend.ErrDisabled
	}
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) SetExpiry(_ context.Context, key string, ttl time.Duration) error {
	if m.disabled {
		return backend.ErrDisabled
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.live(key)
	if e == nil {
		return nil
	}
	if ttl <= 0 {
		e.exp = time.Time{}
	} else {
		e.exp = m.now().Add(ttl)
	}
	return nil
}

func (m *Memory) SetHashField(_ context.Context, key, field, value string) error {
	if m.disabled {
		return backend.ErrDisabled
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.live(key)
	if e == nil {
		e = &entry{fields: make(map[string]string)}
		m.entries[key] = e
	}
	e.fields[field] = value
	return nil
}

func (m *Memory) GetAllHashFields(_ context.Context, key string) (map[string]string, error) {
	if m.disabled {
		return nil, backend.ErrDisabled
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.live(key)
	if e == nil {
		return map[string]string{}, nil
	}
	return maps.Clone(e.fields), nil
}

// Expiry returns the absolute expiry of key; ok is false when the key is
// missing. A zero time means the key never expires.
func (m *Memory) Expiry(key string) (exp time.Time, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.live(key)
	if e == nil {
		return time.Time{}, false
	}
	return e.exp, true
}

// Keys returns the live entry keys, sorted.
func (m *Memory) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.entries))
	for k := range m.entries {
		if m.live(k) != nil {
			out = append(out, k)
		}
	}
	slices.Sort(out)
	return out
}

func (m *Memory) Close(context.Context) error { return nil }

// live returns the entry at key, dropping it if expired. Callers hold mu.
func (m *Memory) live(key string) *entry {
	e, ok := m.entries[key]
	if !ok {
		return nil
	}
	if !e.exp.IsZero() && !m.now().Before(e.exp) {
		delete(m.entries, key)
		return nil
	}
	return e
}
