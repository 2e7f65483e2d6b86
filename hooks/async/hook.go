// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    LookupEvery: 100, // sample hit/miss logs: ~every 100th lookup
//	})
//
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	cache, _ := chunkcache.New[Edge](chunkcache.Options[Edge]{
//	    Backend: rb,
//	    Hooks:   hooks, // or `raw` if you don't want async
//	})
package asynchook

import (
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/chunkcache"
)

type Hooks struct {
	inner   chunkcache.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	dropped atomic.Uint64
}

var _ chunkcache.Hooks = (*Hooks)(nil)

func New(inner chunkcache.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers. Events sent after Close
// are dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		close(h.q)
		h.wg.Wait()
	})
}

// Dropped returns how many events were discarded because the queue was full.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	defer func() {
		// send on closed queue after Close
		if recover() != nil {
			h.dropped.Add(1)
		}
	}()
	select {
	case h.q <- f:
	default: // drop
		h.dropped.Add(1)
	}
}

func (h *Hooks) LockTimeout(op, hash string) { h.try(func() { h.inner.LockTimeout(op, hash) }) }
func (h *Hooks) WriteAborted(hash string, err error) {
	h.try(func() { h.inner.WriteAborted(hash, err) })
}
func (h *Hooks) OrphanedEntry(hash string, err error) {
	h.try(func() { h.inner.OrphanedEntry(hash, err) })
}
func (h *Hooks) DecodeFailed(hash string, err error) {
	h.try(func() { h.inner.DecodeFailed(hash, err) })
}
func (h *Hooks) ExpiryFailed(hash string, err error) {
	h.try(func() { h.inner.ExpiryFailed(hash, err) })
}
func (h *Hooks) BackendError(op, hash string, err error) {
	h.try(func() { h.inner.BackendError(op, hash, err) })
}
func (h *Hooks) Written(hash string, records, chunks int) {
	h.try(func() { h.inner.Written(hash, records, chunks) })
}
func (h *Hooks) Lookup(hash string, hit bool, records int) {
	h.try(func() { h.inner.Lookup(hash, hit, records) })
}
