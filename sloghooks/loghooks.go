package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/chunkcache"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	LookupEvery uint64
	WriteEvery  uint64
	// Optional hash redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	lookupCtr atomic.Uint64
	writeCtr  atomic.Uint64
}

var _ chunkcache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) LockTimeout(op, hash string) {
	if h.l == nil {
		return
	}
	h.l.Warn("chunkcache.lock_timeout",
		"op", op,
		"hash", h.redact(hash))
}

func (h *Hooks) BackendError(op, hash string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("chunkcache.backend_error",
		"op", op,
		"hash", h.redact(hash),
		"err", err)
}

func (h *Hooks) WriteAborted(hash string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("chunkcache.write_aborted",
		"hash", h.redact(hash),
		"err", err)
}

func (h *Hooks) OrphanedEntry(hash string, err error) {
	if h.l == nil {
		return
	}
	h.l.Error("chunkcache.orphaned_entry",
		"hash", h.redact(hash),
		"err", err)
}

func (h *Hooks) DecodeFailed(hash string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("chunkcache.decode_failed",
		"hash", h.redact(hash),
		"err", err)
}

func (h *Hooks) ExpiryFailed(hash string, err error) {
	if h.l == nil {
		return
	}
	h.l.Info("chunkcache.expiry_failed",
		"hash", h.redact(hash),
		"err", err)
}

func (h *Hooks) Written(hash string, records, chunks int) {
	if h.l == nil || !sample(h.opts.WriteEvery, &h.writeCtr) {
		return
	}
	h.l.Debug("chunkcache.written",
		"hash", h.redact(hash),
		"records", records,
		"chunks", chunks)
}

func (h *Hooks) Lookup(hash string, hit bool, records int) {
	if h.l == nil || !sample(h.opts.LookupEvery, &h.lookupCtr) {
		return
	}
	h.l.Debug("chunkcache.lookup",
		"hash", h.redact(hash),
		"hit", hit,
		"records", records)
}
