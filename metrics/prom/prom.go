// Package prom exports cache events as Prometheus metrics.
//
//	h := prom.New(prometheus.DefaultRegisterer, "qedge")
//	cache, _ := chunkcache.New[Edge](chunkcache.Options[Edge]{Backend: rb, Hooks: h})
//
// Metrics (namespace prefix omitted):
//
//	chunkcache_lookups_total{result="hit|miss"}
//	chunkcache_writes_total
//	chunkcache_records_written_total
//	chunkcache_chunks_written_total
//	chunkcache_failures_total{op, reason}
//	chunkcache_lookup_records   (histogram)
package prom

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/unkn0wn-root/chunkcache"
)

// Failure reasons used in chunkcache_failures_total.
const (
	ReasonLockTimeout = "lock_timeout"
	ReasonBackend     = "backend"
	ReasonAborted     = "write_aborted"
	ReasonOrphaned    = "orphaned"
	ReasonDecode      = "decode"
	ReasonExpiry      = "expiry"
)

type Hooks struct {
	lookups        *prometheus.CounterVec
	writes         prometheus.Counter
	recordsWritten prometheus.Counter
	chunksWritten  prometheus.Counter
	failures       *prometheus.CounterVec
	lookupRecords  prometheus.Histogram
}

var _ chunkcache.Hooks = (*Hooks)(nil)

// New creates the collectors and registers them with reg. A nil reg skips
// registration (collectors are still usable).
func New(reg prometheus.Registerer, namespace string) (*Hooks, error) {
	h := &Hooks{
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chunkcache",
			Name:      "lookups_total",
			Help:      "Cache lookups that completed, by result.",
		}, []string{"result"}),
		writes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chunkcache",
			Name:      "writes_total",
			Help:      "Cache entries written successfully.",
		}),
		recordsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chunkcache",
			Name:      "records_written_total",
			Help:      "Records stored by successful writes.",
		}),
		chunksWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chunkcache",
			Name:      "chunks_written_total",
			Help:      "Chunks stored by successful writes.",
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chunkcache",
			Name:      "failures_total",
			Help:      "Cache failures absorbed without affecting the caller.",
		}, []string{"op", "reason"}),
		lookupRecords: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "chunkcache",
			Name:      "lookup_records",
			Help:      "Records returned by cache hits.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}),
	}
	if reg != nil {
		for _, c := range []prometheus.Collector{h.lookups, h.writes, h.recordsWritten, h.chunksWritten, h.failures, h.lookupRecords} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return h, nil
}

func (h *Hooks) LockTimeout(op, _ string) {
	h.failures.WithLabelValues(op, ReasonLockTimeout).Inc()
}

func (h *Hooks) BackendError(op, _ string, _ error) {
	h.failures.WithLabelValues(op, ReasonBackend).Inc()
}

func (h *Hooks) WriteAborted(string, error) {
	h.failures.WithLabelValues(chunkcache.OpWrite, ReasonAborted).Inc()
}

func (h *Hooks) OrphanedEntry(string, error) {
	h.failures.WithLabelValues(chunkcache.OpWrite, ReasonOrphaned).Inc()
}

func (h *Hooks) DecodeFailed(string, error) {
	h.failures.WithLabelValues(chunkcache.OpLookup, ReasonDecode).Inc()
}

// ExpiryFailed is reported under op "expiry" since both paths set TTLs.
func (h *Hooks) ExpiryFailed(string, error) {
	h.failures.WithLabelValues("expiry", ReasonExpiry).Inc()
}

func (h *Hooks) Written(_ string, records, chunks int) {
	h.writes.Inc()
	h.recordsWritten.Add(float64(records))
	h.chunksWritten.Add(float64(chunks))
}

func (h *Hooks) Lookup(_ string, hit bool, records int) {
	if !hit {
		h.lookups.WithLabelValues("miss").Inc()
		return
	}
	h.lookups.WithLabelValues("hit").Inc()
	h.lookupRecords.Observe(float64(records))
}
