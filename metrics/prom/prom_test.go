package prom

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/unkn0wn-root/chunkcache"
	"github.com/unkn0wn-root/chunkcache/backend/memory"
)

func TestCountsEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	h, err := New(reg, "test")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	h.Written("a", 130, 3)
	h.Lookup("a", true, 130)
	h.Lookup("b", false, 0)
	h.Lookup("b", false, 0)
	h.LockTimeout(chunkcache.OpWrite, "a")
	h.OrphanedEntry("a", errors.New("x"))

	if got := testutil.ToFloat64(h.writes); got != 1 {
		t.Fatalf("writes=%v", got)
	}
	if got := testutil.ToFloat64(h.recordsWritten); got != 130 {
		t.Fatalf("records=%v", got)
	}
	if got := testutil.ToFloat64(h.lookups.WithLabelValues("miss")); got != 2 {
		t.Fatalf("misses=%v", got)
	}
	if got := testutil.ToFloat64(h.failures.WithLabelValues("write", ReasonLockTimeout)); got != 1 {
		t.Fatalf("lock timeouts=%v", got)
	}
	if got := testutil.ToFloat64(h.failures.WithLabelValues("write", ReasonOrphaned)); got != 1 {
		t.Fatalf("orphans=%v", got)
	}
	if n := testutil.CollectAndCount(reg); n != 8 {
		t.Fatalf("expected 8 series, got %d", n)
	}
}

func TestDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := New(reg, "dup"); err != nil {
		t.Fatal(err)
	}
	if _, err := New(reg, "dup"); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
}

func TestWiredIntoCache(t *testing.T) {
	ctx := context.Background()
	h, err := New(nil, "wired")
	if err != nil {
		t.Fatal(err)
	}
	c, err := chunkcache.New[int](chunkcache.Options[int]{
		Backend: memory.New(memory.Config{}),
		Hooks:   h,
		TTL:     chunkcache.DefaultTTL,
	})
	if err != nil {
		t.Fatal(err)
	}
	c.Write(ctx, "nums", []int{1, 2, 3})
	if got, ok := c.Lookup(ctx, "nums"); !ok || len(got) != 3 {
		t.Fatalf("lookup: %v %v", got, ok)
	}
	c.Lookup(ctx, "other")

	if got := testutil.ToFloat64(h.lookups.WithLabelValues("hit")); got != 1 {
		t.Fatalf("hits=%v", got)
	}
	if got := testutil.ToFloat64(h.chunksWritten); got != 1 {
		t.Fatalf("chunks=%v", got)
	}
}
