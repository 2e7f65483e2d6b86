package sloghooks

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func newBuf() (*bytes.Buffer, *slog.Logger) {
	var buf bytes.Buffer
	return &buf, slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestRedactsHash(t *testing.T) {
	buf, l := newBuf()
	h := New(l, Options{})
	h.OrphanedEntry("secret-query-hash", errors.New("conn reset"))

	out := buf.String()
	if strings.Contains(out, "secret-query-hash") {
		t.Fatalf("hash leaked into logs: %s", out)
	}
	if !strings.Contains(out, "chunkcache.orphaned_entry") || !strings.Contains(out, "level=ERROR") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestCustomRedact(t *testing.T) {
	buf, l := newBuf()
	h := New(l, Options{Redact: func(s string) string { return "<" + s + ">" }})
	h.LockTimeout("write", "h1")
	if !strings.Contains(buf.String(), "hash=<h1>") {
		t.Fatalf("custom redactor not applied: %s", buf.String())
	}
}

func TestLookupSampling(t *testing.T) {
	buf, l := newBuf()
	h := New(l, Options{LookupEvery: 5})
	for range 20 {
		h.Lookup("h", true, 3)
	}
	if n := strings.Count(buf.String(), "chunkcache.lookup"); n != 4 {
		t.Fatalf("sampled %d lookup lines, want 4", n)
	}
}

func TestNilLogger(t *testing.T) {
	h := New(nil, Options{})
	h.WriteAborted("h", errors.New("x"))
	h.Written("h", 1, 1)
}
