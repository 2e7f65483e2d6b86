package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/unkn0wn-root/chunkcache"
)

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func writeConfig(t *testing.T, addr, extra string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chunkcache.yaml")
	body := "redis:\n  addr: " + addr + "\nlog:\n  backend: none\n" + extra
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestPutGetRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := writeConfig(t, mr.Addr(), "")

	records := make([]map[string]any, 70)
	for i := range records {
		records[i] = map[string]any{"id": i, "name": "ü-" + string(rune('a'+i%26))}
	}
	in, _ := json.Marshal(records)

	out, _, err := run(t, string(in), "-c", cfg, "put", "q1")
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if !strings.Contains(out, "cached 70 records") {
		t.Fatalf("unexpected put output %q", out)
	}
	if fields, _ := mr.HKeys(chunkcache.EntryKey("q1")); len(fields) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(fields))
	}

	out, _, err = run(t, "", "-c", cfg, "get", "q1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var got []map[string]any
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("get output not JSON: %v (%q)", err, out)
	}
	if len(got) != 70 || got[69]["id"].(float64) != 69 {
		t.Fatalf("unexpected records: %d", len(got))
	}
}

func TestGetMiss(t *testing.T) {
	mr := miniredis.RunT(t)
	_, errOut, err := run(t, "", "--addr", mr.Addr(), "-c", writeConfig(t, mr.Addr(), ""), "get", "missing")
	if !errors.Is(err, errMiss) {
		t.Fatalf("expected miss, got %v", err)
	}
	if !strings.Contains(errOut, "no cached content") {
		t.Fatalf("unexpected stderr %q", errOut)
	}
}

func TestPutRejectsNonArray(t *testing.T) {
	mr := miniredis.RunT(t)
	if _, _, err := run(t, `{"a":1}`, "-c", writeConfig(t, mr.Addr(), ""), "put", "q"); err == nil {
		t.Fatal("expected error for non-array input")
	}
}

func TestKeys(t *testing.T) {
	out, _, err := run(t, "", "keys", "abc")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "bte:cacheContent:abc") || !strings.Contains(out, "bte:cachingLock:abc") {
		t.Fatalf("unexpected keys output %q", out)
	}
}

func TestInspect(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := writeConfig(t, mr.Addr(), "cache:\n  ttl: \"120\"\n")

	recs := make([]int, 64*11+1)
	in, _ := json.Marshal(recs)
	if _, _, err := run(t, string(in), "-c", cfg, "put", "big"); err != nil {
		t.Fatal(err)
	}

	out, _, err := run(t, "", "-c", cfg, "inspect", "big")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "chunks  12") {
		t.Fatalf("expected 12 chunks in %q", out)
	}
	if !strings.Contains(out, "[0 1 2 3 4 5 6 7 8 9 10 11]") {
		t.Fatalf("fields not numerically ordered: %q", out)
	}
	if !strings.Contains(out, "ttl     2m0s") {
		t.Fatalf("unexpected ttl in %q", out)
	}

	out, _, err = run(t, "", "-c", cfg, "inspect", "nothing")
	if err != nil || !strings.Contains(out, "absent") {
		t.Fatalf("expected absent, got %q %v", out, err)
	}
}

func TestInspectNoExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := writeConfig(t, mr.Addr(), "cache:\n  ttl: \"0\"\n")
	if _, _, err := run(t, "[1,2]", "-c", cfg, "put", "k"); err != nil {
		t.Fatal(err)
	}
	out, _, err := run(t, "", "-c", cfg, "inspect", "k")
	if err != nil || !strings.Contains(out, "ttl     none") {
		t.Fatalf("expected no ttl, got %q %v", out, err)
	}
}

func TestBadConfig(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := writeConfig(t, mr.Addr(), "cache:\n  codec: gob\n")
	if _, _, err := run(t, "", "-c", cfg, "get", "x"); err == nil {
		t.Fatal("expected config error")
	}
}

func TestTraceFlag(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := writeConfig(t, mr.Addr(), "")
	if _, _, err := run(t, "[1]", "--trace", "-c", cfg, "put", "traced"); err != nil {
		t.Fatalf("put with tracing: %v", err)
	}
}
