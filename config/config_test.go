package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/unkn0wn-root/chunkcache"
	"github.com/unkn0wn-root/chunkcache/codec"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("expected localhost:6379, got %s", cfg.Redis.Addr)
	}
	if cfg.Cache.LockWait != 30*time.Second {
		t.Errorf("expected 30s lock wait, got %v", cfg.Cache.LockWait)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("TEST_REDIS_PASSWORD", "hunter2")

	content := `
redis:
  addr: redis.internal:6380
  password: ${TEST_REDIS_PASSWORD}
  db: 2
  lock_ttl: 45s
cache:
  ttl: "600"
  codec: msgpack
  max_decode_bytes: 1048576
log:
  backend: zap
  level: debug
`
	dir := t.TempDir()
	path := filepath.Join(dir, "chunkcache.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Redis.Password != "hunter2" {
		t.Errorf("expected expanded password, got %q", cfg.Redis.Password)
	}
	if cfg.Redis.DB != 2 || cfg.Redis.LockTTL != 45*time.Second {
		t.Errorf("unexpected redis config: %+v", cfg.Redis)
	}
	// untouched fields keep defaults
	if cfg.Cache.OpTimeout != 10*time.Second {
		t.Errorf("expected default op timeout, got %v", cfg.Cache.OpTimeout)
	}
	if cfg.EntryTTL() != 600*time.Second {
		t.Errorf("expected 600s ttl, got %v", cfg.EntryTTL())
	}

	cd, err := Codec[map[string]any](cfg)
	if err != nil {
		t.Fatal(err)
	}
	lc, ok := cd.(codec.LimitCodec[map[string]any])
	if !ok || lc.MaxDecode != 1048576 {
		t.Fatalf("expected size-limited codec, got %T", cd)
	}
	if _, ok := lc.Inner.(codec.Msgpack[map[string]any]); !ok {
		t.Fatalf("expected msgpack inner codec, got %T", lc.Inner)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]string{
		"bad codec":   "cache:\n  codec: gob\n",
		"bad ttl":     "cache:\n  ttl: soon\n",
		"negative":    "cache:\n  ttl: \"-5\"\n",
		"no addr":     "redis:\n  addr: \"\"\n",
		"bad logger":  "log:\n  backend: syslog\n",
		"bad decode":  "cache:\n  max_decode_bytes: -1\n",
		"broken yaml": "redis: [\n",
		"tiny lock":   "redis:\n  lock_ttl: 1ns\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(body)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestEntryTTLZeroDisablesExpiry(t *testing.T) {
	cfg, err := Parse([]byte("cache:\n  ttl: \"0\"\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.EntryTTL() != chunkcache.NoExpiry {
		t.Fatalf("expected NoExpiry, got %v", cfg.EntryTTL())
	}
}

func TestEntryTTLFallsBackToEnv(t *testing.T) {
	t.Setenv(chunkcache.EnvTTL, "90")
	if got := Default().EntryTTL(); got != 90*time.Second {
		t.Fatalf("expected env ttl, got %v", got)
	}
}
