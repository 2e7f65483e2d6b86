// Package config loads the YAML configuration used by the chunkcache CLI.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/unkn0wn-root/chunkcache"
	"github.com/unkn0wn-root/chunkcache/codec"
)

// Config holds all chunkcache settings.
type Config struct {
	Redis RedisConfig `yaml:"redis"`
	Cache CacheConfig `yaml:"cache"`
	Log   LogConfig   `yaml:"log"`
}

// RedisConfig describes the shared store.
type RedisConfig struct {
	Addr       string        `yaml:"addr"`
	Password   string        `yaml:"password"`
	DB         int           `yaml:"db"`
	LockTTL    time.Duration `yaml:"lock_ttl"`
	RetryDelay time.Duration `yaml:"retry_delay"`
}

// CacheConfig controls entry lifetime and encoding.
//
// TTL follows the QEDGE_CACHE_TIME_S rule: seconds, "0" disables expiry,
// empty falls back to the environment.
type CacheConfig struct {
	TTL            string        `yaml:"ttl"`
	LockWait       time.Duration `yaml:"lock_wait"`
	OpTimeout      time.Duration `yaml:"op_timeout"`
	Codec          string        `yaml:"codec"`
	MaxDecodeBytes int           `yaml:"max_decode_bytes"`
	Disabled       bool          `yaml:"disabled"`
}

// LogConfig selects the logger adapter. Backend is "slog", "logrus",
// "zap" or "none".
type LogConfig struct {
	Backend string `yaml:"backend"`
	Level   string `yaml:"level"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			LockTTL:    30 * time.Second,
			RetryDelay: 50 * time.Millisecond,
		},
		Cache: CacheConfig{
			LockWait:  30 * time.Second,
			OpTimeout: 10 * time.Second,
			Codec:     codec.NameJSON,
		},
		Log: LogConfig{
			Backend: "slog",
			Level:   "info",
		},
	}
}

// Load reads a YAML config file and expands environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over Default and validates the result.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the cache cannot run with.
func (c *Config) Validate() error {
	if c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr is required")
	}
	if c.Redis.LockTTL < 0 || (c.Redis.LockTTL > 0 && c.Redis.LockTTL < 10*time.Millisecond) {
		return fmt.Errorf("config: redis.lock_ttl must be at least 10ms")
	}
	if c.Cache.TTL != "" {
		if _, err := chunkcache.ParseTTL(c.Cache.TTL); err != nil {
			return fmt.Errorf("config: cache.ttl: %w", err)
		}
	}
	switch c.Cache.Codec {
	case codec.NameJSON, codec.NameMsgpack, codec.NameCBOR:
	default:
		return fmt.Errorf("config: unknown cache.codec %q", c.Cache.Codec)
	}
	if c.Cache.MaxDecodeBytes < 0 {
		return fmt.Errorf("config: cache.max_decode_bytes must not be negative")
	}
	switch strings.ToLower(c.Log.Backend) {
	case "slog", "logrus", "zap", "none", "":
	default:
		return fmt.Errorf("config: unknown log.backend %q", c.Log.Backend)
	}
	return nil
}

// EntryTTL resolves the configured entry lifetime.
func (c *Config) EntryTTL() time.Duration {
	if c.Cache.TTL == "" {
		return chunkcache.TTLFromEnv()
	}
	ttl, err := chunkcache.ParseTTL(c.Cache.TTL)
	if err != nil {
		return chunkcache.DefaultTTL
	}
	return ttl
}

// Codec builds the configured codec, bounded by MaxDecodeBytes when set.
func Codec[V any](c *Config) (codec.Codec[V], error) {
	cd, err := codec.ByName[V](c.Cache.Codec)
	if err != nil {
		return nil, err
	}
	if c.Cache.MaxDecodeBytes > 0 {
		cd = codec.LimitCodec[V]{Inner: cd, MaxDecode: c.Cache.MaxDecodeBytes}
	}
	return cd, nil
}
