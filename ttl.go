package chunkcache

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// EnvTTL overrides the entry TTL in whole seconds. "0" disables expiry.
	EnvTTL = "QEDGE_CACHE_TIME_S"
	// DefaultTTL applies when EnvTTL is unset or invalid.
	DefaultTTL = 1800 * time.Second
	// NoExpiry in Options.TTL keeps entries until they are rewritten.
	NoExpiry time.Duration = -1
)

// ParseTTL interprets an EnvTTL value: "" => DefaultTTL, "0" => NoExpiry,
// a positive integer => that many seconds.
func ParseTTL(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultTTL, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("chunkcache: invalid ttl %q: %w", s, err)
	}
	switch {
	case n == 0:
		return NoExpiry, nil
	case n < 0:
		return 0, fmt.Errorf("chunkcache: invalid ttl %q: negative", s)
	}
	return time.Duration(n) * time.Second, nil
}

// TTLFromEnv reads EnvTTL, falling back to DefaultTTL on invalid input.
func TTLFromEnv() time.Duration {
	d, err := ParseTTL(os.Getenv(EnvTTL))
	if err != nil {
		return DefaultTTL
	}
	return d
}
