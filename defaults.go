package chunkcache

import "time"

const (
	defaultLockWait  = 30 * time.Second
	defaultOpTimeout = 10 * time.Second
)

// coalesce returns def when v is the zero value of T - otherwise v.
func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
