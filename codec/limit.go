package codec

import "fmt"

// LimitCodec wraps another codec to enforce a maximum allowed payload size
// at decode time. EncodeBatch is forwarded to Inner unchanged.
// If MaxDecode <= 0, size limiting is disabled.
//
// Typical use: protect against oversized chunks coming from a shared store.
type LimitCodec[V any] struct {
	// Inner is the underlying codec being wrapped. It must be set.
	Inner Codec[V]
	// MaxDecode is the maximum permitted length (in bytes) of a decompressed
	// batch payload.
	MaxDecode int
}

var _ Codec[struct{}] = LimitCodec[struct{}]{}

// DecodeLimiter is implemented by codecs that bound payload size. Callers
// that inflate payloads before decoding use it to stop early.
type DecodeLimiter interface {
	DecodeLimit() int // <= 0 => unlimited
}

func (c LimitCodec[V]) DecodeLimit() int { return c.MaxDecode }

func (c LimitCodec[V]) EncodeBatch(batch []V) ([]byte, error) { return c.Inner.EncodeBatch(batch) }
func (c LimitCodec[V]) DecodeBatch(b []byte) ([]V, error) {
	if c.MaxDecode > 0 && len(b) > c.MaxDecode {
		return nil, fmt.Errorf("payload too large: %d > %d", len(b), c.MaxDecode)
	}
	return c.Inner.DecodeBatch(b)
}
