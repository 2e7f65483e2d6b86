package chunk

import (
	"fmt"
	"strings"

	"github.com/unkn0wn-root/chunkcache/codec"
)

// Decoder turns ordered chunk fragments back into records. Fragments need
// not align with chunk boundaries. Not safe for concurrent use.
type Decoder[V any] struct {
	codec codec.Codec[V]
	limit int
	buf   strings.Builder
}

// NewDecoder honors codec.DecodeLimiter while inflating chunks.
func NewDecoder[V any](c codec.Codec[V]) *Decoder[V] {
	d := &Decoder[V]{codec: c}
	if l, ok := c.(codec.DecodeLimiter); ok {
		d.limit = l.DecodeLimit()
	}
	return d
}

// Push appends fragment and returns the records of every chunk it completed.
func (d *Decoder[V]) Push(fragment string) ([]V, error) {
	d.buf.WriteString(fragment)
	if !strings.ContainsRune(fragment, Delimiter) {
		return nil, nil
	}
	pieces := strings.Split(d.buf.String(), string(Delimiter))
	rest := pieces[len(pieces)-1]
	d.buf.Reset()
	d.buf.WriteString(rest)

	var out []V
	for _, p := range pieces[:len(pieces)-1] {
		recs, err := d.decode(p)
		if err != nil {
			return nil, err
		}
		out = append(out, recs...)
	}
	return out, nil
}

// Flush decodes whatever is left after the last delimiter. A trailing
// delimiter is not required.
func (d *Decoder[V]) Flush() ([]V, error) {
	if d.buf.Len() == 0 {
		return nil, nil
	}
	rest := d.buf.String()
	d.buf.Reset()
	return d.decode(rest)
}

func (d *Decoder[V]) decode(piece string) ([]V, error) {
	payload, err := unpack(piece, d.limit)
	if err != nil {
		return nil, err
	}
	recs, err := d.codec.DecodeBatch(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return recs, nil
}

// Decode drives a Decoder over fragments in order. Any failure discards
// everything decoded so far.
func Decode[V any](c codec.Codec[V], fragments []string) ([]V, error) {
	dec := NewDecoder(c)
	var out []V
	for _, f := range fragments {
		recs, err := dec.Push(f)
		if err != nil {
			return nil, err
		}
		out = append(out, recs...)
	}
	recs, err := dec.Flush()
	if err != nil {
		return nil, err
	}
	return append(out, recs...), nil
}
