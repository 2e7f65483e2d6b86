package codec

import (
	"errors"

	"github.com/fxamacker/cbor/v2"
)

// CBOR is a Codec that serializes batches using fxamacker/cbor.
// The zero value is NOT ready to use. Construct with NewCBOR or MustCBOR.
//
// Use deterministic=true for canonical encoding (RFC 8949 Core Deterministic)
// when identical batches must produce identical chunks.
// Time values are encoded as RFC3339Nano.
type CBOR[V any] struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

var _ Codec[struct{}] = CBOR[struct{}]{}

// cborArray is the CBOR major type 4 (array) in the high three bits.
const cborArray = 4 << 5

// NewCBOR constructs a CBOR codec.
//   - Deterministic is true, uses CoreDetEncOptions (RFC 8949).
//   - Otherwise uses PreferredUnsortedEncOptions.
func NewCBOR[V any](deterministic bool) (CBOR[V], error) {
	var eo cbor.EncOptions
	if deterministic {
		eo = cbor.CoreDetEncOptions()
	} else {
		eo = cbor.PreferredUnsortedEncOptions()
	}
	eo.Time = cbor.TimeRFC3339Nano

	em, err := eo.EncMode()
	if err != nil {
		return CBOR[V]{}, err
	}
	dm, err := (cbor.DecOptions{}).DecMode()
	if err != nil {
		return CBOR[V]{}, err
	}
	return CBOR[V]{enc: em, dec: dm}, nil
}

// MustCBOR is like NewCBOR but panics on error.
// Handy for package-level variables in tests.
func MustCBOR[V any](deterministic bool) CBOR[V] {
	c, err := NewCBOR[V](deterministic)
	if err != nil {
		panic(err)
	}
	return c
}

func (c CBOR[V]) EncodeBatch(batch []V) ([]byte, error) {
	if batch == nil {
		batch = []V{}
	}
	return c.enc.Marshal(batch)
}

func (c CBOR[V]) DecodeBatch(b []byte) ([]V, error) {
	if len(b) == 0 {
		return nil, errors.New("cbor: empty payload")
	}
	if b[0]&0xe0 == cborArray {
		var out []V
		if err := c.dec.Unmarshal(b, &out); err != nil {
			return nil, err
		}
		return out, nil
	}
	var v V
	if err := c.dec.Unmarshal(b, &v); err != nil {
		return nil, err
	}
	return []V{v}, nil
}
