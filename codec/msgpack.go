package codec

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"
)

// Msgpack is a Codec that serializes batches using vmihailenco/msgpack/v5.
// The zero value is ready to use.
//
// Msgpack is compact and fast; be mindful of struct tag differences vs JSON.
// Use `msgpack:"fieldName"` tags if you need explicit control.
type Msgpack[V any] struct{}

var _ Codec[struct{}] = Msgpack[struct{}]{}

func (Msgpack[V]) EncodeBatch(batch []V) ([]byte, error) {
	if batch == nil {
		batch = []V{}
	}
	return msgpack.Marshal(batch)
}

func (Msgpack[V]) DecodeBatch(b []byte) ([]V, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(b))
	c, err := dec.PeekCode()
	if err != nil {
		return nil, err
	}
	if msgpcode.IsFixedArray(c) || c == msgpcode.Array16 || c == msgpcode.Array32 {
		var out []V
		if err := dec.Decode(&out); err != nil {
			return nil, err
		}
		return out, nil
	}
	var v V
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return []V{v}, nil
}
