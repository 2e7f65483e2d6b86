package codec

import "fmt"

// Codec encodes a batch of records into one payload and back.
//
// DecodeBatch must accept payloads that hold a single record rather than a
// sequence (entries written before batching existed) and return them as a
// one-element batch.
type Codec[V any] interface {
	EncodeBatch(batch []V) ([]byte, error)
	DecodeBatch(b []byte) ([]V, error)
}

// Names accepted by ByName.
const (
	NameJSON    = "json"
	NameMsgpack = "msgpack"
	NameCBOR    = "cbor"
)

// ByName returns the codec registered under name. An empty name selects JSON.
func ByName[V any](name string) (Codec[V], error) {
	switch name {
	case "", NameJSON:
		return JSON[V]{}, nil
	case NameMsgpack:
		return Msgpack[V]{}, nil
	case NameCBOR:
		return NewCBOR[V](true)
	default:
		return nil, fmt.Errorf("codec: unknown codec %q", name)
	}
}
