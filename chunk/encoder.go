package chunk

import (
	"github.com/unkn0wn-root/chunkcache/codec"
)

// Encoder turns a record stream into chunks. It is not safe for concurrent
// use; create one per encode.
type Encoder[V any] struct {
	codec codec.Codec[V]
	buf   []V
}

func NewEncoder[V any](c codec.Codec[V]) *Encoder[V] {
	return &Encoder[V]{codec: c, buf: make([]V, 0, BatchSize)}
}

// Push buffers v and returns the chunk completed by it, if any.
func (e *Encoder[V]) Push(v V) ([]string, error) {
	e.buf = append(e.buf, v)
	if len(e.buf) < BatchSize {
		return nil, nil
	}
	return e.emit()
}

// Flush returns the final partial chunk. It returns nothing when the buffer
// is empty.
func (e *Encoder[V]) Flush() ([]string, error) {
	if len(e.buf) == 0 {
		return nil, nil
	}
	return e.emit()
}

func (e *Encoder[V]) emit() ([]string, error) {
	payload, err := e.codec.EncodeBatch(e.buf)
	e.buf = e.buf[:0]
	if err != nil {
		return nil, err
	}
	s, err := pack(payload)
	if err != nil {
		return nil, err
	}
	return []string{s}, nil
}

// Encode drives an Encoder over records and calls emit for every chunk with
// its zero-based index. It stops at the first error from the codec or emit.
// It returns the number of chunks emitted.
func Encode[V any](c codec.Codec[V], records []V, emit func(index int, chunk string) error) (int, error) {
	enc := NewEncoder(c)
	n := 0
	send := func(chunks []string) error {
		for _, ch := range chunks {
			if err := emit(n, ch); err != nil {
				return err
			}
			n++
		}
		return nil
	}
	for _, r := range records {
		chunks, err := enc.Push(r)
		if err != nil {
			return n, err
		}
		if err := send(chunks); err != nil {
			return n, err
		}
	}
	chunks, err := enc.Flush()
	if err != nil {
		return n, err
	}
	return n, send(chunks)
}
