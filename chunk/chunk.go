// Package chunk implements the delimited chunk format used for cache entries.
//
// A chunk is one batch of up to BatchSize records, serialized by a
// codec.Codec, compressed into an LZ4 frame, encoded as unpadded base64url
// and terminated by Delimiter:
//
//	base64url(lz4(codec.EncodeBatch(records[i:i+64]))) + ","
//
// The base64url alphabet never contains the delimiter, so concatenated
// chunks can be split back unambiguously.
package chunk

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

const (
	// BatchSize is the number of records serialized into one chunk.
	BatchSize = 64
	// Delimiter terminates every chunk.
	Delimiter = ','
)

// ErrDecode is returned (wrapped) when a chunk cannot be decoded.
var ErrDecode = errors.New("chunk: decode failed")

var text = base64.RawURLEncoding

func pack(payload []byte) (string, error) {
	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(payload); err != nil {
		return "", fmt.Errorf("chunk: compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("chunk: compress: %w", err)
	}
	return text.EncodeToString(buf.Bytes()) + string(Delimiter), nil
}

// unpack reverses pack. A positive limit caps the inflated size.
func unpack(piece string, limit int) ([]byte, error) {
	compressed, err := text.DecodeString(piece)
	if err != nil {
		return nil, fmt.Errorf("%w: base64: %v", ErrDecode, err)
	}
	if len(compressed) == 0 {
		return nil, fmt.Errorf("%w: empty chunk", ErrDecode)
	}
	var zr io.Reader = lz4.NewReader(bytes.NewReader(compressed))
	if limit > 0 {
		zr = io.LimitReader(zr, int64(limit)+1)
	}
	payload, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: lz4: %v", ErrDecode, err)
	}
	if limit > 0 && len(payload) > limit {
		return nil, fmt.Errorf("%w: payload exceeds %d bytes", ErrDecode, limit)
	}
	return payload, nil
}
