package codec

import (
	"bytes"
	"encoding/json"
)

// JSON is the default batch codec. Its output is what older writers of the
// same keyspace produced, so entries stay readable across deployments.
type JSON[V any] struct{}

var _ Codec[struct{}] = JSON[struct{}]{}

func (JSON[V]) EncodeBatch(batch []V) ([]byte, error) {
	if batch == nil {
		batch = []V{}
	}
	return json.Marshal(batch)
}

func (JSON[V]) DecodeBatch(b []byte) ([]V, error) {
	trimmed := bytes.TrimLeft(b, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var out []V
		if err := json.Unmarshal(trimmed, &out); err != nil {
			return nil, err
		}
		return out, nil
	}
	var v V
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, err
	}
	return []V{v}, nil
}
