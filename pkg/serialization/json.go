package serialization

import "encoding/json"

// JSONCodec encodes and decodes values as UTF-8 JSON. It is the only
// format required end-to-end by the broker client's wire contract.
type JSONCodec[T any] struct{}

// NewJSONCodec returns a ready JSON codec for T.
func NewJSONCodec[T any]() JSONCodec[T] {
	return JSONCodec[T]{}
}

func (JSONCodec[T]) Encode(v T) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONCodec[T]) Decode(data []byte) (T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}
