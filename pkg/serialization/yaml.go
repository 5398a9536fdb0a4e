package serialization

import "gopkg.in/yaml.v3"

// YAMLCodec encodes and decodes values as YAML. Neither the broker wire
// path nor the config loader (which uses cleanenv) goes through it.
type YAMLCodec[T any] struct{}

// NewYAMLCodec returns a ready YAML codec for T.
func NewYAMLCodec[T any]() YAMLCodec[T] {
	return YAMLCodec[T]{}
}

func (YAMLCodec[T]) Encode(v T) ([]byte, error) {
	return yaml.Marshal(v)
}

func (YAMLCodec[T]) Decode(data []byte) (T, error) {
	var v T
	if err := yaml.Unmarshal(data, &v); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}
