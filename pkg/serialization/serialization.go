// Package serialization provides a kind-tagged encode/decode facade used
// by the broker client to turn Go values into message bodies and back.
package serialization

import "github.com/nyxwave/fleetmesh/pkg/errors"

// Format identifies a wire encoding.
type Format string

const (
	Json    Format = "json"
	MsgPack Format = "msgpack"
	Yaml    Format = "yaml"
)

// Codec encodes and decodes values of type T to and from bytes.
type Codec[T any] interface {
	Encode(v T) ([]byte, error)
	Decode(data []byte) (T, error)
}

// ErrUnsupportedFormat builds the error for a Format with no codec.
func ErrUnsupportedFormat(format Format) error {
	return errors.New(errors.CodeInvalidArgument, "unsupported serialization format: "+string(format), nil)
}
