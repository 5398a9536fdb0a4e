package serialization

import "github.com/nyxwave/fleetmesh/pkg/errors"

// MsgPackCodec is a placeholder: no MessagePack library is part of this
// module's dependency set, and nothing in the broker's core contract
// requires it. Encode/Decode always fail so a caller who selects this
// format at runtime gets a clear error instead of silent data loss.
type MsgPackCodec[T any] struct{}

// NewMsgPackCodec returns an unimplemented MsgPack codec for T.
func NewMsgPackCodec[T any]() MsgPackCodec[T] {
	return MsgPackCodec[T]{}
}

func (MsgPackCodec[T]) Encode(v T) ([]byte, error) {
	var zero []byte
	return zero, errors.New(errors.CodeInternal, "msgpack encoding is not implemented", nil)
}

func (MsgPackCodec[T]) Decode(data []byte) (T, error) {
	var zero T
	return zero, errors.New(errors.CodeInternal, "msgpack decoding is not implemented", nil)
}
