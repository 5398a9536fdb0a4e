package broker

import "github.com/nyxwave/fleetmesh/pkg/errors"

// Error codes surfaced by the broker client. Consumer-loop handlers map
// these onto ack/nack decisions; the admin API maps them onto HTTP status.
const (
	CodeBrokerUnavailable = "BROKER_UNAVAILABLE"
	CodeTopologyConflict  = "BROKER_TOPOLOGY_CONFLICT"
	CodePublishFailed     = "BROKER_PUBLISH_FAILED"
	CodeCompressionError  = "BROKER_COMPRESSION_ERROR"
	CodeDecompressionErr  = "BROKER_DECOMPRESSION_ERROR"
	CodeDecodeError       = "BROKER_DECODE_ERROR"
)

// ErrBrokerUnavailable wraps a connection-pool exhaustion or transport
// failure. Consumer loops retry after this error; publishers surface it.
func ErrBrokerUnavailable(err error) *errors.AppError {
	return errors.New(CodeBrokerUnavailable, "broker connection unavailable", err)
}

// ErrTopologyConflict wraps a failed idempotent topology declaration
// against incompatible pre-existing attributes. Fatal to the affected
// consumer pool's startup.
func ErrTopologyConflict(name string, err error) *errors.AppError {
	return errors.New(CodeTopologyConflict, "topology conflict declaring "+name, err)
}

// ErrPublishFailed wraps a failed publish or missing broker acknowledgment.
func ErrPublishFailed(err error) *errors.AppError {
	return errors.New(CodePublishFailed, "failed to publish message", err)
}

// ErrCompressionError wraps a Brotli compression failure.
func ErrCompressionError(err error) *errors.AppError {
	return errors.New(CodeCompressionError, "failed to compress payload", err)
}

// ErrDecompressionError wraps a Brotli decompression failure, treated as a
// handler error (nack+requeue) by consumer loops.
func ErrDecompressionError(err error) *errors.AppError {
	return errors.New(CodeDecompressionErr, "failed to decompress payload", err)
}

// ErrDecodeError wraps a serialization decode failure, treated as a
// handler error (nack+requeue) by consumer loops.
func ErrDecodeError(err error) *errors.AppError {
	return errors.New(CodeDecodeError, "failed to decode message payload", err)
}
