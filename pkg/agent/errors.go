package agent

import "github.com/nyxwave/fleetmesh/pkg/errors"

// ErrMissingDeviceID is a builder-time error: Build fails fast rather
// than letting an empty device id reach the broker as a malformed inbox
// queue name.
func ErrMissingDeviceID() *errors.AppError {
	return errors.New(errors.CodeInvalidArgument, "agent builder requires a device id", nil)
}

// ErrMissingBroker is a builder-time error for a missing broker URL.
func ErrMissingBroker() *errors.AppError {
	return errors.New(errors.CodeInvalidArgument, "agent builder requires a broker address", nil)
}
