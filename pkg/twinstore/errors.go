package twinstore

import (
	"fmt"

	"github.com/nyxwave/fleetmesh/pkg/errors"
)

// ErrRecordNotFound is returned by Patch/Delete when no twin exists for
// the given device id.
func ErrRecordNotFound(deviceID string) *errors.AppError {
	return errors.NotFound("twin not found: "+deviceID, nil)
}

// ErrAlreadyExists is returned by Insert when a twin already exists for
// the given device id.
func ErrAlreadyExists(deviceID string) *errors.AppError {
	return errors.AlreadyExists("twin already exists: "+deviceID, nil)
}

// StaleWriteError is returned by the version-reconciliation admission
// rule when an incoming property-group version is older than the one
// already stored.
type StaleWriteError struct {
	DeviceID string
	Stored   uint64
	Incoming uint64
}

func (e *StaleWriteError) Error() string {
	return fmt.Sprintf("stale write for %s: stored version %d, incoming version %d", e.DeviceID, e.Stored, e.Incoming)
}

// AsAppError renders a StaleWriteError as the CodeConflict AppError the
// admin API surfaces as HTTP 409.
func (e *StaleWriteError) AsAppError() *errors.AppError {
	return errors.Conflict(e.Error(), e)
}

// ErrStaleWrite constructs a StaleWriteError for the given device/versions.
func ErrStaleWrite(deviceID string, stored, incoming uint64) *StaleWriteError {
	return &StaleWriteError{DeviceID: deviceID, Stored: stored, Incoming: incoming}
}
