// Package twinstore defines the twin document store interface, the
// version-reconciliation admission rule applied to property-group patches,
// and its adapters (an in-memory implementation for tests and local
// development, a MongoDB-backed one for production).
package twinstore

import (
	"context"

	"github.com/nyxwave/fleetmesh/pkg/twin"
)

// Store is a document store keyed by device id. Implementations must
// guarantee that each individual Patch is applied atomically with respect
// to other Patch/Insert/Delete calls on the same id; no multi-document
// transactions are required.
type Store interface {
	SelectAll(ctx context.Context) ([]twin.Twin, error)
	SelectByDeviceID(ctx context.Context, deviceID string) (*twin.Twin, error)
	SelectWhereMetaDeviceID(ctx context.Context, deviceID string) ([]twin.Twin, error)

	// Insert fails with errors.CodeAlreadyExists if deviceID is already
	// present.
	Insert(ctx context.Context, deviceID string, t twin.Twin) (twin.Twin, error)

	// Patch atomically replaces the value at path (one of the
	// meta_properties sub-fields, or a whole *_properties group) and
	// returns the twin as stored after the patch.
	Patch(ctx context.Context, deviceID string, path string, value any) (twin.Twin, error)

	// Delete removes the twin for deviceID, if present.
	Delete(ctx context.Context, deviceID string) (*twin.Twin, error)
}

// Patch paths recognized by every Store implementation.
const (
	PathLastActivityTime = "/meta_properties/last_activity_time"
	PathConnectionState  = "/meta_properties/connection_state"
)

// TargetPath returns the whole-group patch path for a target (e.g.
// "/desired_properties" for twin.TargetDesired).
func TargetPath(target twin.Target) string {
	return "/" + target.Path()
}
