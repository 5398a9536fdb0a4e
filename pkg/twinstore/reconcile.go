package twinstore

import (
	"context"

	"github.com/nyxwave/fleetmesh/pkg/twin"
)

// Reconcile applies the version-reconciliation admission rule to an
// incoming property-group write: the stored twin must exist, and the
// incoming version must be greater than or equal to the stored one.
// Equal versions are accepted as idempotent overwrites. The entire
// property group at target is replaced on acceptance.
func Reconcile(ctx context.Context, store Store, deviceID string, target twin.Target, incoming twin.Properties) (twin.Twin, error) {
	current, err := store.SelectByDeviceID(ctx, deviceID)
	if err != nil {
		return twin.Twin{}, err
	}
	if current == nil {
		return twin.Twin{}, ErrRecordNotFound(deviceID)
	}

	stored := storedVersion(*current, target)
	if stored > incoming.Version {
		return twin.Twin{}, ErrStaleWrite(deviceID, stored, incoming.Version)
	}

	return store.Patch(ctx, deviceID, TargetPath(target), incoming)
}

func storedVersion(t twin.Twin, target twin.Target) uint64 {
	switch target {
	case twin.TargetTag:
		return t.Tag.Version
	case twin.TargetDesired:
		return t.Desired.Version
	case twin.TargetReported:
		return t.Reported.Version
	default:
		return t.Meta.Version
	}
}
