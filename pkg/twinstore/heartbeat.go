package twinstore

import (
	"context"

	"github.com/nyxwave/fleetmesh/pkg/twin"
)

// ApplyHeartbeat patches meta.last_activity_time and meta.connection_state
// for an incoming heartbeat delivery. The two sub-paths are patched by two
// separate Patch calls, so a concurrent reader between them can observe a
// refreshed timestamp next to the previous connection state.
func ApplyHeartbeat(ctx context.Context, store Store, deviceID string, timestamp int64) (twin.Twin, error) {
	if _, err := store.Patch(ctx, deviceID, PathLastActivityTime, timestamp); err != nil {
		return twin.Twin{}, err
	}
	return store.Patch(ctx, deviceID, PathConnectionState, twin.ConnectionStateConnected)
}
