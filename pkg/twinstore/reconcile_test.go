package twinstore_test

import (
	"context"
	"testing"

	"github.com/nyxwave/fleetmesh/pkg/twin"
	"github.com/nyxwave/fleetmesh/pkg/twinstore"
	"github.com/nyxwave/fleetmesh/pkg/twinstore/adapters/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileRejectsStaleWrite(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	tw := twin.NewTwin(twin.NewDeviceRequest{DeviceID: "pig5", ModelID: "m1", Status: twin.StatusEnabled}, 0)
	_, err := store.Insert(ctx, "pig5", tw)
	require.NoError(t, err)

	_, err = twinstore.Reconcile(ctx, store, "pig5", twin.TargetDesired, twin.Properties{Values: map[string]any{"led": "on"}, Version: 5})
	require.NoError(t, err)

	_, err = twinstore.Reconcile(ctx, store, "pig5", twin.TargetDesired, twin.Properties{Values: map[string]any{"led": "off"}, Version: 3})
	require.Error(t, err)

	var staleErr *twinstore.StaleWriteError
	require.ErrorAs(t, err, &staleErr)
	assert.Equal(t, uint64(5), staleErr.Stored)
	assert.Equal(t, uint64(3), staleErr.Incoming)

	got, err := store.SelectByDeviceID(ctx, "pig5")
	require.NoError(t, err)
	assert.Equal(t, uint64(5), got.Desired.Version)
}

func TestReconcileAcceptsEqualVersionAsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	tw := twin.NewTwin(twin.NewDeviceRequest{DeviceID: "pig5"}, 0)
	_, err := store.Insert(ctx, "pig5", tw)
	require.NoError(t, err)

	props := twin.Properties{Values: map[string]any{"led": "on"}, Version: 5}
	_, err = twinstore.Reconcile(ctx, store, "pig5", twin.TargetDesired, props)
	require.NoError(t, err)

	_, err = twinstore.Reconcile(ctx, store, "pig5", twin.TargetDesired, props)
	require.NoError(t, err)
}

func TestReconcileMissingTwinReturnsRecordNotFound(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	_, err := twinstore.Reconcile(ctx, store, "ghost", twin.TargetDesired, twin.Properties{Version: 1})
	assert.Error(t, err)
}

func TestApplyHeartbeatUpdatesActivityAndConnectionState(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	tw := twin.NewTwin(twin.NewDeviceRequest{DeviceID: "pig5"}, 0)
	_, err := store.Insert(ctx, "pig5", tw)
	require.NoError(t, err)

	got, err := twinstore.ApplyHeartbeat(ctx, store, "pig5", 1_700_000_000_000_000_000)
	require.NoError(t, err)
	assert.Equal(t, int64(1_700_000_000_000_000_000), got.Meta.LastActivityTime)
	assert.Equal(t, twin.ConnectionStateConnected, got.Meta.ConnectionState)
}
