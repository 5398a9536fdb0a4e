package registry_test

import (
	"context"
	"testing"
	"time"

	"github.com/nyxwave/fleetmesh/pkg/registry"
	"github.com/nyxwave/fleetmesh/pkg/twin"
	"github.com/nyxwave/fleetmesh/pkg/twinstore"
	"github.com/nyxwave/fleetmesh/pkg/twinstore/adapters/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStalenessSweeperDisconnectsStaleDevices(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	tw := twin.NewTwin(twin.NewDeviceRequest{DeviceID: "pig5"}, 0)
	_, err := store.Insert(ctx, "pig5", tw)
	require.NoError(t, err)

	staleTimestamp := time.Now().Add(-time.Hour).UnixNano()
	_, err = twinstore.ApplyHeartbeat(ctx, store, "pig5", staleTimestamp)
	require.NoError(t, err)

	sweepCtx, cancel := context.WithTimeout(ctx, 150*time.Millisecond)
	defer cancel()

	registry.NewStalenessSweeper(store, 20*time.Millisecond, time.Minute).Run(sweepCtx)

	got, err := store.SelectByDeviceID(ctx, "pig5")
	require.NoError(t, err)
	assert.Equal(t, twin.ConnectionStateDisconnected, got.Meta.ConnectionState)
}

func TestStalenessSweeperLeavesFreshDevicesConnected(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	tw := twin.NewTwin(twin.NewDeviceRequest{DeviceID: "pig5"}, 0)
	_, err := store.Insert(ctx, "pig5", tw)
	require.NoError(t, err)

	_, err = twinstore.ApplyHeartbeat(ctx, store, "pig5", time.Now().UnixNano())
	require.NoError(t, err)

	sweepCtx, cancel := context.WithTimeout(ctx, 80*time.Millisecond)
	defer cancel()

	registry.NewStalenessSweeper(store, 20*time.Millisecond, time.Hour).Run(sweepCtx)

	got, err := store.SelectByDeviceID(ctx, "pig5")
	require.NoError(t, err)
	assert.Equal(t, twin.ConnectionStateConnected, got.Meta.ConnectionState)
}
