// Package twinstoretest holds a contract test suite every twinstore.Store
// implementation is expected to pass.
package twinstoretest

import (
	"context"
	"testing"

	"github.com/nyxwave/fleetmesh/pkg/twin"
	"github.com/nyxwave/fleetmesh/pkg/twinstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStoreTests exercises Insert/Select/Patch/Delete against a freshly
// constructed, empty Store.
func RunStoreTests(t *testing.T, store twinstore.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("InsertAndSelectByDeviceID", func(t *testing.T) {
		tw := twin.NewTwin(twin.NewDeviceRequest{DeviceID: "contract-insert", ModelID: "m1"}, 100)
		_, err := store.Insert(ctx, "contract-insert", tw)
		require.NoError(t, err)

		got, err := store.SelectByDeviceID(ctx, "contract-insert")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "contract-insert", got.Meta.DeviceID)
	})

	t.Run("InsertRejectsDuplicate", func(t *testing.T) {
		tw := twin.NewTwin(twin.NewDeviceRequest{DeviceID: "contract-dup"}, 0)
		_, err := store.Insert(ctx, "contract-dup", tw)
		require.NoError(t, err)

		_, err = store.Insert(ctx, "contract-dup", tw)
		assert.Error(t, err)
	})

	t.Run("SelectByDeviceIDMissingReturnsNil", func(t *testing.T) {
		got, err := store.SelectByDeviceID(ctx, "contract-missing")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("PatchReplacesPropertyGroup", func(t *testing.T) {
		tw := twin.NewTwin(twin.NewDeviceRequest{DeviceID: "contract-patch"}, 0)
		_, err := store.Insert(ctx, "contract-patch", tw)
		require.NoError(t, err)

		newDesired := twin.Properties{Values: map[string]any{"led": "on"}, Version: 5}
		got, err := store.Patch(ctx, "contract-patch", twinstore.TargetPath(twin.TargetDesired), newDesired)
		require.NoError(t, err)
		assert.Equal(t, uint64(5), got.Desired.Version)
		assert.Equal(t, "on", got.Desired.Values["led"])
	})

	t.Run("PatchMissingReturnsRecordNotFound", func(t *testing.T) {
		_, err := store.Patch(ctx, "contract-no-such-device", twinstore.PathLastActivityTime, int64(1))
		assert.Error(t, err)
	})

	t.Run("DeleteRemovesTwin", func(t *testing.T) {
		tw := twin.NewTwin(twin.NewDeviceRequest{DeviceID: "contract-delete"}, 0)
		_, err := store.Insert(ctx, "contract-delete", tw)
		require.NoError(t, err)

		deleted, err := store.Delete(ctx, "contract-delete")
		require.NoError(t, err)
		require.NotNil(t, deleted)

		got, err := store.SelectByDeviceID(ctx, "contract-delete")
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}
