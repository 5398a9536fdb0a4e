package twin_test

import (
	"testing"

	"github.com/nyxwave/fleetmesh/pkg/twin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTwinSeedsVersions(t *testing.T) {
	tw := twin.NewTwin(twin.NewDeviceRequest{DeviceID: "pig5", ModelID: "m1", Status: twin.StatusEnabled}, 1_700_000_000_000_000_000)

	assert.Equal(t, "pig5", tw.Meta.DeviceID)
	assert.Equal(t, twin.StatusEnabled, tw.Meta.Status)
	assert.Equal(t, twin.StatusReasonProvisioned, tw.Meta.StatusReason)
	assert.Equal(t, twin.ConnectionStateDisconnected, tw.Meta.ConnectionState)
	assert.Equal(t, uint64(1), tw.Meta.Version)

	assert.Equal(t, uint64(0), tw.Tag.Version)
	assert.Equal(t, uint64(0), tw.Desired.Version)
	assert.Equal(t, uint64(0), tw.Reported.Version)
	assert.NotNil(t, tw.Tag.Values)
}

func TestNewTwinDefaultsStatusToEnabled(t *testing.T) {
	tw := twin.NewTwin(twin.NewDeviceRequest{DeviceID: "pig5"}, 0)
	assert.Equal(t, twin.StatusEnabled, tw.Meta.Status)
}

func TestTargetStringAndPath(t *testing.T) {
	cases := []struct {
		target twin.Target
		str    string
		path   string
	}{
		{twin.TargetMeta, "meta", "meta_properties"},
		{twin.TargetTag, "tag", "tag_properties"},
		{twin.TargetDesired, "desired", "desired_properties"},
		{twin.TargetReported, "reported", "reported_properties"},
		{twin.TargetAll, "all", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.str, c.target.String())
		assert.Equal(t, c.path, c.target.Path())
	}
}

func TestParseTarget(t *testing.T) {
	target, ok := twin.ParseTarget("desired")
	require.True(t, ok)
	assert.Equal(t, twin.TargetDesired, target)

	_, ok = twin.ParseTarget("bogus")
	assert.False(t, ok)
}
