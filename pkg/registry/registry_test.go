package registry

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/nyxwave/fleetmesh/pkg/broker/brokertest"
	"github.com/nyxwave/fleetmesh/pkg/twin"
	"github.com/nyxwave/fleetmesh/pkg/twinstore/adapters/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleHeartbeatUpdatesTwin(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	_, err := store.Insert(ctx, "pig5", twin.NewTwin(twin.NewDeviceRequest{DeviceID: "pig5"}, 0))
	require.NoError(t, err)

	r := &Registry{store: store}
	err = r.handleHeartbeat(ctx, twin.HeartbeatRecord{DeviceID: "pig5", Timestamp: 1_700_000_000_000_000_000}, "")
	require.NoError(t, err)

	got, err := store.SelectByDeviceID(ctx, "pig5")
	require.NoError(t, err)
	assert.Equal(t, int64(1_700_000_000_000_000_000), got.Meta.LastActivityTime)
	assert.Equal(t, twin.ConnectionStateConnected, got.Meta.ConnectionState)
}

func TestHandleReportedAppliesVersionReconciliation(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	_, err := store.Insert(ctx, "pig5", twin.NewTwin(twin.NewDeviceRequest{DeviceID: "pig5"}, 0))
	require.NoError(t, err)

	r := &Registry{store: store}

	err = r.handleReported(ctx, twin.ReportedRequestRecord{
		DeviceID:           "pig5",
		ReportedProperties: twin.Properties{Values: map[string]any{"temp": 21.5}, Version: 5},
	}, "")
	require.NoError(t, err)

	err = r.handleReported(ctx, twin.ReportedRequestRecord{
		DeviceID:           "pig5",
		ReportedProperties: twin.Properties{Values: map[string]any{"temp": 99.9}, Version: 3},
	}, "")
	require.NoError(t, err, "stale reported writes are acked and dropped, not surfaced as handler errors")

	got, err := store.SelectByDeviceID(ctx, "pig5")
	require.NoError(t, err)
	assert.Equal(t, uint64(5), got.Reported.Version)
	assert.Equal(t, 21.5, got.Reported.Values["temp"])
}

func TestHandleDesiredRequestUnknownDeviceIsNoop(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	r := &Registry{store: store}

	err := r.handleDesiredRequest(ctx, twin.DesiredRequestRecord{DeviceID: "ghost"}, "ghost")
	assert.NoError(t, err)
}

func TestHandleDesiredRequestPublishesCurrentDesiredProperties(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	twinDoc := twin.NewTwin(twin.NewDeviceRequest{DeviceID: "pig5"}, 0)
	twinDoc.Desired = twin.Properties{Values: map[string]any{"fan_speed": 3}, Version: 2}
	_, err := store.Insert(ctx, "pig5", twinDoc)
	require.NoError(t, err)

	fake := brokertest.New()
	r := &Registry{store: store, broker: fake}

	err = r.handleDesiredRequest(ctx, twin.DesiredRequestRecord{DeviceID: "pig5"}, "")
	require.NoError(t, err)

	msgs := fake.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "pig5", msgs[0].RoutingKey)

	var got twin.Properties
	require.NoError(t, json.Unmarshal(msgs[0].Payload, &got))
	assert.Equal(t, uint64(2), got.Version)
	assert.EqualValues(t, 3, got.Values["fan_speed"])
}

func TestPublishDesiredUpdateFansOutToDeviceInbox(t *testing.T) {
	ctx := context.Background()
	fake := brokertest.New()
	r := &Registry{broker: fake}

	desired := twin.Properties{Values: map[string]any{"zone": "east"}, Version: 7}
	require.NoError(t, r.PublishDesiredUpdate(ctx, "pig5", desired))

	msgs := fake.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "pig5", msgs[0].RoutingKey)
	assert.Empty(t, msgs[0].Exchange)

	var got twin.Properties
	require.NoError(t, json.Unmarshal(msgs[0].Payload, &got))
	assert.Equal(t, uint64(7), got.Version)
}
