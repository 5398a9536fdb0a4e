package memory_test

import (
	"context"
	"testing"

	"github.com/nyxwave/fleetmesh/pkg/sink/adapters/memory"
	"github.com/nyxwave/fleetmesh/pkg/twin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSinkCollectsWrittenRecords(t *testing.T) {
	s := memory.New()
	record := twin.TelemetryRecord{DeviceID: "pig5", Timestamp: 1, Telemetry: twin.Telemetry{Floats: map[int64]float64{1: 21.5}}}

	require.NoError(t, s.Write(context.Background(), record))
	require.NoError(t, s.Write(context.Background(), record))

	assert.Len(t, s.Records(), 2)
	assert.NoError(t, s.Close())
}
