package kafka_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/nyxwave/fleetmesh/pkg/messaging"
	"github.com/nyxwave/fleetmesh/pkg/messaging/adapters/memory"
	sinkkafka "github.com/nyxwave/fleetmesh/pkg/sink/adapters/kafka"
	"github.com/nyxwave/fleetmesh/pkg/twin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSinkPublishesJSONKeyedByDeviceID(t *testing.T) {
	broker := memory.New(memory.Config{BufferSize: 4})
	defer broker.Close()

	producer, err := broker.Producer("telemetry")
	require.NoError(t, err)

	consumer, err := broker.Consumer("telemetry", "test")
	require.NoError(t, err)

	s := sinkkafka.New(producer, "telemetry")
	record := twin.TelemetryRecord{DeviceID: "pig5", Timestamp: 1}
	require.NoError(t, s.Write(context.Background(), record))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan *messaging.Message, 1)
	go func() {
		_ = consumer.Consume(ctx, func(ctx context.Context, msg *messaging.Message) error {
			received <- msg
			return nil
		})
	}()

	select {
	case msg := <-received:
		assert.Equal(t, []byte("pig5"), msg.Key)
		var decoded twin.TelemetryRecord
		require.NoError(t, json.Unmarshal(msg.Payload, &decoded))
		assert.Equal(t, record.DeviceID, decoded.DeviceID)
	case <-time.After(2 * time.Second):
		t.Fatal("did not receive published record")
	}
}
