// Package kafka adapts sink.Sink onto pkg/messaging's Kafka producer,
// standing in for the columnar time-series ingester named as an external
// collaborator.
package kafka

import (
	"context"
	"encoding/json"

	"github.com/nyxwave/fleetmesh/pkg/messaging"
	"github.com/nyxwave/fleetmesh/pkg/twin"
)

// Sink publishes each telemetry record as a JSON message keyed by device
// id, so records for the same device land on the same partition.
type Sink struct {
	producer messaging.Producer
	topic    string
}

// New wraps an already-constructed messaging.Producer bound to topic.
func New(producer messaging.Producer, topic string) *Sink {
	return &Sink{producer: producer, topic: topic}
}

func (s *Sink) Write(ctx context.Context, record twin.TelemetryRecord) error {
	body, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return s.producer.Publish(ctx, &messaging.Message{
		Topic:   s.topic,
		Key:     []byte(record.DeviceID),
		Payload: body,
	})
}

func (s *Sink) Close() error {
	return s.producer.Close()
}
