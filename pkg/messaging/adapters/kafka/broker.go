// Package kafka adapts pkg/messaging's Broker/Producer/Consumer interfaces
// onto IBM/sarama, standing in for the columnar time-series ingester that
// the device-twin subsystem treats as an opaque telemetry sink (see
// pkg/sink).
package kafka

import (
	"context"

	"github.com/IBM/sarama"
	"github.com/nyxwave/fleetmesh/pkg/errors"
	"github.com/nyxwave/fleetmesh/pkg/messaging"
)

// Config configures the Kafka broker adapter.
type Config struct {
	Brokers []string
	// ClientID identifies this process to the Kafka cluster in logs/metrics.
	ClientID string
}

// Broker implements messaging.Broker over a sarama client.
type Broker struct {
	client sarama.Client
	cfg    Config
}

// New dials the configured Kafka brokers and returns a ready Broker.
func New(cfg Config) (*Broker, error) {
	scfg := sarama.NewConfig()
	scfg.Producer.Return.Successes = true
	scfg.Producer.RequiredAcks = sarama.WaitForAll
	scfg.Consumer.Return.Errors = true
	if cfg.ClientID != "" {
		scfg.ClientID = cfg.ClientID
	}

	client, err := sarama.NewClient(cfg.Brokers, scfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to kafka cluster")
	}

	return &Broker{client: client, cfg: cfg}, nil
}

func (b *Broker) Producer(topic string) (messaging.Producer, error) {
	syncProducer, err := sarama.NewSyncProducerFromClient(b.client)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create kafka producer")
	}
	return &producer{broker: b, topic: topic, producer: syncProducer}, nil
}

func (b *Broker) Consumer(topic string, group string) (messaging.Consumer, error) {
	if group == "" {
		group = "fleetmesh"
	}
	grp, err := sarama.NewConsumerGroupFromClient(group, b.client)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create kafka consumer group")
	}
	return &consumer{topic: topic, group: grp}, nil
}

func (b *Broker) Close() error {
	if err := b.client.Close(); err != nil {
		return errors.Wrap(err, "failed to close kafka client")
	}
	return nil
}

func (b *Broker) Healthy(ctx context.Context) bool {
	brokers := b.client.Brokers()
	for _, broker := range brokers {
		if ok, _ := broker.Connected(); ok {
			return true
		}
	}
	return false
}
