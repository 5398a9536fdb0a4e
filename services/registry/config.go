package main

import (
	"github.com/nyxwave/fleetmesh/pkg/messaging"
	"github.com/nyxwave/fleetmesh/pkg/registry"
	"github.com/nyxwave/fleetmesh/pkg/twinstore/adapters/mongodb"
)

// AppConfig is the registry deployable's top-level configuration, loaded
// through pkg/config's layered resolution (defaults < ./config/registry.yaml
// < ./config/local_registry.yaml < REGISTRY_ env vars < --config).
type AppConfig struct {
	Registry registry.Config `yaml:"registry"`
	Mongo    mongodb.Config  `yaml:"mongo"`

	// StoreBackend selects the twinstore.Store implementation: "mongodb"
	// for production, "memory" for local development without a database.
	StoreBackend string `yaml:"store_backend" env:"STORE_BACKEND" env-default:"memory"`

	// SinkBackend selects the telemetry sink.Sink implementation: "kafka"
	// for production, "memory" for local development/tests.
	SinkBackend string `yaml:"sink_backend" env:"SINK_BACKEND" env-default:"memory"`

	Messaging messaging.ResilientBrokerConfig `yaml:"messaging"`

	// KafkaBrokers/KafkaClientID/KafkaTopic configure the Kafka sink
	// backend; unused when SinkBackend is "memory".
	KafkaBrokers  []string `yaml:"kafka_brokers" env:"KAFKA_BROKERS" env-separator:","`
	KafkaClientID string   `yaml:"kafka_client_id" env:"KAFKA_CLIENT_ID" env-default:"fleetmesh-registry"`
	KafkaTopic    string   `yaml:"kafka_topic" env:"KAFKA_TOPIC" env-default:"iot-telemetry"`
}
