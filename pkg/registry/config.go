package registry

import "time"

// Config sizes the registry's four consumer pools and its optional
// staleness sweeper.
type Config struct {
	MirAddr     string `yaml:"mir_addr" env:"MIR_ADDR"`
	ThreadCount int    `yaml:"thread_count" env:"THREAD_COUNT" env-default:"4"`

	HeartbeatConsumers      int `yaml:"heartbeat_consumers" env:"HEARTBEAT_CONSUMERS" env-default:"2"`
	ReportedConsumers       int `yaml:"reported_consumers" env:"REPORTED_CONSUMERS" env-default:"2"`
	DesiredRequestConsumers int `yaml:"desired_request_consumers" env:"DESIRED_REQUEST_CONSUMERS" env-default:"2"`
	TelemetryConsumers      int `yaml:"telemetry_consumers" env:"TELEMETRY_CONSUMERS" env-default:"2"`

	PrefetchCount int `yaml:"prefetch_count" env:"PREFETCH_COUNT" env-default:"10"`

	// StalenessSweepInterval enables the optional background sweeper when
	// positive: devices whose last_activity_time is older than
	// StalenessThreshold at sweep time transition Connected→Disconnected.
	StalenessSweepInterval time.Duration `yaml:"staleness_sweep_interval" env:"STALENESS_SWEEP_INTERVAL" env-default:"30s"`
	StalenessThreshold     time.Duration `yaml:"staleness_threshold" env:"STALENESS_THRESHOLD" env-default:"180s"`
}

// Exchange and queue names fixed by the broker topology (§6).
const (
	ExchangeTwin   = "iot-twin"
	ExchangeStream = "iot-stream"

	QueueHeartbeat      = "iot-q-hearthbeat"
	QueueReported       = "iot-q-reported"
	QueueDesiredRequest = "iot-q-desired"
	QueueTelemetry      = "iot-q-telemetry"

	BindingHeartbeat      = "#.hearthbeat.v1"
	BindingReported       = "#.reported.v1"
	BindingDesiredRequest = "#.desired.v1"
	BindingTelemetry      = "#.telemetry.v1"
)
