package agent

import "time"

// Config is the resolved agent configuration, after the builder's
// defaults < builder-values < config-file < CLI-flags precedence chain
// has been applied.
type Config struct {
	DeviceID     string        `yaml:"device_id" env:"DEVICE_ID"`
	MirAddr      string        `yaml:"mir_addr" env:"MIR_ADDR"`
	AgentKind    string        `yaml:"agent_kind" env:"AGENT_KIND" env-default:"dizer"`
	ThreadCount  int           `yaml:"thread_count" env:"THREAD_COUNT" env-default:"4"`
	LogLevel     string        `yaml:"log_level" env:"LOG_LEVEL" env-default:"INFO"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval" env:"HEARTBEAT_INTERVAL" env-default:"60s"`
}

// Exchange and queue names fixed by the wire contract (§6 of the
// device-twin topology).
const (
	ExchangeStream = "iot-stream"
	ExchangeTwin   = "iot-twin"
)

func (c Config) routingKey(suffix string) string {
	return c.AgentKind + "." + suffix
}

func (c Config) telemetryRoutingKey() string { return c.routingKey("telemetry.v1") }
func (c Config) heartbeatRoutingKey() string { return c.routingKey("hearthbeat.v1") }
func (c Config) reportedRoutingKey() string  { return c.routingKey("reported.v1") }
func (c Config) desiredRoutingKey() string   { return c.routingKey("desired.v1") }
