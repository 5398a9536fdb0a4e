package agent

import (
	"github.com/nyxwave/fleetmesh/pkg/config"
)

// Builder assembles an Agent's Config through the precedence chain:
// defaults < builder values < config file < CLI flags. Call Build to
// validate and produce the Agent.
type Builder struct {
	cfg                Config
	configFilePath     string
	cli                bool
	desiredHandlers    []DesiredPropertiesHandler
}

// NewBuilder starts from the compiled-in defaults.
func NewBuilder() *Builder {
	return &Builder{
		cfg: Config{
			AgentKind:   "dizer",
			ThreadCount: 4,
			LogLevel:    "INFO",
		},
	}
}

// WithDeviceID sets the required device identity.
func (b *Builder) WithDeviceID(deviceID string) *Builder {
	b.cfg.DeviceID = deviceID
	return b
}

// WithBroker sets the required broker URL.
func (b *Builder) WithBroker(mirAddr string) *Builder {
	b.cfg.MirAddr = mirAddr
	return b
}

// WithAgentKind overrides the routing-key prefix ("dizer", "oxi", "swarm").
func (b *Builder) WithAgentKind(kind string) *Builder {
	b.cfg.AgentKind = kind
	return b
}

// WithThreadCount sets the broker connection pool size.
func (b *Builder) WithThreadCount(n int) *Builder {
	b.cfg.ThreadCount = n
	return b
}

// WithLogLevel sets log verbosity.
func (b *Builder) WithLogLevel(level string) *Builder {
	b.cfg.LogLevel = level
	return b
}

// WithConfigFile overlays a YAML/JSON config file on top of the builder
// values. Applied before CLI flags in the precedence chain.
func (b *Builder) WithConfigFile(path string) *Builder {
	b.configFilePath = path
	return b
}

// WithCLI enables --config flag parsing; the flag value, if set, wins
// over everything else.
func (b *Builder) WithCLI() *Builder {
	b.cli = true
	return b
}

// WithDesiredPropertiesHandler registers a callback fired on each
// desired-property delivery. Handlers fire in registration order.
func (b *Builder) WithDesiredPropertiesHandler(h DesiredPropertiesHandler) *Builder {
	b.desiredHandlers = append(b.desiredHandlers, h)
	return b
}

// Build validates the assembled configuration and constructs an Agent.
// Fails with ErrMissingDeviceID / ErrMissingBroker if those required
// fields are still unset after every layer has applied.
func (b *Builder) Build() (*Agent, error) {
	cfg := b.cfg

	opts := config.Options{AppName: "agent"}
	if b.configFilePath != "" {
		opts.ExplicitPath = b.configFilePath
	}
	if err := config.Load(&cfg, opts); err != nil {
		return nil, err
	}

	if b.cli {
		if flagPath := parseConfigFlag(); flagPath != "" {
			if err := config.Load(&cfg, config.Options{AppName: "agent", ExplicitPath: flagPath}); err != nil {
				return nil, err
			}
		}
	}

	if cfg.DeviceID == "" {
		return nil, ErrMissingDeviceID()
	}
	if cfg.MirAddr == "" {
		return nil, ErrMissingBroker()
	}

	return newAgent(cfg, b.desiredHandlers), nil
}
