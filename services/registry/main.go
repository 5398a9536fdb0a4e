package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nyxwave/fleetmesh/pkg/broker"
	"github.com/nyxwave/fleetmesh/pkg/config"
	"github.com/nyxwave/fleetmesh/pkg/logger"
	"github.com/nyxwave/fleetmesh/pkg/messaging"
	"github.com/nyxwave/fleetmesh/pkg/messaging/adapters/kafka"
	"github.com/nyxwave/fleetmesh/pkg/registry"
	"github.com/nyxwave/fleetmesh/pkg/sink"
	sinkkafka "github.com/nyxwave/fleetmesh/pkg/sink/adapters/kafka"
	sinkmemory "github.com/nyxwave/fleetmesh/pkg/sink/adapters/memory"
	"github.com/nyxwave/fleetmesh/pkg/twinstore"
	"github.com/nyxwave/fleetmesh/pkg/twinstore/adapters/memory"
	"github.com/nyxwave/fleetmesh/pkg/twinstore/adapters/mongodb"
)

var configFile string

func main() {
	root := &cobra.Command{
		Use:   "registry",
		Short: "Registry service: consumes heartbeat/reported/desired-request streams and reconciles twins",
		RunE:  run,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "path to a registry config file")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	var cfg AppConfig
	opts := config.Options{AppName: "registry"}
	if configFile != "" {
		opts.ExplicitPath = configFile
	}
	if err := config.Load(&cfg, opts); err != nil {
		return fmt.Errorf("failed to load registry config: %w", err)
	}

	logger.Init(logger.Config{Level: "INFO", Format: "JSON"})

	store, closeStore, err := buildStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to build twin store: %w", err)
	}

	telemetrySink, err := buildSink(cfg)
	if err != nil {
		return fmt.Errorf("failed to build telemetry sink: %w", err)
	}

	b := broker.New(cfg.Registry.MirAddr, cfg.Registry.ThreadCount)
	svc := registry.New(cfg.Registry, b, store, telemetrySink)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.L().InfoContext(ctx, "registry starting",
		"store_backend", cfg.StoreBackend,
		"sink_backend", cfg.SinkBackend,
		"heartbeat_consumers", cfg.Registry.HeartbeatConsumers,
		"reported_consumers", cfg.Registry.ReportedConsumers,
		"desired_request_consumers", cfg.Registry.DesiredRequestConsumers,
		"telemetry_consumers", cfg.Registry.TelemetryConsumers,
	)

	runErr := svc.Run(ctx)

	logger.L().InfoContext(context.Background(), "registry shutting down")
	if closeStore != nil {
		if err := closeStore(context.Background()); err != nil {
			logger.L().ErrorContext(context.Background(), "failed to close twin store", "error", err)
		}
	}
	if telemetrySink != nil {
		if err := telemetrySink.Close(); err != nil {
			logger.L().ErrorContext(context.Background(), "failed to close telemetry sink", "error", err)
		}
	}
	if err := b.Close(); err != nil {
		logger.L().ErrorContext(context.Background(), "failed to close broker pool", "error", err)
	}

	if runErr != nil && runErr != context.Canceled {
		return runErr
	}
	return nil
}

func buildStore(cfg AppConfig) (twinstore.Store, func(context.Context) error, error) {
	switch cfg.StoreBackend {
	case "mongodb":
		store, err := mongodb.New(cfg.Mongo)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		return memory.New(), nil, nil
	}
}

func buildSink(cfg AppConfig) (sink.Sink, error) {
	switch cfg.SinkBackend {
	case "kafka":
		kafkaBroker, err := kafka.New(kafka.Config{Brokers: cfg.KafkaBrokers, ClientID: cfg.KafkaClientID})
		if err != nil {
			return nil, err
		}
		resilientBroker := messaging.NewResilientBroker(kafkaBroker, cfg.Messaging)
		producer, err := resilientBroker.Producer(cfg.KafkaTopic)
		if err != nil {
			return nil, err
		}
		return sinkkafka.New(producer, cfg.KafkaTopic), nil
	default:
		return sinkmemory.New(), nil
	}
}
