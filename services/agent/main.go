package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nyxwave/fleetmesh/pkg/agent"
	"github.com/nyxwave/fleetmesh/pkg/logger"
	"github.com/nyxwave/fleetmesh/pkg/twin"
	"github.com/spf13/cobra"
)

var configFile string

func main() {
	root := &cobra.Command{
		Use:   "agent",
		Short: "Device agent that joins the fleet and streams telemetry",
		RunE:  run,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "path to an agent config file")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	a, err := agent.NewBuilder().
		WithConfigFile(configFile).
		WithCLI().
		WithDesiredPropertiesHandler(onDesiredProperties).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build agent: %w", err)
	}

	logger.Init(logger.Config{Level: "INFO", Format: "JSON"})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.JoinFleet(ctx); err != nil {
		return fmt.Errorf("failed to join fleet: %w", err)
	}
	logger.ForDevice(a.DeviceID()).InfoContext(ctx, "agent joined fleet")

	<-ctx.Done()

	logger.ForDevice(a.DeviceID()).InfoContext(context.Background(), "agent leaving fleet")
	return a.LeaveFleet()
}

func onDesiredProperties(ctx context.Context, properties twin.Properties) {
	logger.L().InfoContext(ctx, "received desired properties", "version", properties.Version)
}
