package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"

	"github.com/nyxwave/fleetmesh/pkg/broker"
	"github.com/nyxwave/fleetmesh/pkg/config"
	"github.com/nyxwave/fleetmesh/pkg/logger"
	"github.com/nyxwave/fleetmesh/pkg/registry"
	"github.com/nyxwave/fleetmesh/pkg/twinstore"
	"github.com/nyxwave/fleetmesh/pkg/twinstore/adapters/memory"
	"github.com/nyxwave/fleetmesh/pkg/twinstore/adapters/mongodb"
)

var configFile string

const shutdownTimeout = 10 * time.Second

func main() {
	root := &cobra.Command{
		Use:   "admin-api",
		Short: "Thin REST façade over the device-twin registry",
		RunE:  run,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "path to an admin-api config file")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	var cfg AppConfig
	opts := config.Options{AppName: "admin-api"}
	if configFile != "" {
		opts.ExplicitPath = configFile
	}
	if err := config.Load(&cfg, opts); err != nil {
		return fmt.Errorf("failed to load admin-api config: %w", err)
	}

	logger.Init(logger.Config{Level: "INFO", Format: "JSON"})

	store, closeStore, err := buildStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to build twin store: %w", err)
	}

	b := broker.New(cfg.Registry.MirAddr, cfg.Registry.ThreadCount)
	defer b.Close()

	// registry.New is reused here purely for its PublishDesiredUpdate
	// method; Run (the consumer pools) is never started by this
	// deployable.
	reg := registry.New(cfg.Registry, b, store, nil)

	e := echo.New()
	e.HideBanner = true
	newHandlers(store, reg).register(e)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErrCh := make(chan error, 1)
	go func() {
		serveErrCh <- e.Start(cfg.HTTPAddr)
	}()

	logger.L().InfoContext(ctx, "admin-api listening", "addr", cfg.HTTPAddr, "store_backend", cfg.StoreBackend)

	select {
	case <-ctx.Done():
	case err := <-serveErrCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	logger.L().InfoContext(shutdownCtx, "admin-api shutting down")
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.L().ErrorContext(shutdownCtx, "admin-api shutdown error", "error", err)
	}
	if closeStore != nil {
		if err := closeStore(shutdownCtx); err != nil {
			logger.L().ErrorContext(shutdownCtx, "failed to close twin store", "error", err)
		}
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
