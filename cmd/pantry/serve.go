package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/vbonduro/pantry/internal/config"
	"github.com/vbonduro/pantry/internal/logging"
	"github.com/vbonduro/pantry/internal/metrics"
	"github.com/vbonduro/pantry/internal/service"
	"github.com/vbonduro/pantry/internal/web"
)

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Load the inventory and serve the REST API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if addr != "" {
				cfg.ListenAddr = addr
			}
			return serve(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides LISTEN_ADDR)")

	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	persist, closePersist, err := newPersistence(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open persistence", "backend", cfg.PersistBackend, "error", err)
		return err
	}
	defer closePersist()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := []service.Option{
		service.WithMetrics(metrics.New(reg)),
		service.WithPersistTimeout(cfg.PersistTimeout),
	}
	if analyzer := newVisionAnalyzer(cfg, logger); analyzer != nil {
		opts = append(opts, service.WithVision(analyzer))
	}

	svc := service.NewInventoryService(persist, logger, opts...)
	server := web.NewServer(svc, reg, logger)

	// The API answers 503 until the initial load completes.
	loadFailed := make(chan error, 1)
	go func() {
		if err := svc.Load(ctx); err != nil {
			logger.Error("failed to load inventory", "error", err)
			loadFailed <- err
			stop()
		}
	}()

	if err := server.ListenAndServe(ctx, cfg.ListenAddr); err != nil {
		logger.Error("server error", "error", err)
		return err
	}
	select {
	case err := <-loadFailed:
		return err
	default:
		return nil
	}
}
