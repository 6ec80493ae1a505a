package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/rzzdr/option-scenario-engine/config"
	"github.com/rzzdr/option-scenario-engine/internal/app"
	"github.com/rzzdr/option-scenario-engine/pkg/api"
	"github.com/rzzdr/option-scenario-engine/pkg/metrics"
	"github.com/rzzdr/option-scenario-engine/pkg/utils/logger"
)

var (
	configFile = flag.String("config", config.GetConfigPath(), "Path to configuration file")
)

func main() {
	flag.Parse()

	// A missing .env file is fine, the environment may already be set
	_ = godotenv.Load()

	if err := run(); err != nil {
		logger.GetLogger("api.main").Errorf("Shutdown with error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(*configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger.Init(cfg.App.LogLevel, cfg.App.Environment)
	log := logger.GetLogger("api.main")
	defer log.Sync()
	log.Infow("Starting option scenario API", "env", cfg.App.Environment)

	components, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to build engine: %w", err)
	}

	apiServer := api.NewServer(
		api.Config{
			Host:         cfg.API.Host,
			Port:         cfg.API.Port,
			ReadTimeout:  cfg.API.ReadTimeout,
			WriteTimeout: cfg.API.WriteTimeout,
			RateLimit:    cfg.API.RateLimit,
			RateBurst:    cfg.API.RateBurst,
		},
		components.Market,
		components.Builder,
		components.Bootstrap,
		components.Bumps,
		components.Recorder,
		components.Registry,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(apiServer.Start)

	var promServer *metrics.PrometheusServer
	if cfg.Metrics.Prometheus.Enabled {
		promServer = metrics.NewPrometheusServer(cfg.Metrics.Prometheus.Port, components.Registry, components.Recorder)
		g.Go(promServer.Start)
	}

	g.Go(func() error {
		metrics.CollectSystemMetrics(ctx, components.Recorder, cfg.Metrics.Interval)
		return nil
	})

	// Shut the servers down once a signal arrives or one of them fails
	g.Go(func() error {
		<-ctx.Done()
		log.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.API.ShutdownTimeout)
		defer cancel()

		err := apiServer.Stop(shutdownCtx)
		if promServer != nil {
			err = errors.Join(err, promServer.Stop(shutdownCtx))
		}
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("Shutdown complete")
	return nil
}
