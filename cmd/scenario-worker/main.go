package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/rzzdr/option-scenario-engine/config"
	"github.com/rzzdr/option-scenario-engine/internal/app"
	"github.com/rzzdr/option-scenario-engine/internal/kafka"
	"github.com/rzzdr/option-scenario-engine/pkg/metrics"
	"github.com/rzzdr/option-scenario-engine/pkg/utils/logger"
)

var (
	configFile = flag.String("config", config.GetConfigPath(), "Path to configuration file")
)

func main() {
	flag.Parse()

	_ = godotenv.Load()

	if err := run(); err != nil {
		logger.GetLogger("worker.main").Errorf("Worker stopped with error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(*configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger.Init(cfg.App.LogLevel, cfg.App.Environment)
	log := logger.GetLogger("worker.main")
	defer log.Sync()
	log.Infow("Starting scenario worker",
		"brokers", cfg.Kafka.Brokers,
		"requests", cfg.Kafka.RequestTopic,
		"results", cfg.Kafka.ResultTopic,
	)

	components, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to build engine: %w", err)
	}

	kafkaConfig := kafka.DefaultConfig()
	kafkaConfig.Brokers = cfg.Kafka.Brokers
	kafkaConfig.GroupID = cfg.Kafka.GroupID

	kafkaClient, err := kafka.NewClient(kafkaConfig)
	if err != nil {
		return fmt.Errorf("failed to create Kafka client: %w", err)
	}

	producer, err := kafkaClient.NewProducer(cfg.Kafka.ResultTopic)
	if err != nil {
		return fmt.Errorf("failed to create result producer: %w", err)
	}
	defer producer.Close()

	consumer, err := kafkaClient.NewConsumer(cfg.Kafka.RequestTopic)
	if err != nil {
		return fmt.Errorf("failed to create request consumer: %w", err)
	}
	defer consumer.Close()

	worker := kafka.NewScenarioWorker(components.Builder, components.Market, producer, components.Recorder)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return consumer.ConsumeMessages(ctx, worker.Handle)
	})

	if cfg.Metrics.Prometheus.Enabled {
		promServer := metrics.NewPrometheusServer(cfg.Metrics.Prometheus.Port, components.Registry, components.Recorder)
		g.Go(promServer.Start)
		g.Go(func() error {
			<-ctx.Done()
			return promServer.Stop(context.Background())
		})
	}

	g.Go(func() error {
		metrics.CollectSystemMetrics(ctx, components.Recorder, cfg.Metrics.Interval)
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("Shutdown complete")
	return nil
}
