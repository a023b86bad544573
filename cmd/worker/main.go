package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/imagelinker/internal/app"
	"github.com/yokitheyo/imagelinker/internal/config"
	"github.com/yokitheyo/imagelinker/internal/infrastructure/kafka"
	"github.com/yokitheyo/imagelinker/internal/worker"
)

func main() {
	zlog.Init()
	zlog.Logger.Info().Msg("Starting Image Linker Worker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to load config")
	}
	app.SetLevel(cfg.Logging.Level)

	if !cfg.Kafka.Enabled() {
		zlog.Logger.Fatal().Msg("kafka.brokers and kafka.topic are required for the worker")
	}

	a, err := app.Build(ctx, cfg, nil, nil)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to initialize application")
	}
	defer a.Close()

	reoptimizeWorker := worker.NewReoptimizeWorker(a.Records)
	consumer := kafka.NewConsumer(&cfg.Kafka, reoptimizeWorker.HandleTask)
	defer consumer.Close()

	// Blocks until a shutdown signal.
	if err := consumer.Start(ctx); err != nil {
		zlog.Logger.Error().Err(err).Msg("Kafka consumer error")
	}

	zlog.Logger.Info().Msg("Worker shutdown complete")
}
