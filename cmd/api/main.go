package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/imagelinker/internal/app"
	"github.com/yokitheyo/imagelinker/internal/config"
	"github.com/yokitheyo/imagelinker/internal/domain"
	httpHandler "github.com/yokitheyo/imagelinker/internal/handler/http"
	"github.com/yokitheyo/imagelinker/internal/handler/middleware"
	"github.com/yokitheyo/imagelinker/internal/infrastructure/kafka"
)

func main() {
	zlog.Init()
	zlog.Logger.Info().Msg("Starting Image Linker API Server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to load config")
	}
	app.SetLevel(cfg.Logging.Level)

	// Reoptimize tasks are optional: without brokers the endpoint answers
	// with an error and everything else keeps working.
	var queue domain.QueueService
	if cfg.Kafka.Enabled() {
		producer := kafka.NewProducer(&cfg.Kafka)
		defer producer.Close()
		queue = producer
	} else {
		zlog.Logger.Warn().Msg("Kafka is not configured, reoptimize queue disabled")
	}

	a, err := app.Build(ctx, cfg, queue, nil)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to initialize application")
	}
	defer a.Close()

	engine := ginext.New("release")
	engine.Use(
		middleware.RecoveryMiddleware(),
		middleware.LoggerMiddleware(),
		middleware.CORSMiddleware(),
	)

	engine.GET("/health", func(c *ginext.Context) {
		c.JSON(http.StatusOK, ginext.H{"status": "ok"})
	})
	metricsHandler := promhttp.Handler()
	engine.GET("/metrics", func(c *ginext.Context) {
		metricsHandler.ServeHTTP(c.Writer, c.Request)
	})

	httpHandler.NewRecordHandler(a.Records, a.Pipeline, cfg.Server.MaxUploadSizeMB).RegisterRoutes(engine)
	if signer := a.Signer(); signer != nil {
		httpHandler.NewFileHandler(a.Storage, signer).RegisterRoutes(engine)
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      engine,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSec) * time.Second,
	}

	go func() {
		zlog.Logger.Info().Str("addr", cfg.Server.Addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Logger.Fatal().Err(err).Msg("Failed to start API server")
		}
	}()

	<-ctx.Done()
	zlog.Logger.Info().Msg("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Logger.Error().Err(err).Msg("HTTP server shutdown failed")
	} else {
		zlog.Logger.Info().Msg("HTTP server stopped gracefully")
	}

	zlog.Logger.Info().Msg("API shutdown complete")
}
