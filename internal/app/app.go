// Package app builds the components shared by the api, worker and
// optimize binaries from a loaded config.
package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/imagelinker/internal/config"
	"github.com/yokitheyo/imagelinker/internal/domain"
	"github.com/yokitheyo/imagelinker/internal/infrastructure/database"
	"github.com/yokitheyo/imagelinker/internal/infrastructure/fetcher"
	"github.com/yokitheyo/imagelinker/internal/infrastructure/processor"
	"github.com/yokitheyo/imagelinker/internal/infrastructure/storage"
	"github.com/yokitheyo/imagelinker/internal/infrastructure/validator"
	"github.com/yokitheyo/imagelinker/internal/metrics"
	"github.com/yokitheyo/imagelinker/internal/repository/postgres"
	"github.com/yokitheyo/imagelinker/internal/retry"
	"github.com/yokitheyo/imagelinker/internal/usecase"
)

type App struct {
	Config   *config.Config
	DB       *dbpg.DB
	Storage  storage.Storage
	Repo     domain.RecordRepository
	Pipeline *usecase.Pipeline
	Records  *usecase.RecordUsecase
	Metrics  *metrics.PipelineObserver
}

// SetLevel applies logging.level. Unknown levels keep the default.
func SetLevel(level string) {
	if strings.TrimSpace(level) == "" {
		return
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		zlog.Logger.Warn().Str("level", level).Msg("unknown log level, keeping default")
		return
	}
	zerolog.SetGlobalLevel(lvl)
}

// Build connects to the database and storage and wires the pipeline.
// queue may be nil when the binary does not publish tasks. reg may be nil
// to use the default Prometheus registerer.
func Build(ctx context.Context, cfg *config.Config, queue domain.QueueService, reg prometheus.Registerer) (*App, error) {
	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	a, err := assemble(cfg, db, queue, reg)
	if err != nil {
		database.Close(db)
		return nil, err
	}
	return a, nil
}

func assemble(cfg *config.Config, db *dbpg.DB, queue domain.QueueService, reg prometheus.Registerer) (*App, error) {
	repo, err := postgres.NewRecordRepository(db, cfg.Table, retry.DefaultStrategy)
	if err != nil {
		return nil, fmt.Errorf("init records repository: %w", err)
	}

	st, err := storage.New(&cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	observer, err := metrics.NewPipelineObserver("imagelinker", reg)
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	checker := validator.New(cfg.Validation, nil).WithObserver(observer)
	source := fetcher.New(cfg.Fetch, nil)
	publisher := usecase.NewPublisher(st, cfg.Storage.LinkExpiry())

	pipeline := usecase.NewPipeline(checker, source, processor.NewImageProcessor(0), publisher).
		WithObserver(observer)

	return &App{
		Config:   cfg,
		DB:       db,
		Storage:  st,
		Repo:     repo,
		Pipeline: pipeline,
		Records:  usecase.NewRecordUsecase(repo, pipeline, queue, cfg.Processing),
		Metrics:  observer,
	}, nil
}

// Signer returns the link signer for proxy mode, or nil for presigned
// object store links.
func (a *App) Signer() *storage.LinkSigner {
	if a.Config.Storage.LinkMode != config.LinkModeProxy {
		return nil
	}
	return storage.NewLinkSigner(a.Config.Storage.LinkBaseURL, a.Config.Storage.LinkSecret)
}

func (a *App) Close() {
	database.Close(a.DB)
}
