package usecase

import (
	"context"

	"github.com/wb-go/wbf/zlog"
	"golang.org/x/sync/errgroup"

	"github.com/yokitheyo/imagelinker/internal/config"
	"github.com/yokitheyo/imagelinker/internal/domain"
)

const defaultBatchConcurrency = 4

type BatchOptions struct {
	DryRun      bool
	Limit       int
	Concurrency int
}

type BatchItem struct {
	RecordID      string `json:"record_id"`
	OldURL        string `json:"old_url"`
	NewURL        string `json:"new_url,omitempty"`
	OriginalSize  int64  `json:"original_size"`
	OptimizedSize int64  `json:"optimized_size"`
	Optimized     bool   `json:"optimized"`
	Error         string `json:"error,omitempty"`
	Kind          string `json:"kind,omitempty"`
}

type BatchReport struct {
	Total          int         `json:"total"`
	Optimized      int         `json:"optimized"`
	Unchanged      int         `json:"unchanged"`
	Failed         int         `json:"failed"`
	OriginalBytes  int64       `json:"original_bytes"`
	OptimizedBytes int64       `json:"optimized_bytes"`
	DryRun         bool        `json:"dry_run"`
	Items          []BatchItem `json:"items"`
}

// SavedBytes is how much storage the run saved (or would save).
func (r *BatchReport) SavedBytes() int64 {
	return r.OriginalBytes - r.OptimizedBytes
}

// BatchOptimizer re-optimizes images that are already referenced by
// records, for example after the processing settings changed.
type BatchOptimizer struct {
	records    *RecordUsecase
	pipeline   *Pipeline
	processing config.ProcessingConfig
}

func NewBatchOptimizer(records *RecordUsecase, pipeline *Pipeline, processing config.ProcessingConfig) *BatchOptimizer {
	return &BatchOptimizer{records: records, pipeline: pipeline, processing: processing}
}

// Run processes every ref with an image URL, at most opts.Limit of them
// when Limit > 0. A failing record is reported in the items and does not
// stop the run. In dry-run mode nothing is uploaded or written back.
func (b *BatchOptimizer) Run(ctx context.Context, refs []domain.ImageReference, opts BatchOptions) *BatchReport {
	todo := make([]domain.ImageReference, 0, len(refs))
	for _, ref := range refs {
		if !ref.HasURL() {
			continue
		}
		todo = append(todo, ref)
		if opts.Limit > 0 && len(todo) == opts.Limit {
			break
		}
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = defaultBatchConcurrency
	}

	zlog.Logger.Info().
		Int("records", len(todo)).
		Int("concurrency", concurrency).
		Bool("dry_run", opts.DryRun).
		Msg("batch optimization started")

	items := make([]BatchItem, len(todo))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, ref := range todo {
		if gctx.Err() != nil {
			items[i] = BatchItem{RecordID: ref.RecordID, OldURL: ref.URL, Error: gctx.Err().Error(), Kind: "cancelled"}
			continue
		}
		g.Go(func() error {
			items[i] = b.process(gctx, ref, opts.DryRun)
			return nil
		})
	}
	_ = g.Wait()

	report := &BatchReport{Total: len(items), DryRun: opts.DryRun, Items: items}
	for _, item := range items {
		switch {
		case item.Error != "":
			report.Failed++
			continue
		case item.Optimized:
			report.Optimized++
		default:
			report.Unchanged++
		}
		report.OriginalBytes += item.OriginalSize
		report.OptimizedBytes += item.OptimizedSize
	}

	zlog.Logger.Info().
		Int("total", report.Total).
		Int("optimized", report.Optimized).
		Int("unchanged", report.Unchanged).
		Int("failed", report.Failed).
		Int64("saved_bytes", report.SavedBytes()).
		Msg("batch optimization finished")

	return report
}

func (b *BatchOptimizer) process(ctx context.Context, ref domain.ImageReference, dryRun bool) BatchItem {
	item := BatchItem{RecordID: ref.RecordID, OldURL: ref.URL}

	var img *domain.OptimizedImage
	if dryRun {
		preview, err := b.pipeline.Preview(ctx, ref.URL, b.processing)
		if err != nil {
			return failed(item, err)
		}
		img = preview
	} else {
		result, err := b.records.ReoptimizeRef(ctx, ref)
		if err != nil {
			return failed(item, err)
		}
		img = &result.Image
		item.NewURL = result.Link.URL
	}

	item.OriginalSize = img.OriginalSize
	item.OptimizedSize = img.OptimizedSize
	item.Optimized = img.Optimized
	return item
}

func failed(item BatchItem, err error) BatchItem {
	item.Error = err.Error()
	item.Kind = domain.ErrorKind(err)
	zlog.Logger.Warn().Err(err).Str("record_id", item.RecordID).Msg("record skipped by batch optimizer")
	return item
}
