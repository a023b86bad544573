package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/imagelinker/internal/domain"
	"github.com/yokitheyo/imagelinker/internal/dto"
)

// Reoptimizer re-runs the pipeline over a record's current image.
type Reoptimizer interface {
	Reoptimize(ctx context.Context, recordID string) (*domain.ReplaceResult, error)
}

// ReoptimizeWorker handles tasks from the reoptimize queue.
type ReoptimizeWorker struct {
	records Reoptimizer
}

func NewReoptimizeWorker(records Reoptimizer) *ReoptimizeWorker {
	return &ReoptimizeWorker{records: records}
}

// HandleTask returns nil for tasks that can never succeed so the consumer
// commits them instead of redelivering forever.
func (w *ReoptimizeWorker) HandleTask(ctx context.Context, task *dto.ReoptimizeTask) error {
	zlog.Logger.Info().
		Str("task_id", task.TaskID).
		Str("record_id", task.RecordID).
		Msg("starting reoptimize task")

	res, err := w.records.Reoptimize(ctx, task.RecordID)
	if err != nil {
		if permanent(err) {
			zlog.Logger.Warn().
				Err(err).
				Str("task_id", task.TaskID).
				Str("record_id", task.RecordID).
				Str("kind", domain.ErrorKind(err)).
				Msg("dropping reoptimize task")
			return nil
		}
		return fmt.Errorf("reoptimize record %s: %w", task.RecordID, err)
	}

	zlog.Logger.Info().
		Str("task_id", task.TaskID).
		Str("record_id", task.RecordID).
		Str("key", res.Link.Key).
		Int64("original_size", res.Image.OriginalSize).
		Int64("optimized_size", res.Image.OptimizedSize).
		Msg("record image reoptimized")
	return nil
}

// permanent reports errors that a retry cannot fix.
func permanent(err error) bool {
	switch {
	case errors.Is(err, domain.ErrRecordNotFound),
		errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrDecode):
		return true
	}
	return false
}
