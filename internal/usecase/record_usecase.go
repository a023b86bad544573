package usecase

import (
	"context"
	"fmt"

	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/imagelinker/internal/config"
	"github.com/yokitheyo/imagelinker/internal/domain"
)

// RecordUsecase ties the pipeline to the records table: it loads records,
// replaces their images and writes the new links back.
type RecordUsecase struct {
	repo       domain.RecordRepository
	pipeline   *Pipeline
	queue      domain.QueueService
	processing config.ProcessingConfig
}

func NewRecordUsecase(
	repo domain.RecordRepository,
	pipeline *Pipeline,
	queue domain.QueueService,
	processing config.ProcessingConfig,
) *RecordUsecase {
	return &RecordUsecase{
		repo:       repo,
		pipeline:   pipeline,
		queue:      queue,
		processing: processing,
	}
}

// Snapshot loads every record and validates its image reference.
func (u *RecordUsecase) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	refs, err := u.repo.List(ctx)
	if err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to list records")
		return domain.Snapshot{}, fmt.Errorf("list records: %w", err)
	}
	return domain.NewSnapshot(refs, u.pipeline.ValidateAll(ctx, refs)), nil
}

func (u *RecordUsecase) ListRecords(ctx context.Context, filter domain.StatusFilter) ([]domain.RecordStatus, error) {
	snap, err := u.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return domain.FilterSnapshot(snap, filter), nil
}

// ReplaceRecordImage runs the pipeline for one record and stores the new
// link. An empty title falls back to the record's own title.
func (u *RecordUsecase) ReplaceRecordImage(ctx context.Context, recordID, title string, in domain.RawImageInput) (*domain.ReplaceResult, error) {
	ref, err := u.repo.FindByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if title == "" {
		title = ref.Title
	}
	return u.replace(ctx, *ref, title, in)
}

// Reoptimize re-runs the pipeline on the image a record already points to.
func (u *RecordUsecase) Reoptimize(ctx context.Context, recordID string) (*domain.ReplaceResult, error) {
	ref, err := u.repo.FindByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	return u.ReoptimizeRef(ctx, *ref)
}

func (u *RecordUsecase) ReoptimizeRef(ctx context.Context, ref domain.ImageReference) (*domain.ReplaceResult, error) {
	if !ref.HasURL() {
		return nil, fmt.Errorf("%w: record %s has no image", domain.ErrInvalidInput, ref.RecordID)
	}
	return u.replace(ctx, ref, ref.Title, domain.RawImageInput{SourceURL: ref.URL})
}

func (u *RecordUsecase) replace(ctx context.Context, ref domain.ImageReference, title string, in domain.RawImageInput) (*domain.ReplaceResult, error) {
	result, err := u.pipeline.ReplaceImage(ctx, ref.RecordID, title, in, u.processing)
	if err != nil {
		return nil, err
	}

	if err := u.repo.UpdateImageURL(ctx, ref.RecordID, result.Link.URL); err != nil {
		zlog.Logger.Error().
			Err(err).
			Str("record_id", ref.RecordID).
			Str("key", result.Link.Key).
			Msg("image published but record was not updated")
		return nil, fmt.Errorf("update record %s: %w", ref.RecordID, err)
	}

	zlog.Logger.Info().
		Str("record_id", ref.RecordID).
		Str("key", result.Link.Key).
		Msg("record image updated")
	return result, nil
}

// RefreshStatus re-validates a single record.
func (u *RecordUsecase) RefreshStatus(ctx context.Context, recordID string) (domain.RecordStatus, error) {
	ref, err := u.repo.FindByID(ctx, recordID)
	if err != nil {
		return domain.RecordStatus{}, err
	}
	return domain.RecordStatus{ImageReference: *ref, Status: u.pipeline.CheckRecord(ctx, *ref)}, nil
}

// EnqueueReoptimize schedules a background re-optimization and returns the
// task id.
func (u *RecordUsecase) EnqueueReoptimize(ctx context.Context, recordID string) (string, error) {
	if u.queue == nil {
		return "", domain.ErrQueueUnavailable
	}
	ref, err := u.repo.FindByID(ctx, recordID)
	if err != nil {
		return "", err
	}
	if !ref.HasURL() {
		return "", fmt.Errorf("%w: record %s has no image", domain.ErrInvalidInput, recordID)
	}

	taskID, err := u.queue.PublishReoptimizeTask(ctx, recordID)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("record_id", recordID).Msg("failed to publish reoptimize task")
		return "", fmt.Errorf("publish reoptimize task: %w", err)
	}
	return taskID, nil
}
