package domain

import "context"

type ReferenceChecker interface {
	CheckOne(ctx context.Context, url string) ValidationStatus
	CheckBatch(ctx context.Context, urls []string) map[string]ValidationStatus
}

// SourceFetcher downloads the bytes behind a URL-based upload.
type SourceFetcher interface {
	Fetch(ctx context.Context, url string) (*FetchedSource, error)
}

type FetchedSource struct {
	Data        []byte
	ContentType string
	Extension   string
}

type QueueService interface {
	PublishReoptimizeTask(ctx context.Context, recordID string) (string, error)
	Close() error
}

// RecordService is what the HTTP layer needs from the records usecase.
type RecordService interface {
	ListRecords(ctx context.Context, filter StatusFilter) ([]RecordStatus, error)
	ReplaceRecordImage(ctx context.Context, recordID, title string, in RawImageInput) (*ReplaceResult, error)
	RefreshStatus(ctx context.Context, recordID string) (RecordStatus, error)
	EnqueueReoptimize(ctx context.Context, recordID string) (string, error)
}

// ReferenceValidator validates references that are not necessarily in the
// records table.
type ReferenceValidator interface {
	ValidateAll(ctx context.Context, refs []ImageReference) map[string]ValidationStatus
}
