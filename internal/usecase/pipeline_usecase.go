package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/imagelinker/internal/config"
	"github.com/yokitheyo/imagelinker/internal/domain"
	"github.com/yokitheyo/imagelinker/internal/infrastructure/processor"
	"github.com/yokitheyo/imagelinker/internal/keyname"
)

// Observer is told about every replace attempt. kind is "" on success and
// domain.ErrorKind otherwise.
type Observer interface {
	ObserveReplace(kind string, elapsed time.Duration)
	ObserveSizes(original, optimized int64)
}

type Pipeline struct {
	checker   domain.ReferenceChecker
	fetcher   domain.SourceFetcher
	processor *processor.ImageProcessor
	publisher *Publisher
	observer  Observer
}

func NewPipeline(
	checker domain.ReferenceChecker,
	fetcher domain.SourceFetcher,
	processor *processor.ImageProcessor,
	publisher *Publisher,
) *Pipeline {
	return &Pipeline{
		checker:   checker,
		fetcher:   fetcher,
		processor: processor,
		publisher: publisher,
	}
}

func (p *Pipeline) WithObserver(o Observer) *Pipeline {
	p.observer = o
	return p
}

// ValidateAll returns one status per record. Records without a URL are
// broken and never reach the network.
func (p *Pipeline) ValidateAll(ctx context.Context, refs []domain.ImageReference) map[string]domain.ValidationStatus {
	out := make(map[string]domain.ValidationStatus, len(refs))
	urls := make([]string, 0, len(refs))
	for _, ref := range refs {
		if ref.HasURL() {
			urls = append(urls, ref.URL)
		}
	}

	var checked map[string]domain.ValidationStatus
	if len(urls) > 0 {
		checked = p.checker.CheckBatch(ctx, urls)
	}

	broken := 0
	for _, ref := range refs {
		status := domain.StatusBroken
		if ref.HasURL() {
			if s, ok := checked[ref.URL]; ok {
				status = s
			} else {
				status = domain.StatusUnknown
			}
		}
		out[ref.RecordID] = status
		if status.IsBroken() {
			broken++
		}
	}

	zlog.Logger.Info().
		Int("records", len(refs)).
		Int("urls", len(urls)).
		Int("broken", broken).
		Msg("references validated")

	return out
}

// CheckRecord re-checks one reference, typically right after an upload.
func (p *Pipeline) CheckRecord(ctx context.Context, ref domain.ImageReference) domain.ValidationStatus {
	if !ref.HasURL() {
		return domain.StatusBroken
	}
	return p.checker.CheckOne(ctx, ref.URL)
}

// ReplaceImage turns in into a published image for recordID and returns the
// link to write back. It does not touch the records table.
func (p *Pipeline) ReplaceImage(
	ctx context.Context,
	recordID, title string,
	in domain.RawImageInput,
	cfg config.ProcessingConfig,
) (result *domain.ReplaceResult, err error) {
	start := time.Now()
	defer func() {
		if p.observer != nil {
			p.observer.ObserveReplace(domain.ErrorKind(err), time.Since(start))
		}
		if err != nil {
			zlog.Logger.Error().
				Err(err).
				Str("record_id", recordID).
				Str("kind", domain.ErrorKind(err)).
				Msg("image replacement failed")
		}
	}()

	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := config.ValidateProcessing(cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	if err := checkDeclaredExtension(in, cfg.AcceptedExtensions); err != nil {
		return nil, err
	}
	// Rejects unusable record ids before any download or upload.
	if _, err := keyname.DeriveKey(recordID, title, "jpg"); err != nil {
		return nil, err
	}

	data := in.Data
	if in.IsURL() {
		src, err := p.fetcher.Fetch(ctx, in.SourceURL)
		if err != nil {
			return nil, err
		}
		if !acceptedFormat(src.Extension, cfg.AcceptedExtensions) {
			return nil, fmt.Errorf("%w: downloaded %s is not accepted", domain.ErrUnsupportedFormat, src.ContentType)
		}
		data = src.Data
	}

	img, err := p.processor.Optimize(data, processor.MainProfile(cfg))
	if err != nil {
		return nil, err
	}
	if p.observer != nil {
		p.observer.ObserveSizes(img.OriginalSize, img.OptimizedSize)
	}

	key, err := keyname.DeriveKey(recordID, title, img.Extension)
	if err != nil {
		return nil, err
	}
	link, err := p.publisher.Publish(ctx, key, img)
	if err != nil {
		return nil, err
	}

	result = &domain.ReplaceResult{Link: *link, Image: *img}

	if cfg.ThumbnailEnabled {
		thumb, err := p.processor.Thumbnail(data, processor.ThumbnailProfile(cfg))
		if err != nil {
			return nil, err
		}
		base, err := keyname.DeriveKey(recordID, title, thumb.Extension)
		if err != nil {
			return nil, err
		}
		thumbLink, err := p.publisher.Publish(ctx, keyname.ThumbnailKey(base), thumb)
		if err != nil {
			return nil, err
		}
		result.Thumbnail = thumbLink
	}

	zlog.Logger.Info().
		Str("record_id", recordID).
		Str("key", key).
		Int64("original_size", img.OriginalSize).
		Int64("optimized_size", img.OptimizedSize).
		Bool("thumbnail", result.Thumbnail != nil).
		Dur("elapsed", time.Since(start)).
		Msg("image replaced")

	return result, nil
}

// Preview downloads and optimizes sourceURL without publishing anything.
func (p *Pipeline) Preview(ctx context.Context, sourceURL string, cfg config.ProcessingConfig) (*domain.OptimizedImage, error) {
	if err := config.ValidateProcessing(cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	src, err := p.fetcher.Fetch(ctx, sourceURL)
	if err != nil {
		return nil, err
	}
	return p.processor.Optimize(src.Data, processor.MainProfile(cfg))
}

// checkDeclaredExtension applies the allow-list to what the caller claims
// before any bytes are read: the upload's filename or the URL path. A URL
// without an extension is checked after download instead.
func checkDeclaredExtension(in domain.RawImageInput, accepted []string) error {
	if in.IsURL() {
		ext := keyname.ExtensionFromURL(in.SourceURL)
		if ext != "" && !keyname.Allowed(ext, accepted) {
			return fmt.Errorf("%w: url extension %q", domain.ErrUnsupportedFormat, ext)
		}
		return nil
	}
	ext := keyname.ExtensionFromFilename(in.Filename)
	if !keyname.Allowed(ext, accepted) {
		return fmt.Errorf("%w: file %q", domain.ErrUnsupportedFormat, in.Filename)
	}
	return nil
}

func acceptedFormat(ext string, accepted []string) bool {
	if keyname.Allowed(ext, accepted) {
		return true
	}
	return ext == "jpg" && keyname.Allowed("jpeg", accepted)
}
