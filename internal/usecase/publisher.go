package usecase

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/imagelinker/internal/domain"
	"github.com/yokitheyo/imagelinker/internal/infrastructure/storage"
)

// Publisher stores an image under its key and returns a long lived link.
type Publisher struct {
	storage storage.Storage
	expiry  time.Duration
	now     func() time.Time
}

func NewPublisher(s storage.Storage, expiry time.Duration) *Publisher {
	return &Publisher{storage: s, expiry: expiry, now: time.Now}
}

// Publish upserts img at key and signs a link to it. If signing fails the
// object stays in place and the call can simply be repeated.
func (p *Publisher) Publish(ctx context.Context, key string, img *domain.OptimizedImage) (*domain.PublishedLink, error) {
	if img == nil || len(img.Data) == 0 {
		return nil, fmt.Errorf("%w: nothing to publish for %s", domain.ErrInvalidInput, key)
	}

	if err := p.storage.Put(ctx, key, bytes.NewReader(img.Data), int64(len(img.Data)), img.ContentType); err != nil {
		zlog.Logger.Error().Err(err).Str("key", key).Msg("failed to store image")
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrStorageWrite, key, err)
	}

	issued := p.now()
	url, err := p.storage.SignedURL(ctx, key, p.expiry)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("key", key).Msg("image stored but link signing failed")
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrSigning, key, err)
	}

	zlog.Logger.Info().
		Str("key", key).
		Int("bytes", len(img.Data)).
		Dur("expiry", p.expiry).
		Msg("image published")

	return &domain.PublishedLink{
		Key:       key,
		URL:       url,
		ExpiresAt: issued.Add(p.expiry),
	}, nil
}
