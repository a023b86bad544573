package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/wb-go/wbf/zlog"
	"github.com/yokitheyo/imagelinker/internal/config"
)

// Storage is an object store addressed by key. Put is an upsert: writing an
// existing key replaces the object.
type Storage interface {
	Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (*Object, error)
	SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// Object is an open stored object. The caller closes Body.
type Object struct {
	Body        io.ReadCloser
	Size        int64
	ContentType string
}

func New(cfg *config.StorageConfig) (Storage, error) {
	var signer *LinkSigner
	if cfg.LinkMode == config.LinkModeProxy {
		signer = NewLinkSigner(cfg.LinkBaseURL, cfg.LinkSecret)
	}

	switch cfg.Type {
	case "local":
		zlog.Logger.Info().Str("link_mode", cfg.LinkMode).Msg("Initializing local storage")
		return NewLocalStorage(cfg, signer)
	case "s3":
		zlog.Logger.Info().Str("link_mode", cfg.LinkMode).Msg("Initializing S3 storage")
		return NewS3Storage(cfg, signer)
	default:
		zlog.Logger.Error().Str("type", cfg.Type).Msg("Unsupported storage type, use 'local' or 's3'")
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
