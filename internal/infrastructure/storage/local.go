package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wb-go/wbf/zlog"
	"github.com/yokitheyo/imagelinker/internal/config"
	"github.com/yokitheyo/imagelinker/internal/domain"
	"github.com/yokitheyo/imagelinker/internal/keyname"
)

type localStorage struct {
	basePath string
	prefix   string
	signer   *LinkSigner
}

func NewLocalStorage(cfg *config.StorageConfig, signer *LinkSigner) (Storage, error) {
	if cfg.LocalPath == "" {
		return nil, fmt.Errorf("LocalPath is empty, set storage.local_path in config or env")
	}
	if signer == nil {
		return nil, fmt.Errorf("local storage needs proxy link signing")
	}

	storage := &localStorage{
		basePath: cfg.LocalPath,
		prefix:   strings.Trim(cfg.Prefix, "/"),
		signer:   signer,
	}

	if err := os.MkdirAll(storage.dir(), 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return storage, nil
}

func (s *localStorage) dir() string {
	return filepath.Join(s.basePath, filepath.FromSlash(s.prefix))
}

func (s *localStorage) fullPath(key string) (string, error) {
	if key == "" || strings.Contains(key, "..") || strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("%w: bad key %q", domain.ErrInvalidInput, key)
	}
	return filepath.Join(s.dir(), filepath.FromSlash(key)), nil
}

// Put writes to a temp file and renames it over the key, so readers never
// see a half written object.
func (s *localStorage) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	if reader == nil {
		zlog.Logger.Error().Str("key", key).Msg("reader is nil")
		return fmt.Errorf("reader is nil")
	}

	fullPath, err := s.fullPath(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("create dir for %s: %w", key, err)
	}

	if _, err := os.Stat(fullPath); err == nil {
		zlog.Logger.Info().Str("path", fullPath).Msg("object exists, will be overwritten")
	}

	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".upload-*")
	if err != nil {
		zlog.Logger.Error().Err(err).Str("path", fullPath).Msg("failed to create temp file")
		return fmt.Errorf("create temp file for %s: %w", key, err)
	}
	defer os.Remove(tmp.Name())

	written, err := io.Copy(tmp, reader)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		zlog.Logger.Error().Err(err).Str("path", fullPath).Msg("failed to write file")
		return fmt.Errorf("write file %s: %w", key, err)
	}
	if written == 0 {
		zlog.Logger.Error().Str("path", fullPath).Msg("no bytes written to file")
		return fmt.Errorf("no bytes written to file %s", key)
	}
	if size >= 0 && written != size {
		return fmt.Errorf("short write for %s: %d of %d bytes", key, written, size)
	}

	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		zlog.Logger.Error().Err(err).Str("path", fullPath).Msg("failed to move file into place")
		return fmt.Errorf("rename into %s: %w", key, err)
	}

	zlog.Logger.Info().
		Str("key", key).
		Str("content_type", contentType).
		Int64("bytes", written).
		Msg("file saved successfully")

	return nil
}

func (s *localStorage) Get(ctx context.Context, key string) (*Object, error) {
	fullPath, err := s.fullPath(key)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			zlog.Logger.Warn().Str("path", fullPath).Msg("file not found")
			return nil, fmt.Errorf("%w: %s", domain.ErrObjectNotFound, key)
		}
		zlog.Logger.Error().Err(err).Str("path", fullPath).Msg("failed to open file")
		return nil, fmt.Errorf("open file %s: %w", key, err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat file %s: %w", key, err)
	}

	return &Object{
		Body:        file,
		Size:        stat.Size(),
		ContentType: keyname.ContentTypeFor(filepath.Ext(key)),
	}, nil
}

func (s *localStorage) SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	fullPath, err := s.fullPath(key)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(fullPath); err != nil {
		return "", fmt.Errorf("%w: %s", domain.ErrObjectNotFound, key)
	}
	return s.signer.Sign(key, expiry)
}
