package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/imagelinker/internal/config"
	"github.com/yokitheyo/imagelinker/internal/domain"
	"github.com/yokitheyo/imagelinker/internal/infrastructure/validator"
	"github.com/yokitheyo/imagelinker/internal/keyname"
)

// HTTPFetcher downloads source images for URL based uploads.
type HTTPFetcher struct {
	client   *http.Client
	cfg      config.FetchConfig
	maxBytes int64
}

// New builds a fetcher. rt may be nil to use http.DefaultTransport.
func New(cfg config.FetchConfig, rt http.RoundTripper) *HTTPFetcher {
	d := config.DefaultFetch()
	if cfg.TimeoutSec <= 0 {
		cfg.TimeoutSec = d.TimeoutSec
	}
	if cfg.MaxRedirects <= 0 {
		cfg.MaxRedirects = d.MaxRedirects
	}
	if cfg.MaxSizeMB <= 0 {
		cfg.MaxSizeMB = d.MaxSizeMB
	}
	if rt == nil {
		rt = http.DefaultTransport
	}

	return &HTTPFetcher{
		cfg:      cfg,
		maxBytes: cfg.MaxBytes(),
		client: &http.Client{
			Transport:     rt,
			CheckRedirect: validator.LimitRedirects(cfg.MaxRedirects),
		},
	}
}

// Fetch GETs url and returns its body. The extension comes from sniffing
// the bytes, falling back to the Content-Type header. Every failure is
// wrapped in domain.ErrFetch except an unsupported payload, which is
// domain.ErrUnsupportedFormat.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*domain.FetchedSource, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("%w: empty url", domain.ErrFetch)
	}

	ctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", domain.ErrFetch, err)
	}
	req.Header.Set("Accept", "image/jpeg, image/png, image/webp, image/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("url", url).Msg("failed to download source image")
		return nil, fmt.Errorf("%w: %w", domain.ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		zlog.Logger.Warn().Int("status", resp.StatusCode).Str("url", url).Msg("source image returned non-success status")
		return nil, fmt.Errorf("%w: %s returned status %d", domain.ErrFetch, url, resp.StatusCode)
	}
	if resp.ContentLength > f.maxBytes {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit %d", domain.ErrFetch, url, resp.ContentLength, f.maxBytes)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		zlog.Logger.Error().Err(err).Str("url", url).Msg("failed to read source image body")
		return nil, fmt.Errorf("%w: read body: %w", domain.ErrFetch, err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", domain.ErrFetch, url, f.maxBytes)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s returned an empty body", domain.ErrFetch, url)
	}

	contentType, ext, err := detect(data, resp.Header.Get("Content-Type"))
	if err != nil {
		zlog.Logger.Warn().Err(err).Str("url", url).Msg("downloaded file is not a supported image")
		return nil, err
	}

	zlog.Logger.Info().
		Str("url", url).
		Str("content_type", contentType).
		Int("bytes", len(data)).
		Msg("source image downloaded")

	return &domain.FetchedSource{Data: data, ContentType: contentType, Extension: ext}, nil
}

func detect(data []byte, header string) (string, string, error) {
	sniffed := mimetype.Detect(data)
	if ext, err := keyname.ExtensionFromContentType(sniffed.String()); err == nil {
		return keyname.ContentTypeFor(ext), ext, nil
	}
	if header != "" {
		if ext, err := keyname.ExtensionFromContentType(header); err == nil {
			return keyname.ContentTypeFor(ext), ext, nil
		}
	}
	return "", "", fmt.Errorf("%w: downloaded content is %s", domain.ErrUnsupportedFormat, sniffed.String())
}
