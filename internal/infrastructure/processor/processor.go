package processor

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/wb-go/wbf/zlog"
	_ "golang.org/x/image/webp"

	"github.com/yokitheyo/imagelinker/internal/config"
	"github.com/yokitheyo/imagelinker/internal/domain"
)

const (
	outputExtension   = "jpg"
	outputContentType = "image/jpeg"
	maxQuality        = 95

	// DefaultMaxPixels rejects decompression bombs before the full decode.
	DefaultMaxPixels = 100_000_000
)

var formatExtensions = map[string]string{
	"jpeg": "jpg",
	"png":  "png",
	"webp": "webp",
}

var formatContentTypes = map[string]string{
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"webp": "image/webp",
}

// Profile is one set of optimization settings.
type Profile struct {
	MaxDimension      int
	Quality           int
	Enabled           bool
	MinSavingsPercent float64
}

func MainProfile(cfg config.ProcessingConfig) Profile {
	return Profile{
		MaxDimension:      cfg.MaxDimension,
		Quality:           cfg.Quality,
		Enabled:           cfg.OptimizationEnabled,
		MinSavingsPercent: cfg.MinSavingsPercent,
	}
}

func ThumbnailProfile(cfg config.ProcessingConfig) Profile {
	return Profile{
		MaxDimension: cfg.ThumbnailMaxDimension,
		Quality:      cfg.ThumbnailQuality,
		Enabled:      true,
	}
}

type Info struct {
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Format    string `json:"format"`
	SizeBytes int64  `json:"size_bytes"`
}

type ImageProcessor struct {
	maxPixels int
}

func NewImageProcessor(maxPixels int) *ImageProcessor {
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	return &ImageProcessor{maxPixels: maxPixels}
}

// Inspect reads dimensions and format without decoding pixels.
func (p *ImageProcessor) Inspect(raw []byte) (*Info, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDecode, err)
	}
	return &Info{
		Width:     cfg.Width,
		Height:    cfg.Height,
		Format:    format,
		SizeBytes: int64(len(raw)),
	}, nil
}

// Optimize normalizes raw into a bounded, opaque JPEG. When the profile is
// disabled, or when re-encoding an unresized JPEG would not save at least
// MinSavingsPercent, the original bytes come back unchanged with
// OptimizedSize == OriginalSize. Decode failures are always returned.
func (p *ImageProcessor) Optimize(raw []byte, profile Profile) (*domain.OptimizedImage, error) {
	return p.process(raw, profile, true)
}

// Thumbnail always transcodes raw with the given profile.
func (p *ImageProcessor) Thumbnail(raw []byte, profile Profile) (*domain.OptimizedImage, error) {
	profile.Enabled = true
	profile.MinSavingsPercent = 0
	return p.process(raw, profile, false)
}

func (p *ImageProcessor) process(raw []byte, profile Profile, allowPassthrough bool) (*domain.OptimizedImage, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty payload", domain.ErrDecode)
	}
	if profile.MaxDimension <= 0 {
		return nil, fmt.Errorf("%w: max dimension must be positive", domain.ErrInvalidInput)
	}
	if profile.Quality < 1 || profile.Quality > maxQuality {
		return nil, fmt.Errorf("%w: quality %d out of range", domain.ErrInvalidInput, profile.Quality)
	}

	info, err := p.Inspect(raw)
	if err != nil {
		zlog.Logger.Error().Err(err).Int("bytes", len(raw)).Msg("failed to read image header")
		return nil, err
	}
	ext, ok := formatExtensions[info.Format]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, info.Format)
	}
	if info.Width == 0 || info.Height == 0 {
		return nil, fmt.Errorf("%w: image has no pixels", domain.ErrDecode)
	}
	if info.Width*info.Height > p.maxPixels {
		return nil, fmt.Errorf("%w: image %dx%d exceeds %d pixels", domain.ErrInvalidInput, info.Width, info.Height, p.maxPixels)
	}

	original := passthrough(raw, info, ext)
	if !profile.Enabled && allowPassthrough {
		zlog.Logger.Info().
			Str("format", info.Format).
			Int64("size", original.OriginalSize).
			Msg("optimization disabled, keeping original bytes")
		return original, nil
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		zlog.Logger.Error().Err(err).Str("format", info.Format).Msg("failed to decode image")
		return nil, fmt.Errorf("%w: %w", domain.ErrDecode, err)
	}
	if img.Bounds().Dx() == 0 || img.Bounds().Dy() == 0 {
		return nil, fmt.Errorf("%w: decoded image is empty", domain.ErrDecode)
	}

	out := flatten(img)
	resized := false
	if w, h := out.Bounds().Dx(), out.Bounds().Dy(); max(w, h) > profile.MaxDimension {
		out = imaging.Fit(out, profile.MaxDimension, profile.MaxDimension, imaging.Lanczos)
		resized = true
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.JPEG, imaging.JPEGQuality(profile.Quality)); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to encode image")
		return nil, fmt.Errorf("%w: %w", domain.ErrEncode, err)
	}
	if buf.Len() == 0 {
		return nil, fmt.Errorf("%w: encoder produced no bytes", domain.ErrEncode)
	}

	if allowPassthrough && info.Format == "jpeg" && !resized &&
		!savesEnough(original.OriginalSize, int64(buf.Len()), profile.MinSavingsPercent) &&
		!orientationApplied(raw, img) {
		zlog.Logger.Info().
			Int64("original_size", original.OriginalSize).
			Int("encoded_size", buf.Len()).
			Float64("min_savings_percent", profile.MinSavingsPercent).
			Msg("re-encoding would not save enough, keeping original bytes")
		return original, nil
	}

	result := &domain.OptimizedImage{
		Data:          buf.Bytes(),
		ContentType:   outputContentType,
		Extension:     outputExtension,
		OriginalSize:  int64(len(raw)),
		OptimizedSize: int64(buf.Len()),
		Width:         out.Bounds().Dx(),
		Height:        out.Bounds().Dy(),
		Optimized:     true,
	}

	zlog.Logger.Info().
		Str("source_format", info.Format).
		Int("original_width", info.Width).
		Int("original_height", info.Height).
		Int("width", result.Width).
		Int("height", result.Height).
		Int64("original_size", result.OriginalSize).
		Int64("optimized_size", result.OptimizedSize).
		Float64("savings_percent", result.SavingsPercent()).
		Msg("Image optimized")

	return result, nil
}

// flatten composites img over opaque white so transparent areas become
// white in the JPEG output.
func flatten(img image.Image) *image.NRGBA {
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return imaging.Clone(img)
	}
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}

// orientationApplied reports whether decoding with EXIF orientation gave
// different pixels than a plain decode. The original bytes of such an image
// still depend on the tag, so they must not be returned as is.
func orientationApplied(raw []byte, oriented image.Image) bool {
	plain, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return true
	}
	if plain.Bounds().Size() != oriented.Bounds().Size() {
		return true
	}
	return !bytes.Equal(imaging.Clone(plain).Pix, imaging.Clone(oriented).Pix)
}

func passthrough(raw []byte, info *Info, ext string) *domain.OptimizedImage {
	return &domain.OptimizedImage{
		Data:          raw,
		ContentType:   formatContentTypes[info.Format],
		Extension:     ext,
		OriginalSize:  int64(len(raw)),
		OptimizedSize: int64(len(raw)),
		Width:         info.Width,
		Height:        info.Height,
	}
}

func savesEnough(original, encoded int64, minPercent float64) bool {
	if encoded >= original {
		return false
	}
	saved := float64(original-encoded) / float64(original) * 100
	return saved >= minPercent
}
