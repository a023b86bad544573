package domain

import (
	"fmt"
	"strings"
	"time"
)

type ValidationStatus string

const (
	StatusOK      ValidationStatus = "ok"
	StatusBroken  ValidationStatus = "broken"
	StatusUnknown ValidationStatus = "unknown"
)

// IsBroken reports whether callers should offer a re-upload. Unknown counts
// as broken.
func (s ValidationStatus) IsBroken() bool {
	return s != StatusOK
}

// ImageReference is the image URL stored on one record of the external table.
type ImageReference struct {
	RecordID string `json:"record_id"`
	Title    string `json:"title,omitempty"`
	URL      string `json:"url"`
}

func (r ImageReference) HasURL() bool {
	return strings.TrimSpace(r.URL) != ""
}

// RawImageInput carries either uploaded bytes with their filename or a
// remote URL to download. Exactly one form must be set.
type RawImageInput struct {
	Data      []byte
	Filename  string
	SourceURL string
}

func (in RawImageInput) IsURL() bool {
	return strings.TrimSpace(in.SourceURL) != ""
}

func (in RawImageInput) Validate() error {
	hasFile := len(in.Data) > 0 || in.Filename != ""
	hasURL := in.IsURL()

	switch {
	case hasFile && hasURL:
		return fmt.Errorf("%w: both file and source url provided", ErrInvalidInput)
	case !hasFile && !hasURL:
		return fmt.Errorf("%w: neither file nor source url provided", ErrInvalidInput)
	case hasFile && len(in.Data) == 0:
		return fmt.Errorf("%w: file %q is empty", ErrInvalidInput, in.Filename)
	case hasFile && in.Filename == "":
		return fmt.Errorf("%w: file name is required", ErrInvalidInput)
	}
	return nil
}

type OptimizedImage struct {
	Data          []byte `json:"-"`
	ContentType   string `json:"content_type"`
	Extension     string `json:"extension"`
	OriginalSize  int64  `json:"original_size"`
	OptimizedSize int64  `json:"optimized_size"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	Optimized     bool   `json:"optimized"`
}

// SavingsPercent is the size reduction relative to the original, 0 when
// nothing was saved.
func (o *OptimizedImage) SavingsPercent() float64 {
	if o == nil || o.OriginalSize <= 0 || o.OptimizedSize >= o.OriginalSize {
		return 0
	}
	return (1 - float64(o.OptimizedSize)/float64(o.OriginalSize)) * 100
}

type PublishedLink struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type ReplaceResult struct {
	Link      PublishedLink  `json:"link"`
	Thumbnail *PublishedLink `json:"thumbnail,omitempty"`
	Image     OptimizedImage `json:"image"`
}
