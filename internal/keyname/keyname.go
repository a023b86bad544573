// Package keyname derives deterministic storage keys for record images.
//
// Keys have the form {recordID}-{title}.{ext}. The same record, title and
// extension always map to the same key, so replacing a record's image
// overwrites the previous object instead of leaving orphans behind.
package keyname

import (
	"fmt"
	"mime"
	"net/url"
	"path"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/yokitheyo/imagelinker/internal/domain"
)

const MaxTitleLength = 60

var contentTypes = map[string]string{
	"jpg":  "image/jpeg",
	"png":  "image/png",
	"webp": "image/webp",
}

// DeriveKey builds the object key for a record image.
func DeriveKey(recordID, title, ext string) (string, error) {
	id := Sanitize(recordID, 0)
	if id == "" {
		return "", fmt.Errorf("%w: record id %q has no usable characters", domain.ErrInvalidInput, recordID)
	}

	normalized, err := NormalizeExtension(ext)
	if err != nil {
		return "", err
	}

	token := Sanitize(title, MaxTitleLength)
	if token == "" {
		return id + "." + normalized, nil
	}
	return id + "-" + token + "." + normalized, nil
}

// NormalizeExtension lowercases ext, strips the dot and folds jpeg into jpg.
func NormalizeExtension(ext string) (string, error) {
	e := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
	if e == "jpeg" {
		e = "jpg"
	}
	if _, ok := contentTypes[e]; !ok {
		return "", fmt.Errorf("%w: extension %q", domain.ErrUnsupportedFormat, ext)
	}
	return e, nil
}

// Sanitize reduces s to [a-z0-9_-]. Diacritics are stripped, any other rune
// becomes a separator and separator runs collapse into one. A run made only
// of underscores stays "_", anything else becomes "-". limit <= 0 means no
// truncation.
func Sanitize(s string, limit int) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	b.Grow(len(folded))

	pending, dash := false, false
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pending && b.Len() > 0 {
				if dash {
					b.WriteByte('-')
				} else {
					b.WriteByte('_')
				}
			}
			pending, dash = false, false
			b.WriteRune(r)
			continue
		}
		pending = true
		if r != '_' {
			dash = true
		}
	}

	out := b.String()
	if limit > 0 && len(out) > limit {
		out = strings.TrimRight(out[:limit], "-_")
	}
	return out
}

// ExtensionFromFilename returns the lowercase extension of name without the dot.
func ExtensionFromFilename(name string) string {
	return strings.TrimPrefix(strings.ToLower(path.Ext(name)), ".")
}

// ExtensionFromURL returns the extension of the URL path, or "" when the
// path has none.
func ExtensionFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return ExtensionFromFilename(u.Path)
}

func ExtensionFromContentType(contentType string) (string, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", fmt.Errorf("%w: content type %q", domain.ErrUnsupportedFormat, contentType)
	}
	switch mediaType {
	case "image/jpeg", "image/jpg", "image/pjpeg":
		return "jpg", nil
	case "image/png":
		return "png", nil
	case "image/webp":
		return "webp", nil
	}
	return "", fmt.Errorf("%w: content type %q", domain.ErrUnsupportedFormat, mediaType)
}

// ContentTypeFor maps a supported extension to its MIME type.
func ContentTypeFor(ext string) string {
	normalized, err := NormalizeExtension(ext)
	if err != nil {
		return "application/octet-stream"
	}
	return contentTypes[normalized]
}

// ThumbnailKey places the thumbnail next to the main object:
// 7-my-listing.jpg becomes 7-my-listing-thumb.jpg.
func ThumbnailKey(key string) string {
	ext := path.Ext(key)
	return strings.TrimSuffix(key, ext) + "-thumb" + ext
}

// Allowed reports whether ext is on the accepted list. Both sides are
// compared case-insensitively with or without the leading dot.
func Allowed(ext string, accepted []string) bool {
	e := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
	if e == "" {
		return false
	}
	for _, a := range accepted {
		if strings.TrimPrefix(strings.ToLower(strings.TrimSpace(a)), ".") == e {
			return true
		}
	}
	return false
}
