package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnsupportedFormat = fmt.Errorf("%w: unsupported image format", ErrInvalidInput)
	ErrFetch             = errors.New("fetch source image failed")
	ErrDecode            = errors.New("decode image failed")
	ErrEncode            = errors.New("encode image failed")
	ErrStorageWrite      = errors.New("storage write failed")
	ErrSigning           = errors.New("signing link failed")

	ErrRecordNotFound = errors.New("record not found")
	ErrObjectNotFound = errors.New("object not found")
	ErrLinkInvalid    = errors.New("link signature invalid")
	ErrLinkExpired    = errors.New("link expired")

	ErrQueueUnavailable = errors.New("task queue is not configured")
)

// ErrorKind returns a stable tag for err that callers can switch on or put
// into a response body. Order matters: ErrUnsupportedFormat also matches
// ErrInvalidInput.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnsupportedFormat):
		return "unsupported_format"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrFetch):
		return "fetch_error"
	case errors.Is(err, ErrDecode):
		return "decode_error"
	case errors.Is(err, ErrEncode):
		return "encode_error"
	case errors.Is(err, ErrStorageWrite):
		return "storage_write_error"
	case errors.Is(err, ErrSigning):
		return "signing_error"
	case errors.Is(err, ErrRecordNotFound):
		return "record_not_found"
	case errors.Is(err, ErrObjectNotFound):
		return "object_not_found"
	case errors.Is(err, ErrLinkExpired):
		return "link_expired"
	case errors.Is(err, ErrLinkInvalid):
		return "link_invalid"
	case errors.Is(err, ErrQueueUnavailable):
		return "queue_unavailable"
	default:
		return "internal_error"
	}
}
