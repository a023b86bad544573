package http

import (
	"net/http"

	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/imagelinker/internal/domain"
	"github.com/yokitheyo/imagelinker/internal/dto"
)

var statusByKind = map[string]int{
	"invalid_input":       http.StatusBadRequest,
	"unsupported_format":  http.StatusBadRequest,
	"fetch_error":         http.StatusUnprocessableEntity,
	"decode_error":        http.StatusUnprocessableEntity,
	"encode_error":        http.StatusInternalServerError,
	"storage_write_error": http.StatusBadGateway,
	"signing_error":       http.StatusBadGateway,
	"record_not_found":    http.StatusNotFound,
	"object_not_found":    http.StatusNotFound,
	"link_invalid":        http.StatusForbidden,
	"link_expired":        http.StatusGone,
	"queue_unavailable":   http.StatusServiceUnavailable,
}

// HTTPStatus maps an error to the response code for its kind.
func HTTPStatus(err error) int {
	if code, ok := statusByKind[domain.ErrorKind(err)]; ok {
		return code
	}
	return http.StatusInternalServerError
}

func respondError(c *ginext.Context, err error) {
	code := HTTPStatus(err)
	kind := domain.ErrorKind(err)

	message := err.Error()
	if code == http.StatusInternalServerError {
		message = "An internal error occurred"
	}

	event := zlog.Logger.Warn()
	if code >= 500 {
		event = zlog.Logger.Error()
	}
	event.Err(err).
		Str("kind", kind).
		Int("status", code).
		Str("path", c.Request.URL.Path).
		Msg("request failed")

	c.JSON(code, dto.ErrorResponse{Error: kind, Message: message, Code: code})
}

func badRequest(c *ginext.Context, message string) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{
		Error:   "invalid_request",
		Message: message,
		Code:    http.StatusBadRequest,
	})
}
