package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/imagelinker/internal/domain"
	"github.com/yokitheyo/imagelinker/internal/dto"
)

type RecordHandler struct {
	records       domain.RecordService
	validator     domain.ReferenceValidator
	maxUploadSize int64
}

func NewRecordHandler(records domain.RecordService, validator domain.ReferenceValidator, maxUploadSizeMB int) *RecordHandler {
	return &RecordHandler{
		records:       records,
		validator:     validator,
		maxUploadSize: int64(maxUploadSizeMB) * 1024 * 1024,
	}
}

func (h *RecordHandler) RegisterRoutes(engine *ginext.Engine) {
	engine.GET("/records", h.ListRecords)
	engine.POST("/records/:id/image", h.ReplaceImage)
	engine.POST("/records/:id/refresh", h.RefreshStatus)
	engine.POST("/records/:id/reoptimize", h.Reoptimize)
	engine.POST("/references/validate", h.ValidateReferences)
}

// ListRecords GET /records?status=all|ok|error
func (h *RecordHandler) ListRecords(c *ginext.Context) {
	filter, ok := domain.ParseStatusFilter(c.Query("status"))
	if !ok {
		badRequest(c, "status must be one of: all, ok, error")
		return
	}

	records, err := h.records.ListRecords(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MapRecordsToResponse(records, filter))
}

// ValidateReferences POST /references/validate
func (h *RecordHandler) ValidateReferences(c *ginext.Context) {
	var req dto.ValidateReferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	statuses := h.validator.ValidateAll(c.Request.Context(), req.ToReferences())
	c.JSON(http.StatusOK, dto.MapStatusesToResponse(statuses))
}

// ReplaceImage POST /records/:id/image
//
// Multipart form with either an "image" file or a "source_url" field, and
// an optional "title".
func (h *RecordHandler) ReplaceImage(c *ginext.Context) {
	recordID := strings.TrimSpace(c.Param("id"))
	if recordID == "" {
		badRequest(c, "record id is required")
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize+1024*1024)

	var form dto.ReplaceImageForm
	if err := c.ShouldBind(&form); err != nil {
		if !h.tooLarge(c, err) {
			badRequest(c, err.Error())
		}
		return
	}

	in, err := h.readInput(c, form)
	if err != nil {
		if !h.tooLarge(c, err) {
			respondError(c, err)
		}
		return
	}

	res, err := h.records.ReplaceRecordImage(c.Request.Context(), recordID, form.Title, in)
	if err != nil {
		respondError(c, err)
		return
	}

	zlog.Logger.Info().
		Str("record_id", recordID).
		Str("key", res.Link.Key).
		Bool("from_url", in.IsURL()).
		Msg("record image replaced via API")

	c.JSON(http.StatusOK, dto.MapReplaceResultToResponse(recordID, res))
}

// tooLarge answers 413 and reports true when err comes from the body limit.
func (h *RecordHandler) tooLarge(c *ginext.Context, err error) bool {
	var maxErr *http.MaxBytesError
	if !errors.As(err, &maxErr) {
		return false
	}
	c.JSON(http.StatusRequestEntityTooLarge, dto.ErrorResponse{
		Error:   "file_too_large",
		Message: fmt.Sprintf("File size exceeds maximum allowed (%d MB)", h.maxUploadSize/(1024*1024)),
		Code:    http.StatusRequestEntityTooLarge,
	})
	return true
}

func (h *RecordHandler) readInput(c *ginext.Context, form dto.ReplaceImageForm) (domain.RawImageInput, error) {
	in := domain.RawImageInput{SourceURL: strings.TrimSpace(form.SourceURL)}

	file, header, err := c.Request.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return in, nil
	case err != nil:
		return in, fmt.Errorf("%w: read upload: %w", domain.ErrInvalidInput, err)
	}
	defer file.Close()

	if header.Size > h.maxUploadSize {
		return in, &http.MaxBytesError{Limit: h.maxUploadSize}
	}

	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadSize+1))
	if err != nil {
		return in, fmt.Errorf("%w: read upload: %w", domain.ErrInvalidInput, err)
	}
	if int64(len(data)) > h.maxUploadSize {
		return in, &http.MaxBytesError{Limit: h.maxUploadSize}
	}

	in.Data = data
	in.Filename = header.Filename
	return in, nil
}

// RefreshStatus POST /records/:id/refresh
func (h *RecordHandler) RefreshStatus(c *ginext.Context) {
	status, err := h.records.RefreshStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapRecordToResponse(status))
}

// Reoptimize POST /records/:id/reoptimize
func (h *RecordHandler) Reoptimize(c *ginext.Context) {
	recordID := c.Param("id")
	taskID, err := h.records.EnqueueReoptimize(c.Request.Context(), recordID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, dto.ReoptimizeResponse{
		TaskID:   taskID,
		RecordID: recordID,
		Status:   "queued",
	})
}
