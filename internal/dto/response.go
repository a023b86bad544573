package dto

import (
	"time"

	"github.com/yokitheyo/imagelinker/internal/domain"
)

type RecordResponse struct {
	RecordID string `json:"record_id"`
	Title    string `json:"title,omitempty"`
	URL      string `json:"url"`
	Status   string `json:"status"`
	Broken   bool   `json:"broken"`
}

type RecordListResponse struct {
	Records []RecordResponse `json:"records"`
	Total   int              `json:"total"`
	Filter  string           `json:"filter"`
}

type ValidationResponse struct {
	Statuses map[string]string `json:"statuses"`
	Broken   int               `json:"broken"`
}

type LinkResponse struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type ReplaceImageResponse struct {
	RecordID       string        `json:"record_id"`
	Link           LinkResponse  `json:"link"`
	Thumbnail      *LinkResponse `json:"thumbnail,omitempty"`
	Width          int           `json:"width"`
	Height         int           `json:"height"`
	OriginalSize   int64         `json:"original_size"`
	OptimizedSize  int64         `json:"optimized_size"`
	SavingsPercent float64       `json:"savings_percent"`
	Optimized      bool          `json:"optimized"`
	Status         string        `json:"status,omitempty"`
}

type ReoptimizeResponse struct {
	TaskID   string `json:"task_id"`
	RecordID string `json:"record_id"`
	Status   string `json:"status"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

func MapRecordToResponse(r domain.RecordStatus) RecordResponse {
	return RecordResponse{
		RecordID: r.RecordID,
		Title:    r.Title,
		URL:      r.URL,
		Status:   string(r.Status),
		Broken:   r.Status.IsBroken(),
	}
}

func MapRecordsToResponse(records []domain.RecordStatus, filter domain.StatusFilter) *RecordListResponse {
	out := make([]RecordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, MapRecordToResponse(r))
	}
	return &RecordListResponse{Records: out, Total: len(out), Filter: string(filter)}
}

func MapStatusesToResponse(statuses map[string]domain.ValidationStatus) *ValidationResponse {
	resp := &ValidationResponse{Statuses: make(map[string]string, len(statuses))}
	for id, s := range statuses {
		resp.Statuses[id] = string(s)
		if s.IsBroken() {
			resp.Broken++
		}
	}
	return resp
}

func mapLink(l *domain.PublishedLink) *LinkResponse {
	if l == nil {
		return nil
	}
	return &LinkResponse{Key: l.Key, URL: l.URL, ExpiresAt: l.ExpiresAt}
}

func MapReplaceResultToResponse(recordID string, res *domain.ReplaceResult) *ReplaceImageResponse {
	if res == nil {
		return nil
	}
	return &ReplaceImageResponse{
		RecordID:       recordID,
		Link:           *mapLink(&res.Link),
		Thumbnail:      mapLink(res.Thumbnail),
		Width:          res.Image.Width,
		Height:         res.Image.Height,
		OriginalSize:   res.Image.OriginalSize,
		OptimizedSize:  res.Image.OptimizedSize,
		SavingsPercent: res.Image.SavingsPercent(),
		Optimized:      res.Image.Optimized,
	}
}
