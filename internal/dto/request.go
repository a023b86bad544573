package dto

import "github.com/yokitheyo/imagelinker/internal/domain"

type ReferenceRequest struct {
	RecordID string `json:"record_id" binding:"required"`
	URL      string `json:"url"`
}

type ValidateReferencesRequest struct {
	References []ReferenceRequest `json:"references" binding:"required,max=5000,dive"`
}

func (r *ValidateReferencesRequest) ToReferences() []domain.ImageReference {
	refs := make([]domain.ImageReference, 0, len(r.References))
	for _, ref := range r.References {
		refs = append(refs, domain.ImageReference{RecordID: ref.RecordID, URL: ref.URL})
	}
	return refs
}

// ReplaceImageForm holds the non-file multipart fields of an image upload.
type ReplaceImageForm struct {
	SourceURL string `form:"source_url"`
	Title     string `form:"title"`
}

// ReoptimizeTask is the queue message asking the worker to re-run the
// pipeline on a record's current image.
type ReoptimizeTask struct {
	TaskID   string `json:"task_id"`
	RecordID string `json:"record_id"`
}
