package domain

import "context"

// RecordRepository reads references from the external table and writes the
// published link back into it.
type RecordRepository interface {
	List(ctx context.Context) ([]ImageReference, error)
	FindByID(ctx context.Context, id string) (*ImageReference, error)
	UpdateImageURL(ctx context.Context, id string, url string) error
}
