package driven

import (
	"context"

	"github.com/custodia-labs/ragbox/internal/core/domain"
)

// PendingStore stages changed uploads until the caller confirms the overwrite.
// Entries are keyed by collection handle and file name; Save replaces.
type PendingStore interface {
	Save(ctx context.Context, p *domain.PendingUpload) error

	// Get returns domain.ErrNotFound when nothing is staged for the file.
	Get(ctx context.Context, handle, fileName string) (*domain.PendingUpload, error)

	Delete(ctx context.Context, handle, fileName string) error

	// DeleteAll drops every staged upload of a collection.
	DeleteAll(ctx context.Context, handle string) error

	// List returns the staged uploads of a collection ordered by file name.
	List(ctx context.Context, handle string) ([]domain.PendingUpload, error)
}
