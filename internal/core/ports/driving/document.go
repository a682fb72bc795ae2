package driving

import (
	"context"

	"github.com/custodia-labs/ragbox/internal/core/domain"
)

// DocumentService lists and deletes chunks within a collection.
type DocumentService interface {
	// List returns every chunk of the collection.
	List(ctx context.Context, collection string) ([]domain.Chunk, error)

	// Files returns the chunks grouped by file name.
	Files(ctx context.Context, collection string) ([]domain.FileGroup, error)

	// Delete removes exactly the given chunk ids and reports per id.
	Delete(ctx context.Context, collection string, ids []string) ([]domain.DeleteResult, error)
}
