package driven

import (
	"context"

	"github.com/custodia-labs/ragbox/internal/core/domain"
)

// DocumentStore persists chunks, one isolated namespace per collection handle.
// Implementations wrap infrastructure failures with domain.ErrStoreUnavailable.
type DocumentStore interface {
	// Put inserts chunks, replacing any chunk with the same ID.
	Put(ctx context.Context, handle string, chunks []domain.Chunk) error

	// List returns chunks in the namespace that pass the filter.
	// An unknown handle yields an empty result.
	List(ctx context.Context, handle string, filter domain.ChunkFilter) ([]domain.Chunk, error)

	// DeleteByIDs removes exactly the given chunk ids.
	// The map holds one entry per requested id: nil when deleted,
	// domain.ErrNotFound when absent, or the failure otherwise.
	DeleteByIDs(ctx context.Context, handle string, ids []string) (map[string]error, error)

	// DeleteAll purges every chunk in the namespace.
	DeleteAll(ctx context.Context, handle string) error

	// Search returns at most k passages ranked by relevance to query.
	Search(ctx context.Context, handle, query string, k int) ([]domain.Passage, error)
}
