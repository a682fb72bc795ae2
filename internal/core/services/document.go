package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/custodia-labs/ragbox/internal/core/domain"
	"github.com/custodia-labs/ragbox/internal/core/ports/driven"
	"github.com/custodia-labs/ragbox/internal/core/ports/driving"
	"github.com/custodia-labs/ragbox/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService lists and deletes chunks within collections.
type DocumentService struct {
	collections driven.CollectionStore
	docStore    driven.DocumentStore
	locks       *LockArena
}

// NewDocumentService creates a new document service.
func NewDocumentService(
	collections driven.CollectionStore,
	docStore driven.DocumentStore,
	locks *LockArena,
) *DocumentService {
	if locks == nil {
		locks = NewLockArena()
	}
	return &DocumentService{
		collections: collections,
		docStore:    docStore,
		locks:       locks,
	}
}

// List returns every chunk of the collection ordered by file name and position.
func (s *DocumentService) List(ctx context.Context, collection string) ([]domain.Chunk, error) {
	c, err := s.resolve(ctx, collection)
	if err != nil {
		return nil, err
	}

	chunks, err := s.docStore.List(ctx, c.Handle, domain.ChunkFilter{})
	if err != nil {
		return nil, fmt.Errorf("list documents of %q: %w", collection, err)
	}

	sort.SliceStable(chunks, func(i, j int) bool {
		if chunks[i].FileName != chunks[j].FileName {
			return chunks[i].FileName < chunks[j].FileName
		}
		return chunks[i].Position < chunks[j].Position
	})
	return chunks, nil
}

// Files returns the collection's chunks grouped by file name.
func (s *DocumentService) Files(ctx context.Context, collection string) ([]domain.FileGroup, error) {
	chunks, err := s.List(ctx, collection)
	if err != nil {
		return nil, err
	}
	return domain.GroupByFile(chunks), nil
}

// Delete removes exactly the given chunk ids and reports the outcome per id,
// in request order. The error wraps domain.ErrPartialFailure when only some
// ids were deleted, domain.ErrNotFound when none existed, and
// domain.ErrStoreUnavailable when nothing was deleted because the store failed.
func (s *DocumentService) Delete(ctx context.Context, collection string, ids []string) ([]domain.DeleteResult, error) {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no document ids given", domain.ErrInvalidInput)
	}

	c, unlock, err := s.locks.LockCollection(ctx, s.collections, collection)
	if err != nil {
		return nil, err
	}
	defer unlock()

	outcomes, err := s.docStore.DeleteByIDs(ctx, c.Handle, ids)
	if err != nil {
		return nil, fmt.Errorf("delete documents from %q: %w", collection, err)
	}

	results := make([]domain.DeleteResult, len(ids))
	var deleted, missing, failedCount int
	for i, id := range ids {
		results[i] = domain.DeleteResult{ID: id}
		derr, ok := outcomes[id]
		switch {
		case !ok:
			results[i].Status = domain.DeleteStatusFailed
			results[i].Error = "no result from store"
			failedCount++
		case derr == nil:
			results[i].Status = domain.DeleteStatusDeleted
			deleted++
		case errors.Is(derr, domain.ErrNotFound):
			results[i].Status = domain.DeleteStatusNotFound
			missing++
		default:
			results[i].Status = domain.DeleteStatusFailed
			results[i].Error = derr.Error()
			failedCount++
		}
	}

	logger.Info("Deleted %d of %d documents from %q", deleted, len(ids), c.Name)

	switch {
	case deleted == len(ids):
		return results, nil
	case deleted > 0:
		return results, fmt.Errorf("%w: deleted %d of %d documents", domain.ErrPartialFailure, deleted, len(ids))
	case failedCount > 0:
		return results, fmt.Errorf("%w: no documents deleted", domain.ErrStoreUnavailable)
	default:
		return results, fmt.Errorf("%w: none of the %d documents exist", domain.ErrNotFound, missing)
	}
}

func (s *DocumentService) resolve(ctx context.Context, collection string) (*domain.Collection, error) {
	c, err := s.collections.Get(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("collection %q: %w", collection, err)
	}
	return c, nil
}

// dedupe drops empty and repeated ids, keeping first occurrences in order.
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
