package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/ragbox/internal/adapters/driven/storage/rank"
	"github.com/custodia-labs/ragbox/internal/core/domain"
	"github.com/custodia-labs/ragbox/internal/core/ports/driven"
	"github.com/custodia-labs/ragbox/internal/logger"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
// Each collection handle is an isolated namespace of chunks keyed by id.
type DocumentStore struct {
	mu         sync.RWMutex
	namespaces map[string]map[string]domain.Chunk
	embedder   driven.EmbeddingService
}

// Option configures a DocumentStore.
type Option func(*DocumentStore)

// WithEmbedder makes the store embed chunks on Put and rank by vector
// similarity on Search.
func WithEmbedder(e driven.EmbeddingService) Option {
	return func(s *DocumentStore) {
		s.embedder = e
	}
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore(opts ...Option) *DocumentStore {
	s := &DocumentStore{
		namespaces: make(map[string]map[string]domain.Chunk),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put inserts chunks, replacing any chunk with the same ID.
func (s *DocumentStore) Put(ctx context.Context, handle string, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	stored := make([]domain.Chunk, len(chunks))
	for i, c := range chunks {
		stored[i] = copyChunk(c)
		stored[i].Collection = handle
	}

	if err := rank.EmbedMissing(ctx, s.embedder, stored); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ns, ok := s.namespaces[handle]
	if !ok {
		ns = make(map[string]domain.Chunk)
		s.namespaces[handle] = ns
	}
	for _, c := range stored {
		ns[c.ID] = c
	}
	return nil
}

// List returns chunks in the namespace that pass the filter, ordered by
// file name and position.
func (s *DocumentStore) List(_ context.Context, handle string, filter domain.ChunkFilter) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var chunks []domain.Chunk
	for _, c := range s.namespaces[handle] {
		if filter.Matches(c) {
			chunks = append(chunks, copyChunk(c))
		}
	}
	rank.SortByFile(chunks)
	return chunks, nil
}

// DeleteByIDs removes exactly the given chunk ids.
func (s *DocumentStore) DeleteByIDs(_ context.Context, handle string, ids []string) (map[string]error, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	results := make(map[string]error, len(ids))
	ns := s.namespaces[handle]
	for _, id := range ids {
		if _, ok := ns[id]; !ok {
			results[id] = domain.ErrNotFound
			continue
		}
		delete(ns, id)
		results[id] = nil
	}
	if ns != nil && len(ns) == 0 {
		delete(s.namespaces, handle)
	}
	return results, nil
}

// DeleteAll purges every chunk in the namespace.
func (s *DocumentStore) DeleteAll(_ context.Context, handle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.namespaces, handle)
	return nil
}

// Search returns at most k passages. With an embedder the query is ranked
// by cosine similarity; otherwise, or if embedding the query fails, by
// keyword overlap.
func (s *DocumentStore) Search(ctx context.Context, handle, query string, k int) ([]domain.Passage, error) {
	chunks, err := s.List(ctx, handle, domain.ChunkFilter{})
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	if s.embedder != nil {
		vec, err := s.embedder.Embed(ctx, query)
		if err == nil {
			return rank.ByVector(chunks, vec, k), nil
		}
		logger.Debug("Query embedding failed, ranking by keywords: %v", err)
	}
	return rank.ByKeyword(chunks, query, k), nil
}

// Len returns the number of chunks stored under handle.
func (s *DocumentStore) Len(handle string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.namespaces[handle])
}

// copyChunk detaches a chunk from caller-owned maps and slices.
func copyChunk(c domain.Chunk) domain.Chunk {
	if c.Metadata != nil {
		meta := make(map[string]any, len(c.Metadata))
		for k, v := range c.Metadata {
			meta[k] = v
		}
		c.Metadata = meta
	}
	if c.Embedding != nil {
		c.Embedding = append([]float32(nil), c.Embedding...)
	}
	return c
}
