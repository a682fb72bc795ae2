package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/ragbox/internal/core/domain"
	"github.com/custodia-labs/ragbox/internal/core/ports/driven"
)

// Ensure CollectionStore implements the interface.
var _ driven.CollectionStore = (*CollectionStore)(nil)

// CollectionStore is an in-memory implementation of driven.CollectionStore.
type CollectionStore struct {
	mu          sync.RWMutex
	collections map[string]domain.Collection
}

// NewCollectionStore creates a new in-memory collection store.
func NewCollectionStore() *CollectionStore {
	return &CollectionStore{
		collections: make(map[string]domain.Collection),
	}
}

// Create registers a new collection.
func (s *CollectionStore) Create(_ context.Context, c *domain.Collection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[c.Name]; ok {
		return domain.ErrAlreadyExists
	}
	s.collections[c.Name] = *c
	return nil
}

// Get resolves a collection by name.
func (s *CollectionStore) Get(_ context.Context, name string) (*domain.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

// Rename repoints the entry under the store lock, keeping its handle.
func (s *CollectionStore) Rename(_ context.Context, oldName, newName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[oldName]
	if !ok {
		return domain.ErrNotFound
	}
	if oldName == newName {
		return nil
	}
	if _, taken := s.collections[newName]; taken {
		return domain.ErrAlreadyExists
	}
	delete(s.collections, oldName)
	c.Name = newName
	s.collections[newName] = c
	return nil
}

// Delete removes the registry entry.
func (s *CollectionStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[name]; !ok {
		return domain.ErrNotFound
	}
	delete(s.collections, name)
	return nil
}

// List returns all collections ordered by name.
func (s *CollectionStore) List(_ context.Context) ([]domain.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Collection, 0, len(s.collections))
	for _, c := range s.collections {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}
