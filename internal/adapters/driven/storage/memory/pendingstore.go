package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/ragbox/internal/core/domain"
	"github.com/custodia-labs/ragbox/internal/core/ports/driven"
)

// Ensure PendingStore implements the interface.
var _ driven.PendingStore = (*PendingStore)(nil)

// PendingStore is an in-memory implementation of driven.PendingStore.
type PendingStore struct {
	mu      sync.RWMutex
	uploads map[string]map[string]domain.PendingUpload // handle -> file name -> upload
}

// NewPendingStore creates a new in-memory pending upload store.
func NewPendingStore() *PendingStore {
	return &PendingStore{
		uploads: make(map[string]map[string]domain.PendingUpload),
	}
}

// Save stages an upload, replacing any previous one for the same file.
func (s *PendingStore) Save(_ context.Context, p *domain.PendingUpload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byName, ok := s.uploads[p.Collection]
	if !ok {
		byName = make(map[string]domain.PendingUpload)
		s.uploads[p.Collection] = byName
	}
	staged := *p
	staged.Content = append([]byte(nil), p.Content...)
	byName[p.FileName] = staged
	return nil
}

// Get returns the staged upload for a file.
func (s *PendingStore) Get(_ context.Context, handle, fileName string) (*domain.PendingUpload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.uploads[handle][fileName]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

// Delete drops the staged upload for a file.
func (s *PendingStore) Delete(_ context.Context, handle, fileName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byName := s.uploads[handle]
	if _, ok := byName[fileName]; !ok {
		return domain.ErrNotFound
	}
	delete(byName, fileName)
	if len(byName) == 0 {
		delete(s.uploads, handle)
	}
	return nil
}

// DeleteAll drops every staged upload of a collection.
func (s *PendingStore) DeleteAll(_ context.Context, handle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.uploads, handle)
	return nil
}

// List returns the staged uploads of a collection ordered by file name.
func (s *PendingStore) List(_ context.Context, handle string) ([]domain.PendingUpload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.PendingUpload, 0, len(s.uploads[handle]))
	for _, p := range s.uploads[handle] {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].FileName < result[j].FileName })
	return result, nil
}
