package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragbox/internal/core/domain"
	"github.com/custodia-labs/ragbox/internal/core/ports/driven"
	"github.com/custodia-labs/ragbox/internal/core/ports/driving"
	"github.com/custodia-labs/ragbox/internal/logger"
)

// Ensure CollectionService implements the interface.
var _ driving.CollectionService = (*CollectionService)(nil)

// CollectionService manages the collection registry.
type CollectionService struct {
	collections driven.CollectionStore
	docStore    driven.DocumentStore
	pending     driven.PendingStore
	locks       *LockArena
	now         func() time.Time
}

// NewCollectionService creates a new collection service.
// The pending store is optional.
func NewCollectionService(
	collections driven.CollectionStore,
	docStore driven.DocumentStore,
	pending driven.PendingStore,
	locks *LockArena,
) *CollectionService {
	if locks == nil {
		locks = NewLockArena()
	}
	return &CollectionService{
		collections: collections,
		docStore:    docStore,
		pending:     pending,
		locks:       locks,
		now:         time.Now,
	}
}

// Create registers a new, empty collection under a fresh handle.
func (s *CollectionService) Create(ctx context.Context, name string) (*domain.Collection, error) {
	name = strings.TrimSpace(name)
	if err := domain.ValidateCollectionName(name); err != nil {
		return nil, fmt.Errorf("collection name %q: %w", name, err)
	}

	now := s.now()
	c := &domain.Collection{
		Name:      name,
		Handle:    uuid.New().String(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.collections.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create collection %q: %w", name, err)
	}

	logger.Info("Created collection %q (handle %s)", name, c.Handle)
	return c, nil
}

// Get resolves a collection by name.
func (s *CollectionService) Get(ctx context.Context, name string) (*domain.Collection, error) {
	c, err := s.collections.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("collection %q: %w", name, err)
	}
	return c, nil
}

// Rename repoints a collection to a new name. The handle, and therefore
// all stored chunks, stay where they are.
func (s *CollectionService) Rename(ctx context.Context, oldName, newName string) error {
	newName = strings.TrimSpace(newName)
	if err := domain.ValidateCollectionName(newName); err != nil {
		return fmt.Errorf("collection name %q: %w", newName, err)
	}
	if oldName == newName {
		_, err := s.Get(ctx, oldName)
		return err
	}

	if err := s.collections.Rename(ctx, oldName, newName); err != nil {
		return fmt.Errorf("rename collection %q to %q: %w", oldName, newName, err)
	}

	logger.Info("Renamed collection %q to %q", oldName, newName)
	return nil
}

// Delete purges every chunk of the collection, then removes the registry entry.
// When the purge fails the entry is kept so the delete can be retried.
func (s *CollectionService) Delete(ctx context.Context, name string) error {
	c, unlock, err := s.locks.LockCollection(ctx, s.collections, name)
	if err != nil {
		return err
	}
	defer unlock()

	if err := s.docStore.DeleteAll(ctx, c.Handle); err != nil {
		logger.Warn("Purge of collection %q failed, keeping registry entry: %v", name, err)
		if !errors.Is(err, domain.ErrStoreUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
		}
		return fmt.Errorf("purge collection %q: %w", name, err)
	}

	if s.pending != nil {
		if err := s.pending.DeleteAll(ctx, c.Handle); err != nil {
			logger.Warn("Dropping staged uploads of %q failed: %v", name, err)
		}
	}

	if err := s.collections.Delete(ctx, name); err != nil {
		return fmt.Errorf("delete collection %q: %w", name, err)
	}

	logger.Info("Deleted collection %q", name)
	return nil
}

// List returns all collection names, sorted.
func (s *CollectionService) List(ctx context.Context) ([]string, error) {
	collections, err := s.collections.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}

	names := make([]string, 0, len(collections))
	for _, c := range collections {
		names = append(names, c.Name)
	}
	sort.Strings(names)
	return names, nil
}
