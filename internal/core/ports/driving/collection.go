package driving

import (
	"context"

	"github.com/custodia-labs/ragbox/internal/core/domain"
)

// CollectionService manages the collection registry.
type CollectionService interface {
	// Create registers a new, empty collection.
	Create(ctx context.Context, name string) (*domain.Collection, error)

	// Get resolves a collection by name.
	Get(ctx context.Context, name string) (*domain.Collection, error)

	// Rename repoints a collection to a new name, keeping its stored content.
	Rename(ctx context.Context, oldName, newName string) error

	// Delete purges a collection's content and removes it from the registry.
	Delete(ctx context.Context, name string) error

	// List returns all collection names, sorted.
	List(ctx context.Context) ([]string, error)
}
