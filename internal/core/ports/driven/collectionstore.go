package driven

import (
	"context"

	"github.com/custodia-labs/ragbox/internal/core/domain"
)

// CollectionStore is the durable registry mapping collection names to handles.
type CollectionStore interface {
	// Create registers a new collection. Returns domain.ErrAlreadyExists if the name is taken.
	Create(ctx context.Context, c *domain.Collection) error

	// Get resolves a collection by name. Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, name string) (*domain.Collection, error)

	// Rename repoints the entry in a single write, keeping its handle.
	Rename(ctx context.Context, oldName, newName string) error

	// Delete removes the registry entry.
	Delete(ctx context.Context, name string) error

	// List returns all collections ordered by name.
	List(ctx context.Context) ([]domain.Collection, error)
}
