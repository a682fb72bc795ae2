// Package storage selects and opens the configured storage backend.
package storage

import (
	"context"
	"fmt"

	"github.com/custodia-labs/ragbox/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragbox/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/ragbox/internal/adapters/driven/vectorstore/qdrant"
	"github.com/custodia-labs/ragbox/internal/core/domain"
	"github.com/custodia-labs/ragbox/internal/core/ports/driven"
	"github.com/custodia-labs/ragbox/internal/logger"
)

// Stores bundles the three stores the services need.
type Stores struct {
	Collections driven.CollectionStore
	Documents   driven.DocumentStore
	Pending     driven.PendingStore

	// Backend is the backend that was opened.
	Backend domain.StoreBackend

	// Location describes where data lives, for status output.
	Location string

	ping  func(ctx context.Context) error
	close func() error
}

// Ping checks that the document store answers.
func (s *Stores) Ping(ctx context.Context) error {
	if s.ping == nil {
		return nil
	}
	return s.ping(ctx)
}

// Close releases the underlying connections.
func (s *Stores) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// Open creates the stores for settings.Backend.
//
// Supported backends:
//
//	"sqlite" - registry, chunks and pending uploads in <data_dir>/ragbox.db (default)
//	"qdrant" - chunks in Qdrant; registry and pending uploads in SQLite
//	"memory" - everything in process memory (ephemeral, for testing)
//
// embedder may be nil for sqlite and memory, which then rank by keyword.
func Open(settings domain.StoreSettings, embedder driven.EmbeddingService) (*Stores, error) {
	switch settings.Backend {
	case domain.StoreBackendSQLite, "":
		db, err := openSQLite(settings, embedder)
		if err != nil {
			return nil, err
		}
		return &Stores{
			Collections: db.CollectionStore(),
			Documents:   db.DocumentStore(),
			Pending:     db.PendingStore(),
			Backend:     domain.StoreBackendSQLite,
			Location:    db.Path(),
			close:       db.Close,
		}, nil

	case domain.StoreBackendQdrant:
		vectors, err := qdrant.NewStore(qdrant.Config{
			URL:     settings.QdrantURL,
			APIKey:  settings.QdrantAPIKey,
			Timeout: settings.Timeout,
		}, embedder)
		if err != nil {
			return nil, err
		}
		db, err := openSQLite(settings, nil)
		if err != nil {
			return nil, err
		}
		return &Stores{
			Collections: db.CollectionStore(),
			Documents:   vectors,
			Pending:     db.PendingStore(),
			Backend:     domain.StoreBackendQdrant,
			Location:    settings.QdrantURL,
			ping:        vectors.Ping,
			close:       db.Close,
		}, nil

	case domain.StoreBackendMemory:
		var opts []memory.Option
		if embedder != nil {
			opts = append(opts, memory.WithEmbedder(embedder))
		}
		return &Stores{
			Collections: memory.NewCollectionStore(),
			Documents:   memory.NewDocumentStore(opts...),
			Pending:     memory.NewPendingStore(),
			Backend:     domain.StoreBackendMemory,
			Location:    "memory",
		}, nil

	default:
		return nil, fmt.Errorf("%w: store backend %q (supported: sqlite, qdrant, memory)",
			domain.ErrUnsupportedType, settings.Backend)
	}
}

func openSQLite(settings domain.StoreSettings, embedder driven.EmbeddingService) (*sqlite.Store, error) {
	var opts []sqlite.Option
	if embedder != nil {
		opts = append(opts, sqlite.WithEmbedder(embedder))
	}
	db, err := sqlite.NewStore(settings.DataDir, opts...)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	logger.Debug("Opened SQLite store at %s", db.Path())
	return db, nil
}
