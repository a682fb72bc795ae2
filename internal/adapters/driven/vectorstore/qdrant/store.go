// Package qdrant provides a document store backed by the Qdrant REST API.
//
// Each collection handle maps to its own Qdrant collection, so namespaces
// never share points. Chunks are embedded on Put and queries on Search,
// which makes an embedding service mandatory for this store.
package qdrant

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragbox/internal/adapters/driven/apiclient"
	"github.com/custodia-labs/ragbox/internal/adapters/driven/storage/rank"
	"github.com/custodia-labs/ragbox/internal/core/domain"
	"github.com/custodia-labs/ragbox/internal/core/ports/driven"
	"github.com/custodia-labs/ragbox/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.DocumentStore = (*Store)(nil)

// Default configuration values.
const (
	DefaultURL     = "http://localhost:6333"
	DefaultTimeout = 15 * time.Second
	DefaultPrefix  = "ragbox"
)

// scrollPageSize is the number of points fetched per scroll request.
const scrollPageSize = 256

// Payload keys.
const (
	payloadFileName    = "file_name"
	payloadFingerprint = "fingerprint"
	payloadContent     = "content"
	payloadPosition    = "position"
	payloadMetadata    = "metadata"
)

// Config holds configuration for the Qdrant store.
type Config struct {
	// URL is the Qdrant REST base URL (default: http://localhost:6333).
	URL string

	// APIKey is sent as the api-key header when set.
	APIKey string

	// Prefix names the Qdrant collections; each handle becomes <prefix>_<handle>.
	Prefix string

	// Timeout is the per-request timeout (default: 15s).
	Timeout time.Duration
}

// Store is a driven.DocumentStore on Qdrant.
type Store struct {
	api      *apiclient.Client
	prefix   string
	embedder driven.EmbeddingService

	mu      sync.Mutex
	created map[string]bool
}

// NewStore creates a Qdrant store. The embedder is required.
func NewStore(cfg Config, embedder driven.EmbeddingService) (*Store, error) {
	if embedder == nil {
		return nil, fmt.Errorf("qdrant store: %w", domain.ErrEmbeddingUnavailable)
	}
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultPrefix
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	var opts []apiclient.Option
	if cfg.APIKey != "" {
		opts = append(opts, apiclient.WithHeader("api-key", cfg.APIKey))
	}

	return &Store{
		api:      apiclient.New("qdrant", cfg.URL, cfg.Timeout, opts...),
		prefix:   cfg.Prefix,
		embedder: embedder,
		created:  make(map[string]bool),
	}, nil
}

// point is a Qdrant point as written by Put.
type point struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector,omitempty"`
	Payload map[string]any `json:"payload"`
}

// scoredPoint is a point returned by scroll, retrieve or search.
type scoredPoint struct {
	ID      any            `json:"id"`
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
	Vector  []float32      `json:"vector"`
}

// Put embeds and upserts chunks, creating the handle's collection on first use.
func (s *Store) Put(ctx context.Context, handle string, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	stored := make([]domain.Chunk, len(chunks))
	copy(stored, chunks)
	if err := rank.EmbedMissing(ctx, s.embedder, stored); err != nil {
		return err
	}

	if err := s.ensureCollection(ctx, handle, len(stored[0].Embedding)); err != nil {
		return err
	}

	points := make([]point, len(stored))
	for i, c := range stored {
		points[i] = point{
			ID:     c.ID,
			Vector: c.Embedding,
			Payload: map[string]any{
				payloadFileName:    c.FileName,
				payloadFingerprint: c.Fingerprint,
				payloadContent:     c.Content,
				payloadPosition:    c.Position,
				payloadMetadata:    c.Metadata,
			},
		}
	}

	body := map[string]any{"points": points}
	if err := s.api.Do(ctx, http.MethodPut, s.collectionPath(handle)+"/points?wait=true", body, nil); err != nil {
		return unavailable("upsert points", err)
	}
	return nil
}

// List scrolls through the handle's points ordered by file name and position.
func (s *Store) List(ctx context.Context, handle string, filter domain.ChunkFilter) ([]domain.Chunk, error) {
	req := map[string]any{
		"limit":        scrollPageSize,
		"with_payload": true,
		"with_vector":  false,
	}
	if len(filter.FileNames) > 0 {
		req["filter"] = map[string]any{
			"must": []map[string]any{{
				"key":   payloadFileName,
				"match": map[string]any{"any": filter.FileNames},
			}},
		}
	}

	var chunks []domain.Chunk
	for {
		var resp struct {
			Result struct {
				Points         []scoredPoint `json:"points"`
				NextPageOffset any           `json:"next_page_offset"`
			} `json:"result"`
		}
		err := s.api.Do(ctx, http.MethodPost, s.collectionPath(handle)+"/points/scroll", req, &resp)
		if missingCollection(err) {
			return nil, nil
		}
		if err != nil {
			return nil, unavailable("scroll points", err)
		}

		for _, p := range resp.Result.Points {
			chunks = append(chunks, toChunk(handle, p))
		}
		if resp.Result.NextPageOffset == nil {
			break
		}
		req["offset"] = resp.Result.NextPageOffset
	}

	rank.SortByFile(chunks)
	return chunks, nil
}

// DeleteByIDs looks up which ids exist, then deletes those. Qdrant only
// accepts UUID point ids, so any other id is reported missing without a
// request.
func (s *Store) DeleteByIDs(ctx context.Context, handle string, ids []string) (map[string]error, error) {
	results := make(map[string]error, len(ids))
	canonical := make(map[string]string, len(ids)) // requested id -> point id
	var lookup []string
	for _, id := range ids {
		u, err := uuid.Parse(id)
		if err != nil {
			results[id] = domain.ErrNotFound
			continue
		}
		canonical[id] = u.String()
		lookup = append(lookup, u.String())
	}
	if len(lookup) == 0 {
		return results, nil
	}

	var found struct {
		Result []scoredPoint `json:"result"`
	}
	err := s.api.Do(ctx, http.MethodPost, s.collectionPath(handle)+"/points",
		map[string]any{"ids": lookup, "with_payload": false, "with_vector": false}, &found)
	if missingCollection(err) {
		for id := range canonical {
			results[id] = domain.ErrNotFound
		}
		return results, nil
	}
	if err != nil {
		return nil, unavailable("retrieve points", err)
	}

	exists := make(map[string]bool, len(found.Result))
	for _, p := range found.Result {
		exists[fmt.Sprint(p.ID)] = true
	}

	var existing, points []string
	for _, id := range ids {
		pid, ok := canonical[id]
		switch {
		case !ok:
		case exists[pid]:
			existing = append(existing, id)
			points = append(points, pid)
		default:
			results[id] = domain.ErrNotFound
		}
	}
	if len(existing) == 0 {
		return results, nil
	}

	err = s.api.Do(ctx, http.MethodPost, s.collectionPath(handle)+"/points/delete?wait=true",
		map[string]any{"points": points}, nil)
	for _, id := range existing {
		if err != nil {
			results[id] = unavailable("delete points", err)
		} else {
			results[id] = nil
		}
	}
	return results, nil
}

// DeleteAll drops the handle's Qdrant collection.
func (s *Store) DeleteAll(ctx context.Context, handle string) error {
	err := s.api.Do(ctx, http.MethodDelete, s.collectionPath(handle), nil, nil)
	if err != nil && !missingCollection(err) {
		return unavailable("delete collection", err)
	}

	s.mu.Lock()
	delete(s.created, handle)
	s.mu.Unlock()
	return nil
}

// Search embeds the query and asks Qdrant for the nearest points.
func (s *Store) Search(ctx context.Context, handle, query string, k int) ([]domain.Passage, error) {
	if k <= 0 {
		k = domain.DefaultTopK
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %w", domain.ErrStoreUnavailable, err)
	}

	var resp struct {
		Result []scoredPoint `json:"result"`
	}
	err = s.api.Do(ctx, http.MethodPost, s.collectionPath(handle)+"/points/search", map[string]any{
		"vector":       vec,
		"limit":        k,
		"with_payload": true,
	}, &resp)
	if missingCollection(err) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("search points", err)
	}

	passages := make([]domain.Passage, 0, len(resp.Result))
	for _, p := range resp.Result {
		passages = append(passages, domain.Passage{Chunk: toChunk(handle, p), Score: p.Score})
	}
	return passages, nil
}

// Ping checks that Qdrant is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.api.Do(ctx, http.MethodGet, "/collections", nil, nil); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

// ensureCollection creates the handle's collection unless it already exists.
func (s *Store) ensureCollection(ctx context.Context, handle string, size int) error {
	s.mu.Lock()
	done := s.created[handle]
	s.mu.Unlock()
	if done {
		return nil
	}

	err := s.api.Do(ctx, http.MethodGet, s.collectionPath(handle), nil, nil)
	switch {
	case err == nil:
	case missingCollection(err):
		if size <= 0 {
			size = s.embedder.Dimensions()
		}
		body := map[string]any{
			"vectors": map[string]any{"size": size, "distance": "Cosine"},
		}
		if err := s.api.Do(ctx, http.MethodPut, s.collectionPath(handle), body, nil); err != nil {
			return unavailable("create collection", err)
		}
		if err := s.api.Do(ctx, http.MethodPut, s.collectionPath(handle)+"/index", map[string]any{
			"field_name":   payloadFileName,
			"field_schema": "keyword",
		}, nil); err != nil {
			logger.Warn("Qdrant payload index on %s failed: %v", payloadFileName, err)
		}
		logger.Debug("Created Qdrant collection %s (size %d)", s.collectionName(handle), size)
	default:
		return unavailable("get collection", err)
	}

	s.mu.Lock()
	s.created[handle] = true
	s.mu.Unlock()
	return nil
}

func (s *Store) collectionName(handle string) string {
	return s.prefix + "_" + handle
}

func (s *Store) collectionPath(handle string) string {
	return "/collections/" + url.PathEscape(s.collectionName(handle))
}

// missingCollection reports whether err is Qdrant's 404 for a collection
// that was never created.
func missingCollection(err error) bool {
	return apiclient.IsStatus(err, http.StatusNotFound)
}

// toChunk rebuilds a chunk from a point's payload.
func toChunk(handle string, p scoredPoint) domain.Chunk {
	c := domain.Chunk{
		ID:         fmt.Sprint(p.ID),
		Collection: handle,
		Embedding:  p.Vector,
	}
	if v, ok := p.Payload[payloadFileName].(string); ok {
		c.FileName = v
	}
	if v, ok := p.Payload[payloadFingerprint].(string); ok {
		c.Fingerprint = v
	}
	if v, ok := p.Payload[payloadContent].(string); ok {
		c.Content = v
	}
	if v, ok := p.Payload[payloadPosition].(float64); ok {
		c.Position = int(v)
	}
	if v, ok := p.Payload[payloadMetadata].(map[string]any); ok {
		c.Metadata = v
	}
	return c
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrStoreUnavailable, op, err)
}
