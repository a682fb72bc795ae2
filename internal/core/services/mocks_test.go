package services

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragbox/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragbox/internal/core/domain"
	"github.com/custodia-labs/ragbox/internal/core/ports/driven"
	"github.com/custodia-labs/ragbox/internal/normalisers"
	"github.com/custodia-labs/ragbox/internal/postprocessors"
	"github.com/custodia-labs/ragbox/internal/postprocessors/chunker"
)

// faultyDocStore wraps the in-memory store with injectable failures.
type faultyDocStore struct {
	*memory.DocumentStore

	mu           sync.Mutex
	putErr       error
	listErr      error
	deleteAllErr error
	searchErr    error
	deleteErrs   map[string]error
	onDelete     func()
	putCtxErr    error
	puts         int
	searches     int
}

func newFaultyDocStore() *faultyDocStore {
	return &faultyDocStore{DocumentStore: memory.NewDocumentStore()}
}

func (s *faultyDocStore) Put(ctx context.Context, handle string, chunks []domain.Chunk) error {
	s.mu.Lock()
	s.puts++
	s.putCtxErr = ctx.Err()
	err := s.putErr
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.DocumentStore.Put(ctx, handle, chunks)
}

func (s *faultyDocStore) List(ctx context.Context, handle string, filter domain.ChunkFilter) ([]domain.Chunk, error) {
	s.mu.Lock()
	err := s.listErr
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s.DocumentStore.List(ctx, handle, filter)
}

func (s *faultyDocStore) DeleteByIDs(ctx context.Context, handle string, ids []string) (map[string]error, error) {
	s.mu.Lock()
	injected, hook := s.deleteErrs, s.onDelete
	s.mu.Unlock()
	if hook != nil {
		hook()
	}

	var pass []string
	results := make(map[string]error, len(ids))
	for _, id := range ids {
		if err, ok := injected[id]; ok {
			results[id] = err
			continue
		}
		pass = append(pass, id)
	}

	deleted, err := s.DocumentStore.DeleteByIDs(ctx, handle, pass)
	if err != nil {
		return nil, err
	}
	for id, derr := range deleted {
		results[id] = derr
	}
	return results, nil
}

func (s *faultyDocStore) DeleteAll(ctx context.Context, handle string) error {
	s.mu.Lock()
	err := s.deleteAllErr
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.DocumentStore.DeleteAll(ctx, handle)
}

func (s *faultyDocStore) Search(ctx context.Context, handle, query string, k int) ([]domain.Passage, error) {
	s.mu.Lock()
	s.searches++
	err := s.searchErr
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s.DocumentStore.Search(ctx, handle, query, k)
}

// stubGenerator records requests and returns a canned answer.
type stubGenerator struct {
	mu       sync.Mutex
	answer   string
	err      error
	requests []domain.GenerateRequest
	onCall   func()
}

func (g *stubGenerator) Generate(_ context.Context, req domain.GenerateRequest) (string, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	hook := g.onCall
	g.mu.Unlock()
	if hook != nil {
		hook()
	}
	if g.err != nil {
		return "", g.err
	}
	return g.answer, nil
}

func (g *stubGenerator) lastRequest(t *testing.T) domain.GenerateRequest {
	t.Helper()
	g.mu.Lock()
	defer g.mu.Unlock()
	require.NotEmpty(t, g.requests, "generator was not called")
	return g.requests[len(g.requests)-1]
}

// racingCollections runs afterFirstGet once, right after the first lookup
// returns. It simulates a concurrent writer acting between a service
// resolving a collection and locking it.
type racingCollections struct {
	driven.CollectionStore

	mu            sync.Mutex
	fired         bool
	afterFirstGet func()
}

func (s *racingCollections) Get(ctx context.Context, name string) (*domain.Collection, error) {
	c, err := s.CollectionStore.Get(ctx, name)

	s.mu.Lock()
	fire := !s.fired
	s.fired = true
	s.mu.Unlock()

	if fire {
		s.afterFirstGet()
	}
	return c, err
}

// harness wires every service against in-memory stores and the real
// normaliser registry and chunking pipeline.
type harness struct {
	collectionStore *memory.CollectionStore
	docs            *faultyDocStore
	pending         *memory.PendingStore
	locks           *LockArena
	generator       *stubGenerator

	collections *CollectionService
	ingest      *IngestService
	documents   *DocumentService
	query       *QueryService
}

// testChunkSize keeps chunks small so multi-chunk files are easy to build.
const testChunkSize = 40

func newHarness(t *testing.T) *harness {
	t.Helper()

	registry := normalisers.NewRegistry()
	normalisers.RegisterDefaults(registry)
	pipeline := postprocessors.NewPipeline(
		chunker.New(chunker.WithChunkSize(testChunkSize), chunker.WithOverlap(0)),
	)

	h := &harness{
		collectionStore: memory.NewCollectionStore(),
		docs:            newFaultyDocStore(),
		pending:         memory.NewPendingStore(),
		locks:           NewLockArena(),
		generator:       &stubGenerator{answer: "an answer"},
	}
	h.collections = NewCollectionService(h.collectionStore, h.docs, h.pending, h.locks)
	h.ingest = NewIngestService(h.collectionStore, h.docs, h.pending, registry, pipeline, h.locks, 0)
	h.documents = NewDocumentService(h.collectionStore, h.docs, h.locks)
	h.query = NewQueryService(h.collectionStore, h.docs, h.generator, h.locks, 3)
	return h
}

func (h *harness) mustCreate(t *testing.T, name string) *domain.Collection {
	t.Helper()
	c, err := h.collections.Create(context.Background(), name)
	require.NoError(t, err)
	return c
}

func (h *harness) mustIngest(t *testing.T, collection string, files ...domain.UploadFile) *domain.IngestResult {
	t.Helper()
	result, err := h.ingest.Ingest(context.Background(), collection, files, domain.IngestOptions{})
	require.NoError(t, err)
	return result
}

func (h *harness) chunksOf(t *testing.T, collection, fileName string) []domain.Chunk {
	t.Helper()
	c, err := h.collectionStore.Get(context.Background(), collection)
	require.NoError(t, err)
	chunks, err := h.docs.List(context.Background(), c.Handle, domain.ChunkFilter{FileNames: []string{fileName}})
	require.NoError(t, err)
	return chunks
}

func upload(name, content string) domain.UploadFile {
	return domain.UploadFile{FileName: name, Content: []byte(content)}
}

// longText returns n distinct words, long enough to span several chunks.
func longText(prefix string, n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = prefix + strings.Repeat("x", i%5)
	}
	return strings.Join(words, " ")
}

func contents(chunks []domain.Chunk) string {
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = c.Content
	}
	return strings.Join(parts, " ")
}
