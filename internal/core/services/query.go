package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/ragbox/internal/core/domain"
	"github.com/custodia-labs/ragbox/internal/core/ports/driven"
	"github.com/custodia-labs/ragbox/internal/core/ports/driving"
	"github.com/custodia-labs/ragbox/internal/logger"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// QueryService answers questions from a collection's passages.
type QueryService struct {
	collections driven.CollectionStore
	docStore    driven.DocumentStore
	generator   driven.Generator
	locks       *LockArena
	topK        int
}

// NewQueryService creates a new query service.
// The generator is optional; without one, queries return passages only
// together with an error wrapping domain.ErrGenerationUnavailable.
func NewQueryService(
	collections driven.CollectionStore,
	docStore driven.DocumentStore,
	generator driven.Generator,
	locks *LockArena,
	topK int,
) *QueryService {
	if locks == nil {
		locks = NewLockArena()
	}
	if topK <= 0 {
		topK = domain.DefaultTopK
	}
	return &QueryService{
		collections: collections,
		docStore:    docStore,
		generator:   generator,
		locks:       locks,
		topK:        topK,
	}
}

// Query retrieves the top passages for question and asks the generator for
// a grounded answer. When generation fails the returned answer still carries
// the retrieved passages.
func (s *QueryService) Query(ctx context.Context, collection, question string) (*domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}

	c, err := s.collections.Get(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("collection %q: %w", collection, err)
	}

	passages, err := s.retrieve(ctx, c.Handle, question)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", collection, err)
	}
	logger.Debug("Query %q retrieved %d passages", c.Name, len(passages))

	answer := &domain.Answer{
		Question: question,
		Sources:  passages,
	}

	if s.generator == nil {
		return answer, fmt.Errorf("%w: no language model configured", domain.ErrGenerationUnavailable)
	}

	text, err := s.generator.Generate(ctx, domain.GenerateRequest{
		Question:  question,
		Passages:  passages,
		NoContext: len(passages) == 0,
	})
	if err != nil {
		logger.Warn("Generation for %q failed: %v", c.Name, err)
		return answer, generationError(err)
	}

	answer.Answer = strings.TrimSpace(text)
	return answer, nil
}

// retrieve searches under the collection's read lock. The lock is released
// before generation so slow models never block writers.
func (s *QueryService) retrieve(ctx context.Context, handle, question string) ([]domain.Passage, error) {
	unlock := s.locks.RLock(handle)
	defer unlock()
	return s.docStore.Search(ctx, handle, question, s.topK)
}

// generationError makes sure a generator failure wraps the generation sentinels.
func generationError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, domain.ErrGenerationTimeout) {
		err = fmt.Errorf("%w: %w", domain.ErrGenerationTimeout, err)
	}
	if !errors.Is(err, domain.ErrGenerationUnavailable) {
		err = fmt.Errorf("%w: %w", domain.ErrGenerationUnavailable, err)
	}
	return err
}
