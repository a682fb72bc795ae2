package driving

import (
	"context"

	"github.com/custodia-labs/ragbox/internal/core/domain"
)

// QueryService answers questions from a collection's content.
type QueryService interface {
	// Query retrieves passages and asks the generator for a grounded answer.
	// On generation failure the returned answer still carries the passages.
	Query(ctx context.Context, collection, question string) (*domain.Answer, error)
}
