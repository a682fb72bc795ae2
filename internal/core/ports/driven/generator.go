package driven

import (
	"context"

	"github.com/custodia-labs/ragbox/internal/core/domain"
)

// Generator synthesises an answer grounded in retrieved passages.
// Implementations return errors wrapping domain.ErrGenerationUnavailable,
// and additionally domain.ErrGenerationTimeout when the bounded wait expires.
type Generator interface {
	Generate(ctx context.Context, req domain.GenerateRequest) (string, error)
}
