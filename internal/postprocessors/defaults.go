package postprocessors

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/custodia-labs/ragbox/internal/core/ports/driven"
	"github.com/custodia-labs/ragbox/internal/postprocessors/chunker"
)

var validate = validator.New()

// RegisterDefaults adds the built-in processors to r.
func RegisterDefaults(r *Registry) {
	r.Register("chunker", buildChunker)
}

// chunkerConfig is the [pipeline.chunker] table. Nil fields keep the
// chunker defaults.
type chunkerConfig struct {
	ChunkSize *int `validate:"omitnil,gt=0"`
	Overlap   *int `validate:"omitnil,gte=0"`
}

func buildChunker(raw map[string]any) (driven.PostProcessor, error) {
	cfg := chunkerConfig{
		ChunkSize: intOption(raw, "chunk_size"),
		Overlap:   intOption(raw, "overlap"),
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("chunker: %w", err)
	}

	var opts []chunker.Option
	if cfg.ChunkSize != nil {
		opts = append(opts, chunker.WithChunkSize(*cfg.ChunkSize))
	}
	if cfg.Overlap != nil {
		opts = append(opts, chunker.WithOverlap(*cfg.Overlap))
	}
	return chunker.New(opts...), nil
}

// intOption reads key as an integer. TOML yields int64 and JSON float64.
func intOption(cfg map[string]any, key string) *int {
	var n int
	switch v := cfg[key].(type) {
	case int:
		n = v
	case int64:
		n = int(v)
	case float64:
		n = int(v)
	default:
		return nil
	}
	return &n
}
