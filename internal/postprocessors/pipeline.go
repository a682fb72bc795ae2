// Package postprocessors turns normalised documents into retrievable chunks.
package postprocessors

import (
	"context"
	"fmt"

	"github.com/custodia-labs/ragbox/internal/core/domain"
	"github.com/custodia-labs/ragbox/internal/core/ports/driven"
)

// Pipeline runs post-processors in order, each receiving the chunks the
// previous one returned. The first receives nil.
type Pipeline struct {
	stages []driven.PostProcessor
}

// NewPipeline returns a pipeline running stages in the given order.
func NewPipeline(stages ...driven.PostProcessor) *Pipeline {
	return &Pipeline{stages: stages}
}

// Add appends a stage.
func (p *Pipeline) Add(stage driven.PostProcessor) {
	p.stages = append(p.stages, stage)
}

// Len returns the number of stages.
func (p *Pipeline) Len() int {
	return len(p.stages)
}

// Names lists the stage names in run order.
func (p *Pipeline) Names() []string {
	names := make([]string, 0, len(p.stages))
	for _, stage := range p.stages {
		names = append(names, stage.Name())
	}
	return names
}

// Process chunks doc. Chunks without a fingerprint inherit the document's,
// which is what change detection compares on the next upload.
func (p *Pipeline) Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: document is nil", domain.ErrInvalidInput)
	}

	var (
		chunks []domain.Chunk
		err    error
	)
	for _, stage := range p.stages {
		if err = ctx.Err(); err != nil {
			return nil, err
		}
		if chunks, err = stage.Process(ctx, doc, chunks); err != nil {
			return nil, fmt.Errorf("processor %s: %w", stage.Name(), err)
		}
	}

	if fp, ok := doc.Metadata[domain.MetaFingerprint].(string); ok {
		for i := range chunks {
			if chunks[i].Fingerprint == "" {
				chunks[i].Fingerprint = fp
			}
		}
	}
	return chunks, nil
}
