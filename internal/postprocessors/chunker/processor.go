// Package chunker splits normalised text into overlapping, word-aligned
// chunks.
package chunker

import (
	"context"
	"maps"
	"strings"
	"unicode"

	"github.com/custodia-labs/ragbox/internal/core/domain"
)

// Defaults, in runes.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// Processor is the "chunker" post-processor.
type Processor struct {
	size    int
	overlap int
}

// Option adjusts a Processor.
type Option func(*Processor)

// WithChunkSize sets the maximum chunk length. Non-positive values are ignored.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.size = size
		}
	}
}

// WithOverlap sets how many runes consecutive chunks share. Negative values
// are ignored.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New builds a chunker. An overlap that is not smaller than the chunk size
// is reduced to a quarter of it.
func New(opts ...Option) *Processor {
	p := &Processor{size: DefaultChunkSize, overlap: DefaultChunkOverlap}
	for _, opt := range opts {
		opt(p)
	}
	if p.overlap >= p.size {
		p.overlap = p.size / 4
	}
	return p
}

// Name implements driven.PostProcessor.
func (p *Processor) Name() string { return "chunker" }

// Process replaces any incoming chunks with chunks cut from doc.Content.
// Blank content yields no chunks.
func (p *Processor) Process(_ context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	if strings.TrimSpace(doc.Content) == "" {
		return nil, nil
	}

	text := []rune(doc.Content)
	var out []domain.Chunk
	for _, span := range p.spans(text) {
		piece := strings.TrimSpace(string(text[span[0]:span[1]]))
		if piece == "" {
			continue
		}
		pos := len(out)
		meta := maps.Clone(doc.Metadata)
		if meta == nil {
			meta = make(map[string]any, 1)
		}
		meta[domain.MetaChunkIndex] = pos
		out = append(out, domain.Chunk{
			ID:         domain.ChunkID(doc.Collection, doc.FileName, pos),
			Collection: doc.Collection,
			FileName:   doc.FileName,
			Content:    piece,
			Position:   pos,
			Metadata:   meta,
		})
	}
	return out, nil
}

// spans returns the [start, end) rune ranges of each chunk. A window that
// does not reach the end of text is shortened to its last whitespace, as
// long as that keeps it longer than the overlap.
func (p *Processor) spans(text []rune) [][2]int {
	var spans [][2]int
	for start := 0; ; {
		end := min(start+p.size, len(text))
		if end < len(text) {
			if cut := wordBoundary(text[start:end]); cut > p.overlap {
				end = start + cut
			}
		}
		spans = append(spans, [2]int{start, end})
		if end == len(text) {
			return spans
		}
		start = end - p.overlap
	}
}

// wordBoundary is the offset just past the last whitespace in w, or 0.
func wordBoundary(w []rune) int {
	for i := len(w) - 1; i > 0; i-- {
		if unicode.IsSpace(w[i]) {
			return i + 1
		}
	}
	return 0
}
