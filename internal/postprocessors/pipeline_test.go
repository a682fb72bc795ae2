package postprocessors

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragbox/internal/core/domain"
)

// stage is a scripted post-processor.
type stage struct {
	name string
	fn   func(chunks []domain.Chunk) ([]domain.Chunk, error)
}

func (s stage) Name() string { return s.name }

func (s stage) Process(_ context.Context, _ *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	if s.fn == nil {
		return chunks, nil
	}
	return s.fn(chunks)
}

func emit(contents ...string) func([]domain.Chunk) ([]domain.Chunk, error) {
	return func([]domain.Chunk) ([]domain.Chunk, error) {
		out := make([]domain.Chunk, len(contents))
		for i, c := range contents {
			out[i] = domain.Chunk{Content: c, Position: i}
		}
		return out, nil
	}
}

func contents(chunks []domain.Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Content
	}
	return out
}

func TestPipeline_Process(t *testing.T) {
	upper := func(in []domain.Chunk) ([]domain.Chunk, error) {
		out := make([]domain.Chunk, 0, len(in))
		for _, c := range in {
			c.Content += "!"
			out = append(out, c)
		}
		return out, nil
	}

	tests := []struct {
		name     string
		stages   []stage
		expected []string
		wantErr  string
	}{
		{name: "no stages"},
		{name: "single", stages: []stage{{name: "split", fn: emit("a", "b")}}, expected: []string{"a", "b"}},
		{
			name:     "chained",
			stages:   []stage{{name: "split", fn: emit("a", "b")}, {name: "bang", fn: upper}, {name: "noop"}},
			expected: []string{"a!", "b!"},
		},
		{
			name: "stage error",
			stages: []stage{{name: "split", fn: emit("a")}, {name: "broken", fn: func([]domain.Chunk) ([]domain.Chunk, error) {
				return nil, errors.New("boom")
			}}},
			wantErr: "processor broken: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPipeline()
			for _, s := range tt.stages {
				p.Add(s)
			}
			assert.Equal(t, len(tt.stages), p.Len())

			chunks, err := p.Process(context.Background(), &domain.Document{Content: "text"})
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			if tt.expected == nil {
				assert.Nil(t, chunks)
				return
			}
			assert.Equal(t, tt.expected, contents(chunks))
		})
	}
}

func TestPipeline_Process_Fingerprint(t *testing.T) {
	p := NewPipeline(stage{name: "split", fn: func([]domain.Chunk) ([]domain.Chunk, error) {
		return []domain.Chunk{{Content: "a"}, {Content: "b", Fingerprint: "kept"}}, nil
	}})
	doc := &domain.Document{Metadata: map[string]any{domain.MetaFingerprint: "sha256:abc"}}

	chunks, err := p.Process(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, "sha256:abc", chunks[0].Fingerprint)
	assert.Equal(t, "kept", chunks[1].Fingerprint)

	chunks, err = p.Process(context.Background(), &domain.Document{})
	require.NoError(t, err)
	assert.Empty(t, chunks[0].Fingerprint)
}

func TestPipeline_Process_InvalidInput(t *testing.T) {
	p := NewPipeline(stage{name: "noop"})

	_, err := p.Process(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Process(ctx, &domain.Document{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPipeline_Names(t *testing.T) {
	p := NewPipeline(stage{name: "chunker"}, stage{name: "tagger"})
	assert.Equal(t, []string{"chunker", "tagger"}, p.Names())
	assert.Empty(t, NewPipeline().Names())
}
