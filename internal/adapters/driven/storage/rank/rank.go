// Package rank scores chunks against a query for stores without a native
// similarity engine. Vector scores are cosine similarities; keyword scores
// weight matched query terms by log term frequency.
package rank

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/custodia-labs/ragbox/internal/core/domain"
	"github.com/custodia-labs/ragbox/internal/core/ports/driven"
)

var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "can": true, "did": true, "do": true, "does": true,
	"for": true, "from": true, "how": true, "i": true, "in": true, "is": true,
	"it": true, "me": true, "my": true, "of": true, "on": true, "or": true,
	"that": true, "the": true, "this": true, "to": true, "was": true,
	"what": true, "when": true, "where": true, "which": true, "who": true,
	"why": true, "with": true, "you": true,
}

// Terms returns the distinct lowercase query terms, without stopwords.
// A query made only of stopwords keeps them so it can still match.
func Terms(query string) []string {
	all := Tokenize(query)
	seen := make(map[string]bool, len(all))
	var terms, common []string
	for _, t := range all {
		if seen[t] {
			continue
		}
		seen[t] = true
		if stopwords[t] {
			common = append(common, t)
			continue
		}
		terms = append(terms, t)
	}
	if len(terms) == 0 {
		return common
	}
	return terms
}

// Tokenize splits text into lowercase words of letters and digits.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Keyword scores text against terms. Zero means no term matched.
func Keyword(terms []string, text string) float64 {
	if len(terms) == 0 {
		return 0
	}

	freq := make(map[string]int)
	for _, t := range Tokenize(text) {
		freq[t]++
	}

	var score float64
	for _, t := range terms {
		if n := freq[t]; n > 0 {
			score += 1 + math.Log(float64(n))
		}
	}
	return score / float64(len(terms))
}

// Cosine returns the cosine similarity of a and b, or 0 when they differ
// in length or either is zero.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// ByKeyword ranks chunks by keyword score, dropping those that do not match.
func ByKeyword(chunks []domain.Chunk, query string, k int) []domain.Passage {
	terms := Terms(query)
	passages := make([]domain.Passage, 0, len(chunks))
	for _, c := range chunks {
		if score := Keyword(terms, c.Content); score > 0 {
			passages = append(passages, domain.Passage{Chunk: c, Score: score})
		}
	}
	return Top(passages, k)
}

// ByVector ranks chunks that carry an embedding by cosine similarity.
func ByVector(chunks []domain.Chunk, query []float32, k int) []domain.Passage {
	passages := make([]domain.Passage, 0, len(chunks))
	for _, c := range chunks {
		if len(c.Embedding) == 0 {
			continue
		}
		passages = append(passages, domain.Passage{Chunk: c, Score: Cosine(query, c.Embedding)})
	}
	return Top(passages, k)
}

// Top sorts passages by descending score and keeps at most k.
// Ties are broken by file name then position so results are stable.
func Top(passages []domain.Passage, k int) []domain.Passage {
	if k <= 0 {
		k = domain.DefaultTopK
	}
	sort.SliceStable(passages, func(i, j int) bool {
		pi, pj := passages[i], passages[j]
		if pi.Score != pj.Score {
			return pi.Score > pj.Score
		}
		if pi.Chunk.FileName != pj.Chunk.FileName {
			return pi.Chunk.FileName < pj.Chunk.FileName
		}
		return pi.Chunk.Position < pj.Chunk.Position
	})
	if len(passages) > k {
		passages = passages[:k]
	}
	return passages
}

// EmbedMissing fills the embeddings of chunks that have none using e.
// A nil embedder leaves the chunks unchanged.
func EmbedMissing(ctx context.Context, e driven.EmbeddingService, chunks []domain.Chunk) error {
	if e == nil {
		return nil
	}

	var idx []int
	var texts []string
	for i, c := range chunks {
		if len(c.Embedding) == 0 {
			idx = append(idx, i)
			texts = append(texts, c.Content)
		}
	}
	if len(texts) == 0 {
		return nil
	}

	vectors, err := e.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("%w: embed chunks: %w", domain.ErrStoreUnavailable, err)
	}
	if len(vectors) != len(texts) {
		return fmt.Errorf("%w: embedder returned %d vectors for %d chunks",
			domain.ErrStoreUnavailable, len(vectors), len(texts))
	}
	for j, i := range idx {
		chunks[i].Embedding = vectors[j]
	}
	return nil
}

// SortByFile orders chunks by file name, then position.
func SortByFile(chunks []domain.Chunk) {
	sort.Slice(chunks, func(i, j int) bool {
		if chunks[i].FileName != chunks[j].FileName {
			return chunks[i].FileName < chunks[j].FileName
		}
		return chunks[i].Position < chunks[j].Position
	})
}
