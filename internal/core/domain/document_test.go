package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestChunkFilter_Matches tests filtering by file name
func TestChunkFilter_Matches(t *testing.T) {
	c := Chunk{ID: "1", FileName: "a.txt"}

	assert.True(t, ChunkFilter{}.Matches(c))
	assert.True(t, ChunkFilter{FileNames: []string{"b.txt", "a.txt"}}.Matches(c))
	assert.False(t, ChunkFilter{FileNames: []string{"b.txt"}}.Matches(c))
}

// TestGroupByFile tests the per-file view derived from chunks
func TestGroupByFile(t *testing.T) {
	chunks := []Chunk{
		{ID: "b1", FileName: "b.txt", Fingerprint: "sha256:bb", Position: 1},
		{ID: "a0", FileName: "a.txt", Fingerprint: "sha256:aa", Position: 0,
			Metadata: map[string]any{MetaFileType: "text/plain"}},
		{ID: "b0", FileName: "b.txt", Fingerprint: "sha256:bb", Position: 0},
	}

	groups := GroupByFile(chunks)

	require.Len(t, groups, 2)
	assert.Equal(t, "a.txt", groups[0].FileName)
	assert.Equal(t, "sha256:aa", groups[0].Fingerprint)
	assert.Equal(t, []string{"a0"}, groups[0].ChunkIDs)
	assert.Equal(t, "text/plain", groups[0].Metadata[MetaFileType])

	assert.Equal(t, "b.txt", groups[1].FileName)
	assert.Equal(t, []string{"b0", "b1"}, groups[1].ChunkIDs)

	// input order is untouched
	assert.Equal(t, "b1", chunks[0].ID)
}

// TestGroupByFile_Empty tests grouping with no chunks
func TestGroupByFile_Empty(t *testing.T) {
	assert.Empty(t, GroupByFile(nil))
}

// TestChunkID tests that chunk ids are stable and position-scoped
func TestChunkID(t *testing.T) {
	a := ChunkID("h1", "a.md", 0)

	assert.Equal(t, a, ChunkID("h1", "a.md", 0))
	assert.NotEqual(t, a, ChunkID("h1", "a.md", 1))
	assert.NotEqual(t, a, ChunkID("h2", "a.md", 0))
	assert.NotEqual(t, a, ChunkID("h1", "b.md", 0))
	assert.Len(t, a, 36)
}
