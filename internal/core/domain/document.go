package domain

import (
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// chunkNamespace scopes chunk ids derived by ChunkID.
var chunkNamespace = uuid.MustParse("6f1f4c8e-3b0a-5d2e-9c47-2a7e51b0d9f3")

// Well-known chunk metadata keys.
const (
	MetaFileName         = "file_name"
	MetaFilePath         = "file_path"
	MetaFileType         = "file_type"
	MetaFileSize         = "file_size"
	MetaCreationDate     = "creation_date"
	MetaLastModifiedDate = "last_modified_date"
	MetaChunkIndex       = "chunk_index"
	MetaFingerprint      = "fingerprint"
)

// Document is a normalised upload: the full text of one file before chunking.
// It is transient and never stored; only its chunks are.
type Document struct {
	// ID is the unique identifier for this normalisation run.
	ID string

	// Collection is the handle of the owning collection.
	Collection string

	// FileName is the uploaded file's name.
	FileName string

	// URI is the original location (upload path or watched file path).
	URI string

	// Title is the human-readable title.
	Title string

	// Content is the full text content after normalisation.
	Content string

	// Metadata contains arbitrary key-value pairs copied onto every chunk.
	Metadata map[string]any

	// CreatedAt is when the document was normalised.
	CreatedAt time.Time

	// UpdatedAt is when the document was last normalised.
	UpdatedAt time.Time
}

// Chunk represents a searchable unit of an ingested file.
// Chunks are replaced as a set per file, never mutated in place.
type Chunk struct {
	// ID is unique per chunk and stable across re-reads of the same
	// logical file and position.
	ID string

	// Collection is the handle of the owning collection.
	Collection string

	// FileName groups chunks belonging to the same uploaded file.
	FileName string

	// Fingerprint is the content signature of the whole source file.
	Fingerprint string

	// Content is the text content of this chunk.
	Content string

	// Position is the ordinal position within the file.
	Position int

	// Embedding is the vector representation, populated by the store adapter.
	Embedding []float32

	// Metadata contains chunk-specific key-value pairs.
	Metadata map[string]any
}

// ChunkID derives the stable id of the chunk at position within a file.
// Re-reading the same file into the same collection yields the same ids.
func ChunkID(handle, fileName string, position int) string {
	key := handle + "\x00" + fileName + "\x00" + strconv.Itoa(position)
	return uuid.NewSHA1(chunkNamespace, []byte(key)).String()
}

// ChunkFilter narrows a chunk listing.
type ChunkFilter struct {
	// FileNames restricts results to chunks of these files. Empty means all.
	FileNames []string
}

// Matches reports whether the chunk passes the filter.
func (f ChunkFilter) Matches(c Chunk) bool {
	if len(f.FileNames) == 0 {
		return true
	}
	for _, name := range f.FileNames {
		if c.FileName == name {
			return true
		}
	}
	return false
}

// FileGroup is a read-time view of all chunks sharing a file name.
type FileGroup struct {
	FileName    string
	Fingerprint string
	ChunkIDs    []string
	Metadata    map[string]any
}

// GroupByFile derives the per-file view from a chunk listing.
// Groups are sorted by file name and chunk ids by position.
func GroupByFile(chunks []Chunk) []FileGroup {
	sorted := make([]Chunk, len(chunks))
	copy(sorted, chunks)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].FileName != sorted[j].FileName {
			return sorted[i].FileName < sorted[j].FileName
		}
		return sorted[i].Position < sorted[j].Position
	})

	var groups []FileGroup
	for i := range sorted {
		c := &sorted[i]
		if len(groups) == 0 || groups[len(groups)-1].FileName != c.FileName {
			groups = append(groups, FileGroup{
				FileName:    c.FileName,
				Fingerprint: c.Fingerprint,
				Metadata:    c.Metadata,
			})
		}
		g := &groups[len(groups)-1]
		g.ChunkIDs = append(g.ChunkIDs, c.ID)
	}
	return groups
}
