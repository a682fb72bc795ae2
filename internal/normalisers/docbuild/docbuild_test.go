package docbuild

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragbox/internal/core/domain"
)

func TestBuild(t *testing.T) {
	raw := &domain.RawDocument{
		Collection: "notes",
		URI:        "/tmp/upload/volcano-notes.md",
		MIMEType:   "text/markdown",
		Metadata:   map[string]any{"source": "upload"},
	}

	result := Build(raw, "  Volcanoes ", "Etna erupts.", map[string]string{"format": "markdown", "author": ""})
	require.NotNil(t, result)
	doc := result.Document

	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "notes", doc.Collection)
	assert.Equal(t, "volcano-notes.md", doc.FileName)
	assert.Equal(t, raw.URI, doc.URI)
	assert.Equal(t, "Volcanoes", doc.Title)
	assert.Equal(t, "Etna erupts.", doc.Content)
	assert.Equal(t, map[string]any{"source": "upload", "mime_type": "text/markdown", "format": "markdown"}, doc.Metadata)
	assert.False(t, doc.CreatedAt.IsZero())
	assert.Equal(t, doc.CreatedAt, doc.UpdatedAt)

	doc.Metadata["source"] = "changed"
	assert.Equal(t, "upload", raw.Metadata["source"])
}

func TestBuild_TitleFallbacks(t *testing.T) {
	raw := &domain.RawDocument{URI: "a/field_report-2024.txt"}
	assert.Equal(t, "field report 2024", Build(raw, "", "", nil).Document.Title)

	raw.Metadata = map[string]any{"title": "Supplied"}
	assert.Equal(t, "Supplied", Build(raw, " ", "", nil).Document.Title)
}

func TestBuild_IDsAreUnique(t *testing.T) {
	raw := &domain.RawDocument{URI: "a.txt"}
	assert.NotEqual(t, Build(raw, "", "", nil).Document.ID, Build(raw, "", "", nil).Document.ID)
}

func TestTitleFromFileName(t *testing.T) {
	tests := map[string]string{
		"/path/to/meeting_notes.md": "meeting notes",
		"release-plan.docx":         "release plan",
		"README":                    "README",
		"archive.tar.gz":            "archive.tar",
		".env":                      "",
	}
	for in, want := range tests {
		assert.Equal(t, want, TitleFromFileName(in), in)
	}
}
