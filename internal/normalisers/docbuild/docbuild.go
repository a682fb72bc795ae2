// Package docbuild assembles the document every format normaliser returns.
package docbuild

import (
	"maps"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragbox/internal/core/domain"
	"github.com/custodia-labs/ragbox/internal/core/ports/driven"
)

// Build wraps the text extracted from raw in a normalise result. The
// document gets a fresh ID and a copy of the raw metadata with mime_type and
// the non-empty extra entries merged in. A blank title falls back to a
// "title" metadata entry, then to the file name.
func Build(raw *domain.RawDocument, title, content string, extra map[string]string) *driven.NormaliseResult {
	metadata := make(map[string]any, len(raw.Metadata)+len(extra)+1)
	maps.Copy(metadata, raw.Metadata)
	metadata["mime_type"] = raw.MIMEType
	for k, v := range extra {
		if v != "" {
			metadata[k] = v
		}
	}

	title = strings.TrimSpace(title)
	if title == "" {
		title, _ = raw.Metadata["title"].(string)
	}
	if title == "" {
		title = TitleFromFileName(raw.URI)
	}

	now := time.Now()
	return &driven.NormaliseResult{
		Document: domain.Document{
			ID:         uuid.New().String(),
			Collection: raw.Collection,
			FileName:   filepath.Base(raw.URI),
			URI:        raw.URI,
			Title:      title,
			Content:    content,
			Metadata:   metadata,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
	}
}

// TitleFromFileName turns "/notes/release-notes_v2.md" into "release notes v2".
func TitleFromFileName(uri string) string {
	name := filepath.Base(uri)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return strings.NewReplacer("_", " ", "-", " ").Replace(name)
}
