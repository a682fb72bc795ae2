// Package plaintext indexes text files as they are. It is the fallback for
// every text/* type without a dedicated normaliser.
package plaintext

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"unicode/utf8"

	"github.com/custodia-labs/ragbox/internal/core/domain"
	"github.com/custodia-labs/ragbox/internal/core/ports/driven"
	"github.com/custodia-labs/ragbox/internal/normalisers/docbuild"
)

var _ driven.Normaliser = (*Normaliser)(nil)

var (
	prose  = []string{"text/plain", "text/x-log", "text/rtf", "text/csv"}
	source = []string{
		"text/x-go", "text/x-python", "text/x-rust", "text/x-java", "text/x-c", "text/x-c++",
		"text/x-ruby", "text/x-shellscript", "text/x-sql", "text/css",
		"text/javascript", "text/jsx", "text/typescript", "text/typescript-jsx",
	}
	structured = []string{"text/yaml", "text/toml", "application/json", "application/xml", "image/svg+xml"}
)

var bom = []byte("\ufeff")

// Normaliser is the plain text normaliser.
type Normaliser struct{}

func New() *Normaliser { return &Normaliser{} }

// SupportedMIMETypes ends with the text/* wildcard.
func (n *Normaliser) SupportedMIMETypes() []string {
	return slices.Concat(prose, source, structured, []string{"text/*"})
}

// Priority is the lowest of the built-in normalisers.
func (n *Normaliser) Priority() int { return 5 }

// Normalise strips a byte order mark and converts CRLF line endings.
// Content that is not UTF-8 is rejected as unsupported.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	if !utf8.Valid(raw.Content) {
		return nil, fmt.Errorf("%s is not valid UTF-8 text: %w", raw.URI, domain.ErrUnsupportedType)
	}

	text := bytes.TrimPrefix(raw.Content, bom)
	text = bytes.ReplaceAll(text, []byte("\r\n"), []byte("\n"))
	return docbuild.Build(raw, "", string(text), nil), nil
}
