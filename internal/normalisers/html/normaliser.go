package html

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/custodia-labs/ragbox/internal/core/domain"
	"github.com/custodia-labs/ragbox/internal/core/ports/driven"
	"github.com/custodia-labs/ragbox/internal/normalisers/docbuild"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles HTML documents.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Generic MIME normaliser, higher than plaintext
}

// Normalise converts an HTML document to a normalised document.
// The Content field contains the visible text with one block element per line.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	page, err := goquery.NewDocumentFromReader(bytes.NewReader(raw.Content))
	if err != nil {
		return nil, fmt.Errorf("%w: parse html: %w", domain.ErrUnsupportedType, err)
	}

	title := page.Find("title").First().Text()
	lang, _ := page.Find("html").Attr("lang")
	content := extractText(page)

	return docbuild.Build(raw, title, content, map[string]string{"format": "html", "language": lang}), nil
}

// Elements removed before text extraction.
const hiddenElements = "head, script, style, noscript, svg, template, iframe"

var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"dd": true, "div": true, "dl": true, "dt": true, "figcaption": true,
	"figure": true, "footer": true, "form": true, "h1": true, "h2": true,
	"h3": true, "h4": true, "h5": true, "h6": true, "header": true,
	"li": true, "main": true, "nav": true, "ol": true, "p": true,
	"pre": true, "section": true, "table": true, "tr": true, "ul": true,
}

var (
	whitespace    = regexp.MustCompile(`\s+`)
	multiSpaces   = regexp.MustCompile(`[ \t]+`)
	multiNewlines = regexp.MustCompile(`\n{3,}`)
)

// extractText removes hidden elements and renders the remaining text.
func extractText(page *goquery.Document) string {
	page.Find(hiddenElements).Remove()

	var b strings.Builder
	writeText(&b, page.Selection, false)

	content := multiSpaces.ReplaceAllString(b.String(), " ")
	content = multiNewlines.ReplaceAllString(content, "\n\n")

	lines := strings.Split(content, "\n")
	result := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			result = append(result, line)
		}
	}
	return strings.Join(result, "\n")
}

// writeText appends the text below s. Whitespace inside text nodes collapses
// to single spaces except within <pre>.
func writeText(b *strings.Builder, s *goquery.Selection, pre bool) {
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		name := goquery.NodeName(c)
		switch {
		case name == "#text":
			text := c.Text()
			if !pre {
				text = whitespace.ReplaceAllString(text, " ")
			}
			b.WriteString(text)
		case name == "#comment":
		case name == "br" || name == "hr":
			b.WriteByte('\n')
		case name == "td" || name == "th":
			writeText(b, c, pre)
			b.WriteByte('\t')
		case blockElements[name]:
			b.WriteByte('\n')
			writeText(b, c, pre || name == "pre")
			b.WriteByte('\n')
		default:
			writeText(b, c, pre)
		}
	})
}
