// Package list provides the source passage list of the chat view.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/ragbox/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragbox/internal/core/domain"
)

// SourceList displays the passages an answer was built from.
type SourceList struct {
	passages []domain.Passage
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewSourceList creates an empty source list.
func NewSourceList(s *styles.Styles) *SourceList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &SourceList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the list.
func (r *SourceList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation.
func (r *SourceList) Update(msg tea.Msg) (*SourceList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			r.MoveUp()
		case "down", "j":
			r.MoveDown()
		}
	}
	return r, nil
}

// View renders the visible passages.
func (r *SourceList) View() string {
	if len(r.passages) == 0 {
		return r.styles.Muted.Render("No sources")
	}

	lines := make([]string, 0, len(r.passages)+2)
	lines = append(lines, r.styles.Subtitle.Render(fmt.Sprintf("Sources (%d)", len(r.passages))), "")

	// Each passage takes two lines.
	visible := (r.height - 2) / 2
	if visible < 1 {
		visible = 1
	}
	start := 0
	if r.selected >= visible {
		start = r.selected - visible + 1
	}
	end := start + visible
	if end > len(r.passages) {
		end = len(r.passages)
	}

	for i := start; i < end; i++ {
		lines = append(lines, r.renderPassage(i, &r.passages[i]))
	}
	return strings.Join(lines, "\n")
}

// renderPassage formats one passage as a title line and a preview line.
func (r *SourceList) renderPassage(index int, p *domain.Passage) string {
	indicator := "  "
	if index == r.selected {
		indicator = "> "
	}

	name := p.Chunk.FileName
	if name == "" {
		name = p.Chunk.ID
	}
	title := fmt.Sprintf("%s[%d] %s #%d", indicator, index+1, name, p.Chunk.Position)
	score := fmt.Sprintf("%.2f", p.Score)

	var titleLine string
	if index == r.selected {
		titleLine = r.styles.Selected.Render(title + "  " + score)
	} else {
		titleLine = r.styles.SourceTitle.Render(title) + "  " + r.styles.Muted.Render(score)
	}

	return titleLine + "\n" + r.styles.Muted.Render("    "+Truncate(p.Chunk.Content, r.width-6))
}

// Truncate flattens text onto one line and cuts it to n runes.
func Truncate(text string, n int) string {
	if n < 20 {
		n = 20
	}
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n-3]) + "..."
}

// SetPassages replaces the list contents.
func (r *SourceList) SetPassages(passages []domain.Passage) {
	r.passages = passages
	r.selected = 0
}

// Passages returns the current passages.
func (r *SourceList) Passages() []domain.Passage {
	return r.passages
}

// Selected returns the index of the selected passage.
func (r *SourceList) Selected() int {
	return r.selected
}

// SelectedPassage returns the selected passage, or nil if the list is empty.
func (r *SourceList) SelectedPassage() *domain.Passage {
	if r.selected < 0 || r.selected >= len(r.passages) {
		return nil
	}
	return &r.passages[r.selected]
}

// MoveUp moves selection up.
func (r *SourceList) MoveUp() {
	if r.selected > 0 {
		r.selected--
	}
}

// MoveDown moves selection down.
func (r *SourceList) MoveDown() {
	if r.selected < len(r.passages)-1 {
		r.selected++
	}
}

// SetDimensions sets the component dimensions.
func (r *SourceList) SetDimensions(width, height int) {
	r.width = width
	r.height = height
}

// Count returns the number of passages.
func (r *SourceList) Count() int {
	return len(r.passages)
}
