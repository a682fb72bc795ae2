// Package status renders the one-line status bar under the chat view.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/ragbox/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ragbox/internal/adapters/driving/tui/styles"
)

type phase int

const (
	idle phase = iota
	thinking
	answered
	failed
)

// Bar shows what the chat is doing on the left and key hints on the right.
type Bar struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	phase   phase
	note    string
	sources int
	width   int
}

// NewBar returns an idle bar. Nil arguments select the defaults.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &Bar{styles: s, keymap: km, width: 80}
}

// Thinking marks a question as in flight.
func (b *Bar) Thinking() {
	b.phase, b.note = thinking, ""
}

// Answered records an answer backed by n passages. A non-empty note
// replaces the source count, e.g. when only sources could be shown.
func (b *Bar) Answered(n int, note string) {
	b.phase, b.note, b.sources = answered, note, n
}

// Failed shows err until the next question.
func (b *Bar) Failed(err error) {
	b.phase, b.note = failed, err.Error()
}

// Clear returns to the idle state.
func (b *Bar) Clear() {
	b.phase, b.note, b.sources = idle, "", 0
}

// SetWidth sets the rendered width.
func (b *Bar) SetWidth(width int) {
	b.width = width
}

// View renders the bar at its full width.
func (b *Bar) View() string {
	left, right := b.left(), b.hints()
	inner := b.width - b.styles.StatusBar.GetHorizontalFrameSize()
	gap := max(inner-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return b.styles.StatusBar.Width(b.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (b *Bar) left() string {
	switch b.phase {
	case thinking:
		return b.styles.Muted.Render("Thinking...")
	case failed:
		return b.styles.Error.Render("Error: " + b.note)
	case answered:
		if b.note != "" {
			return b.styles.Warning.Render(b.note)
		}
		return b.styles.Normal.Render(fmt.Sprintf("%d sources", b.sources))
	}
	return b.styles.Muted.Render("Ready")
}

func (b *Bar) hints() string {
	bindings := b.keymap.ShortHelp()
	if b.phase == answered {
		bindings = b.keymap.AnswerHelp()
	}
	parts := make([]string, 0, len(bindings))
	for _, binding := range bindings {
		h := binding.Help()
		parts = append(parts, h.Key+": "+h.Desc)
	}
	return b.styles.Muted.Render(strings.Join(parts, " | "))
}
