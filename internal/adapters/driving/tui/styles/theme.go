// Package styles holds the palette and lipgloss styles of the chat TUI.
package styles

import "github.com/charmbracelet/lipgloss"

// Theme is a colour palette.
type Theme struct {
	Accent    lipgloss.Color // titles, selection, spinner
	Highlight lipgloss.Color // questions and section headers
	Text      lipgloss.Color
	Dim       lipgloss.Color
	Surface   lipgloss.Color // status bar background
	Border    lipgloss.Color
	Good      lipgloss.Color
	Caution   lipgloss.Color
	Bad       lipgloss.Color
}

// DefaultTheme is a dark palette with an orange accent.
func DefaultTheme() *Theme {
	return &Theme{
		Accent:    "#F97316",
		Highlight: "#38BDF8",
		Text:      "#CDD6F4",
		Dim:       "#6C7086",
		Surface:   "#181825",
		Border:    "#45475A",
		Good:      "#A6E3A1",
		Caution:   "#F9E2AF",
		Bad:       "#F38BA8",
	}
}

// Styles are the rendered styles shared by every view.
type Styles struct {
	theme *Theme

	Title, Subtitle, Normal, Muted, Selected lipgloss.Style
	Error, Success, Warning                  lipgloss.Style
	Question, Answer, SourceTitle, Spinner   lipgloss.Style
	InputField, Border, StatusBar, Help      lipgloss.Style
}

// NewStyles derives the styles from theme, or from DefaultTheme when nil.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}
	fg := func(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }
	boxed := lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(theme.Border)

	return &Styles{
		theme: theme,

		Title:    fg(theme.Accent).Bold(true),
		Subtitle: fg(theme.Highlight).Bold(true),
		Normal:   fg(theme.Text),
		Muted:    fg(theme.Dim),
		Selected: fg(theme.Text).Background(theme.Accent).Bold(true),

		Error:   fg(theme.Bad),
		Success: fg(theme.Good),
		Warning: fg(theme.Caution),

		Question:    fg(theme.Highlight).Bold(true),
		Answer:      fg(theme.Text).PaddingLeft(2),
		SourceTitle: fg(theme.Good),
		Spinner:     fg(theme.Accent),

		InputField: boxed.Padding(0, 1),
		Border:     boxed,
		StatusBar:  fg(theme.Dim).Background(theme.Surface).Padding(0, 1),
		Help:       fg(theme.Dim),
	}
}

// DefaultStyles is NewStyles(DefaultTheme()).
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the palette the styles were built from.
func (s *Styles) Theme() *Theme {
	return s.theme
}
