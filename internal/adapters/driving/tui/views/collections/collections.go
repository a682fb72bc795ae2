// Package collections provides the collection picker of the TUI.
package collections

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/ragbox/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragbox/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragbox/internal/core/ports/driving"
)

// View lists collections and opens the chat or files view for one.
type View struct {
	styles  *styles.Styles
	service driving.CollectionService
	ctx     context.Context

	names    []string
	selected int
	loading  bool
	err      error
	width    int
	height   int
	ready    bool
}

// NewView creates a collection picker.
func NewView(s *styles.Styles, service driving.CollectionService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &View{
		styles:  s,
		service: service,
		ctx:     context.Background(),
		width:   80,
		height:  24,
	}
}

// WithContext sets the context used for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the collections.
func (v *View) Init() tea.Cmd {
	return v.load()
}

func (v *View) load() tea.Cmd {
	v.loading = true
	service, ctx := v.service, v.ctx
	return func() tea.Msg {
		if service == nil {
			return messages.CollectionsLoaded{Err: fmt.Errorf("collection service not available")}
		}
		names, err := service.List(ctx)
		return messages.CollectionsLoaded{Names: names, Err: err}
	}
}

// Update handles messages for the picker.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.CollectionsLoaded:
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.names = msg.Names
			if v.selected >= len(v.names) {
				v.selected = 0
			}
		}
		return v, nil

	case tea.KeyMsg:
		return v.handleKey(msg)
	}

	return v, nil
}

func (v *View) handleKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
		}
	case "down", "j":
		if v.selected < len(v.names)-1 {
			v.selected++
		}
	case "enter":
		return v, v.open(messages.ViewChat)
	case "f":
		return v, v.open(messages.ViewFiles)
	case "r":
		return v, v.load()
	case "?":
		return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewHelp} }
	case "q":
		return v, tea.Quit
	}
	return v, nil
}

func (v *View) open(view messages.ViewType) tea.Cmd {
	name := v.SelectedName()
	if name == "" {
		return nil
	}
	return func() tea.Msg {
		return messages.CollectionSelected{Name: name, View: view}
	}
}

// View renders the picker.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("ragbox"))
	b.WriteString("\n\n")
	b.WriteString(v.styles.Muted.Render("Pick a collection to ask about"))
	b.WriteString("\n\n")

	switch {
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
		b.WriteString("\n")
	case v.loading && len(v.names) == 0:
		b.WriteString(v.styles.Muted.Render("Loading..."))
		b.WriteString("\n")
	case len(v.names) == 0:
		b.WriteString(v.styles.Muted.Render("No collections yet. Create one with 'ragbox collection create <name>'."))
		b.WriteString("\n")
	}

	for i, name := range v.names {
		if i == v.selected {
			b.WriteString("> " + v.styles.Selected.Render(name))
		} else {
			b.WriteString("  " + v.styles.Normal.Render(name))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[j/k] Navigate  [Enter] Chat  [f] Files  [r] Refresh  [?] Help  [q] Quit"))
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Select moves the cursor to name if it is listed.
func (v *View) Select(name string) {
	for i, n := range v.names {
		if n == name {
			v.selected = i
			return
		}
	}
}

// SelectedName returns the collection under the cursor.
func (v *View) SelectedName() string {
	if v.selected < 0 || v.selected >= len(v.names) {
		return ""
	}
	return v.names[v.selected]
}

// Names returns the loaded collection names.
func (v *View) Names() []string {
	return v.names
}

// Err returns the last load error.
func (v *View) Err() error {
	return v.err
}
