// Package files provides the read-only file list of a collection.
package files

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/ragbox/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragbox/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragbox/internal/core/domain"
	"github.com/custodia-labs/ragbox/internal/core/ports/driving"
)

// View lists the files of one collection with their chunk counts.
type View struct {
	styles          *styles.Styles
	documentService driving.DocumentService
	ctx             context.Context

	collection   string
	files        []domain.FileGroup
	selected     int
	scrollOffset int
	loading      bool
	err          error
	width        int
	height       int
	ready        bool
}

// NewView creates a files view.
func NewView(s *styles.Styles, documentService driving.DocumentService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:          s,
		documentService: documentService,
		ctx:             context.Background(),
		width:           80,
		height:          24,
	}
}

// WithContext sets the context used for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// SetCollection switches to a collection and loads its files.
func (v *View) SetCollection(name string) tea.Cmd {
	v.collection = name
	v.files = nil
	v.selected = 0
	v.scrollOffset = 0
	v.err = nil
	return v.load()
}

func (v *View) load() tea.Cmd {
	v.loading = true
	service, ctx, collection := v.documentService, v.ctx, v.collection
	return func() tea.Msg {
		if service == nil {
			return messages.FilesLoaded{Collection: collection, Err: fmt.Errorf("document service not available")}
		}
		groups, err := service.Files(ctx, collection)
		return messages.FilesLoaded{Collection: collection, Files: groups, Err: err}
	}
}

// Update handles messages for the files view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.FilesLoaded:
		if msg.Collection != v.collection {
			// Stale load for a collection we already left.
			return v, nil
		}
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.files = msg.Files
		}
		return v, nil

	case tea.KeyMsg:
		return v.handleKey(msg)
	}
	return v, nil
}

func (v *View) handleKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewCollections} }
	case "enter":
		name := v.collection
		return v, func() tea.Msg {
			return messages.CollectionSelected{Name: name, View: messages.ViewChat}
		}
	case "up", "k":
		if v.selected > 0 {
			v.selected--
			v.adjustScroll()
		}
	case "down", "j":
		if v.selected < len(v.files)-1 {
			v.selected++
			v.adjustScroll()
		}
	case "r":
		return v, v.load()
	}
	return v, nil
}

// adjustScroll keeps the selected file visible.
func (v *View) adjustScroll() {
	visible := v.visibleItemCount()
	if v.selected < v.scrollOffset {
		v.scrollOffset = v.selected
	} else if v.selected >= v.scrollOffset+visible {
		v.scrollOffset = v.selected - visible + 1
	}
}

func (v *View) visibleItemCount() int {
	// Title, header, scroll indicator and help.
	n := v.height - 8
	if n < 1 {
		n = 1
	}
	return n
}

// View renders the file list.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Files in " + v.collection))
	b.WriteString("\n\n")

	switch {
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading..."))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	case len(v.files) == 0:
		b.WriteString(v.styles.Muted.Render("No files in this collection."))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	visible := v.visibleItemCount()
	for i := v.scrollOffset; i < len(v.files) && i < v.scrollOffset+visible; i++ {
		b.WriteString(v.renderFile(i, &v.files[i]))
		b.WriteString("\n")
	}

	if len(v.files) > visible {
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d-%d of %d]",
			v.scrollOffset+1,
			min(v.scrollOffset+visible, len(v.files)),
			len(v.files))))
	}

	b.WriteString("\n\n")
	b.WriteString(v.renderHelp())
	return b.String()
}

// renderFile renders one file line.
func (v *View) renderFile(index int, f *domain.FileGroup) string {
	indicator := "  "
	if index == v.selected {
		indicator = "> "
	}

	name := f.FileName
	maxNameLen := v.width/2 - 4
	if maxNameLen < 10 {
		maxNameLen = 10
	}
	if len(name) > maxNameLen {
		name = "..." + name[len(name)-maxNameLen+3:]
	}

	chunks := fmt.Sprintf("%d chunks", len(f.ChunkIDs))
	if len(f.ChunkIDs) == 1 {
		chunks = "1 chunk"
	}

	if index == v.selected {
		return v.styles.Selected.Render(fmt.Sprintf("%s%-*s  %s", indicator, maxNameLen, name, chunks))
	}
	return v.styles.Normal.Render(fmt.Sprintf("%s%-*s  ", indicator, maxNameLen, name)) +
		v.styles.Muted.Render(chunks)
}

func (v *View) renderHelp() string {
	return v.styles.Help.Render("[j/k] Navigate  [Enter] Chat  [r] Refresh  [Esc] Back")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Collection returns the collection shown.
func (v *View) Collection() string {
	return v.collection
}

// Files returns the loaded files.
func (v *View) Files() []domain.FileGroup {
	return v.files
}

// SelectedIndex returns the selected file index.
func (v *View) SelectedIndex() int {
	return v.selected
}

// Err returns the last load error.
func (v *View) Err() error {
	return v.err
}
