package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/ragbox/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ragbox/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragbox/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragbox/internal/adapters/driving/tui/views/chat"
	"github.com/custodia-labs/ragbox/internal/adapters/driving/tui/views/collections"
	"github.com/custodia-labs/ragbox/internal/adapters/driving/tui/views/files"
)

var errNoFileListing = errors.New("file listing not available")

// App routes messages between the collection picker, the chat and the file
// list. It implements tea.Model.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keys   *keymap.KeyMap
	help   help.Model

	collectionsView *collections.View
	chatView        *chat.View
	filesView       *files.View

	current messages.ViewType
	err     error
	ready   bool
}

var _ tea.Model = (*App)(nil)

// NewApp builds the TUI. A non-empty collection opens its chat directly.
func NewApp(ports *Ports, collection string) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()
	h := help.New()
	h.Styles.FullKey = s.Normal
	h.Styles.FullDesc = s.Muted
	h.Styles.FullSeparator = s.Muted

	a := &App{
		ports:           ports,
		ctx:             context.Background(),
		styles:          s,
		keys:            km,
		help:            h,
		collectionsView: collections.NewView(s, ports.Collections),
		chatView:        chat.NewView(s, km, ports.Query),
		filesView:       files.NewView(s, ports.Documents),
		current:         messages.ViewCollections,
	}
	if collection != "" {
		a.chatView.SetCollection(collection)
		a.current = messages.ViewChat
	}
	return a, nil
}

// WithContext scopes every service call made by the views to ctx.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.collectionsView.WithContext(ctx)
	a.chatView.WithContext(ctx)
	a.filesView.WithContext(ctx)
	return a
}

func (a *App) Init() tea.Cmd {
	cmd := tea.Batch(tea.SetWindowTitle("ragbox"), a.collectionsView.Init())
	if a.current == messages.ViewChat {
		return tea.Batch(cmd, a.chatView.Init())
	}
	return cmd
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a, a.handleKey(msg)

	case messages.ViewChanged:
		a.current = msg.View
		if msg.View != messages.ViewCollections {
			return a, nil
		}
		a.collectionsView.Select(a.chatView.Collection())
		return a, a.collectionsView.Init()

	case messages.CollectionSelected:
		return a, a.open(msg)

	case messages.CollectionsLoaded:
		a.err = msg.Err
		return a, a.send(messages.ViewCollections, msg)

	case messages.AnswerReceived:
		a.err = msg.Err
		return a, a.send(messages.ViewChat, msg)

	case messages.FilesLoaded:
		return a, a.send(messages.ViewFiles, msg)

	case messages.ErrorOccurred:
		a.err = msg.Err
		if a.current != messages.ViewChat {
			return a, nil
		}
		return a, a.send(messages.ViewChat, msg)

	case messages.Quit:
		return a, tea.Quit
	}

	// Spinner ticks, cursor blinks and the like belong to the active view.
	return a, a.send(a.current, msg)
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.Type == tea.KeyCtrlC {
		return tea.Quit
	}
	if a.current == messages.ViewHelp {
		if msg.Type == tea.KeyEsc || msg.String() == "q" {
			a.current = messages.ViewCollections
		}
		return nil
	}
	cmd := a.send(a.current, msg)
	if a.current == messages.ViewChat {
		a.err = a.chatView.Err()
	}
	return cmd
}

// open switches to the chat or the file list of the chosen collection.
func (a *App) open(msg messages.CollectionSelected) tea.Cmd {
	if msg.View == messages.ViewFiles {
		if a.ports.Documents == nil {
			a.err = errNoFileListing
			return nil
		}
		a.current = messages.ViewFiles
		return a.filesView.SetCollection(msg.Name)
	}

	a.current = messages.ViewChat
	if msg.Name != a.chatView.Collection() {
		a.chatView.SetCollection(msg.Name)
	}
	return a.chatView.Init()
}

// send delivers msg to one view.
func (a *App) send(to messages.ViewType, msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch to {
	case messages.ViewCollections:
		a.collectionsView, cmd = a.collectionsView.Update(msg)
	case messages.ViewChat:
		a.chatView, cmd = a.chatView.Update(msg)
	case messages.ViewFiles:
		a.filesView, cmd = a.filesView.Update(msg)
	case messages.ViewHelp:
	}
	return cmd
}

func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}
	switch a.current {
	case messages.ViewChat:
		return a.chatView.View()
	case messages.ViewFiles:
		return a.filesView.View()
	case messages.ViewHelp:
		return a.styles.Title.Render("Keys") + "\n\n" +
			a.help.FullHelpView(a.keys.FullHelp()) + "\n\n" +
			a.styles.Help.Render("esc: back")
	default:
		return a.collectionsView.View()
	}
}

// Run blocks until the user quits or the context is cancelled.
func (a *App) Run() error {
	_, err := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx)).Run()
	return err
}

func (a *App) CurrentView() messages.ViewType { return a.current }
func (a *App) Chat() *chat.View               { return a.chatView }
func (a *App) Ready() bool                    { return a.ready }

// Err is the last error reported by a view or a service.
func (a *App) Err() error { return a.err }

// SetDimensions resizes every view. The first call marks the app ready.
func (a *App) SetDimensions(width, height int) {
	a.ready = true
	a.help.Width = width
	a.collectionsView.SetDimensions(width, height)
	a.chatView.SetDimensions(width, height)
	a.filesView.SetDimensions(width, height)
}
