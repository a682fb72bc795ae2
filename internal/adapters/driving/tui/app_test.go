package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragbox/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragbox/internal/core/domain"
)

// run executes cmd and feeds the messages it produces back into the app.
// Commands returned by those updates are not executed, so timers such as
// cursor blinks never fire.
func run(t *testing.T, app *App, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		return
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			if c != nil {
				app.Update(c())
			}
		}
		return
	}
	app.Update(msg)
}

// press sends a key and runs the resulting command.
func press(t *testing.T, app *App, key tea.KeyMsg) {
	t.Helper()
	_, cmd := app.Update(key)
	run(t, app, cmd)
}

func typeText(t *testing.T, app *App, text string) {
	t.Helper()
	for _, r := range text {
		app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestApp(t *testing.T, ports *Ports, collection string) *App {
	t.Helper()
	app, err := NewApp(ports, collection)
	require.NoError(t, err)
	app.SetDimensions(100, 40)
	run(t, app, app.Init())
	return app
}

func TestNewApp_InvalidPorts(t *testing.T) {
	_, err := NewApp(&Ports{}, "")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingCollectionService)
}

func TestNewApp_StartsAtCollections(t *testing.T) {
	app, err := NewApp(newTestPorts(), "")
	require.NoError(t, err)

	assert.Equal(t, messages.ViewCollections, app.CurrentView())
	assert.False(t, app.Ready())
	assert.Equal(t, "Initialising...", app.View())
}

func TestNewApp_OpensCollectionChat(t *testing.T) {
	app := newTestApp(t, newTestPorts(), "essays")

	assert.Equal(t, messages.ViewChat, app.CurrentView())
	assert.Equal(t, "essays", app.Chat().Collection())
	assert.Contains(t, app.View(), "essays")
}

func TestApp_WindowSize(t *testing.T) {
	app, err := NewApp(newTestPorts(), "")
	require.NoError(t, err)

	_, cmd := app.Update(tea.WindowSizeMsg{Width: 120, Height: 30})

	assert.Nil(t, cmd)
	assert.True(t, app.Ready())
}

func TestApp_ListsCollections(t *testing.T) {
	app := newTestApp(t, newTestPorts(), "")

	view := app.View()

	assert.Contains(t, view, "essays")
	assert.Contains(t, view, "notes")
}

func TestApp_CollectionLoadError(t *testing.T) {
	ports := newTestPorts()
	ports.Collections = &MockCollectionService{err: domain.ErrStoreUnavailable}

	app := newTestApp(t, ports, "")

	assert.ErrorIs(t, app.Err(), domain.ErrStoreUnavailable)
	assert.Contains(t, app.View(), "Error:")
}

func TestApp_AskFlow(t *testing.T) {
	ports := newTestPorts()
	query := ports.Query.(*MockQueryService)
	app := newTestApp(t, ports, "")

	// Open the second collection.
	press(t, app, tea.KeyMsg{Type: tea.KeyDown})
	press(t, app, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, messages.ViewChat, app.CurrentView())
	assert.Equal(t, "notes", app.Chat().Collection())

	typeText(t, app, "why?")
	press(t, app, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, "notes", query.collection)
	assert.Equal(t, "why?", query.question)
	assert.False(t, app.Chat().Thinking())
	assert.Equal(t, 1, app.Chat().Turns())
	view := app.View()
	assert.Contains(t, view, "Q: why?")
	assert.Contains(t, view, "Because of pressure.")

	// Toggle sources.
	press(t, app, runes("s"))
	assert.True(t, app.Chat().ShowingSources())
	assert.Contains(t, app.View(), "a.md")

	// Back to collections keeps the cursor on the chat's collection.
	press(t, app, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, messages.ViewCollections, app.CurrentView())
	assert.Contains(t, app.View(), "> notes")
}

func TestApp_GenerationFailureShowsSources(t *testing.T) {
	ports := newTestPorts()
	query := ports.Query.(*MockQueryService)
	query.err = domain.ErrGenerationUnavailable
	query.answer.Answer = ""
	app := newTestApp(t, ports, "essays")

	typeText(t, app, "why?")
	press(t, app, tea.KeyMsg{Type: tea.KeyEnter})

	assert.ErrorIs(t, app.Err(), domain.ErrGenerationUnavailable)
	assert.True(t, app.Chat().ShowingSources())
	assert.Len(t, app.Chat().Sources(), 1)
	assert.Contains(t, app.View(), "no answer generated")
}

func TestApp_QueryError(t *testing.T) {
	ports := newTestPorts()
	query := ports.Query.(*MockQueryService)
	query.answer = nil
	query.err = errors.New("collection vanished")
	app := newTestApp(t, ports, "essays")

	typeText(t, app, "why?")
	press(t, app, tea.KeyMsg{Type: tea.KeyEnter})

	assert.EqualError(t, app.Err(), "collection vanished")
	assert.True(t, app.Chat().InputFocused())
	assert.Contains(t, app.View(), "collection vanished")
}

func TestApp_FilesView(t *testing.T) {
	app := newTestApp(t, newTestPorts(), "")

	press(t, app, runes("f"))

	assert.Equal(t, messages.ViewFiles, app.CurrentView())
	view := app.View()
	assert.Contains(t, view, "Files in essays")
	assert.Contains(t, view, "a.md")
	assert.Contains(t, view, "1 chunk")

	// Enter opens the chat for the same collection.
	press(t, app, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, messages.ViewChat, app.CurrentView())
	assert.Equal(t, "essays", app.Chat().Collection())
}

func TestApp_FilesViewWithoutDocumentService(t *testing.T) {
	ports := newTestPorts()
	ports.Documents = nil
	app := newTestApp(t, ports, "")

	press(t, app, runes("f"))

	assert.Equal(t, messages.ViewCollections, app.CurrentView())
	assert.Error(t, app.Err())
}

func TestApp_Help(t *testing.T) {
	app := newTestApp(t, newTestPorts(), "")

	press(t, app, runes("?"))
	assert.Equal(t, messages.ViewHelp, app.CurrentView())
	view := app.View()
	assert.Contains(t, view, "Keys")
	assert.Contains(t, view, "new question")
	assert.Contains(t, view, "refresh")

	press(t, app, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, messages.ViewCollections, app.CurrentView())
}

func TestApp_Quit(t *testing.T) {
	app := newTestApp(t, newTestPorts(), "essays")

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())

	_, cmd = app.Update(messages.Quit{})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestApp_ErrorOccurredReachesChat(t *testing.T) {
	app := newTestApp(t, newTestPorts(), "essays")

	app.Update(messages.ErrorOccurred{Err: errors.New("boom")})

	assert.EqualError(t, app.Err(), "boom")
	assert.EqualError(t, app.Chat().Err(), "boom")
}

func TestApp_WithContext(t *testing.T) {
	app, err := NewApp(newTestPorts(), "")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	assert.Same(t, app, app.WithContext(ctx))
	assert.Equal(t, ctx, app.ctx)
}
