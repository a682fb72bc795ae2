// Package chat provides the question and answer view of the TUI.
package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/ragbox/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/ragbox/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/ragbox/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/ragbox/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ragbox/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragbox/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragbox/internal/core/domain"
	"github.com/custodia-labs/ragbox/internal/core/ports/driving"
)

// ErrNoQueryService indicates that no query service was provided.
var ErrNoQueryService = errors.New("query service is required")

// exchange is one question with its outcome.
type exchange struct {
	question string
	answer   string
	err      error
}

// View asks questions about one collection and shows the answers.
type View struct {
	styles     *styles.Styles
	keymap     *keymap.KeyMap
	input      *input.QuestionInput
	sources    *list.SourceList
	statusbar  *status.Bar
	spinner    spinner.Model
	transcript viewport.Model

	queryService driving.QueryService
	ctx          context.Context

	collection  string
	history     []exchange
	thinking    bool
	showSources bool
	focusInput  bool
	err         error

	width  int
	height int
	ready  bool
}

// NewView creates a chat view.
func NewView(s *styles.Styles, km *keymap.KeyMap, queryService driving.QueryService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(s.Spinner))

	return &View{
		styles:       s,
		keymap:       km,
		input:        input.NewQuestionInput(s),
		sources:      list.NewSourceList(s),
		statusbar:    status.NewBar(s, km),
		spinner:      sp,
		transcript:   viewport.New(80, 10),
		queryService: queryService,
		ctx:          context.Background(),
		focusInput:   true,
		width:        80,
		height:       24,
	}
}

// WithContext sets the context used for queries.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init starts the input cursor.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// SetCollection switches the view to a collection and clears the history.
func (v *View) SetCollection(name string) {
	v.collection = name
	v.input.SetCollection(name)
	v.input.SetWidth(v.width)
	v.Reset()
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKey(msg)

	case messages.AnswerReceived:
		v.handleAnswer(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.thinking = false
		v.err = msg.Err
		v.statusbar.Failed(msg.Err)
		return v, nil

	case spinner.TickMsg:
		if !v.thinking {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	if msg.Type == tea.KeyEsc {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewCollections}
		}
	}

	if v.focusInput {
		if msg.Type == tea.KeyEnter {
			return v, v.ask()
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	switch {
	case keymap.Matches(msg.String(), v.keymap.NewQuestion):
		v.focusInput = true
		v.input.SetValue("")
		return v, v.input.Focus()
	case keymap.Matches(msg.String(), v.keymap.Sources):
		v.showSources = !v.showSources
		v.layout()
		return v, nil
	case v.showSources && keymap.Matches(msg.String(), v.keymap.Up):
		v.sources.MoveUp()
		return v, nil
	case v.showSources && keymap.Matches(msg.String(), v.keymap.Down):
		v.sources.MoveDown()
		return v, nil
	}

	var cmd tea.Cmd
	v.transcript, cmd = v.transcript.Update(msg)
	return v, cmd
}

// ask sends the typed question to the query service.
func (v *View) ask() tea.Cmd {
	question := strings.TrimSpace(v.input.Value())
	if question == "" || v.thinking {
		return nil
	}

	v.thinking = true
	v.focusInput = false
	v.input.Blur()
	v.statusbar.Thinking()

	service, ctx, collection := v.queryService, v.ctx, v.collection
	query := func() tea.Msg {
		if service == nil {
			return messages.ErrorOccurred{Err: ErrNoQueryService}
		}
		answer, err := service.Query(ctx, collection, question)
		return messages.AnswerReceived{Question: question, Answer: answer, Err: err}
	}
	return tea.Batch(v.spinner.Tick, query)
}

func (v *View) handleAnswer(msg messages.AnswerReceived) {
	v.thinking = false
	v.err = msg.Err

	ex := exchange{question: msg.Question, err: msg.Err}
	if msg.Answer != nil {
		ex.answer = msg.Answer.Answer
		v.sources.SetPassages(msg.Answer.Sources)
	} else {
		v.sources.SetPassages(nil)
	}
	v.history = append(v.history, ex)

	switch {
	case msg.Answer != nil && errors.Is(msg.Err, domain.ErrGenerationUnavailable):
		// Passages were found; show them instead of an answer.
		v.showSources = true
		v.statusbar.Answered(v.sources.Count(), "no answer generated; showing sources")
	case msg.Err != nil:
		v.statusbar.Failed(msg.Err)
	default:
		v.statusbar.Answered(v.sources.Count(), "")
	}

	if msg.Err != nil && msg.Answer == nil {
		// Nothing to read; let the user retype.
		v.focusInput = true
		v.input.Focus()
	} else {
		v.input.SetValue("")
	}

	v.layout()
	v.transcript.SetContent(v.renderTranscript())
	v.transcript.GotoBottom()
}

// renderTranscript renders every exchange so far.
func (v *View) renderTranscript() string {
	wrap := lipgloss.NewStyle().Width(v.width - 4)
	parts := make([]string, 0, len(v.history))
	for _, ex := range v.history {
		var b strings.Builder
		b.WriteString(v.styles.Question.Render("Q: " + ex.question))
		b.WriteString("\n")
		switch {
		case ex.answer != "":
			b.WriteString(v.styles.Answer.Render(wrap.Render(ex.answer)))
		case ex.err != nil:
			b.WriteString(v.styles.Error.Render("  " + ex.err.Error()))
		}
		parts = append(parts, b.String())
	}
	return strings.Join(parts, "\n\n")
}

// View renders the chat view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := []string{
		v.styles.Title.Render("ragbox") + v.styles.Muted.Render("  "+v.collection),
		"",
	}

	if len(v.history) == 0 {
		sections = append(sections, v.styles.Muted.Render("Answers come only from the documents in this collection."))
	} else {
		sections = append(sections, v.transcript.View())
	}

	if v.thinking {
		sections = append(sections, "", v.spinner.View()+v.styles.Muted.Render(" thinking..."))
	}

	if v.showSources {
		sections = append(sections, "", v.sources.View())
	}

	sections = append(sections, "", v.input.View(), "", v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// layout splits the height between the transcript and the source list.
func (v *View) layout() {
	// Header, input box and status bar.
	available := v.height - 8
	if available < 4 {
		available = 4
	}
	transcriptHeight := available
	if v.showSources {
		sourcesHeight := available / 2
		v.sources.SetDimensions(v.width, sourcesHeight)
		transcriptHeight = available - sourcesHeight
	}
	v.transcript.Width = v.width
	v.transcript.Height = transcriptHeight
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.statusbar.SetWidth(width)
	v.layout()
	if len(v.history) > 0 {
		v.transcript.SetContent(v.renderTranscript())
	}
}

// Reset clears the history and focuses the input.
func (v *View) Reset() {
	v.history = nil
	v.thinking = false
	v.showSources = false
	v.focusInput = true
	v.err = nil
	v.input.SetValue("")
	v.input.Focus()
	v.sources.SetPassages(nil)
	v.statusbar.Clear()
	v.transcript.SetContent("")
	v.layout()
}

// Collection returns the collection being asked.
func (v *View) Collection() string {
	return v.collection
}

// Question returns the text in the input.
func (v *View) Question() string {
	return v.input.Value()
}

// SetQuestion sets the text in the input.
func (v *View) SetQuestion(q string) {
	v.input.SetValue(q)
}

// Thinking reports whether a question is in flight.
func (v *View) Thinking() bool {
	return v.thinking
}

// InputFocused returns whether the input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}

// ShowingSources reports whether the source list is visible.
func (v *View) ShowingSources() bool {
	return v.showSources
}

// Sources returns the passages behind the last answer.
func (v *View) Sources() []domain.Passage {
	return v.sources.Passages()
}

// SelectedSource returns the index of the selected passage.
func (v *View) SelectedSource() int {
	return v.sources.Selected()
}

// Turns returns the number of questions asked in this session.
func (v *View) Turns() int {
	return len(v.history)
}

// Err returns the last error, if any.
func (v *View) Err() error {
	return v.err
}
