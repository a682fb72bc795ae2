// Package keymap holds the key bindings of the TUI.
package keymap

import (
	"slices"

	"github.com/charmbracelet/bubbles/key"
)

// KeyMap is the full set of bindings. Select and Ask share enter; which
// one applies depends on the active view.
type KeyMap struct {
	Quit, Help, Back key.Binding
	Up, Down         key.Binding
	Select, Files    key.Binding // collections view
	Refresh          key.Binding // collections and files views
	Ask, NewQuestion key.Binding // chat view
	Sources          key.Binding // toggles passages under an answer
}

func bind(label, desc string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(label, desc))
}

// DefaultKeyMap returns vim-style bindings alongside the arrow keys.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit:        bind("q", "quit", "q", "ctrl+c"),
		Help:        bind("?", "help", "?"),
		Back:        bind("esc", "back", "esc"),
		Up:          bind("↑/k", "up", "up", "k"),
		Down:        bind("↓/j", "down", "down", "j"),
		Select:      bind("enter", "chat", "enter"),
		Files:       bind("f", "files", "f"),
		Refresh:     bind("r", "refresh", "r"),
		Ask:         bind("enter", "ask", "enter"),
		NewQuestion: bind("n", "new question", "n"),
		Sources:     bind("s", "sources", "s"),
	}
}

// ShortHelp is shown while typing a question.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Ask, k.Back}
}

// AnswerHelp is shown once an answer arrived.
func (k *KeyMap) AnswerHelp() []key.Binding {
	return []key.Binding{k.NewQuestion, k.Sources, k.Up, k.Back}
}

// CollectionsHelp is shown under the collection list.
func (k *KeyMap) CollectionsHelp() []key.Binding {
	return []key.Binding{k.Select, k.Files, k.Refresh, k.Quit}
}

// FullHelp groups every binding by view for the help screen.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Files, k.Refresh},
		{k.Ask, k.NewQuestion, k.Sources, k.Back},
		{k.Help, k.Quit},
	}
}

// Matches reports whether keyStr is one of binding's keys.
func Matches(keyStr string, binding key.Binding) bool {
	return slices.Contains(binding.Keys(), keyStr)
}
