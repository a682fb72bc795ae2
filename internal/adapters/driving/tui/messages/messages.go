// Package messages defines Bubbletea message types for the TUI.
package messages

import (
	"github.com/custodia-labs/ragbox/internal/core/domain"
)

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewCollections lists the collections to pick from.
	ViewCollections ViewType = iota
	// ViewChat asks questions about the selected collection.
	ViewChat
	// ViewFiles lists the files of the selected collection.
	ViewFiles
	// ViewHelp is the keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewCollections:
		return "collections"
	case ViewChat:
		return "chat"
	case ViewFiles:
		return "files"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// CollectionsLoaded carries the collection names.
type CollectionsLoaded struct {
	Names []string
	Err   error
}

// CollectionSelected opens a view for one collection.
type CollectionSelected struct {
	Name string
	View ViewType
}

// AnswerReceived carries the result of a question. Answer may be set
// together with Err when passages were found but generation failed.
type AnswerReceived struct {
	Question string
	Answer   *domain.Answer
	Err      error
}

// FilesLoaded carries the files of a collection.
type FilesLoaded struct {
	Collection string
	Files      []domain.FileGroup
	Err        error
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
