package domain

import (
	"strings"
	"time"
	"unicode"
)

// MaxCollectionNameLength bounds user-chosen collection names.
const MaxCollectionNameLength = 128

// Collection is a named, independent namespace of indexed content.
type Collection struct {
	// Name is the user-chosen, unique name. It changes on rename.
	Name string

	// Handle references the backing index namespace.
	// It is allocated at creation and never changes.
	Handle string

	// CreatedAt is when the collection was created.
	CreatedAt time.Time

	// UpdatedAt is when the collection was last renamed.
	UpdatedAt time.Time
}

// ValidateCollectionName reports whether name is usable as a collection name.
func ValidateCollectionName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrInvalidInput
	}
	if len(name) > MaxCollectionNameLength {
		return ErrInvalidInput
	}
	for _, r := range name {
		if r == '/' || unicode.IsControl(r) {
			return ErrInvalidInput
		}
	}
	return nil
}
