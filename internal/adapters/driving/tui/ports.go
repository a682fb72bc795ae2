// Package tui provides an interactive terminal chat for asking questions
// about a collection. It is a driving adapter over the core services.
package tui

import (
	"github.com/custodia-labs/ragbox/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the TUI.
type Ports struct {
	// Collections lists the collections to chat with.
	Collections driving.CollectionService

	// Query answers questions.
	Query driving.QueryService

	// Documents lists the files of a collection. Optional; without it the
	// files view is disabled.
	Documents driving.DocumentService
}

// Validate ensures the required ports are set.
func (p *Ports) Validate() error {
	if p.Collections == nil {
		return ErrMissingCollectionService
	}
	if p.Query == nil {
		return ErrMissingQueryService
	}
	return nil
}
