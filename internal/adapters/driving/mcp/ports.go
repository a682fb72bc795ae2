package mcp

import (
	"github.com/custodia-labs/ragbox/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Collections lists and resolves collections.
	Collections driving.CollectionService

	// Documents lists the files of a collection. Optional.
	Documents driving.DocumentService

	// Query answers questions from a collection.
	Query driving.QueryService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Collections == nil {
		return ErrMissingCollectionService
	}
	if p.Query == nil {
		return ErrMissingQueryService
	}
	return nil
}
