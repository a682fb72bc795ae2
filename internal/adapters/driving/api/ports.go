package api

import (
	"context"

	"github.com/custodia-labs/ragbox/internal/core/ports/driving"
)

// Ports aggregates the driving ports served over HTTP.
type Ports struct {
	Collections driving.CollectionService
	Ingest      driving.IngestService
	Documents   driving.DocumentService
	Query       driving.QueryService

	// LLMPing reports whether the language model answers. Optional.
	LLMPing func(ctx context.Context) error

	// StorePing reports whether the document store answers. Optional.
	StorePing func(ctx context.Context) error
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Collections == nil || p.Ingest == nil || p.Documents == nil || p.Query == nil {
		return ErrMissingService
	}
	return nil
}
