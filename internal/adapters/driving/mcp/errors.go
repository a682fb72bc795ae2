// Package mcp provides an MCP (Model Context Protocol) server adapter for ragbox.
// It lets AI assistants list collections and ask grounded questions about them.
package mcp

import "errors"

var (
	// ErrMissingCollectionService is returned when the collection service is not provided.
	ErrMissingCollectionService = errors.New("mcp: collection service is required")

	// ErrMissingQueryService is returned when the query service is not provided.
	ErrMissingQueryService = errors.New("mcp: query service is required")
)
