package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/ragbox/internal/core/domain"
)

// ListCollectionsInput is the (empty) input schema for the list_collections tool.
type ListCollectionsInput struct{}

// ListCollectionsOutput is the output schema for the list_collections tool.
type ListCollectionsOutput struct {
	Collections []string `json:"collections"`
	Count       int      `json:"count"`
}

// ListDocumentsInput is the input schema for the list_documents tool.
type ListDocumentsInput struct {
	Collection string `json:"collection" jsonschema:"name of the collection"`
}

// ListDocumentsOutput is the output schema for the list_documents tool.
type ListDocumentsOutput struct {
	Files []FileOutput `json:"files"`
	Count int          `json:"count"`
}

// FileOutput describes one ingested file.
type FileOutput struct {
	FileName    string `json:"file_name"`
	Fingerprint string `json:"fingerprint"`
	Chunks      int    `json:"chunks"`
}

// QueryInput is the input schema for the query tool.
type QueryInput struct {
	Collection string `json:"collection" jsonschema:"name of the collection to ask"`
	Question   string `json:"question" jsonschema:"the question to answer from the collection"`
}

// QueryOutput is the output schema for the query tool.
type QueryOutput struct {
	Answer  string         `json:"answer"`
	Sources []SourceOutput `json:"sources"`

	// GenerationError is set when passages were found but no answer could
	// be generated.
	GenerationError string `json:"generation_error,omitempty"`
}

// SourceOutput is one passage used to answer a question.
type SourceOutput struct {
	ID       string  `json:"id"`
	FileName string  `json:"file_name"`
	Score    float64 `json:"score"`
	Content  string  `json:"content"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.sdk, &mcp.Tool{
		Name:        "list_collections",
		Description: "List the names of all document collections",
	}, s.handleListCollections)

	if s.ports.Documents != nil {
		mcp.AddTool(s.sdk, &mcp.Tool{
			Name:        "list_documents",
			Description: "List the files ingested into a collection",
		}, s.handleListDocuments)
	}

	mcp.AddTool(s.sdk, &mcp.Tool{
		Name:        "query",
		Description: "Answer a question using only the documents of one collection",
	}, s.handleQuery)
}

func (s *Server) handleListCollections(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListCollectionsInput,
) (*mcp.CallToolResult, ListCollectionsOutput, error) {
	names, err := s.ports.Collections.List(ctx)
	if err != nil {
		return nil, ListCollectionsOutput{}, err
	}
	if names == nil {
		names = []string{}
	}
	return nil, ListCollectionsOutput{Collections: names, Count: len(names)}, nil
}

func (s *Server) handleListDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	groups, err := s.ports.Documents.Files(ctx, input.Collection)
	if err != nil {
		return nil, ListDocumentsOutput{}, err
	}

	output := ListDocumentsOutput{
		Files: make([]FileOutput, len(groups)),
		Count: len(groups),
	}
	for i, g := range groups {
		output.Files[i] = FileOutput{
			FileName:    g.FileName,
			Fingerprint: g.Fingerprint,
			Chunks:      len(g.ChunkIDs),
		}
	}
	return nil, output, nil
}

// handleQuery answers a question. A generation failure still returns the
// retrieved passages so the assistant can read them itself.
func (s *Server) handleQuery(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryInput,
) (*mcp.CallToolResult, QueryOutput, error) {
	answer, err := s.ports.Query.Query(ctx, input.Collection, input.Question)
	if err != nil && (answer == nil || !errors.Is(err, domain.ErrGenerationUnavailable)) {
		return nil, QueryOutput{}, fmt.Errorf("query %q: %w", input.Collection, err)
	}

	output := QueryOutput{
		Answer:  answer.Answer,
		Sources: make([]SourceOutput, len(answer.Sources)),
	}
	if err != nil {
		output.GenerationError = err.Error()
	}
	for i, p := range answer.Sources {
		output.Sources[i] = SourceOutput{
			ID:       p.Chunk.ID,
			FileName: p.Chunk.FileName,
			Score:    p.Score,
			Content:  p.Chunk.Content,
		}
	}
	return nil, output, nil
}
