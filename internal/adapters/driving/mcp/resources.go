package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for ragbox resources.
	uriScheme = "ragbox://"
)

type collectionInfo struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type fileInfo struct {
	FileName    string `json:"file_name"`
	Fingerprint string `json:"fingerprint"`
	Chunks      int    `json:"chunks"`
}

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.sdk.AddResource(&mcp.Resource{
		URI:         uriScheme + "collections",
		Name:        "collections",
		Description: "List of all document collections",
		MIMEType:    "application/json",
	}, s.handleCollectionsResource)

	s.sdk.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "collections/{name}/files",
		Name:        "collection-files",
		Description: "Files ingested into a specific collection",
		MIMEType:    "application/json",
	}, s.handleFilesResource)
}

// handleCollectionsResource returns every collection with its creation time.
func (s *Server) handleCollectionsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	names, err := s.ports.Collections.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing collections: %w", err)
	}

	infos := make([]collectionInfo, 0, len(names))
	for _, name := range names {
		c, err := s.ports.Collections.Get(ctx, name)
		if err != nil {
			// Deleted between List and Get.
			continue
		}
		infos = append(infos, collectionInfo{Name: c.Name, CreatedAt: c.CreatedAt})
	}

	return jsonResult(req.Params.URI, infos)
}

// handleFilesResource returns the files of one collection.
func (s *Server) handleFilesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Documents == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	// Extract the name from ragbox://collections/{name}/files
	name := extractCollectionName(req.Params.URI)
	if name == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	groups, err := s.ports.Documents.Files(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}

	infos := make([]fileInfo, len(groups))
	for i, g := range groups {
		infos[i] = fileInfo{
			FileName:    g.FileName,
			Fingerprint: g.Fingerprint,
			Chunks:      len(g.ChunkIDs),
		}
	}

	return jsonResult(req.Params.URI, infos)
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractCollectionName extracts the name from a URI like ragbox://collections/{name}/files.
func extractCollectionName(uri string) string {
	const prefix = uriScheme + "collections/"
	const suffix = "/files"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	uri = strings.TrimPrefix(uri, prefix)
	if !strings.HasSuffix(uri, suffix) {
		return ""
	}

	name, err := url.PathUnescape(strings.TrimSuffix(uri, suffix))
	if err != nil {
		return ""
	}
	return name
}
