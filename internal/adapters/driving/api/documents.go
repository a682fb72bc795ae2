package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/custodia-labs/ragbox/internal/core/domain"
)

type documentView struct {
	ID       string         `json:"id"`
	Metadata map[string]any `json:"metadata"`
	Text     string         `json:"text"`
}

type documentsResponse struct {
	Documents []documentView `json:"documents"`
}

type fileView struct {
	FileName    string         `json:"file_name"`
	Fingerprint string         `json:"fingerprint"`
	Chunks      int            `json:"chunks"`
	ChunkIDs    []string       `json:"chunk_ids"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type filesResponse struct {
	Files []fileView `json:"files"`
}

type deleteDocumentsRequest struct {
	DocIDs []string `json:"doc_ids" validate:"required,min=1"`
}

type deleteDocumentsResponse struct {
	Message string                `json:"message"`
	Results []domain.DeleteResult `json:"results"`
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	chunks, err := s.ports.Documents.List(r.Context(), r.PathValue("name"))
	if err != nil {
		writeError(w, err)
		return
	}

	resp := documentsResponse{Documents: make([]documentView, 0, len(chunks))}
	for _, c := range chunks {
		resp.Documents = append(resp.Documents, documentView{
			ID:       c.ID,
			Metadata: c.Metadata,
			Text:     c.Content,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	groups, err := s.ports.Documents.Files(r.Context(), r.PathValue("name"))
	if err != nil {
		writeError(w, err)
		return
	}

	resp := filesResponse{Files: make([]fileView, 0, len(groups))}
	for _, g := range groups {
		resp.Files = append(resp.Files, fileView{
			FileName:    g.FileName,
			Fingerprint: g.Fingerprint,
			Chunks:      len(g.ChunkIDs),
			ChunkIDs:    g.ChunkIDs,
			Metadata:    g.Metadata,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleDeleteDocuments answers 200 when every id was deleted, 207 on a
// partial result and 404 when none existed. Per-id results are always sent
// when the collection exists.
func (s *Server) handleDeleteDocuments(w http.ResponseWriter, r *http.Request) {
	var req deleteDocumentsRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	results, err := s.ports.Documents.Delete(r.Context(), r.PathValue("name"), req.DocIDs)
	if results == nil {
		if err == nil {
			err = errors.New("delete returned no results")
		}
		writeError(w, err)
		return
	}

	deleted := 0
	for _, res := range results {
		if res.Status == domain.DeleteStatusDeleted {
			deleted++
		}
	}
	message := fmt.Sprintf("Deleted %d of %d documents", deleted, len(results))
	if err != nil {
		message = fmt.Sprintf("%s: %v", message, err)
	}
	writeJSON(w, statusFor(err), deleteDocumentsResponse{Message: message, Results: results})
}
