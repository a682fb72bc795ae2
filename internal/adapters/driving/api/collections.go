package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/custodia-labs/ragbox/internal/core/domain"
)

type createCollectionRequest struct {
	Name string `json:"name" validate:"required,max=128"`
}

type collectionsResponse struct {
	Collections []string `json:"collections"`
}

func (s *Server) handleListCollections(w http.ResponseWriter, r *http.Request) {
	names, err := s.ports.Collections.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, collectionsResponse{Collections: names})
}

func (s *Server) handleCreateCollection(w http.ResponseWriter, r *http.Request) {
	var req createCollectionRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	c, err := s.ports.Collections.Create(r.Context(), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, messageResponse{
		Message: fmt.Sprintf("Collection '%s' created successfully", c.Name),
	})
}

func (s *Server) handleRenameCollection(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	newName := strings.TrimSpace(r.URL.Query().Get("new_name"))
	if newName == "" {
		writeError(w, fmt.Errorf("%w: new_name query parameter is required", domain.ErrInvalidInput))
		return
	}

	if err := s.ports.Collections.Rename(r.Context(), name, newName); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{
		Message: fmt.Sprintf("Collection '%s' renamed to '%s'", name, newName),
	})
}

func (s *Server) handleDeleteCollection(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := s.ports.Collections.Delete(r.Context(), name); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{
		Message: fmt.Sprintf("Collection '%s' deleted successfully", name),
	})
}
