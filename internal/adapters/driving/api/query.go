package api

import (
	"errors"
	"net/http"

	"github.com/custodia-labs/ragbox/internal/core/domain"
)

type queryRequest struct {
	Text string `json:"text" validate:"required"`
}

type sourceNode struct {
	ID       string         `json:"id"`
	Metadata map[string]any `json:"metadata"`
	Text     string         `json:"text"`
	Score    float64        `json:"score"`
}

type queryResponse struct {
	Question    string       `json:"question"`
	Answer      string       `json:"answer"`
	SourceNodes []sourceNode `json:"source_nodes"`
}

type queryErrorResponse struct {
	Error       string       `json:"error"`
	Question    string       `json:"question"`
	SourceNodes []sourceNode `json:"source_nodes"`
}

// handleQuery answers a question. When generation fails after retrieval
// succeeded, the 503 body still carries the passages.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	answer, err := s.ports.Query.Query(r.Context(), r.PathValue("name"), req.Text)
	if err != nil {
		if answer != nil && errors.Is(err, domain.ErrGenerationUnavailable) {
			writeJSON(w, http.StatusServiceUnavailable, queryErrorResponse{
				Error:       err.Error(),
				Question:    answer.Question,
				SourceNodes: sourceNodes(answer.Sources),
			})
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, queryResponse{
		Question:    answer.Question,
		Answer:      answer.Answer,
		SourceNodes: sourceNodes(answer.Sources),
	})
}

func sourceNodes(passages []domain.Passage) []sourceNode {
	nodes := make([]sourceNode, 0, len(passages))
	for _, p := range passages {
		nodes = append(nodes, sourceNode{
			ID:       p.Chunk.ID,
			Metadata: p.Chunk.Metadata,
			Text:     p.Chunk.Content,
			Score:    p.Score,
		})
	}
	return nodes
}
