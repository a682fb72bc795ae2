package api

import (
	"context"
	"net/http"
	"time"
)

// healthTimeout bounds each dependency probe.
const healthTimeout = 5 * time.Second

const (
	probeOK      = "ok"
	probeSkipped = "not configured"
)

type healthResponse struct {
	Status string `json:"status"`
	LLM    string `json:"llm"`
	Store  string `json:"store"`
}

// handleHealth probes the language model and the document store. Any
// failing probe turns the answer into 503 "degraded".
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status: "ok",
		LLM:    probe(r.Context(), s.ports.LLMPing),
		Store:  probe(r.Context(), s.ports.StorePing),
	}

	status := http.StatusOK
	if !healthy(resp.LLM) || !healthy(resp.Store) {
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

func healthy(state string) bool {
	return state == probeOK || state == probeSkipped
}

func probe(ctx context.Context, ping func(context.Context) error) string {
	if ping == nil {
		return probeSkipped
	}
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()
	if err := ping(ctx); err != nil {
		return "unavailable: " + err.Error()
	}
	return probeOK
}
