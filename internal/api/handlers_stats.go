package api

import (
	"net/http"
)

func (s *Server) handleFetchStats(w http.ResponseWriter, r *http.Request) {
	if s.deps.Stats == nil {
		jsonError(w, "fetch stats unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"queue_depth": s.deps.Orchestrator.QueueDepth(),
		"stats":       s.deps.Stats.Snapshot(),
	})
}
