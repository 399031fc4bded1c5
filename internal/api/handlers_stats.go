package api

import "net/http"

// handleLLMStats reports Grok call latency statistics.
func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"model": s.grok.Model(),
		"stats": s.grok.Stats.Snapshot(),
	})
}
