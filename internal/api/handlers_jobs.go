package api

import "net/http"

// handleListJobs lists all known jobs, newest first.
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs := s.orchestrator.ListJobs()
	writeJSON(w, http.StatusOK, map[string]any{
		"jobs":        jobs,
		"count":       len(jobs),
		"queue_depth": s.orchestrator.QueueDepth(),
	})
}
