package kernel

import (
	"net/http"
)

// GET /v1/settings
func (s *Server) handleGetSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.config.Masked())
}

// handleHealth reports liveness and how many backends can serve requests.
// GET /v1/health
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	eligible := s.registry.Eligible()
	status := "ok"
	if len(eligible) == 0 {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   status,
		"backends": eligible,
	})
}

// handleListBackends probes the configured backends.
// GET /v1/backends
func (s *Server) handleListBackends(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"backends": s.probe.Status(r.Context()),
	})
}
