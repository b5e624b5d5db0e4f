package kernel

import (
	"net/http"

	"github.com/manthysbr/muse/internal/core/domain"
	"github.com/manthysbr/muse/internal/core/services"
)

type contentRequest struct {
	Content string `json:"content"`
	Domain  string `json:"domain"`
}

type synthesizeRequest struct {
	Concepts []string `json:"concepts"`
	Domain   string   `json:"domain"`
}

// withRequestID tags the request context and echoes the ID to the caller.
func withRequestID(w http.ResponseWriter, r *http.Request) *http.Request {
	id := requestID(r)
	w.Header().Set(headerRequestID, id)
	return r.WithContext(services.ContextWithRequestID(r.Context(), id))
}

func writeTaskResult(w http.ResponseWriter, backend domain.BackendID, v any) {
	w.Header().Set(headerBackend, string(backend))
	writeJSON(w, http.StatusOK, v)
}

// handleInspire generates ideas from a seed.
// POST /v1/ai/inspire
func (s *Server) handleInspire(w http.ResponseWriter, r *http.Request) {
	r = withRequestID(w, r)
	var req contentRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeTaskError(w, r, err)
		return
	}
	res, err := s.orchestrator.Inspire(r.Context(), req.Content, req.Domain)
	if err != nil {
		s.writeTaskError(w, r, err)
		return
	}
	writeTaskResult(w, res.Backend, res)
}

// handleSynthesize merges concepts.
// POST /v1/ai/synthesize
func (s *Server) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	r = withRequestID(w, r)
	var req synthesizeRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeTaskError(w, r, err)
		return
	}
	res, err := s.orchestrator.Synthesize(r.Context(), req.Concepts, req.Domain)
	if err != nil {
		s.writeTaskError(w, r, err)
		return
	}
	writeTaskResult(w, res.Backend, res)
}

// POST /v1/ai/critique
func (s *Server) handleCritique(w http.ResponseWriter, r *http.Request) {
	r = withRequestID(w, r)
	var req contentRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeTaskError(w, r, err)
		return
	}
	res, err := s.orchestrator.Critique(r.Context(), req.Content, req.Domain)
	if err != nil {
		s.writeTaskError(w, r, err)
		return
	}
	writeTaskResult(w, res.Backend, res)
}

// POST /v1/ai/refine-title
func (s *Server) handleRefineTitle(w http.ResponseWriter, r *http.Request) {
	r = withRequestID(w, r)
	var req contentRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeTaskError(w, r, err)
		return
	}
	res, err := s.orchestrator.RefineTitle(r.Context(), req.Content, req.Domain)
	if err != nil {
		s.writeTaskError(w, r, err)
		return
	}
	writeTaskResult(w, res.Backend, res)
}
