package kernel

import (
	"net/http"

	"github.com/manthysbr/muse/internal/core/domain"
)

type personaView struct {
	ID          domain.PersonaID `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Aliases     []string         `json:"aliases,omitempty"`
}

// handleListPersonas lists the domain personas a request may name.
// GET /v1/personas
func (s *Server) handleListPersonas(w http.ResponseWriter, _ *http.Request) {
	list := s.personas.List()
	out := make([]personaView, 0, len(list))
	for _, p := range list {
		out = append(out, personaView{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Aliases:     p.Aliases,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"personas": out,
		"default":  domain.DefaultPersonaID,
	})
}
