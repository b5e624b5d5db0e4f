package kernel

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/manthysbr/muse/internal/core/domain"
)

type createProjectRequest struct {
	Name string          `json:"name"`
	Tree json.RawMessage `json:"tree"`
}

type updateProjectRequest struct {
	Name *string         `json:"name"`
	Tree json.RawMessage `json:"tree"`
}

// GET /v1/projects
func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.repo.ListProjects(r.Context())
	if err != nil {
		s.logger.Error("failed to list projects", "error", err)
		s.writeTaskError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"projects": projects,
		"count":    len(projects),
	})
}

// POST /v1/projects
func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeTaskError(w, r, err)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, string(domain.CodeInvalidInput), "name is required")
		return
	}
	tree, err := domain.NormalizeTree(req.Tree)
	if err != nil {
		writeError(w, http.StatusBadRequest, string(domain.CodeInvalidInput), err.Error())
		return
	}

	now := time.Now().UTC()
	proj := domain.Project{
		ID:        domain.NewProjectID(),
		Name:      name,
		Tree:      tree,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.SaveProject(r.Context(), proj); err != nil {
		s.logger.Error("failed to create project", "error", err)
		s.writeTaskError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, proj)
}

// GET /v1/projects/{id}
func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	proj, err := s.repo.GetProject(r.Context(), domain.ProjectID(r.PathValue("id")))
	if err != nil {
		s.writeProjectError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, proj)
}

// PUT /v1/projects/{id}
func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	var req updateProjectRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeTaskError(w, r, err)
		return
	}

	proj, err := s.repo.GetProject(r.Context(), domain.ProjectID(r.PathValue("id")))
	if err != nil {
		s.writeProjectError(w, r, err)
		return
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			writeError(w, http.StatusBadRequest, string(domain.CodeInvalidInput), "name must not be empty")
			return
		}
		proj.Name = name
	}
	if req.Tree != nil {
		tree, err := domain.NormalizeTree(req.Tree)
		if err != nil {
			writeError(w, http.StatusBadRequest, string(domain.CodeInvalidInput), err.Error())
			return
		}
		proj.Tree = tree
	}
	proj.UpdatedAt = time.Now().UTC()

	if err := s.repo.SaveProject(r.Context(), proj); err != nil {
		s.logger.Error("failed to update project", "project", proj.ID, "error", err)
		s.writeTaskError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, proj)
}

// DELETE /v1/projects/{id}
func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.DeleteProject(r.Context(), domain.ProjectID(r.PathValue("id"))); err != nil {
		s.writeProjectError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeProjectError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, domain.ErrProjectNotFound) {
		writeError(w, http.StatusNotFound, codeNotFound, "project not found")
		return
	}
	s.writeTaskError(w, r, err)
}
