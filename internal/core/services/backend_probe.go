package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/manthysbr/muse/internal/core/domain"
)

// BackendStatus describes one backend for the API.
type BackendStatus struct {
	ID         domain.BackendID  `json:"id"`
	BaseURL    string            `json:"base_url"`
	Model      string            `json:"model"`
	Configured bool              `json:"configured"`
	Tasks      []domain.TaskKind `json:"tasks"`
	Reachable  *bool             `json:"reachable,omitempty"`
	Models     []string          `json:"models,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// BackendProbe reports backend configuration and, for the local server,
// reachability and installed models. Hosted backends are not called, since
// every call there spends quota.
type BackendProbe struct {
	logger   *slog.Logger
	client   *http.Client
	registry *BackendRegistry
}

func NewBackendProbe(logger *slog.Logger, registry *BackendRegistry) *BackendProbe {
	return &BackendProbe{
		logger:   logger,
		client:   &http.Client{Timeout: 5 * time.Second},
		registry: registry,
	}
}

// ollamaTagsResponse is the Ollama /api/tags JSON structure.
type ollamaTagsResponse struct {
	Models []struct {
		Name  string `json:"name"`
		Model string `json:"model"`
	} `json:"models"`
}

// Status returns one entry per known backend, in default fallback order.
func (p *BackendProbe) Status(ctx context.Context) []BackendStatus {
	cfg := p.registry.Config()
	policy := p.registry.Policy()

	out := make([]BackendStatus, 0, len(domain.AllBackends()))
	for _, id := range domain.AllBackends() {
		bc := cfg.Backend(id)
		_, built := p.registry.Get(id)
		st := BackendStatus{
			ID:         id,
			BaseURL:    bc.BaseURL,
			Model:      bc.Model,
			Configured: built && cfg.Eligible(id),
			Tasks:      []domain.TaskKind{},
		}
		for _, task := range domain.AllTasks() {
			if containsID(policy.For(task), id) {
				st.Tasks = append(st.Tasks, task)
			}
		}

		if id == domain.BackendLocal && st.Configured {
			models, err := p.DiscoverOllama(ctx, bc.BaseURL)
			reachable := err == nil
			st.Reachable = &reachable
			st.Models = models
			if err != nil {
				st.Error = err.Error()
			}
		}
		out = append(out, st)
	}
	return out
}

// DiscoverOllama queries the Ollama instance at baseURL for installed models.
func (p *BackendProbe) DiscoverOllama(ctx context.Context, baseURL string) ([]string, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama not reachable at %s: %w", baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama returned %d", resp.StatusCode)
	}

	var tags ollamaTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("decode ollama tags: %w", err)
	}

	models := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		models = append(models, m.Name)
	}

	p.logger.Debug("discovered ollama models", "count", len(models), "base_url", baseURL)
	return models, nil
}

func containsID(seq []domain.BackendID, id domain.BackendID) bool {
	for _, s := range seq {
		if s == id {
			return true
		}
	}
	return false
}
