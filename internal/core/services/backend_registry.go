package services

import (
	"log/slog"
	"strings"

	"github.com/manthysbr/muse/internal/core/domain"
	"github.com/manthysbr/muse/internal/core/ports"
)

// BackendRegistry holds the configured backends and the routing policy derived
// from them. It is built once at startup and read-only afterwards.
type BackendRegistry struct {
	config   *domain.AppConfig
	backends map[domain.BackendID]ports.Backend
	policy   domain.RoutingPolicy
}

// NewBackendRegistry builds the routing policy from the backends that are
// both configured and constructed. An unknown or ineligible preferred
// provider is ignored with a warning.
func NewBackendRegistry(logger *slog.Logger, config *domain.AppConfig, backends map[domain.BackendID]ports.Backend) *BackendRegistry {
	if config == nil {
		config = domain.DefaultConfig()
	}

	eligible := func(id domain.BackendID) bool {
		_, ok := backends[id]
		return ok && config.Eligible(id)
	}

	var preferred domain.BackendID
	if raw := strings.TrimSpace(config.Providers.Preferred); raw != "" {
		id, err := domain.ParseBackendID(raw)
		switch {
		case err != nil:
			logger.Warn("ignoring unknown preferred provider", "preferred", raw)
		case !eligible(id):
			logger.Warn("ignoring preferred provider without configuration", "preferred", id)
		default:
			preferred = id
		}
	}

	policy := domain.NewRoutingPolicy(domain.DefaultTaskPreferences(), eligible, preferred)
	for _, task := range domain.AllTasks() {
		seq := policy.For(task)
		if len(seq) == 0 {
			logger.Warn("no backend available for task", "task", task)
			continue
		}
		logger.Info("routing policy", "task", task, "order", seq)
	}

	return &BackendRegistry{
		config:   config,
		backends: backends,
		policy:   policy,
	}
}

// Get returns the backend for id
func (r *BackendRegistry) Get(id domain.BackendID) (ports.Backend, bool) {
	b, ok := r.backends[id]
	return b, ok
}

// Policy returns the routing policy
func (r *BackendRegistry) Policy() domain.RoutingPolicy {
	return r.policy
}

// Config returns the configuration the registry was built from
func (r *BackendRegistry) Config() *domain.AppConfig {
	return r.config
}

// Eligible returns the backends that can be attempted, in default fallback order.
func (r *BackendRegistry) Eligible() []domain.BackendID {
	out := make([]domain.BackendID, 0, len(r.backends))
	for _, id := range domain.AllBackends() {
		if _, ok := r.backends[id]; ok && r.config.Eligible(id) {
			out = append(out, id)
		}
	}
	return out
}
