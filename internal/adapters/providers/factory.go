package providers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/manthysbr/muse/internal/adapters/llm"
	"github.com/manthysbr/muse/internal/adapters/resilient"
	"github.com/manthysbr/muse/internal/core/domain"
	"github.com/manthysbr/muse/internal/core/ports"
)

// Build creates one adapter per eligible backend from the app configuration,
// each behind its own resilient transport. Ineligible backends are left out,
// so callers never attempt a backend without credentials.
func Build(config *domain.AppConfig, logger *slog.Logger) map[domain.BackendID]ports.Backend {
	if config == nil {
		config = domain.DefaultConfig()
	}

	backends := make(map[domain.BackendID]ports.Backend, 4)
	for _, id := range domain.AllBackends() {
		if !config.Eligible(id) {
			logger.Info("backend not configured, skipping", "backend", id)
			continue
		}
		backends[id] = buildBackend(id, config, logger.With("backend", id))
	}
	return backends
}

func buildBackend(id domain.BackendID, config *domain.AppConfig, logger *slog.Logger) ports.Backend {
	cfg := config.Backend(id)
	doer := resilient.New(httpClient(cfg.Timeout), resilient.FromDomain(config.Retry), resilient.WithLogger(logger))

	switch id {
	case domain.BackendLocal:
		return llm.NewOllamaBackend(cfg, doer, logger)
	case domain.BackendCloudPrimary:
		return llm.NewGeminiBackend(cfg, doer, logger)
	case domain.BackendCloudSecondary:
		return llm.NewOpenAIBackend(cfg, doer, logger)
	default:
		return llm.NewHuggingFaceBackend(cfg, doer, logger)
	}
}

func httpClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &http.Client{Timeout: timeout}
}
