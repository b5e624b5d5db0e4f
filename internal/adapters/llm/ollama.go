package llm

import (
	"context"
	"log/slog"
	"strings"

	"github.com/manthysbr/muse/internal/core/domain"
)

// OllamaBackend talks to a local Ollama-compatible inference server.
type OllamaBackend struct {
	baseURL string
	model   string
	doer    Doer
	logger  *slog.Logger
}

func NewOllamaBackend(cfg domain.BackendConfig, doer Doer, logger *slog.Logger) *OllamaBackend {
	baseURL := NormalizeOllamaBaseURL(cfg.BaseURL)
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &OllamaBackend{
		baseURL: baseURL,
		model:   pickModel(cfg.Model, "qwen2.5:latest"),
		doer:    doer,
		logger:  logger,
	}
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature"`
}

func (b *OllamaBackend) ID() domain.BackendID { return domain.BackendLocal }

// Generate calls /api/generate. The local server is trusted, so non-2xx
// bodies are normalized and returned rather than failing the call.
func (b *OllamaBackend) Generate(ctx context.Context, req domain.BackendRequest) (string, error) {
	body := generateRequest{
		Model:  pickModel(req.Model, b.model),
		Prompt: req.FullPrompt(),
		Stream: false,
		Options: generateOptions{
			NumPredict:  req.MaxTokens,
			Temperature: req.Temperature,
		},
	}

	status, raw, err := postJSON(ctx, b.doer, b.baseURL+"/api/generate", body, nil)
	if err != nil {
		return "", err
	}
	if !isSuccess(status) {
		b.logger.Warn("ollama returned non-success status", "status", status, "model", body.Model)
	}
	return Normalize(raw, localStrategies), nil
}

// NormalizeOllamaBaseURL strips a trailing slash and the OpenAI-compatible
// /v1 suffix, which users often copy from other tools.
func NormalizeOllamaBaseURL(baseURL string) string {
	trimmed := trimBaseURL(baseURL)
	return strings.TrimSuffix(trimmed, "/v1")
}
