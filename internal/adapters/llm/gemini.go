package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/manthysbr/muse/internal/core/domain"
)

// apiKeyPrefix marks Google API keys; anything else is treated as an OAuth token.
const apiKeyPrefix = "AIza"

// GeminiBackend calls the generateContent API.
// Response shapes differ across API versions, so extraction walks a cascade
// of known shapes before falling back to the raw payload.
type GeminiBackend struct {
	baseURL string
	model   string
	apiKey  string
	doer    Doer
	logger  *slog.Logger
}

func NewGeminiBackend(cfg domain.BackendConfig, doer Doer, logger *slog.Logger) *GeminiBackend {
	return &GeminiBackend{
		baseURL: trimBaseURL(cfg.BaseURL),
		model:   pickModel(cfg.Model, "gemini-1.5-flash"),
		apiKey:  strings.TrimSpace(cfg.APIKey),
		doer:    doer,
		logger:  logger,
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	Temperature     float64 `json:"temperature"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

func (b *GeminiBackend) ID() domain.BackendID { return domain.BackendCloudPrimary }

func (b *GeminiBackend) Generate(ctx context.Context, req domain.BackendRequest) (string, error) {
	model := pickModel(req.Model, b.model)
	body := geminiRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: req.FullPrompt()}},
		}},
		GenerationConfig: geminiGenerationConfig{
			MaxOutputTokens: req.MaxTokens,
			Temperature:     req.Temperature,
		},
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", b.baseURL, url.PathEscape(strings.TrimPrefix(model, "models/")))
	status, raw, err := postJSON(ctx, b.doer, endpoint, body, b.authHeader())
	if err != nil {
		return "", err
	}
	if !isSuccess(status) {
		b.logger.Warn("gemini returned non-success status", "status", status, "model", model)
	}
	return Normalize(raw, geminiStrategies), nil
}

func (b *GeminiBackend) authHeader() http.Header {
	if strings.HasPrefix(b.apiKey, apiKeyPrefix) {
		h := http.Header{}
		h.Set("x-goog-api-key", b.apiKey)
		return h
	}
	return bearer(b.apiKey)
}
