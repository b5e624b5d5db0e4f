package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/manthysbr/muse/internal/core/domain"
)

// HuggingFaceBackend calls a hosted inference router. It is best-effort and,
// unlike the other adapters, rejects non-2xx statuses and error payloads so
// that exhausted quota or bad credentials trigger fallback instead of
// returning an error body as generated text.
type HuggingFaceBackend struct {
	baseURL string
	model   string
	apiKey  string
	doer    Doer
	logger  *slog.Logger
}

func NewHuggingFaceBackend(cfg domain.BackendConfig, doer Doer, logger *slog.Logger) *HuggingFaceBackend {
	return &HuggingFaceBackend{
		baseURL: trimBaseURL(cfg.BaseURL),
		model:   pickModel(cfg.Model, "mistralai/Mistral-7B-Instruct-v0.2"),
		apiKey:  strings.TrimSpace(cfg.APIKey),
		doer:    doer,
		logger:  logger,
	}
}

type routerParameters struct {
	MaxNewTokens   int     `json:"max_new_tokens,omitempty"`
	Temperature    float64 `json:"temperature"`
	ReturnFullText bool    `json:"return_full_text"`
}

type routerRequest struct {
	Inputs     string           `json:"inputs"`
	Parameters routerParameters `json:"parameters"`
}

func (b *HuggingFaceBackend) ID() domain.BackendID { return domain.BackendRouter }

func (b *HuggingFaceBackend) Generate(ctx context.Context, req domain.BackendRequest) (string, error) {
	model := pickModel(req.Model, b.model)
	body := routerRequest{
		Inputs: req.FullPrompt(),
		Parameters: routerParameters{
			MaxNewTokens: req.MaxTokens,
			Temperature:  req.Temperature,
		},
	}

	status, raw, err := postJSON(ctx, b.doer, fmt.Sprintf("%s/models/%s", b.baseURL, model), body, bearer(b.apiKey))
	if err != nil {
		return "", err
	}
	if !isSuccess(status) {
		return "", &domain.RejectedError{Backend: domain.BackendRouter, Status: status, Reason: snippet(raw)}
	}

	payload, ok := decode(raw)
	if !ok {
		return strings.TrimSpace(string(raw)), nil
	}
	if reason, rejected := routerError(payload); rejected {
		return "", &domain.RejectedError{Backend: domain.BackendRouter, Status: status, Reason: reason}
	}
	return normalizePayload(payload, raw, routerStrategies), nil
}

// routerError reports whether payload is an object carrying an "error" field.
func routerError(payload any) (string, bool) {
	obj, ok := payload.(map[string]any)
	if !ok {
		return "", false
	}
	v, ok := obj["error"]
	if !ok || v == nil {
		return "", false
	}
	if s, ok := v.(string); ok {
		return s, true
	}
	return fmt.Sprint(v), true
}

// snippet keeps at most 200 runes of a response body for error messages.
func snippet(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if utf8.RuneCountInString(s) > 200 {
		s = string([]rune(s)[:200])
	}
	return s
}
