package llm

import (
	"context"
	"log/slog"
	"strings"

	"github.com/manthysbr/muse/internal/core/domain"
)

// OpenAIBackend uses an OpenAI-compatible chat completions API.
// Works with: OpenAI, Azure OpenAI, Together AI, LiteLLM, local Ollama /v1, etc.
type OpenAIBackend struct {
	baseURL string
	apiKey  string
	model   string
	doer    Doer
	logger  *slog.Logger
}

// NewOpenAIBackend creates a new OpenAI-compatible backend
func NewOpenAIBackend(cfg domain.BackendConfig, doer Doer, logger *slog.Logger) *OpenAIBackend {
	return &OpenAIBackend{
		baseURL: trimBaseURL(cfg.BaseURL),
		apiKey:  strings.TrimSpace(cfg.APIKey),
		model:   pickModel(cfg.Model, "gpt-4o-mini"),
		doer:    doer,
		logger:  logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

func (b *OpenAIBackend) ID() domain.BackendID { return domain.BackendCloudSecondary }

// Generate sends the persona instruction as the system message and the user
// text as the user message.
func (b *OpenAIBackend) Generate(ctx context.Context, req domain.BackendRequest) (string, error) {
	messages := make([]chatMessage, 0, 2)
	if strings.TrimSpace(req.System) != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	body := chatRequest{
		Model:       pickModel(req.Model, b.model),
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}

	status, raw, err := postJSON(ctx, b.doer, b.baseURL+"/chat/completions", body, bearer(b.apiKey))
	if err != nil {
		return "", err
	}
	if !isSuccess(status) {
		b.logger.Warn("openai returned non-success status", "status", status, "model", body.Model)
	}
	return Normalize(raw, openAIStrategies), nil
}
