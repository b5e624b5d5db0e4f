package domain

import (
	"fmt"
	"strings"
)

// BackendID names one generative-text provider.
type BackendID string

const (
	BackendLocal          BackendID = "local"           // Ollama-compatible inference server
	BackendCloudPrimary   BackendID = "cloud_primary"   // Gemini generateContent API
	BackendCloudSecondary BackendID = "cloud_secondary" // OpenAI-compatible chat completions
	BackendRouter         BackendID = "router"          // hosted inference router, best-effort
)

// AllBackends returns every backend in its default fallback order.
func AllBackends() []BackendID {
	return []BackendID{BackendLocal, BackendCloudPrimary, BackendCloudSecondary, BackendRouter}
}

// ParseBackendID accepts canonical IDs as well as provider names.
func ParseBackendID(s string) (BackendID, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "local", "ollama":
		return BackendLocal, nil
	case "cloud_primary", "cloud-primary", "gemini", "google":
		return BackendCloudPrimary, nil
	case "cloud_secondary", "cloud-secondary", "openai":
		return BackendCloudSecondary, nil
	case "router", "huggingface", "hf":
		return BackendRouter, nil
	}
	return "", fmt.Errorf("unknown backend %q", s)
}

// BackendRequest is what the orchestrator hands to a backend adapter.
type BackendRequest struct {
	System      string  // persona instruction; adapters without a system slot prepend it
	Prompt      string  // user text
	MaxTokens   int     // generation cap
	Model       string  // empty = adapter default
	Temperature float64 // sampling temperature
}

// FullPrompt joins the instruction and user text for single-prompt wire formats.
func (r BackendRequest) FullPrompt() string {
	if strings.TrimSpace(r.System) == "" {
		return r.Prompt
	}
	return r.System + "\n\n" + r.Prompt
}
