package services

import (
	"fmt"
	"strings"

	"github.com/manthysbr/muse/internal/core/domain"
)

// generation settings per task
type taskParams struct {
	maxTokens   int
	temperature float64
}

var taskDefaults = map[domain.TaskKind]taskParams{
	domain.TaskInspire:     {maxTokens: 600, temperature: 0.9},
	domain.TaskSynthesize:  {maxTokens: 500, temperature: 0.8},
	domain.TaskCritique:    {maxTokens: 500, temperature: 0.4},
	domain.TaskRefineTitle: {maxTokens: 40, temperature: 0.3},
}

// PromptBuilder turns a validated request into a backend request, using the
// persona selected by the request's domain as the system instruction.
type PromptBuilder struct {
	personas *domain.PersonaCatalog
}

func NewPromptBuilder(personas *domain.PersonaCatalog) *PromptBuilder {
	return &PromptBuilder{personas: personas}
}

// Build renders the prompt for req.
func (b *PromptBuilder) Build(req domain.GenerationRequest) domain.BackendRequest {
	params := taskDefaults[req.Task()]
	return domain.BackendRequest{
		System:      b.personas.Instruction(req.Domain(), req.Task()),
		Prompt:      userPrompt(req),
		MaxTokens:   params.maxTokens,
		Temperature: params.temperature,
	}
}

func userPrompt(req domain.GenerationRequest) string {
	switch req.Task() {
	case domain.TaskInspire:
		return "Generate 3 distinct ideas inspired by the seed below. " +
			"Answer as a numbered list (1., 2., 3.) with one or two sentences per idea " +
			"and nothing before or after the list.\n\nSeed: " + req.Content()

	case domain.TaskSynthesize:
		var sb strings.Builder
		sb.WriteString("Combine the following concepts into one original idea:\n")
		for i, c := range req.Inputs() {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, c)
		}
		sb.WriteString("\nAnswer with a single short paragraph describing the combined idea.")
		return sb.String()

	case domain.TaskCritique:
		return "Critique the idea below. Answer with exactly 3 numbered points (1., 2., 3.), " +
			"one or two sentences each.\n\nIdea: " + req.Content()

	case domain.TaskRefineTitle:
		return "Write a title of at most 6 words for the text below. " +
			"Answer with the title only, without quotes.\n\nText: " + req.Content()
	}
	return req.Content()
}
