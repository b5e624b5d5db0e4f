package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// TaskKind identifies one of the creative-generation tasks the orchestrator serves.
type TaskKind string

const (
	TaskInspire     TaskKind = "inspire"      // divergent ideas from one seed
	TaskSynthesize  TaskKind = "synthesize"   // merge 2-3 concepts into one
	TaskCritique    TaskKind = "critique"     // three numbered critiques
	TaskRefineTitle TaskKind = "refine_title" // short label for a piece of text
)

// MaxInputLength caps the size of any single input, in characters.
const MaxInputLength = 4000

// AllTasks returns every task kind in a stable order.
func AllTasks() []TaskKind {
	return []TaskKind{TaskInspire, TaskSynthesize, TaskCritique, TaskRefineTitle}
}

// ParseTaskKind accepts the canonical names plus the dashed spelling used on the wire.
func ParseTaskKind(s string) (TaskKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "inspire":
		return TaskInspire, nil
	case "synthesize", "synthesise":
		return TaskSynthesize, nil
	case "critique":
		return TaskCritique, nil
	case "refine_title", "refine-title", "title":
		return TaskRefineTitle, nil
	}
	return "", fmt.Errorf("unknown task %q", s)
}

// Valid reports whether t is one of the known task kinds.
func (t TaskKind) Valid() bool {
	switch t {
	case TaskInspire, TaskSynthesize, TaskCritique, TaskRefineTitle:
		return true
	}
	return false
}

// inputBounds returns the accepted [min, max] input count for a task.
func (t TaskKind) inputBounds() (int, int) {
	if t == TaskSynthesize {
		return 2, 3
	}
	return 1, 1
}

// GenerationRequest is one validated call into the orchestrator.
// Fields are unexported so a request cannot change after validation.
type GenerationRequest struct {
	task   TaskKind
	domain string
	inputs []string
}

// NewGenerationRequest validates the inputs for the given task and returns an
// immutable request. Validation failures are *ValidationError values.
func NewGenerationRequest(task TaskKind, domain string, inputs ...string) (GenerationRequest, error) {
	if !task.Valid() {
		return GenerationRequest{}, &ValidationError{Code: CodeInvalidInput, Field: "task", Message: fmt.Sprintf("unknown task %q", task)}
	}
	lo, hi := task.inputBounds()

	if task != TaskSynthesize {
		if len(inputs) == 0 || strings.TrimSpace(inputs[0]) == "" {
			return GenerationRequest{}, &ValidationError{Code: CodeMissingContent, Field: "content", Message: "content is required"}
		}
		if len(inputs) > hi {
			return GenerationRequest{}, &ValidationError{Code: CodeInvalidInput, Field: "content", Message: "exactly one content value is accepted"}
		}
	} else if len(inputs) < lo || len(inputs) > hi {
		return GenerationRequest{}, &ValidationError{
			Code:    CodeInvalidInput,
			Field:   "concepts",
			Message: fmt.Sprintf("synthesize needs between %d and %d concepts, got %d", lo, hi, len(inputs)),
		}
	}

	cleaned := make([]string, len(inputs))
	for i, in := range inputs {
		in = strings.TrimSpace(in)
		if in == "" {
			return GenerationRequest{}, &ValidationError{Code: CodeInvalidInput, Field: "concepts", Message: fmt.Sprintf("concept %d is empty", i+1)}
		}
		if utf8.RuneCountInString(in) > MaxInputLength {
			return GenerationRequest{}, &ValidationError{Code: CodeInvalidInput, Field: "content", Message: fmt.Sprintf("input exceeds %d characters", MaxInputLength)}
		}
		cleaned[i] = in
	}

	return GenerationRequest{
		task:   task,
		domain: strings.ToLower(strings.TrimSpace(domain)),
		inputs: cleaned,
	}, nil
}

func (r GenerationRequest) Task() TaskKind { return r.task }
func (r GenerationRequest) Domain() string { return r.domain }

// Inputs returns a copy of the validated inputs.
func (r GenerationRequest) Inputs() []string {
	out := make([]string, len(r.inputs))
	copy(out, r.inputs)
	return out
}

// Content returns the first input, which is the whole payload for single-input tasks.
func (r GenerationRequest) Content() string {
	if len(r.inputs) == 0 {
		return ""
	}
	return r.inputs[0]
}

// Idea is one parsed inspiration with its short label.
type Idea struct {
	Text  string `json:"text"`
	Title string `json:"title"`
}
