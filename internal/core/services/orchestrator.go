package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/manthysbr/muse/internal/core/domain"
)

const (
	maxIdeas         = 3
	maxCritiques     = 3
	titleConcurrency = 3
)

type requestIDKey struct{}

// ContextWithRequestID tags ctx so that every attempt made on its behalf,
// including per-idea title calls, is audited under one request ID.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request ID stored in ctx, if any.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Orchestrator runs a task against the backends of its routing policy, one at
// a time, until one succeeds or the sequence is exhausted.
type Orchestrator struct {
	logger    *slog.Logger
	registry  *BackendRegistry
	prompts   *PromptBuilder
	recorders []RoutingRecorder
}

func NewOrchestrator(logger *slog.Logger, registry *BackendRegistry, prompts *PromptBuilder, recorders ...RoutingRecorder) *Orchestrator {
	return &Orchestrator{
		logger:    logger,
		registry:  registry,
		prompts:   prompts,
		recorders: recorders,
	}
}

// Run walks the policy sequence for task. Any adapter error, or blank output,
// moves on to the next backend; running past the end yields an outcome with
// ErrorKind ai_service_unavailable. Attempts never overlap.
func (o *Orchestrator) Run(ctx context.Context, task domain.TaskKind, req domain.BackendRequest) domain.RoutingOutcome {
	requestID := RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.New().String()
	}

	outcome := domain.RoutingOutcome{
		RequestID: requestID,
		Task:      task,
		Attempts:  []domain.RoutingAttempt{},
	}

	var lastErr error
	for position, id := range o.registry.Policy().For(task) {
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}
		backend, ok := o.registry.Get(id)
		if !ok {
			continue
		}

		start := time.Now()
		text, err := backend.Generate(ctx, req)
		if err == nil && strings.TrimSpace(text) == "" {
			err = &domain.RejectedError{Backend: id, Reason: "empty output"}
		}

		attempt := domain.RoutingAttempt{
			ID:         uuid.New().String(),
			RequestID:  requestID,
			Task:       task,
			Backend:    id,
			Position:   position,
			Succeeded:  err == nil,
			DurationMs: time.Since(start).Milliseconds(),
			StartedAt:  start,
		}
		if err != nil {
			attempt.ErrorKind = domain.KindOf(err)
			attempt.Error = err.Error()
		}
		outcome.Attempts = append(outcome.Attempts, attempt)
		o.recordAttempt(attempt)

		if err == nil {
			o.logger.Info("backend attempt succeeded",
				"request_id", requestID,
				"task", task,
				"backend", id,
				"position", position,
				"duration_ms", attempt.DurationMs)
			outcome.Succeeded = true
			outcome.BackendUsed = id
			outcome.Output = strings.TrimSpace(text)
			o.recordOutcome(outcome)
			return outcome
		}

		o.logger.Warn("backend attempt failed, trying next backend",
			"request_id", requestID,
			"task", task,
			"backend", id,
			"position", position,
			"duration_ms", attempt.DurationMs,
			"error_kind", attempt.ErrorKind,
			"error", err)
		lastErr = err
	}

	outcome.Err = &domain.ServiceError{Task: task, Attempts: len(outcome.Attempts), Last: lastErr}
	outcome.ErrorKind = domain.KindAIServiceUnavailable
	o.logger.Error("all backends failed",
		"request_id", requestID,
		"task", task,
		"attempts", len(outcome.Attempts),
		"error", lastErr)
	o.recordOutcome(outcome)
	return outcome
}

// InspireResult is the response to an inspire request.
type InspireResult struct {
	Raw     string           `json:"raw"`
	Ideas   []domain.Idea    `json:"ideas"`
	Backend domain.BackendID `json:"-"`
}

// SynthesisResult is the response to a synthesize request.
type SynthesisResult struct {
	Synthesized string           `json:"synthesized"`
	Backend     domain.BackendID `json:"-"`
}

// CritiqueResult is the response to a critique request.
type CritiqueResult struct {
	Critique []string         `json:"critique"`
	Backend  domain.BackendID `json:"-"`
}

// TitleResult is the response to a refine-title request.
type TitleResult struct {
	Title   string           `json:"title"`
	Backend domain.BackendID `json:"-"`
}

// Inspire generates up to three ideas from content and gives each a title.
// Titles are generated concurrently; a failed title falls back to one derived
// from the idea's own text and never fails the request.
func (o *Orchestrator) Inspire(ctx context.Context, content, dom string) (InspireResult, error) {
	req, err := domain.NewGenerationRequest(domain.TaskInspire, dom, content)
	if err != nil {
		return InspireResult{}, err
	}

	outcome := o.Run(ctx, req.Task(), o.prompts.Build(req))
	if !outcome.Succeeded {
		return InspireResult{}, outcome.Err
	}

	items := CompactItems(ParseNumberedList(outcome.Output))
	if len(items) == 0 {
		return InspireResult{}, fmt.Errorf("inspire: %w", domain.ErrParseFailure)
	}
	if len(items) > maxIdeas {
		items = items[:maxIdeas]
	}

	ideas := make([]domain.Idea, len(items))
	var g errgroup.Group
	g.SetLimit(titleConcurrency)
	for i, item := range items {
		g.Go(func() error {
			title, err := o.RefineTitle(ctx, item, req.Domain())
			if err != nil {
				o.logger.Warn("title generation failed, using fallback title",
					"request_id", outcome.RequestID,
					"idea", i,
					"error", err)
				title = TitleResult{Title: FallbackTitle(item)}
			}
			ideas[i] = domain.Idea{Text: item, Title: title.Title}
			return nil
		})
	}
	_ = g.Wait()

	return InspireResult{
		Raw:     outcome.Output,
		Ideas:   ideas,
		Backend: outcome.BackendUsed,
	}, nil
}

// Synthesize merges two or three concepts into one idea.
func (o *Orchestrator) Synthesize(ctx context.Context, concepts []string, dom string) (SynthesisResult, error) {
	req, err := domain.NewGenerationRequest(domain.TaskSynthesize, dom, concepts...)
	if err != nil {
		return SynthesisResult{}, err
	}

	outcome := o.Run(ctx, req.Task(), o.prompts.Build(req))
	if !outcome.Succeeded {
		return SynthesisResult{}, outcome.Err
	}
	return SynthesisResult{Synthesized: outcome.Output, Backend: outcome.BackendUsed}, nil
}

// Critique returns up to three critique points. Content that cannot be split
// into points is a parse failure and is not retried on another backend.
func (o *Orchestrator) Critique(ctx context.Context, content, dom string) (CritiqueResult, error) {
	req, err := domain.NewGenerationRequest(domain.TaskCritique, dom, content)
	if err != nil {
		return CritiqueResult{}, err
	}

	outcome := o.Run(ctx, req.Task(), o.prompts.Build(req))
	if !outcome.Succeeded {
		return CritiqueResult{}, outcome.Err
	}

	items := CompactItems(ParseNumberedList(outcome.Output))
	if len(items) == 0 {
		return CritiqueResult{}, fmt.Errorf("critique: %w", domain.ErrParseFailure)
	}
	if len(items) > maxCritiques {
		items = items[:maxCritiques]
	}
	return CritiqueResult{Critique: items, Backend: outcome.BackendUsed}, nil
}

// RefineTitle produces a short title for content. A reply that cleans up to
// nothing is replaced by a title derived from content.
func (o *Orchestrator) RefineTitle(ctx context.Context, content, dom string) (TitleResult, error) {
	req, err := domain.NewGenerationRequest(domain.TaskRefineTitle, dom, content)
	if err != nil {
		return TitleResult{}, err
	}

	outcome := o.Run(ctx, req.Task(), o.prompts.Build(req))
	if !outcome.Succeeded {
		return TitleResult{}, outcome.Err
	}

	title := CleanTitle(outcome.Output)
	if title == "" {
		title = FallbackTitle(req.Content())
	}
	return TitleResult{Title: title, Backend: outcome.BackendUsed}, nil
}

func (o *Orchestrator) recordAttempt(attempt domain.RoutingAttempt) {
	for _, r := range o.recorders {
		r.RecordAttempt(attempt)
	}
}

func (o *Orchestrator) recordOutcome(outcome domain.RoutingOutcome) {
	for _, r := range o.recorders {
		r.RecordOutcome(outcome)
	}
}
