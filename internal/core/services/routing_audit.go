package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/manthysbr/muse/internal/core/domain"
	"github.com/manthysbr/muse/internal/core/ports"
)

const (
	maxAuditAttempts = 500 // ring buffer size
	maxAuditError    = 500 // truncate error text
)

// RoutingRecorder observes the orchestrator's routing decisions.
type RoutingRecorder interface {
	RecordAttempt(attempt domain.RoutingAttempt)
	RecordOutcome(outcome domain.RoutingOutcome)
}

// RoutingAudit keeps the most recent backend attempts in memory, publishes
// them on the EventBus and, when a repository is given, persists them.
// Thread-safe.
type RoutingAudit struct {
	mu       sync.RWMutex
	logger   *slog.Logger
	eventBus *EventBus
	repo     ports.AttemptRepository // optional

	attempts []domain.RoutingAttempt // oldest first
	pending  sync.WaitGroup
}

// NewRoutingAudit creates an audit. eventBus and repo may be nil.
func NewRoutingAudit(logger *slog.Logger, eventBus *EventBus, repo ports.AttemptRepository) *RoutingAudit {
	return &RoutingAudit{
		logger:   logger,
		eventBus: eventBus,
		repo:     repo,
		attempts: make([]domain.RoutingAttempt, 0, maxAuditAttempts),
	}
}

func (a *RoutingAudit) RecordAttempt(attempt domain.RoutingAttempt) {
	attempt.Error = truncate(attempt.Error, maxAuditError)

	a.mu.Lock()
	for len(a.attempts) >= maxAuditAttempts {
		a.attempts = a.attempts[1:]
	}
	a.attempts = append(a.attempts, attempt)
	a.mu.Unlock()

	a.publish(attempt.RequestID, EventTypeAttempt, attempt)

	// Persist asynchronously to avoid blocking the request
	if a.repo != nil {
		a.pending.Add(1)
		go func() {
			defer a.pending.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := a.repo.SaveAttempt(ctx, attempt); err != nil {
				a.logger.Warn("failed to persist routing attempt", "attempt_id", attempt.ID, "error", err)
			}
		}()
	}
}

func (a *RoutingAudit) RecordOutcome(outcome domain.RoutingOutcome) {
	a.publish(outcome.RequestID, EventTypeOutcome, map[string]interface{}{
		"request_id":   outcome.RequestID,
		"task":         outcome.Task,
		"succeeded":    outcome.Succeeded,
		"backend_used": outcome.BackendUsed,
		"error_kind":   outcome.ErrorKind,
		"attempts":     len(outcome.Attempts),
	})
}

// Recent returns up to limit attempts, newest first. limit <= 0 returns all.
func (a *RoutingAudit) Recent(limit int) []domain.RoutingAttempt {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if limit <= 0 || limit > len(a.attempts) {
		limit = len(a.attempts)
	}
	out := make([]domain.RoutingAttempt, 0, limit)
	for i := len(a.attempts) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, a.attempts[i])
	}
	return out
}

// History reads from the repository when one is configured, so attempts
// survive restarts; otherwise it serves the in-memory buffer.
func (a *RoutingAudit) History(ctx context.Context, limit int) ([]domain.RoutingAttempt, error) {
	if a.repo == nil {
		return a.Recent(limit), nil
	}
	return a.repo.ListAttempts(ctx, limit)
}

// Wait blocks until all in-flight persistence writes finished. Call it on
// shutdown, after the last request was served.
func (a *RoutingAudit) Wait() {
	a.pending.Wait()
}

func (a *RoutingAudit) publish(topic string, eventType EventType, data interface{}) {
	if a.eventBus == nil {
		return
	}
	payload, err := json.Marshal(data)
	if err != nil {
		a.logger.Warn("failed to encode routing event", "error", err)
		return
	}
	a.eventBus.Publish(Event{
		Topic:     topic,
		Type:      eventType,
		Data:      string(payload),
		Timestamp: time.Now().UnixMilli(),
	})
}

// truncate cuts s to maxLen runes.
func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen]) + "..."
}
