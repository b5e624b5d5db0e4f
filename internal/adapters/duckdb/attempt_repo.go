package duckdb

import (
	"context"
	"fmt"

	"github.com/manthysbr/muse/internal/core/domain"
)

const defaultAttemptLimit = 100

// SaveAttempt appends one routing attempt. Re-saving an ID is a no-op.
func (r *Repository) SaveAttempt(ctx context.Context, a domain.RoutingAttempt) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO routing_attempts (id, request_id, task, backend, position, succeeded,
		                              error_kind, error, duration_ms, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`,
		a.ID,
		a.RequestID,
		string(a.Task),
		string(a.Backend),
		a.Position,
		a.Succeeded,
		string(a.ErrorKind),
		a.Error,
		a.DurationMs,
		a.StartedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert routing attempt: %w", err)
	}
	return nil
}

// ListAttempts returns the most recent attempts, newest first.
func (r *Repository) ListAttempts(ctx context.Context, limit int) ([]domain.RoutingAttempt, error) {
	if limit <= 0 {
		limit = defaultAttemptLimit
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, request_id, task, backend, position, succeeded,
		       error_kind, error, duration_ms, started_at
		FROM routing_attempts
		ORDER BY started_at DESC, position DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list routing attempts: %w", err)
	}
	defer rows.Close()

	out := []domain.RoutingAttempt{}
	for rows.Next() {
		var a domain.RoutingAttempt
		var task, backend, kind string
		err := rows.Scan(&a.ID, &a.RequestID, &task, &backend, &a.Position, &a.Succeeded,
			&kind, &a.Error, &a.DurationMs, &a.StartedAt)
		if err != nil {
			return nil, err
		}
		a.Task = domain.TaskKind(task)
		a.Backend = domain.BackendID(backend)
		a.ErrorKind = domain.ErrorKind(kind)
		out = append(out, a)
	}
	return out, rows.Err()
}
