package duckdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/manthysbr/muse/internal/core/domain"
)

// SaveProject inserts or replaces a project. created_at is kept from the
// first save.
func (r *Repository) SaveProject(ctx context.Context, proj domain.Project) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, tree, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name       = excluded.name,
			tree       = excluded.tree,
			updated_at = excluded.updated_at`,
		string(proj.ID),
		proj.Name,
		string(proj.Tree),
		proj.CreatedAt.UTC(),
		proj.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert project: %w", err)
	}
	return nil
}

func (r *Repository) GetProject(ctx context.Context, id domain.ProjectID) (domain.Project, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, tree, created_at, updated_at
		FROM projects WHERE id = ?`, string(id))

	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Project{}, fmt.Errorf("%w: %s", domain.ErrProjectNotFound, id)
	}
	if err != nil {
		return domain.Project{}, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

// ListProjects returns every project, most recently updated first.
func (r *Repository) ListProjects(ctx context.Context) ([]domain.Project, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, tree, created_at, updated_at
		FROM projects
		ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	out := []domain.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repository) DeleteProject(ctx context.Context, id domain.ProjectID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, string(id))
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrProjectNotFound, id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(s scanner) (domain.Project, error) {
	var p domain.Project
	var id, tree string
	if err := s.Scan(&id, &p.Name, &tree, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return domain.Project{}, err
	}
	p.ID = domain.ProjectID(id)
	p.Tree = json.RawMessage(tree)
	return p, nil
}
