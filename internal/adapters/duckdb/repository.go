// Package duckdb persists projects and routing attempts in an embedded DuckDB file.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/manthysbr/muse/internal/core/ports"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS projects (
	id         VARCHAR PRIMARY KEY,
	name       VARCHAR NOT NULL,
	tree       VARCHAR NOT NULL,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS routing_attempts (
	id          VARCHAR PRIMARY KEY,
	request_id  VARCHAR NOT NULL,
	task        VARCHAR NOT NULL,
	backend     VARCHAR NOT NULL,
	position    INTEGER NOT NULL,
	succeeded   BOOLEAN NOT NULL,
	error_kind  VARCHAR NOT NULL DEFAULT '',
	error       VARCHAR NOT NULL DEFAULT '',
	duration_ms BIGINT NOT NULL,
	started_at  TIMESTAMP NOT NULL
)`,
}

type Repository struct {
	db *sql.DB
}

var (
	_ ports.ProjectRepository = (*Repository)(nil)
	_ ports.AttemptRepository = (*Repository)(nil)
)

// NewRepository opens (or creates) the database at path and applies the
// schema. An empty path gives an in-memory database.
func NewRepository(path string) (*Repository, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}

	r := &Repository{db: db}
	if err := r.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repository) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}
