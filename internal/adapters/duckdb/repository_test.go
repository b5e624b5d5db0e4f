package duckdb

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manthysbr/muse/internal/core/domain"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "muse.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestRepository_Projects(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created := time.Now().UTC().Truncate(time.Millisecond)
	proj := domain.Project{
		ID:        domain.ProjectID("proj-1"),
		Name:      "Board",
		Tree:      json.RawMessage(`{"nodes":[{"id":"a","text":"seed"}]}`),
		CreatedAt: created,
		UpdatedAt: created,
	}

	// 1. Save
	require.NoError(t, repo.SaveProject(ctx, proj))

	// 2. Get
	got, err := repo.GetProject(ctx, proj.ID)
	require.NoError(t, err)
	assert.Equal(t, proj.ID, got.ID)
	assert.Equal(t, "Board", got.Name)
	assert.JSONEq(t, string(proj.Tree), string(got.Tree))
	assert.True(t, created.Equal(got.CreatedAt))

	// 3. Update keeps created_at
	proj.Name = "Renamed"
	proj.CreatedAt = created.Add(time.Hour)
	proj.UpdatedAt = created.Add(time.Minute)
	require.NoError(t, repo.SaveProject(ctx, proj))

	got, err = repo.GetProject(ctx, proj.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.True(t, created.Equal(got.CreatedAt))
	assert.True(t, proj.UpdatedAt.Equal(got.UpdatedAt))

	// 4. List, newest update first
	other := domain.Project{
		ID:        domain.ProjectID("proj-2"),
		Name:      "Older",
		Tree:      json.RawMessage(`{}`),
		CreatedAt: created.Add(-time.Hour),
		UpdatedAt: created.Add(-time.Hour),
	}
	require.NoError(t, repo.SaveProject(ctx, other))

	list, err := repo.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, proj.ID, list[0].ID)
	assert.Equal(t, other.ID, list[1].ID)

	// 5. Delete
	require.NoError(t, repo.DeleteProject(ctx, proj.ID))
	_, err = repo.GetProject(ctx, proj.ID)
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)
	assert.ErrorIs(t, repo.DeleteProject(ctx, proj.ID), domain.ErrProjectNotFound)
}

func TestRepository_ListProjectsEmpty(t *testing.T) {
	repo := newTestRepo(t)

	list, err := repo.ListProjects(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestRepository_Attempts(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	start := time.Now().UTC().Truncate(time.Millisecond)

	failed := domain.RoutingAttempt{
		ID:         "att-1",
		RequestID:  "req-1",
		Task:       domain.TaskInspire,
		Backend:    domain.BackendLocal,
		Position:   0,
		ErrorKind:  domain.KindTransportExhausted,
		Error:      "connection refused",
		DurationMs: 1200,
		StartedAt:  start,
	}
	ok := domain.RoutingAttempt{
		ID:         "att-2",
		RequestID:  "req-1",
		Task:       domain.TaskInspire,
		Backend:    domain.BackendCloudPrimary,
		Position:   1,
		Succeeded:  true,
		DurationMs: 800,
		StartedAt:  start.Add(1200 * time.Millisecond),
	}
	require.NoError(t, repo.SaveAttempt(ctx, failed))
	require.NoError(t, repo.SaveAttempt(ctx, ok))
	require.NoError(t, repo.SaveAttempt(ctx, ok), "saving the same attempt twice is ignored")

	list, err := repo.ListAttempts(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, "att-2", list[0].ID)
	assert.True(t, list[0].Succeeded)
	assert.Equal(t, domain.BackendCloudPrimary, list[0].Backend)
	assert.Equal(t, domain.KindNone, list[0].ErrorKind)

	assert.Equal(t, "att-1", list[1].ID)
	assert.False(t, list[1].Succeeded)
	assert.Equal(t, domain.TaskInspire, list[1].Task)
	assert.Equal(t, domain.KindTransportExhausted, list[1].ErrorKind)
	assert.Equal(t, "connection refused", list[1].Error)
	assert.Equal(t, int64(1200), list[1].DurationMs)
	assert.True(t, start.Equal(list[1].StartedAt))

	limited, err := repo.ListAttempts(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestRepository_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "muse.db")
	ctx := context.Background()

	repo, err := NewRepository(path)
	require.NoError(t, err)
	require.NoError(t, repo.SaveProject(ctx, domain.Project{
		ID:        "proj-keep",
		Name:      "Persisted",
		Tree:      json.RawMessage(`{}`),
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}))
	require.NoError(t, repo.Close())

	repo, err = NewRepository(path)
	require.NoError(t, err)
	defer repo.Close()

	got, err := repo.GetProject(ctx, "proj-keep")
	require.NoError(t, err)
	assert.Equal(t, "Persisted", got.Name)
}
