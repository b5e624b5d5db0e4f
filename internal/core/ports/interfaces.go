package ports

import (
	"context"

	"github.com/manthysbr/muse/internal/core/domain"
)

// Backend abstracts one generative-text provider. Implementations build their
// own wire request, send it through the resilient transport and normalize the
// response to plain text. Shape mismatches never produce an error; transport
// failures and explicit rejections do.
type Backend interface {
	// ID returns the backend identity used in routing policies and logs.
	ID() domain.BackendID

	// Generate sends req and returns the normalized text.
	Generate(ctx context.Context, req domain.BackendRequest) (string, error)
}

// ProjectRepository abstracts project persistence (DuckDB).
// Projects are keyed by id and carry an opaque serialized idea tree.
type ProjectRepository interface {
	SaveProject(ctx context.Context, proj domain.Project) error
	GetProject(ctx context.Context, id domain.ProjectID) (domain.Project, error)
	ListProjects(ctx context.Context) ([]domain.Project, error)
	DeleteProject(ctx context.Context, id domain.ProjectID) error
}

// AttemptRepository persists routing attempts for post-hoc audit.
type AttemptRepository interface {
	SaveAttempt(ctx context.Context, attempt domain.RoutingAttempt) error
	ListAttempts(ctx context.Context, limit int) ([]domain.RoutingAttempt, error)
}
