package services

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manthysbr/muse/internal/core/domain"
)

func TestBackendProbe_Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		_, _ = w.Write([]byte(`{"models":[{"name":"qwen2.5:latest"},{"name":"llama3.2:latest"}]}`))
	}))
	defer srv.Close()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	cfg, backends := registryFixture()
	cfg.Providers.Local.BaseURL = srv.URL

	probe := NewBackendProbe(logger, NewBackendRegistry(logger, cfg, backends))
	statuses := probe.Status(context.Background())
	require.Len(t, statuses, 4)

	local := statuses[0]
	assert.Equal(t, domain.BackendLocal, local.ID)
	assert.True(t, local.Configured)
	require.NotNil(t, local.Reachable)
	assert.True(t, *local.Reachable)
	assert.Equal(t, []string{"qwen2.5:latest", "llama3.2:latest"}, local.Models)
	assert.Len(t, local.Tasks, 4)

	secondary := statuses[2]
	assert.Equal(t, domain.BackendCloudSecondary, secondary.ID)
	assert.False(t, secondary.Configured)
	assert.Empty(t, secondary.Tasks)
	assert.Nil(t, secondary.Reachable)
}

func TestBackendProbe_LocalUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	cfg, backends := registryFixture()
	cfg.Providers.Local.BaseURL = url

	statuses := NewBackendProbe(logger, NewBackendRegistry(logger, cfg, backends)).Status(context.Background())
	require.NotNil(t, statuses[0].Reachable)
	assert.False(t, *statuses[0].Reachable)
	assert.Contains(t, statuses[0].Error, "not reachable")
}
