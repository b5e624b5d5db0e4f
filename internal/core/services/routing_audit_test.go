package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manthysbr/muse/internal/core/domain"
)

type memoryAttemptRepo struct {
	mu       sync.Mutex
	attempts []domain.RoutingAttempt
}

func (r *memoryAttemptRepo) SaveAttempt(_ context.Context, a domain.RoutingAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append(r.attempts, a)
	return nil
}

func (r *memoryAttemptRepo) ListAttempts(_ context.Context, limit int) ([]domain.RoutingAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.RoutingAttempt, 0, len(r.attempts))
	for i := len(r.attempts) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		out = append(out, r.attempts[i])
	}
	return out, nil
}

func TestRoutingAudit_RingBuffer(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	audit := NewRoutingAudit(logger, nil, nil)

	for i := 0; i < maxAuditAttempts+10; i++ {
		audit.RecordAttempt(domain.RoutingAttempt{ID: fmt.Sprintf("a-%d", i), Task: domain.TaskInspire})
	}

	all := audit.Recent(0)
	require.Len(t, all, maxAuditAttempts)
	assert.Equal(t, fmt.Sprintf("a-%d", maxAuditAttempts+9), all[0].ID)
	assert.Equal(t, "a-10", all[len(all)-1].ID)

	assert.Len(t, audit.Recent(5), 5)
}

func TestRoutingAudit_TruncatesErrors(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	audit := NewRoutingAudit(logger, nil, nil)

	long := make([]byte, 2000)
	for i := range long {
		long[i] = 'x'
	}
	audit.RecordAttempt(domain.RoutingAttempt{ID: "a", Error: string(long)})

	got := audit.Recent(1)[0]
	assert.Len(t, got.Error, maxAuditError+3)
}

func TestRoutingAudit_TruncatesOnRuneBoundary(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	audit := NewRoutingAudit(logger, nil, nil)

	audit.RecordAttempt(domain.RoutingAttempt{ID: "a", Error: strings.Repeat("日本", maxAuditError)})

	got := audit.Recent(1)[0]
	assert.True(t, utf8.ValidString(got.Error))
	assert.Equal(t, maxAuditError+3, utf8.RuneCountInString(got.Error))
}

func TestRoutingAudit_PublishesAndPersists(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	bus := NewEventBus(logger)
	repo := &memoryAttemptRepo{}
	audit := NewRoutingAudit(logger, bus, repo)

	ch, unsub := bus.Subscribe("req-1")
	defer unsub()

	audit.RecordAttempt(domain.RoutingAttempt{ID: "a-1", RequestID: "req-1", Task: domain.TaskCritique, Backend: domain.BackendCloudPrimary})
	audit.RecordOutcome(domain.RoutingOutcome{RequestID: "req-1", Task: domain.TaskCritique, Succeeded: true, BackendUsed: domain.BackendCloudPrimary})

	select {
	case evt := <-ch:
		assert.Equal(t, EventTypeAttempt, evt.Type)
		var a domain.RoutingAttempt
		require.NoError(t, json.Unmarshal([]byte(evt.Data), &a))
		assert.Equal(t, "a-1", a.ID)
	case <-time.After(time.Second):
		t.Fatal("no attempt event")
	}
	select {
	case evt := <-ch:
		assert.Equal(t, EventTypeOutcome, evt.Type)
		assert.Contains(t, evt.Data, `"backend_used":"cloud_primary"`)
	case <-time.After(time.Second):
		t.Fatal("no outcome event")
	}

	audit.Wait()
	history, err := audit.History(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "a-1", history[0].ID)
}
