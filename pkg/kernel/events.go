package kernel

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/oapi-codegen/runtime"

	"github.com/manthysbr/muse/internal/core/domain"
	"github.com/manthysbr/muse/internal/core/services"
)

const (
	defaultAttemptLimit = 50
	maxAttemptLimit     = 500
)

// GET /v1/routing/policy
func (s *Server) handleRoutingPolicy(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"policy":   s.registry.Policy().Snapshot(),
		"eligible": s.registry.Eligible(),
	})
}

// handleRoutingAttempts lists recent backend attempts, newest first.
// GET /v1/routing/attempts?limit=
func (s *Server) handleRoutingAttempts(w http.ResponseWriter, r *http.Request) {
	var limit *int
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &limit); err != nil {
		writeError(w, http.StatusBadRequest, string(domain.CodeInvalidInput), fmt.Sprintf("invalid limit: %v", err))
		return
	}
	n := defaultAttemptLimit
	if limit != nil && *limit > 0 {
		n = min(*limit, maxAttemptLimit)
	}

	attempts, err := s.audit.History(r.Context(), n)
	if err != nil {
		s.logger.Error("failed to list routing attempts", "error", err)
		s.writeTaskError(w, r, err)
		return
	}
	if s.config.Server.Production {
		for i := range attempts {
			attempts[i] = attempts[i].Redacted()
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"attempts": attempts,
		"count":    len(attempts),
	})
}

// handleRoutingEvents streams routing attempts and outcomes as server-sent
// events. With ?request_id= only that request's events are sent.
// GET /v1/routing/events
func (s *Server) handleRoutingEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, string(domain.CodeInternal), "streaming not supported")
		return
	}

	// Subscribed before the 200 is written.
	var (
		ch    <-chan services.Event
		unsub func()
	)
	if topic := strings.TrimSpace(r.URL.Query().Get("request_id")); topic != "" {
		ch, unsub = s.eventBus.Subscribe(topic)
	} else {
		ch, unsub = s.eventBus.SubscribeGlobal()
	}
	defer unsub()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Type, s.eventData(evt))
			flusher.Flush()
		}
	}
}

// eventData strips backend error text from attempt events in production.
func (s *Server) eventData(evt services.Event) string {
	if !s.config.Server.Production || evt.Type != services.EventTypeAttempt {
		return evt.Data
	}
	var attempt domain.RoutingAttempt
	if err := json.Unmarshal([]byte(evt.Data), &attempt); err != nil {
		return evt.Data
	}
	data, err := json.Marshal(attempt.Redacted())
	if err != nil {
		return evt.Data
	}
	return string(data)
}
