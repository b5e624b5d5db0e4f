package domain

import (
	"time"
)

// RoutingPolicy maps each task to its ordered fallback sequence of backends.
// It is constructed once at startup and never mutated.
type RoutingPolicy struct {
	order map[TaskKind][]BackendID
}

// DefaultTaskPreferences is the per-task preference order before eligibility
// filtering. Inspire and title refinement favour the local server (latency, no
// quota); synthesis and critique favour the primary cloud model.
func DefaultTaskPreferences() map[TaskKind][]BackendID {
	localFirst := []BackendID{BackendLocal, BackendCloudPrimary, BackendCloudSecondary, BackendRouter}
	cloudFirst := []BackendID{BackendCloudPrimary, BackendCloudSecondary, BackendLocal, BackendRouter}
	return map[TaskKind][]BackendID{
		TaskInspire:     localFirst,
		TaskRefineTitle: localFirst,
		TaskSynthesize:  cloudFirst,
		TaskCritique:    cloudFirst,
	}
}

// NewRoutingPolicy filters each task's preferences down to eligible backends
// and, when preferred is non-empty and eligible, moves it to the front.
func NewRoutingPolicy(prefs map[TaskKind][]BackendID, eligible func(BackendID) bool, preferred BackendID) RoutingPolicy {
	order := make(map[TaskKind][]BackendID, len(prefs))
	for task, seq := range prefs {
		out := make([]BackendID, 0, len(seq)+1)
		if preferred != "" && eligible(preferred) {
			out = append(out, preferred)
		}
		for _, id := range seq {
			if id == preferred || !eligible(id) || containsBackend(out, id) {
				continue
			}
			out = append(out, id)
		}
		order[task] = out
	}
	return RoutingPolicy{order: order}
}

// For returns a copy of the fallback sequence for task.
func (p RoutingPolicy) For(task TaskKind) []BackendID {
	seq := p.order[task]
	out := make([]BackendID, len(seq))
	copy(out, seq)
	return out
}

// Snapshot returns the whole policy as a plain map, for display.
func (p RoutingPolicy) Snapshot() map[TaskKind][]BackendID {
	out := make(map[TaskKind][]BackendID, len(p.order))
	for task := range p.order {
		out[task] = p.For(task)
	}
	return out
}

func containsBackend(seq []BackendID, id BackendID) bool {
	for _, s := range seq {
		if s == id {
			return true
		}
	}
	return false
}

// RoutingAttempt records one backend attempt made by the orchestrator.
type RoutingAttempt struct {
	ID         string    `json:"id"`
	RequestID  string    `json:"request_id"`
	Task       TaskKind  `json:"task"`
	Backend    BackendID `json:"backend"`
	Position   int       `json:"position"` // 0-based index in the policy sequence
	Succeeded  bool      `json:"succeeded"`
	ErrorKind  ErrorKind `json:"error_kind,omitempty"`
	Error      string    `json:"error,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	StartedAt  time.Time `json:"started_at"`
}

// Redacted returns a copy without the backend's error text. ErrorKind is kept.
func (a RoutingAttempt) Redacted() RoutingAttempt {
	a.Error = ""
	return a
}

// RoutingOutcome is produced once per orchestrator run.
type RoutingOutcome struct {
	RequestID   string           `json:"request_id"`
	Task        TaskKind         `json:"task"`
	BackendUsed BackendID        `json:"backend_used,omitempty"`
	Succeeded   bool             `json:"succeeded"`
	Output      string           `json:"output,omitempty"`
	ErrorKind   ErrorKind        `json:"error_kind,omitempty"`
	Err         error            `json:"-"`
	Attempts    []RoutingAttempt `json:"attempts"`
}
