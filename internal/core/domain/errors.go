package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures inside the orchestration core.
type ErrorKind string

const (
	KindNone                 ErrorKind = ""
	KindTransportExhausted   ErrorKind = "transport_exhausted"
	KindBackendRejected      ErrorKind = "backend_rejected"
	KindParseFailure         ErrorKind = "parse_failure"
	KindValidation           ErrorKind = "validation_error"
	KindAIServiceUnavailable ErrorKind = "ai_service_unavailable"
	KindInternal             ErrorKind = "internal"
)

// ErrorCode is the stable code returned to API callers.
type ErrorCode string

const (
	CodeMissingContent ErrorCode = "MISSING_CONTENT"
	CodeInvalidInput   ErrorCode = "INVALID_INPUT"
	CodeAIService      ErrorCode = "AI_SERVICE_ERROR"
	CodeParse          ErrorCode = "PARSE_ERROR"
	CodeInternal       ErrorCode = "INTERNAL_ERROR"
)

var (
	ErrTransportExhausted   = errors.New("transport retries exhausted")
	ErrBackendRejected      = errors.New("backend rejected request")
	ErrParseFailure         = errors.New("no items could be parsed from generated text")
	ErrValidation           = errors.New("invalid input")
	ErrAIServiceUnavailable = errors.New("ai service unavailable")
)

// ValidationError reports a caller contract violation. It is raised before any
// backend is contacted.
type ValidationError struct {
	Code    ErrorCode
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// RejectedError is an application-level refusal reported by a backend
// (quota, bad credentials, malformed request).
type RejectedError struct {
	Backend BackendID
	Status  int
	Reason  string
}

func (e *RejectedError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s rejected request (status %d): %s", e.Backend, e.Status, e.Reason)
	}
	return fmt.Sprintf("%s rejected request: %s", e.Backend, e.Reason)
}

func (e *RejectedError) Is(target error) bool {
	return target == ErrBackendRejected
}

// ServiceError is returned when every backend in a task's policy failed.
// Last holds the final backend error for logs; it is never shown to callers
// in production mode.
type ServiceError struct {
	Task     TaskKind
	Attempts int
	Last     error
}

func (e *ServiceError) Error() string {
	if e.Attempts == 0 {
		return fmt.Sprintf("no backend configured for task %s", e.Task)
	}
	return fmt.Sprintf("all %d backends failed for task %s: %v", e.Attempts, e.Task, e.Last)
}

func (e *ServiceError) Is(target error) bool {
	return target == ErrAIServiceUnavailable
}

func (e *ServiceError) Unwrap() error {
	return e.Last
}

// KindOf maps an error onto the core taxonomy.
// Unavailability is checked first because a ServiceError wraps backend errors.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrAIServiceUnavailable):
		return KindAIServiceUnavailable
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrParseFailure):
		return KindParseFailure
	case errors.Is(err, ErrBackendRejected):
		return KindBackendRejected
	case errors.Is(err, ErrTransportExhausted):
		return KindTransportExhausted
	default:
		return KindInternal
	}
}
