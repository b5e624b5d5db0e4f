// Package resilient wraps a single HTTP call with bounded retry and
// exponential backoff with jitter. It knows nothing about backends or tasks.
package resilient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/manthysbr/muse/internal/core/domain"
)

// Doer is the part of *http.Client the transport depends on.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds retry settings.
type Config struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// BaseDelay is the delay before the first retry; it doubles for each further retry.
	BaseDelay time.Duration
	// MaxJitter bounds the random delay added to every backoff, exclusive.
	MaxJitter time.Duration
}

// DefaultConfig returns the standard retry envelope: 5 retries, 500ms base, up to 200ms jitter.
func DefaultConfig() Config {
	return Config{
		MaxRetries: 5,
		BaseDelay:  500 * time.Millisecond,
		MaxJitter:  200 * time.Millisecond,
	}
}

// FromDomain converts the application retry settings.
func FromDomain(rc domain.RetryConfig) Config {
	cfg := Config{MaxRetries: rc.MaxRetries, BaseDelay: rc.BaseDelay, MaxJitter: rc.MaxJitter}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return cfg
}

// StatusError is a server-side (5xx) response that was retried.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("server error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("server error: status %d: %s", e.StatusCode, e.Body)
}

// ExhaustedError is returned once every attempt failed. Err is the last failure.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

func (e *ExhaustedError) Is(target error) bool {
	return target == domain.ErrTransportExhausted
}

// Transport retries connection failures and 5xx responses. Other responses,
// including 4xx, are handed back untouched. A Transport holds no per-call
// state and is safe for concurrent use.
type Transport struct {
	client Doer
	cfg    Config
	logger *slog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func(max time.Duration) time.Duration
}

// Option configures a Transport.
type Option func(*Transport)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Transport) {
		t.logger = logger
	}
}

// WithSleeper replaces the backoff sleep. Tests use it to observe delays
// without waiting.
func WithSleeper(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(t *Transport) {
		t.sleep = fn
	}
}

// WithJitter replaces the jitter source.
func WithJitter(fn func(max time.Duration) time.Duration) Option {
	return func(t *Transport) {
		t.jitter = fn
	}
}

// New creates a Transport around client.
func New(client Doer, cfg Config, opts ...Option) *Transport {
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}
	t := &Transport{
		client: client,
		cfg:    cfg,
		logger: slog.Default(),
		sleep:  sleepContext,
		jitter: randomJitter,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Delay returns the wait before retry k (1-indexed):
// BaseDelay * 2^(k-1) plus jitter in [0, MaxJitter).
func (t *Transport) Delay(k int) time.Duration {
	if k < 1 {
		k = 1
	}
	shift := k - 1
	if shift > 30 {
		shift = 30
	}
	return t.cfg.BaseDelay<<shift + t.jitter(t.cfg.MaxJitter)
}

// Do sends req, retrying on connection failure or status >= 500 while retries
// remain. The request body is replayed through req.GetBody, which
// http.NewRequest sets for in-memory bodies.
func (t *Transport) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	maxAttempts := t.cfg.MaxRetries + 1
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		attemptReq, err := replay(req, attempt)
		if err != nil {
			return nil, err
		}

		resp, err := t.client.Do(attemptReq)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, fmt.Errorf("request aborted: %w", ctx.Err())
			}
			lastErr = err
		case resp.StatusCode >= http.StatusInternalServerError:
			lastErr = &StatusError{StatusCode: resp.StatusCode, Body: drain(resp.Body)}
		default:
			return resp, nil
		}

		if attempt == maxAttempts {
			break
		}

		delay := t.Delay(attempt)
		t.logger.Debug("request failed, retrying",
			"url", req.URL.Redacted(),
			"attempt", attempt,
			"max_attempts", maxAttempts,
			"backoff", delay,
			"error", lastErr)

		if err := t.sleep(ctx, delay); err != nil {
			return nil, fmt.Errorf("request aborted during backoff: %w", err)
		}
	}

	return nil, &ExhaustedError{Attempts: maxAttempts, Err: lastErr}
}

// replay returns the request to send for the given attempt. The first attempt
// uses req itself; later attempts get a clone with a fresh body.
func replay(req *http.Request, attempt int) (*http.Request, error) {
	if attempt == 1 {
		return req, nil
	}
	clone := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return clone, nil
	}
	if req.GetBody == nil {
		return nil, errors.New("request body cannot be replayed for retry")
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, fmt.Errorf("replay request body: %w", err)
	}
	clone.Body = body
	return clone, nil
}

// drain reads a short snippet of a failed response for diagnostics and closes it.
func drain(body io.ReadCloser) string {
	defer body.Close()
	b, _ := io.ReadAll(io.LimitReader(body, 512))
	return string(b)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func randomJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(max)))
}
