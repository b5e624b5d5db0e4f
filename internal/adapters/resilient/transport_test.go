package resilient

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manthysbr/muse/internal/core/domain"
)

type fakeDoer struct {
	calls int
	fn    func(call int, req *http.Request) (*http.Response, error)
}

func (f *fakeDoer) Do(req *http.Request) (*http.Response, error) {
	f.calls++
	return f.fn(f.calls, req)
}

func response(status int, body string) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(body))}
}

func newTestTransport(doer Doer, cfg Config, delays *[]time.Duration) *Transport {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	return New(doer, cfg,
		WithLogger(logger),
		WithJitter(func(time.Duration) time.Duration { return 0 }),
		WithSleeper(func(_ context.Context, d time.Duration) error {
			*delays = append(*delays, d)
			return nil
		}),
	)
}

func TestTransport_RetriesConnectionErrorsUntilExhausted(t *testing.T) {
	doer := &fakeDoer{fn: func(int, *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	}}
	var delays []time.Duration
	tr := newTestTransport(doer, Config{MaxRetries: 3, BaseDelay: 100 * time.Millisecond}, &delays)

	req, err := http.NewRequest(http.MethodGet, "http://backend.invalid/x", nil)
	require.NoError(t, err)

	resp, err := tr.Do(req)
	assert.Nil(t, resp)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrTransportExhausted))
	assert.Contains(t, err.Error(), "connection refused")

	var exhausted *ExhaustedError
	require.True(t, errors.As(err, &exhausted))
	assert.Equal(t, 4, exhausted.Attempts)
	assert.Equal(t, 4, doer.calls)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond}, delays)
}

func TestTransport_PersistentServerErrorExhaustsRetries(t *testing.T) {
	doer := &fakeDoer{fn: func(int, *http.Request) (*http.Response, error) {
		return response(http.StatusServiceUnavailable, "overloaded"), nil
	}}
	var delays []time.Duration
	tr := newTestTransport(doer, Config{MaxRetries: 3, BaseDelay: 100 * time.Millisecond}, &delays)

	req, _ := http.NewRequest(http.MethodGet, "http://backend.invalid/x", nil)
	resp, err := tr.Do(req)

	assert.Nil(t, resp)
	require.Error(t, err)
	assert.Equal(t, 4, doer.calls)
	assert.Len(t, delays, 3)

	var exhausted *ExhaustedError
	require.True(t, errors.As(err, &exhausted))
	assert.Equal(t, 4, exhausted.Attempts)

	var status *StatusError
	require.True(t, errors.As(exhausted.Err, &status))
	assert.Equal(t, http.StatusServiceUnavailable, status.StatusCode)
	assert.Equal(t, "overloaded", status.Body)
}

func TestTransport_ZeroRetriesMeansSingleAttempt(t *testing.T) {
	doer := &fakeDoer{fn: func(int, *http.Request) (*http.Response, error) {
		return response(http.StatusBadGateway, "upstream down"), nil
	}}
	var delays []time.Duration
	tr := newTestTransport(doer, Config{MaxRetries: 0, BaseDelay: time.Second}, &delays)

	req, _ := http.NewRequest(http.MethodGet, "http://backend.invalid/x", nil)
	_, err := tr.Do(req)

	require.Error(t, err)
	assert.Equal(t, 1, doer.calls)
	assert.Empty(t, delays)

	var status *StatusError
	require.True(t, errors.As(err, &status))
	assert.Equal(t, http.StatusBadGateway, status.StatusCode)
	assert.Equal(t, "upstream down", status.Body)
}

func TestTransport_RecoversAfterServerErrors(t *testing.T) {
	doer := &fakeDoer{fn: func(call int, _ *http.Request) (*http.Response, error) {
		if call < 3 {
			return response(http.StatusServiceUnavailable, ""), nil
		}
		return response(http.StatusOK, "ok"), nil
	}}
	var delays []time.Duration
	tr := newTestTransport(doer, DefaultConfig(), &delays)

	req, _ := http.NewRequest(http.MethodGet, "http://backend.invalid/x", nil)
	resp, err := tr.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 3, doer.calls)
	assert.Len(t, delays, 2)
}

func TestTransport_ClientErrorsPassThrough(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusTooManyRequests} {
		doer := &fakeDoer{fn: func(int, *http.Request) (*http.Response, error) {
			return response(status, `{"error":"nope"}`), nil
		}}
		var delays []time.Duration
		tr := newTestTransport(doer, DefaultConfig(), &delays)

		req, _ := http.NewRequest(http.MethodGet, "http://backend.invalid/x", nil)
		resp, err := tr.Do(req)
		require.NoError(t, err)
		assert.Equal(t, status, resp.StatusCode)
		assert.Equal(t, 1, doer.calls)
		assert.Empty(t, delays)
		resp.Body.Close()
	}
}

func TestTransport_DelayBounds(t *testing.T) {
	tr := New(nil, Config{MaxRetries: 5, BaseDelay: 500 * time.Millisecond, MaxJitter: 200 * time.Millisecond})

	for k := 1; k <= 5; k++ {
		base := 500 * time.Millisecond << (k - 1)
		for i := 0; i < 50; i++ {
			d := tr.Delay(k)
			assert.GreaterOrEqual(t, d, base)
			assert.Less(t, d, base+200*time.Millisecond)
		}
	}
}

func TestTransport_ReplaysBody(t *testing.T) {
	var hits atomic.Int32
	var mu sync.Mutex
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, string(b))
		mu.Unlock()
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	var delays []time.Duration
	tr := newTestTransport(srv.Client(), Config{MaxRetries: 2, BaseDelay: time.Millisecond}, &delays)

	req, err := http.NewRequest(http.MethodPost, srv.URL, strings.NewReader(`{"prompt":"hi"}`))
	require.NoError(t, err)

	resp, err := tr.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, int32(2), hits.Load())
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{`{"prompt":"hi"}`, `{"prompt":"hi"}`}, bodies)
}

func TestTransport_ContextCancelledDuringBackoff(t *testing.T) {
	doer := &fakeDoer{fn: func(int, *http.Request) (*http.Response, error) {
		return nil, errors.New("connection reset")
	}}
	ctx, cancel := context.WithCancel(context.Background())
	tr := New(doer, Config{MaxRetries: 5, BaseDelay: time.Hour}, WithSleeper(func(ctx context.Context, d time.Duration) error {
		cancel()
		return sleepContext(ctx, d)
	}))

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, "http://backend.invalid/x", nil)
	_, err := tr.Do(req)

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, errors.Is(err, domain.ErrTransportExhausted))
	assert.Equal(t, 1, doer.calls)
}
