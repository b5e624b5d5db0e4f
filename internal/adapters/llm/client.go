// Package llm holds the generative-text backend adapters. Each adapter builds
// its provider's wire request, sends it through a retrying Doer and normalizes
// the provider's response shape to plain text.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Doer sends one HTTP request. *resilient.Transport satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

const maxResponseBytes = 4 << 20

// postJSON sends body as JSON and returns the status and raw response body.
// Non-2xx statuses are not errors here; each adapter decides what they mean.
func postJSON(ctx context.Context, doer Doer, url string, body any, header http.Header) (int, []byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := doer.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, raw, nil
}

func bearer(key string) http.Header {
	h := http.Header{}
	if key != "" {
		h.Set("Authorization", "Bearer "+key)
	}
	return h
}

func trimBaseURL(baseURL string) string {
	return strings.TrimRight(strings.TrimSpace(baseURL), "/")
}

func pickModel(override, fallback string) string {
	if m := strings.TrimSpace(override); m != "" {
		return m
	}
	return fallback
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
