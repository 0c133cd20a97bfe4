package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"notebin/internal/domain/services"
)

// DefaultHookTimeout bounds each call to an external text service
const DefaultHookTimeout = 10 * time.Second

// maxHookResponseBytes bounds how much of a service response is read
const maxHookResponseBytes = 2 << 20

// jsonService posts one JSON field and reads one JSON field back
type jsonService struct {
	name        string
	url         string
	requestKey  string
	responseKey string
	httpClient  *http.Client
}

func newJSONService(name, url, requestKey, responseKey string, timeout time.Duration) *jsonService {
	if timeout <= 0 {
		timeout = DefaultHookTimeout
	}
	return &jsonService{
		name:        name,
		url:         url,
		requestKey:  requestKey,
		responseKey: responseKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Name implements services.ContentHook
func (s *jsonService) Name() string {
	return s.name
}

// Transform implements services.ContentHook
func (s *jsonService) Transform(ctx context.Context, text string) (string, error) {
	payloadBytes, err := json.Marshal(map[string]string{s.requestKey: text})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payloadBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }() // Error ignored: response consumed

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxHookResponseBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%s error (status %d)", s.name, resp.StatusCode)
	}

	var parsed map[string]json.RawMessage
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	raw, ok := parsed[s.responseKey]
	if !ok {
		return "", fmt.Errorf("response has no %q field", s.responseKey)
	}

	var out string
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("field %q is not a string: %w", s.responseKey, err)
	}
	if out == "" {
		return "", errors.New("service returned empty text")
	}
	return out, nil
}

// NewObfuscationHook calls a script obfuscation service:
// POST {"script": ...} -> {"obfuscated": ...}
func NewObfuscationHook(url string, timeout time.Duration) services.ContentHook {
	return newJSONService("obfuscator", url, "script", "obfuscated", timeout)
}

// NewFilterHook calls a text filter (e.g. profanity) service:
// POST {"text": ...} -> {"filtered": ...}
func NewFilterHook(url string, timeout time.Duration) services.ContentHook {
	return newJSONService("filter", url, "text", "filtered", timeout)
}
