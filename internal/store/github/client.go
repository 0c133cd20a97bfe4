// Package github implements repositories.BlobStore on top of the GitHub
// repository contents API. Each blob is a file; the file's git blob SHA is the
// revision token.
package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"notebin/internal/domain"
	"notebin/internal/domain/repositories"
)

const (
	// DefaultBaseURL is the public GitHub REST endpoint
	DefaultBaseURL = "https://api.github.com"
	// DefaultTimeout bounds every request to the contents API
	DefaultTimeout = 10 * time.Second
	// DefaultMaxBlobBytes is the largest file the contents API returns inline
	DefaultMaxBlobBytes = 1 << 20
	// DefaultUserAgent is sent on every request; GitHub rejects requests without one
	DefaultUserAgent = "notebin"
)

// maxResponseBytes bounds how much of a response body is read (base64 inflates ~4/3)
const maxResponseBytes = 4 << 20

// Config configures a Client
type Config struct {
	BaseURL      string
	Owner        string
	Repo         string
	Branch       string
	Token        string
	UserAgent    string
	Timeout      time.Duration
	MaxBlobBytes int
}

// Client talks to the GitHub contents API
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

var _ repositories.BlobStore = (*Client)(nil)

// NewClient creates a contents API client. Owner, Repo and Token are required.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.Owner == "" || cfg.Repo == "" {
		return nil, errors.New("github store: owner and repo are required")
	}
	if cfg.Token == "" {
		return nil, errors.New("github store: token is missing")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Branch == "" {
		cfg.Branch = "main"
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxBlobBytes <= 0 {
		cfg.MaxBlobBytes = DefaultMaxBlobBytes
	}

	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}, nil
}

// contentsResponse is the subset of the contents API file object we use
type contentsResponse struct {
	Type     string `json:"type"`
	Path     string `json:"path"`
	SHA      string `json:"sha"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// putRequest is the body of PUT /repos/{owner}/{repo}/contents/{path}
type putRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	SHA     string `json:"sha,omitempty"`
	Branch  string `json:"branch"`
}

type putResponse struct {
	Content struct {
		SHA string `json:"sha"`
	} `json:"content"`
}

// apiError is the error body GitHub returns
type apiError struct {
	Message string `json:"message"`
}

// FetchBlob implements repositories.BlobStore
func (c *Client) FetchBlob(ctx context.Context, path string) (*repositories.Blob, error) {
	reqURL := c.contentsURL(path) + "?ref=" + url.QueryEscape(c.cfg.Branch)

	status, body, err := c.do(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &domain.TransportError{Op: "fetch", Err: err}
	}

	switch {
	case status == http.StatusNotFound:
		return nil, domain.ErrBlobNotFound
	case status != http.StatusOK:
		return nil, &domain.TransportError{Op: "fetch", Status: status, Err: errors.New(errorMessage(body))}
	}

	var file contentsResponse
	if err := json.Unmarshal(body, &file); err != nil {
		return nil, &domain.TransportError{Op: "fetch", Status: status, Err: fmt.Errorf("malformed response: %w", err)}
	}
	if file.Type != "" && file.Type != "file" {
		return nil, &domain.TransportError{Op: "fetch", Status: status, Err: fmt.Errorf("%s is a %s, not a file", path, file.Type)}
	}
	if file.Encoding != "base64" {
		// The API switches to encoding "none" for files above 1MB
		return nil, &domain.TransportError{Op: "fetch", Status: status, Err: fmt.Errorf("unsupported encoding %q", file.Encoding)}
	}

	content, err := decodeContent(file.Content)
	if err != nil {
		return nil, &domain.TransportError{Op: "fetch", Status: status, Err: err}
	}

	c.logger.Debug("blob fetched", "path", path, "revision", file.SHA, "bytes", len(content))

	return &repositories.Blob{Content: content, Revision: file.SHA}, nil
}

// WriteBlob implements repositories.BlobStore
func (c *Client) WriteBlob(ctx context.Context, path string, content []byte, revision, message string) (string, error) {
	if len(content) > c.cfg.MaxBlobBytes {
		return "", &domain.TransportError{
			Op:  "write",
			Err: fmt.Errorf("content is %d bytes, limit is %d", len(content), c.cfg.MaxBlobBytes),
		}
	}

	payload, err := json.Marshal(putRequest{
		Message: message,
		Content: base64.StdEncoding.EncodeToString(content),
		SHA:     revision,
		Branch:  c.cfg.Branch,
	})
	if err != nil {
		return "", &domain.TransportError{Op: "write", Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	status, body, err := c.do(ctx, http.MethodPut, c.contentsURL(path), payload)
	if err != nil {
		return "", &domain.TransportError{Op: "write", Err: err}
	}

	switch {
	case status == http.StatusOK || status == http.StatusCreated:
	case status == http.StatusConflict:
		return "", domain.ErrRevisionConflict
	case status == http.StatusUnprocessableEntity && isStaleSHA(body):
		return "", domain.ErrRevisionConflict
	default:
		return "", &domain.TransportError{Op: "write", Status: status, Err: errors.New(errorMessage(body))}
	}

	var resp putResponse
	if err := json.Unmarshal(body, &resp); err != nil || resp.Content.SHA == "" {
		return "", &domain.TransportError{Op: "write", Status: status, Err: errors.New("malformed response: missing content sha")}
	}

	c.logger.Debug("blob written", "path", path, "previous", revision, "revision", resp.Content.SHA)

	return resp.Content.SHA, nil
}

// ListBlobs implements repositories.BlobStore
func (c *Client) ListBlobs(ctx context.Context, dir string) ([]string, error) {
	reqURL := c.contentsURL(dir) + "?ref=" + url.QueryEscape(c.cfg.Branch)

	status, body, err := c.do(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &domain.TransportError{Op: "list", Err: err}
	}

	switch {
	case status == http.StatusNotFound:
		return []string{}, nil
	case status != http.StatusOK:
		return nil, &domain.TransportError{Op: "list", Status: status, Err: errors.New(errorMessage(body))}
	}

	var entries []contentsResponse
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, &domain.TransportError{Op: "list", Status: status, Err: fmt.Errorf("malformed response: %w", err)}
	}

	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type == "file" {
			paths = append(paths, e.Path)
		}
	}
	return paths, nil
}

// do executes a request and returns the status and (bounded) body
func (c *Client) do(ctx context.Context, method, reqURL string, payload []byte) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "token "+c.cfg.Token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}

	return resp.StatusCode, body, nil
}

// contentsURL builds /repos/{owner}/{repo}/contents/{path} with each segment escaped
func (c *Client) contentsURL(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s",
		c.cfg.BaseURL,
		url.PathEscape(c.cfg.Owner),
		url.PathEscape(c.cfg.Repo),
		strings.Join(segments, "/"),
	)
}

// decodeContent decodes the API's base64, which is wrapped at 60 columns
func decodeContent(s string) ([]byte, error) {
	s = strings.NewReplacer("\n", "", "\r", "").Replace(s)
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 content: %w", err)
	}
	return data, nil
}

// isStaleSHA reports whether a 422 body is the API's missing/mismatched sha error
func isStaleSHA(body []byte) bool {
	msg := strings.ToLower(errorMessage(body))
	return strings.Contains(msg, "sha")
}

func errorMessage(body []byte) string {
	var e apiError
	if err := json.Unmarshal(body, &e); err == nil && e.Message != "" {
		return e.Message
	}
	if len(body) > 200 {
		body = body[:200]
	}
	return strings.TrimSpace(string(body))
}
