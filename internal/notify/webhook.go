// Package notify posts chat-webhook messages (Discord-compatible payloads).
// Delivery is fire-and-forget: failures are logged and never reach callers.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"notebin/internal/domain/models"
	"notebin/internal/domain/services"
)

// DefaultTimeout bounds each webhook delivery
const DefaultTimeout = 5 * time.Second

// previewLength is how much record content is included in a message
const previewLength = 200

// Embed is a rich message block
type Embed struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Timestamp   string `json:"timestamp,omitempty"`
	Color       int    `json:"color,omitempty"`
}

// Message is the webhook body
type Message struct {
	Content string  `json:"content"`
	Embeds  []Embed `json:"embeds,omitempty"`
}

// Webhook delivers messages to a single webhook URL
type Webhook struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
	wg         sync.WaitGroup
}

var _ services.Notifier = (*Webhook)(nil)

// NewWebhook creates a webhook notifier
func NewWebhook(url string, logger *slog.Logger) *Webhook {
	return &Webhook{
		url: url,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger: logger,
	}
}

// RecordCreated implements services.Notifier. It returns immediately;
// delivery happens in the background.
func (w *Webhook) RecordCreated(ctx context.Context, record *models.Record) {
	msg := Message{
		Content: "New note created",
		Embeds: []Embed{{
			Title:       record.Title,
			Description: preview(record.Content),
			Timestamp:   record.CreatedAt.UTC().Format(time.RFC3339),
			Color:       0x5865F2,
		}},
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		// detached from the request: the response may be written before delivery
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DefaultTimeout)
		defer cancel()

		if err := w.Send(sendCtx, msg); err != nil {
			w.logger.Warn("webhook delivery failed", "record_id", record.ID, "error", err)
		}
	}()
}

// Send posts a message synchronously
func (w *Webhook) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// Wait blocks until in-flight deliveries finish. Used on shutdown.
func (w *Webhook) Wait() {
	w.wg.Wait()
}

func preview(s string) string {
	r := []rune(s)
	if len(r) <= previewLength {
		return s
	}
	return string(r[:previewLength]) + "…"
}
