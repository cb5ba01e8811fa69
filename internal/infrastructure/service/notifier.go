// Package service holds infrastructure adapters that sit between the
// application layer and external delivery channels.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Rashid-RG/gemini-lms-sub003/pkg/circuitbreaker"
)

// Notification is a message for a student or operator.
type Notification struct {
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
}

// Notifier delivers notifications. Delivery is best effort everywhere in the
// pipeline: wrap concrete notifiers in BestEffortNotifier so a delivery
// failure can never fail the operation that triggered it.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// ══════════════════════════════════════════════════════════════════════════════
// LOG NOTIFIER
// ══════════════════════════════════════════════════════════════════════════════

// LogNotifier writes notifications to the structured log. Used in
// development and as the fallback channel.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a new LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (s *LogNotifier) Notify(ctx context.Context, n Notification) error {
	s.logger.Info("notification",
		"recipient", n.Recipient,
		"subject", n.Subject,
		"body", n.Body,
	)
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// WEBHOOK NOTIFIER
// ══════════════════════════════════════════════════════════════════════════════

// WebhookNotifier posts notifications to an HTTP endpoint. The channel is
// guarded by a circuit breaker: losing notifications during an outage is
// acceptable, hammering a dead endpoint is not.
type WebhookNotifier struct {
	url        string
	httpClient *http.Client
	breaker    *circuitbreaker.CircuitBreaker
	logger     *slog.Logger
}

// NewWebhookNotifier creates a new WebhookNotifier.
func NewWebhookNotifier(url string, logger *slog.Logger) *WebhookNotifier {
	if logger == nil {
		logger = slog.Default()
	}

	return &WebhookNotifier{
		url: url,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		breaker: circuitbreaker.NotifierBreaker(func(name string, from, to circuitbreaker.State) {
			logger.Warn("circuit state changed", "breaker", name, "from", from, "to", to)
		}),
		logger: logger,
	}
}

func (s *WebhookNotifier) Notify(ctx context.Context, n Notification) error {
	return s.breaker.Execute(ctx, func(ctx context.Context) error {
		payload, err := json.Marshal(n)
		if err != nil {
			return fmt.Errorf("marshal notification: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("deliver notification: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			return fmt.Errorf("deliver notification: status %d", resp.StatusCode)
		}

		return nil
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// BEST EFFORT WRAPPER
// ══════════════════════════════════════════════════════════════════════════════

// BestEffortNotifier wraps a Notifier and swallows delivery errors after
// logging them. Every notification path in the pipeline goes through this
// wrapper: a failed "assignment graded" message must never fail the grading.
type BestEffortNotifier struct {
	inner  Notifier
	logger *slog.Logger
}

// NewBestEffortNotifier creates a new BestEffortNotifier.
func NewBestEffortNotifier(inner Notifier, logger *slog.Logger) *BestEffortNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &BestEffortNotifier{inner: inner, logger: logger}
}

func (s *BestEffortNotifier) Notify(ctx context.Context, n Notification) error {
	if err := s.inner.Notify(ctx, n); err != nil {
		s.logger.Error("notification delivery failed",
			"recipient", n.Recipient,
			"subject", n.Subject,
			"error", err,
		)
	}
	return nil
}
