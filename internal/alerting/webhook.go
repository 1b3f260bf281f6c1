// AeroSentry - Drone Incident Correlation and Evidentiary Fusion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aerosentry

// Package alerting delivers detected patterns to external consumers.
// Notifiers are registered with the pattern analyzer and invoked for
// every emitted pattern.
package alerting

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/aerosentry/internal/logging"
	"github.com/tomtom215/aerosentry/internal/metrics"
	"github.com/tomtom215/aerosentry/internal/models"
)

// Delivery outcomes recorded in metrics.
const (
	outcomeOK          = "ok"
	outcomeError       = "error"
	outcomeBreakerOpen = "breaker_open"
	outcomeRateLimited = "rate_limited"
)

// WebhookConfig configures the webhook notifier.
type WebhookConfig struct {
	URL               string
	Headers           map[string]string
	MaxPerSec         float64
	Burst             int
	BreakerMaxFails   uint32
	BreakerOpenPeriod time.Duration
	Timeout           time.Duration
}

// WebhookPayload is the JSON body posted to the endpoint.
type WebhookPayload struct {
	Pattern   *models.Pattern `json:"pattern"`
	EventType string          `json:"event_type"`
	Timestamp time.Time       `json:"timestamp"`
	Source    string          `json:"source"`
}

// WebhookNotifier posts detected patterns to a webhook endpoint. Delivery
// is rate limited and guarded by a circuit breaker so a failing endpoint
// cannot stall or flood the analyzer's notification path.
type WebhookNotifier struct {
	url     string
	headers map[string]string
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[interface{}]
	enabled bool
	mu      sync.RWMutex
}

// NewWebhookNotifier creates a webhook notifier. The notifier is enabled
// when the URL is non-empty.
func NewWebhookNotifier(cfg WebhookConfig) *WebhookNotifier {
	if cfg.MaxPerSec <= 0 {
		cfg.MaxPerSec = 2
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.BreakerMaxFails == 0 {
		cfg.BreakerMaxFails = 5
	}
	if cfg.BreakerOpenPeriod <= 0 {
		cfg.BreakerOpenPeriod = 30 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	headers := make(map[string]string, len(cfg.Headers))
	for k, v := range cfg.Headers {
		headers[k] = v
	}

	breaker := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:    "alert-webhook",
		Timeout: cfg.BreakerOpenPeriod,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerMaxFails
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("webhook circuit breaker state change")
		},
	})

	return &WebhookNotifier{
		url:     cfg.URL,
		headers: headers,
		enabled: cfg.URL != "",
		limiter: rate.NewLimiter(rate.Limit(cfg.MaxPerSec), cfg.Burst),
		breaker: breaker,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

// Name returns the notifier name.
func (n *WebhookNotifier) Name() string {
	return "webhook"
}

// Enabled reports whether the notifier will attempt delivery.
func (n *WebhookNotifier) Enabled() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.enabled && n.url != ""
}

// SetEnabled enables or disables the notifier.
func (n *WebhookNotifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// BreakerState returns the circuit breaker state for monitoring.
func (n *WebhookNotifier) BreakerState() string {
	return n.breaker.State().String()
}

// Send posts a pattern to the configured endpoint. The call blocks on the
// rate limiter (respecting context cancellation) and fails fast while the
// circuit breaker is open.
func (n *WebhookNotifier) Send(ctx context.Context, pattern *models.Pattern) error {
	n.mu.RLock()
	if !n.enabled || n.url == "" {
		n.mu.RUnlock()
		return nil
	}
	url := n.url
	headers := make(map[string]string, len(n.headers))
	for k, v := range n.headers {
		headers[k] = v
	}
	n.mu.RUnlock()

	if err := n.limiter.Wait(ctx); err != nil {
		metrics.RecordNotification(n.Name(), outcomeRateLimited)
		return fmt.Errorf("webhook rate limit wait: %w", err)
	}

	_, err := n.breaker.Execute(func() (interface{}, error) {
		return nil, n.post(ctx, url, headers, pattern)
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordNotification(n.Name(), outcomeBreakerOpen)
		return fmt.Errorf("webhook circuit open: %w", err)
	case err != nil:
		metrics.RecordNotification(n.Name(), outcomeError)
		return err
	}

	metrics.RecordNotification(n.Name(), outcomeOK)
	return nil
}

func (n *WebhookNotifier) post(ctx context.Context, url string, headers map[string]string, pattern *models.Pattern) error {
	payload := WebhookPayload{
		Pattern:   pattern,
		EventType: "pattern_detected",
		Timestamp: time.Now().UTC(),
		Source:    "aerosentry",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
