// AeroSentry - Drone Incident Correlation and Evidentiary Fusion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aerosentry

package alerting

import (
	"context"

	"github.com/tomtom215/aerosentry/internal/logging"
	"github.com/tomtom215/aerosentry/internal/metrics"
	"github.com/tomtom215/aerosentry/internal/models"
)

// LogNotifier writes detected patterns to the structured log. It is
// always available and serves as the delivery channel of last resort
// when no webhook is configured.
type LogNotifier struct{}

// NewLogNotifier creates a log notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

// Name returns the notifier name.
func (n *LogNotifier) Name() string { return "log" }

// Enabled always returns true.
func (n *LogNotifier) Enabled() bool { return true }

// Send logs the pattern.
func (n *LogNotifier) Send(_ context.Context, pattern *models.Pattern) error {
	logging.Info().
		Str("pattern_id", pattern.ID).
		Str("pattern_type", string(pattern.Type)).
		Str("severity", string(pattern.SeverityLabel)).
		Float64("confidence", pattern.Confidence).
		Int("incidents", len(pattern.MemberIncidentIDs)).
		Msg(pattern.Message)
	metrics.RecordNotification(n.Name(), outcomeOK)
	return nil
}
