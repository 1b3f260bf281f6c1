// AeroSentry - Drone Incident Correlation and Evidentiary Fusion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aerosentry

package patterns

import (
	"context"
	"fmt"
	"sync"

	"github.com/goccy/go-json"

	"github.com/tomtom215/aerosentry/internal/models"
	"github.com/tomtom215/aerosentry/internal/risk"
)

// escalationConfidence is fixed: the thirds split smooths single-incident
// spikes, but the trend is still a coarse signal.
const escalationConfidence = 0.8

// EscalationDetector flags a rising severity trend across the recent
// incident window: the late third of the window markedly outscores the
// early third. Only escalating trends emit; de-escalating and stable
// histories stay quiet.
type EscalationDetector struct {
	mu      sync.RWMutex
	config  EscalationConfig
	enabled bool
}

// NewEscalationDetector creates the detector with the given config.
func NewEscalationDetector(config EscalationConfig) *EscalationDetector {
	return &EscalationDetector{config: config, enabled: true}
}

// Type returns the pattern type.
func (d *EscalationDetector) Type() models.PatternType {
	return models.PatternEscalation
}

// Detect runs on every pass, trigger or sweep: the trend is a property of
// the recent window, not of any single incident.
func (d *EscalationDetector) Detect(_ context.Context, snap *Snapshot) ([]*models.Pattern, error) {
	d.mu.RLock()
	cfg := d.config
	d.mu.RUnlock()

	var recent []*models.Incident
	for _, in := range snap.Incidents {
		if snap.Now.Sub(in.FirstSeenAt) <= cfg.Window {
			recent = append(recent, in)
		}
	}
	if len(recent) < cfg.MinIncidents {
		return nil, nil
	}

	trend, early, late := risk.SeverityTrendDetail(recent)
	if trend != models.TrendEscalating {
		return nil, nil
	}

	characteristics := models.EscalationCharacteristics{
		EarlyMeanSeverity: early,
		LateMeanSeverity:  late,
		IncidentCount:     len(recent),
	}
	p := newPattern(
		models.PatternEscalation,
		escalationConfidence,
		recent,
		characteristics,
		severityLabelForMean(late),
		fmt.Sprintf("Escalating severity trend - mean severity %.1f rising to %.1f across %d incidents",
			early, late, len(recent)),
		snap.Now,
	)
	return []*models.Pattern{p}, nil
}

// Configure updates the detector configuration from JSON.
func (d *EscalationDetector) Configure(config json.RawMessage) error {
	var cfg EscalationConfig
	if err := json.Unmarshal(config, &cfg); err != nil {
		return fmt.Errorf("escalation config: %w", err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.config = cfg
	return nil
}

// Enabled returns whether this detector is enabled.
func (d *EscalationDetector) Enabled() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.enabled
}

// SetEnabled enables or disables the detector.
func (d *EscalationDetector) SetEnabled(enabled bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enabled = enabled
}
