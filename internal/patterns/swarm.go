// AeroSentry - Drone Incident Correlation and Evidentiary Fusion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aerosentry

package patterns

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/goccy/go-json"

	"github.com/tomtom215/aerosentry/internal/geo"
	"github.com/tomtom215/aerosentry/internal/models"
)

// swarmConfidence is fixed: a tight simultaneous cluster is close to
// unambiguous, independent of member count.
const swarmConfidence = 0.9

// SwarmDetector flags many incidents appearing near-simultaneously in a
// tight radius, the signature of a multi-drone operation.
type SwarmDetector struct {
	mu      sync.RWMutex
	config  SwarmConfig
	enabled bool
}

// NewSwarmDetector creates the detector with the given config.
func NewSwarmDetector(config SwarmConfig) *SwarmDetector {
	return &SwarmDetector{config: config, enabled: true}
}

// Type returns the pattern type.
func (d *SwarmDetector) Type() models.PatternType {
	return models.PatternSwarm
}

// Detect runs on every pass, trigger or sweep: it needs only the snapshot
// clock, not an anchor incident.
func (d *SwarmDetector) Detect(_ context.Context, snap *Snapshot) ([]*models.Pattern, error) {
	d.mu.RLock()
	cfg := d.config
	d.mu.RUnlock()

	var recent []*models.Incident
	for _, in := range snap.Incidents {
		if snap.Now.Sub(in.FirstSeenAt) <= cfg.Window && in.Location.HasCoordinates() {
			recent = append(recent, in)
		}
	}
	if len(recent) < cfg.MinIncidents {
		return nil, nil
	}

	locs := make([]models.Location, len(recent))
	for i, in := range recent {
		locs[i] = in.Location
	}
	center := geo.Centroid(locs)

	var total, max float64
	for _, in := range recent {
		dist := geo.DistanceMeters(in.Location, center)
		total += dist
		max = math.Max(max, dist)
	}
	if total/float64(len(recent)) > cfg.MeanRadiusMeters {
		return nil, nil
	}

	characteristics := models.SwarmCharacteristics{
		CenterLat:     center.Lat,
		CenterLon:     center.Lon,
		RadiusMeters:  max,
		IncidentCount: len(recent),
	}
	p := newPattern(
		models.PatternSwarm,
		swarmConfidence,
		recent,
		characteristics,
		models.SeverityCritical,
		fmt.Sprintf("Swarm activity detected - %d drones active", len(recent)),
		snap.Now,
	)
	return []*models.Pattern{p}, nil
}

// Configure updates the detector configuration from JSON.
func (d *SwarmDetector) Configure(config json.RawMessage) error {
	var cfg SwarmConfig
	if err := json.Unmarshal(config, &cfg); err != nil {
		return fmt.Errorf("swarm config: %w", err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.config = cfg
	return nil
}

// Enabled returns whether this detector is enabled.
func (d *SwarmDetector) Enabled() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.enabled
}

// SetEnabled enables or disables the detector.
func (d *SwarmDetector) SetEnabled(enabled bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enabled = enabled
}
