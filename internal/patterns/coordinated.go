// AeroSentry - Drone Incident Correlation and Evidentiary Fusion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aerosentry

package patterns

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/goccy/go-json"

	"github.com/tomtom215/aerosentry/internal/geo"
	"github.com/tomtom215/aerosentry/internal/models"
)

// CoordinatedDetector flags a new incident that correlates strongly with
// enough recent nearby incidents to suggest a coordinated operation.
type CoordinatedDetector struct {
	mu      sync.RWMutex
	config  CoordinatedConfig
	enabled bool
}

// NewCoordinatedDetector creates the detector with the given config.
func NewCoordinatedDetector(config CoordinatedConfig) *CoordinatedDetector {
	return &CoordinatedDetector{config: config, enabled: true}
}

// Type returns the pattern type.
func (d *CoordinatedDetector) Type() models.PatternType {
	return models.PatternCoordinated
}

// Detect anchors on the trigger incident: it gathers every other incident
// within the correlation window whose pairwise correlation clears the
// threshold, and emits a coordinated pattern when enough do.
func (d *CoordinatedDetector) Detect(_ context.Context, snap *Snapshot) ([]*models.Pattern, error) {
	if snap.Trigger == nil {
		return nil, nil
	}

	d.mu.RLock()
	cfg := d.config
	d.mu.RUnlock()

	type correlated struct {
		incident *models.Incident
		score    Correlation
	}
	var related []correlated

	for _, other := range snap.Incidents {
		if other.ID == snap.Trigger.ID {
			continue
		}
		dt := snap.Trigger.FirstSeenAt.Sub(other.FirstSeenAt)
		if dt < 0 {
			dt = -dt
		}
		if dt > cfg.Window {
			continue
		}
		if geo.DistanceMeters(snap.Trigger.Location, other.Location) > cfg.DistanceMeters {
			continue
		}

		score := Correlate(snap.Trigger, other, cfg.Window, cfg.DistanceMeters)
		if score.Overall >= cfg.ConfidenceThreshold {
			related = append(related, correlated{incident: other, score: score})
		}
	}

	if len(related) < cfg.MinIncidents-1 {
		return nil, nil
	}

	others := make([]*models.Incident, len(related))
	totalCorrelation := 0.0
	for i, c := range related {
		others[i] = c.incident
		totalCorrelation += c.score.Overall
	}

	avgCorrelation := totalCorrelation / float64(len(related))
	sizeBonus := math.Min(float64(len(related))/10, 1)
	confidence := (avgCorrelation + sizeBonus) / 2

	members := append([]*models.Incident{snap.Trigger}, others...)
	characteristics := models.CoordinatedCharacteristics{
		TimeSpan:         cfg.Window,
		GeographicSpread: geographicSpread(others),
		CommonTargets:    commonTargets(others),
	}

	p := newPattern(
		models.PatternCoordinated,
		confidence,
		members,
		characteristics,
		models.SeverityHigh,
		fmt.Sprintf("Coordinated drone activity detected involving %d incidents", len(members)),
		snap.Now,
	)
	return []*models.Pattern{p}, nil
}

// Configure updates the detector configuration from JSON.
func (d *CoordinatedDetector) Configure(config json.RawMessage) error {
	var cfg CoordinatedConfig
	if err := json.Unmarshal(config, &cfg); err != nil {
		return fmt.Errorf("coordinated config: %w", err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.config = cfg
	return nil
}

// Enabled returns whether this detector is enabled.
func (d *CoordinatedDetector) Enabled() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.enabled
}

// SetEnabled enables or disables the detector.
func (d *CoordinatedDetector) SetEnabled(enabled bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enabled = enabled
}

// geographicSpread is the max member distance from the member centroid.
func geographicSpread(incidents []*models.Incident) float64 {
	if len(incidents) < 2 {
		return 0
	}
	locs := make([]models.Location, len(incidents))
	for i, in := range incidents {
		locs[i] = in.Location
	}
	center := geo.Centroid(locs)

	spread := 0.0
	for _, in := range incidents {
		d := geo.DistanceMeters(in.Location, center)
		if !math.IsInf(d, 1) && d > spread {
			spread = d
		}
	}
	return spread
}

// commonTargets tallies member incidents per asset type, most common first.
// Ties are broken by type name for determinism.
func commonTargets(incidents []*models.Incident) []models.TargetCount {
	counts := make(map[models.AssetType]int)
	for _, in := range incidents {
		if in.Asset.Type != "" {
			counts[in.Asset.Type]++
		}
	}

	targets := make([]models.TargetCount, 0, len(counts))
	for t, n := range counts {
		targets = append(targets, models.TargetCount{Type: t, Count: n})
	}
	sort.Slice(targets, func(i, j int) bool {
		if targets[i].Count != targets[j].Count {
			return targets[i].Count > targets[j].Count
		}
		return targets[i].Type < targets[j].Type
	})
	return targets
}
