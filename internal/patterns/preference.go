// AeroSentry - Drone Incident Correlation and Evidentiary Fusion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aerosentry

package patterns

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/goccy/go-json"

	"github.com/tomtom215/aerosentry/internal/models"
)

// PreferenceDetector checks whether one asset type is over-represented
// across the whole store, independent of geography.
type PreferenceDetector struct {
	mu      sync.RWMutex
	config  PreferenceConfig
	enabled bool
}

// NewPreferenceDetector creates the detector with the given config.
func NewPreferenceDetector(config PreferenceConfig) *PreferenceDetector {
	return &PreferenceDetector{config: config, enabled: true}
}

// Type returns the pattern type.
func (d *PreferenceDetector) Type() models.PatternType {
	return models.PatternInfrastructure
}

// Detect tallies incidents per asset type and emits an
// infrastructure-targeting pattern when any type's share exceeds MinShare.
// Confidence is the largest share. Unknown assets dilute the shares but
// never count as a preference themselves.
func (d *PreferenceDetector) Detect(_ context.Context, snap *Snapshot) ([]*models.Pattern, error) {
	if len(snap.Incidents) == 0 {
		return nil, nil
	}

	d.mu.RLock()
	cfg := d.config
	d.mu.RUnlock()

	counts := make(map[models.AssetType]int)
	severityTotals := make(map[models.AssetType]float64)
	for _, in := range snap.Incidents {
		t := in.Asset.Type
		if t == "" || t == models.AssetTypeUnknown {
			continue
		}
		counts[t]++
		severityTotals[t] += severityOf(in)
	}

	total := float64(len(snap.Incidents))
	var preferences []models.InfrastructurePreference
	for t, count := range counts {
		share := float64(count) / total
		if share > cfg.MinShare {
			preferences = append(preferences, models.InfrastructurePreference{
				Type:         t,
				Count:        count,
				Percentage:   share * 100,
				MeanSeverity: severityTotals[t] / float64(count),
			})
		}
	}
	if len(preferences) == 0 {
		return nil, nil
	}

	sort.Slice(preferences, func(i, j int) bool {
		if preferences[i].Count != preferences[j].Count {
			return preferences[i].Count > preferences[j].Count
		}
		return preferences[i].Type < preferences[j].Type
	})
	primary := preferences[0]

	var members []*models.Incident
	for _, in := range snap.Incidents {
		if in.Asset.Type == primary.Type {
			members = append(members, in)
		}
	}

	p := newPattern(
		models.PatternInfrastructure,
		primary.Percentage/100,
		members,
		preferences,
		severityLabelForMean(primary.MeanSeverity),
		fmt.Sprintf("Infrastructure targeting pattern detected - Primary target: %s", primary.Type),
		snap.Now,
	)
	return []*models.Pattern{p}, nil
}

// Configure updates the detector configuration from JSON.
func (d *PreferenceDetector) Configure(config json.RawMessage) error {
	var cfg PreferenceConfig
	if err := json.Unmarshal(config, &cfg); err != nil {
		return fmt.Errorf("preference config: %w", err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.config = cfg
	return nil
}

// Enabled returns whether this detector is enabled.
func (d *PreferenceDetector) Enabled() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.enabled
}

// SetEnabled enables or disables the detector.
func (d *PreferenceDetector) SetEnabled(enabled bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enabled = enabled
}
