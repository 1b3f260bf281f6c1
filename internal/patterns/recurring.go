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
)

var dayNames = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// RecurringDetector spots temporal regularity: the trigger incident landing
// in an hour-of-day bucket far above the hourly mean.
type RecurringDetector struct {
	mu      sync.RWMutex
	config  RecurringConfig
	enabled bool
}

// NewRecurringDetector creates the detector with the given config.
func NewRecurringDetector(config RecurringConfig) *RecurringDetector {
	return &RecurringDetector{config: config, enabled: true}
}

// Type returns the pattern type.
func (d *RecurringDetector) Type() models.PatternType {
	return models.PatternRecurring
}

// Detect buckets the whole store by hour-of-day and weekday (UTC) and emits
// a recurring pattern when the trigger's hour bucket exceeds TriggerFactor
// times the hourly mean. Peak hours and days above PeakFactor times their
// means are listed in the characteristics.
func (d *RecurringDetector) Detect(_ context.Context, snap *Snapshot) ([]*models.Pattern, error) {
	if snap.Trigger == nil || len(snap.Incidents) == 0 {
		return nil, nil
	}

	d.mu.RLock()
	cfg := d.config
	d.mu.RUnlock()

	var hourly [24]int
	var daily [7]int
	for _, in := range snap.Incidents {
		ts := in.FirstSeenAt.UTC()
		hourly[ts.Hour()]++
		daily[int(ts.Weekday())]++
	}

	total := len(snap.Incidents)
	meanHourly := float64(total) / 24
	meanDaily := float64(total) / 7

	hour := snap.Trigger.FirstSeenAt.UTC().Hour()
	if float64(hourly[hour]) <= meanHourly*cfg.TriggerFactor {
		return nil, nil
	}

	var peakHours []int
	for h, count := range hourly {
		if float64(count) > meanHourly*cfg.PeakFactor {
			peakHours = append(peakHours, h)
		}
	}
	var peakDays []string
	for day, count := range daily {
		if float64(count) > meanDaily*cfg.PeakFactor {
			peakDays = append(peakDays, dayNames[day])
		}
	}

	// Members are the incidents sharing the trigger's hour bucket.
	var members []*models.Incident
	for _, in := range snap.Incidents {
		if in.FirstSeenAt.UTC().Hour() == hour {
			members = append(members, in)
		}
	}

	characteristics := models.RecurringCharacteristics{
		PeakHours: peakHours,
		PeakDays:  peakDays,
	}
	p := newPattern(
		models.PatternRecurring,
		float64(hourly[hour])/float64(total),
		members,
		characteristics,
		models.SeverityLow,
		fmt.Sprintf("Increased activity detected during hour %02d:00-%02d:59", hour, hour),
		snap.Now,
	)
	return []*models.Pattern{p}, nil
}

// Configure updates the detector configuration from JSON.
func (d *RecurringDetector) Configure(config json.RawMessage) error {
	var cfg RecurringConfig
	if err := json.Unmarshal(config, &cfg); err != nil {
		return fmt.Errorf("recurring config: %w", err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.config = cfg
	return nil
}

// Enabled returns whether this detector is enabled.
func (d *RecurringDetector) Enabled() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.enabled
}

// SetEnabled enables or disables the detector.
func (d *RecurringDetector) SetEnabled(enabled bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enabled = enabled
}
