// AeroSentry - Drone Incident Correlation and Evidentiary Fusion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aerosentry

package risk

import (
	"sort"

	"github.com/tomtom215/aerosentry/internal/models"
)

// Trend thresholds: the late-third mean severity against the early-third
// mean. Between the two ratios activity reads as stable.
const (
	trendEscalatingRatio   = 1.5
	trendDeEscalatingRatio = 0.5
)

// AnalyzeSeverityTrend splits a history into thirds by first-seen time and
// compares early and late mean severity. Fewer than three incidents read
// as stable.
func AnalyzeSeverityTrend(incidents []*models.Incident) models.SeverityTrend {
	trend, _, _ := SeverityTrendDetail(incidents)
	return trend
}

// SeverityTrendDetail is AnalyzeSeverityTrend plus the early and late
// window means behind the classification. Both means are zero when the
// history is too small to classify.
func SeverityTrendDetail(incidents []*models.Incident) (models.SeverityTrend, float64, float64) {
	if len(incidents) < 3 {
		return models.TrendStable, 0, 0
	}

	ordered := make([]*models.Incident, len(incidents))
	copy(ordered, incidents)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].FirstSeenAt.Before(ordered[j].FirstSeenAt)
	})

	window := len(ordered) / 3
	if window < 1 {
		window = 1
	}
	early := meanStoreSeverity(ordered[:window])
	late := meanStoreSeverity(ordered[len(ordered)-window:])

	switch {
	case late > early*trendEscalatingRatio:
		return models.TrendEscalating, early, late
	case late < early*trendDeEscalatingRatio:
		return models.TrendDeEscalating, early, late
	default:
		return models.TrendStable, early, late
	}
}
