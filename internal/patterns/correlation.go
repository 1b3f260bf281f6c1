// AeroSentry - Drone Incident Correlation and Evidentiary Fusion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aerosentry

package patterns

import (
	"math"
	"time"

	"github.com/tomtom215/aerosentry/internal/geo"
	"github.com/tomtom215/aerosentry/internal/models"
)

// Correlation holds the pairwise similarity components between two incidents.
// Overall is the arithmetic mean of the three components.
type Correlation struct {
	Temporal float64 `json:"temporal"`
	Spatial  float64 `json:"spatial"`
	Severity float64 `json:"severity"`
	Overall  float64 `json:"overall"`
}

// Correlate scores how likely two incidents describe related activity.
// Each component is clamped to [0,1]; incidents without coordinates get a
// spatial component of 0 (distance is +Inf).
func Correlate(a, b *models.Incident, window time.Duration, distanceMeters float64) Correlation {
	dt := a.FirstSeenAt.Sub(b.FirstSeenAt)
	if dt < 0 {
		dt = -dt
	}
	temporal := math.Max(0, 1-float64(dt)/float64(window))

	dist := geo.DistanceMeters(a.Location, b.Location)
	spatial := 0.0
	if !math.IsInf(dist, 1) {
		spatial = math.Max(0, 1-dist/distanceMeters)
	}

	severity := 1 - math.Abs(float64(severityOrDefault(a)-severityOrDefault(b)))/10

	return Correlation{
		Temporal: temporal,
		Spatial:  spatial,
		Severity: severity,
		Overall:  (temporal + spatial + severity) / 3,
	}
}

func severityOrDefault(in *models.Incident) int {
	if in.Severity < 1 || in.Severity > 10 {
		return models.DefaultSeverity
	}
	return in.Severity
}
