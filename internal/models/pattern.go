// AeroSentry - Drone Incident Correlation and Evidentiary Fusion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aerosentry

package models

import (
	"math"
	"time"

	"github.com/goccy/go-json"
)

// CoordinateEpsilon is the threshold for considering coordinates as
// effectively zero. A coordinate pair is "unknown" (sentinel 0,0) if both
// values are within this epsilon of zero; 1e-7 degrees is about 1.1cm at the
// equator, well below GPS accuracy, while avoiding direct float equality.
const CoordinateEpsilon = 1e-7

func isZeroCoordinate(lat, lon float64) bool {
	return math.Abs(lat) < CoordinateEpsilon && math.Abs(lon) < CoordinateEpsilon
}

// PatternType identifies the kind of detected pattern.
type PatternType string

const (
	PatternCoordinated    PatternType = "coordinated"
	PatternSwarm          PatternType = "swarm"
	PatternMigration      PatternType = "migration"
	PatternRecurring      PatternType = "recurring"
	PatternInfrastructure PatternType = "infrastructure-targeting"
	PatternEscalation     PatternType = "escalation"
)

// SeverityLabel grades a pattern or assessment for human consumption.
type SeverityLabel string

const (
	SeverityMinimal  SeverityLabel = "MINIMAL"
	SeverityLow      SeverityLabel = "LOW"
	SeverityMedium   SeverityLabel = "MEDIUM"
	SeverityHigh     SeverityLabel = "HIGH"
	SeverityCritical SeverityLabel = "CRITICAL"
)

// Pattern is an immutable finding emitted by the detector. Consumers own its
// lifecycle after emission.
type Pattern struct {
	ID                string          `json:"id"`
	Type              PatternType     `json:"type"`
	Confidence        float64         `json:"confidence"`
	MemberIncidentIDs []string        `json:"member_incident_ids"`
	Characteristics   json.RawMessage `json:"characteristics,omitempty"`
	SeverityLabel     SeverityLabel   `json:"severity_label"`
	Message           string          `json:"message"`
	DetectedAt        time.Time       `json:"detected_at"`
}

// CoordinatedCharacteristics is the payload for coordinated patterns.
type CoordinatedCharacteristics struct {
	TimeSpan         time.Duration `json:"time_span_ns"`
	GeographicSpread float64       `json:"geographic_spread_m"`
	CommonTargets    []TargetCount `json:"common_targets,omitempty"`
}

// TargetCount tallies incidents per asset type.
type TargetCount struct {
	Type  AssetType `json:"type"`
	Count int       `json:"count"`
}

// ClusterCharacteristics is the payload for infrastructure-targeting
// (hot zone) patterns.
type ClusterCharacteristics struct {
	CenterLat     float64     `json:"center_lat"`
	CenterLon     float64     `json:"center_lon"`
	RadiusMeters  float64     `json:"radius_m"`
	IncidentCount int         `json:"incident_count"`
	AssetTypes    []AssetType `json:"asset_types"`
	MeanSeverity  float64     `json:"mean_severity"`
}

// MigrationCharacteristics is the payload for migration patterns.
type MigrationCharacteristics struct {
	FromLat        float64 `json:"from_lat"`
	FromLon        float64 `json:"from_lon"`
	ToLat          float64 `json:"to_lat"`
	ToLon          float64 `json:"to_lon"`
	Bearing        float64 `json:"bearing_deg"`
	Direction      string  `json:"direction"`
	DistanceMeters float64 `json:"distance_m"`
	SpeedKmH       float64 `json:"speed_kmh"`
}

// SwarmCharacteristics is the payload for swarm patterns.
type SwarmCharacteristics struct {
	CenterLat     float64 `json:"center_lat"`
	CenterLon     float64 `json:"center_lon"`
	RadiusMeters  float64 `json:"radius_m"`
	IncidentCount int     `json:"incident_count"`
}

// RecurringCharacteristics is the payload for temporal patterns.
type RecurringCharacteristics struct {
	PeakHours []int    `json:"peak_hours"`
	PeakDays  []string `json:"peak_days"`
}

// EscalationCharacteristics is the payload for escalation patterns.
type EscalationCharacteristics struct {
	EarlyMeanSeverity float64 `json:"early_mean_severity"`
	LateMeanSeverity  float64 `json:"late_mean_severity"`
	IncidentCount     int     `json:"incident_count"`
}

// InfrastructurePreference names an over-represented asset type.
type InfrastructurePreference struct {
	Type         AssetType `json:"type"`
	Count        int       `json:"count"`
	Percentage   float64   `json:"percentage"`
	MeanSeverity float64   `json:"mean_severity"`
}
