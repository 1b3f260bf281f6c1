// AeroSentry - Drone Incident Correlation and Evidentiary Fusion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aerosentry

package models

import "time"

// RiskLevel is the categorical outcome of per-incident risk scoring.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// RiskAssessment is the per-factor risk scorer's output.
type RiskAssessment struct {
	Score      float64   `json:"score"`
	Level      RiskLevel `json:"level"`
	Factors    []string  `json:"factors"`
	AssessedAt time.Time `json:"assessed_at"`
}

// SeverityTrend classifies the direction recent severity is moving in.
type SeverityTrend string

const (
	TrendEscalating   SeverityTrend = "escalating"
	TrendDeEscalating SeverityTrend = "de-escalating"
	TrendStable       SeverityTrend = "stable"
)

// TriageFactors are the 0-10 inputs to the coarse triage scorer.
type TriageFactors struct {
	Severity         float64 `json:"severity"`
	AssetCriticality float64 `json:"asset_criticality"`
	Frequency        float64 `json:"frequency"`
	Escalation       float64 `json:"escalation"`
	Coordination     float64 `json:"coordination"`
	Persistence      float64 `json:"persistence"`
}

// TriageAssessment is the coarse whole-incident threat grading.
type TriageAssessment struct {
	Score      float64       `json:"score"`
	Level      SeverityLabel `json:"level"`
	Factors    TriageFactors `json:"factors"`
	Trend      SeverityTrend `json:"trend"`
	Confidence float64       `json:"confidence"`
	AssessedAt time.Time     `json:"assessed_at"`
}

// RiskZone is a coarse geographic bucket holding a bounded rolling window of
// recent risk scores. Mutated only by the risk scorer.
type RiskZone struct {
	ID           string    `json:"id"`
	CenterLat    float64   `json:"center_lat"`
	CenterLon    float64   `json:"center_lon"`
	Scores       []float64 `json:"scores"`
	AverageScore float64   `json:"average_score"`
	UpdatedAt    time.Time `json:"updated_at"`
}
