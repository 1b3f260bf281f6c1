// AeroSentry - Drone Incident Correlation and Evidentiary Fusion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aerosentry

package risk

import (
	"time"

	"github.com/tomtom215/aerosentry/internal/geo"
	"github.com/tomtom215/aerosentry/internal/models"
)

// Fixed triage weights. The six factors are each normalized to 0-1 by
// dividing by 10 before weighting, so a score of 1.0 means every factor
// saturated.
const (
	weightSeverity         = 0.2
	weightAssetCriticality = 0.3
	weightFrequency        = 0.15
	weightEscalation       = 0.15
	weightCoordination     = 0.1
	weightPersistence      = 0.1
)

// localRadiusMeters is the neighbourhood used for frequency and persistence.
const localRadiusMeters = 50000

// escalationLookback is how many recent incidents form each comparison
// window for trend detection.
const escalationLookback = 10

// escalationRatio is the recent-to-prior mean severity ratio above which
// activity counts as escalating.
const escalationRatio = 1.3

// triageCriticality grades asset types for the triage scorer, coarser than
// the per-factor base-risk table.
var triageCriticality = map[models.AssetType]float64{
	models.AssetTypeNuclear:  10,
	models.AssetTypeMilitary: 9,
	models.AssetTypeAirport:  7,
	models.AssetTypeHarbour:  6,
	models.AssetTypeBorder:   6,
	models.AssetTypeRail:     5,
}

const defaultTriageCriticality = 3

// RiskModel predicts a 0-1 threat probability from triage factors. The
// heuristic weighted sum is the production implementation; a trained model
// can be swapped in behind the same interface.
type RiskModel interface {
	Predict(factors models.TriageFactors) float64
}

// HeuristicModel is the fixed weighted-sum RiskModel.
type HeuristicModel struct{}

// Predict combines the six factors with the fixed weights.
func (HeuristicModel) Predict(f models.TriageFactors) float64 {
	return f.Severity/10*weightSeverity +
		f.AssetCriticality/10*weightAssetCriticality +
		f.Frequency/10*weightFrequency +
		f.Escalation/10*weightEscalation +
		f.Coordination/10*weightCoordination +
		f.Persistence/10*weightPersistence
}

// Triager produces whole-incident triage assessments over a store view.
type Triager struct {
	model RiskModel
}

// NewTriager creates a triager backed by the given model; nil selects the
// heuristic weighted sum.
func NewTriager(model RiskModel) *Triager {
	if model == nil {
		model = HeuristicModel{}
	}
	return &Triager{model: model}
}

// Assess grades one incident against a time-ordered store view. coordinated
// reports whether a coordinated pattern involving the incident is active.
func (t *Triager) Assess(incidents []*models.Incident, in *models.Incident, coordinated bool) models.TriageAssessment {
	coordination := 0.0
	if coordinated {
		coordination = 10
	}

	factors := models.TriageFactors{
		Severity:         float64(severityOrDefault(in)),
		AssetCriticality: assetCriticality(in.Asset),
		Frequency:        float64(localFrequency(incidents, in.Location)),
		Escalation:       escalationFactor(incidents),
		Coordination:     coordination,
		Persistence:      persistence(incidents, in.Location),
	}

	score := t.model.Predict(factors)
	return models.TriageAssessment{
		Score:      score,
		Level:      categorize(score),
		Factors:    factors,
		Trend:      AnalyzeSeverityTrend(incidents),
		Confidence: factorConfidence(factors),
		AssessedAt: time.Now().UTC(),
	}
}

func assetCriticality(asset models.Asset) float64 {
	if asset.Criticality > 0 {
		return float64(asset.Criticality)
	}
	if c, ok := triageCriticality[asset.Type]; ok {
		return c
	}
	return defaultTriageCriticality
}

// localFrequency counts incidents within the local radius of the location,
// the incident itself included.
func localFrequency(incidents []*models.Incident, loc models.Location) int {
	if !loc.HasCoordinates() {
		return 0
	}
	count := 0
	for _, in := range incidents {
		if geo.DistanceMeters(loc, in.Location) <= localRadiusMeters {
			count++
		}
	}
	return count
}

// escalationFactor compares mean severity of the most recent incidents to
// the window before them; escalating activity saturates the factor.
func escalationFactor(incidents []*models.Incident) float64 {
	if detectEscalation(incidents) {
		return 10
	}
	return 0
}

func detectEscalation(incidents []*models.Incident) bool {
	if len(incidents) < 3 {
		return false
	}

	recentStart := len(incidents) - escalationLookback
	if recentStart < 0 {
		recentStart = 0
	}
	recent := incidents[recentStart:]

	olderStart := recentStart - escalationLookback
	if olderStart < 0 {
		olderStart = 0
	}
	older := incidents[olderStart:recentStart]

	recentMean := meanStoreSeverity(recent)
	olderMean := meanStoreSeverity(older)
	if olderMean == 0 {
		return false
	}
	return recentMean > olderMean*escalationRatio
}

func meanStoreSeverity(incidents []*models.Incident) float64 {
	if len(incidents) == 0 {
		return 0
	}
	total := 0.0
	for _, in := range incidents {
		total += float64(severityOrDefault(in))
	}
	return total / float64(len(incidents))
}

// persistence scores sustained local activity as incidents per day over the
// neighbourhood's observed time span, scaled to the 0-10 factor range.
func persistence(incidents []*models.Incident, loc models.Location) float64 {
	if !loc.HasCoordinates() {
		return 0
	}

	var nearby []*models.Incident
	for _, in := range incidents {
		if geo.DistanceMeters(loc, in.Location) <= localRadiusMeters {
			nearby = append(nearby, in)
		}
	}
	if len(nearby) < 2 {
		return 0
	}

	earliest, latest := nearby[0].FirstSeenAt, nearby[0].FirstSeenAt
	for _, in := range nearby[1:] {
		if in.FirstSeenAt.Before(earliest) {
			earliest = in.FirstSeenAt
		}
		if in.FirstSeenAt.After(latest) {
			latest = in.FirstSeenAt
		}
	}

	days := latest.Sub(earliest).Hours() / 24
	if days < 1 {
		days = 1
	}
	return float64(len(nearby)) / days * 10
}

// categorize maps a triage score to the five-level label scale.
func categorize(score float64) models.SeverityLabel {
	switch {
	case score >= 0.8:
		return models.SeverityCritical
	case score >= 0.6:
		return models.SeverityHigh
	case score >= 0.4:
		return models.SeverityMedium
	case score >= 0.2:
		return models.SeverityLow
	default:
		return models.SeverityMinimal
	}
}

// factorConfidence is the fraction of factors that carried signal.
func factorConfidence(f models.TriageFactors) float64 {
	values := []float64{
		f.Severity, f.AssetCriticality, f.Frequency,
		f.Escalation, f.Coordination, f.Persistence,
	}
	nonzero := 0
	for _, v := range values {
		if v != 0 {
			nonzero++
		}
	}
	return float64(nonzero) / float64(len(values))
}

func severityOrDefault(in *models.Incident) int {
	if in.Severity < 1 || in.Severity > 10 {
		return models.DefaultSeverity
	}
	return in.Severity
}
