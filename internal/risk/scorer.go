// AeroSentry - Drone Incident Correlation and Evidentiary Fusion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aerosentry

// Package risk grades incidents into categorical threat levels. Two scorers
// coexist: the per-factor scorer sums explainable additive factors into a
// score and level and feeds the rolling risk-zone map; the triage scorer
// produces a single weighted probability for whole-incident prioritization.
package risk

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/aerosentry/internal/models"
)

// Factor labels attached to assessments. Stable strings, consumed by
// alerting and the API.
const (
	FactorCriticalInfrastructure = "critical-infrastructure"
	FactorConfirmedIncident      = "confirmed-incident"
	FactorNightOperation         = "night-operation"
	FactorMultipleCriticalAssets = "multiple-critical-assets"
)

// assetBaseRisk is the fixed per-asset-type base score.
var assetBaseRisk = map[models.AssetType]float64{
	models.AssetTypeNuclear:  10,
	models.AssetTypeMilitary: 8,
	models.AssetTypeAirport:  7,
	models.AssetTypeHarbour:  5,
	models.AssetTypeRail:     4,
	models.AssetTypeBorder:   6,
}

// defaultBaseRisk applies to unknown asset types: unknown targets are low
// risk, not an error.
const defaultBaseRisk = 1

// criticalAssetBase is the base score at or above which an asset counts as
// critical infrastructure.
const criticalAssetBase = 7

// CriticalAsset reports whether the asset type counts as critical
// infrastructure. Used by the pipeline to count critical assets near an
// incident.
func CriticalAsset(t models.AssetType) bool {
	return assetBaseRisk[t] >= criticalAssetBase
}

// Config bounds the scorer's night window and zone retention.
type Config struct {
	// NightStartHour and NightEndHour delimit the night-operation bonus
	// window (inclusive, UTC hours).
	NightStartHour int
	NightEndHour   int

	// ZoneWindowCap bounds each risk zone's rolling score window.
	ZoneWindowCap int
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{NightStartHour: 22, NightEndHour: 6, ZoneWindowCap: 100}
}

// Scorer computes per-factor risk assessments and owns the risk-zone map.
type Scorer struct {
	cfg Config

	mu    sync.Mutex
	zones map[string]*models.RiskZone
}

// NewScorer creates a scorer with an empty zone map.
func NewScorer(cfg Config) *Scorer {
	if cfg.ZoneWindowCap <= 0 {
		cfg.ZoneWindowCap = DefaultConfig().ZoneWindowCap
	}
	return &Scorer{cfg: cfg, zones: make(map[string]*models.RiskZone)}
}

// Score grades one incident. nearbyCritical is the count of critical assets
// near the incident, supplied by an external geo-enrichment collaborator
// (zero when unavailable). Side effect: the incident's risk zone window is
// updated when the incident has coordinates.
func (s *Scorer) Score(in *models.Incident, nearbyCritical int) models.RiskAssessment {
	assessment := models.RiskAssessment{
		Level:      models.RiskLow,
		AssessedAt: time.Now().UTC(),
	}

	base, ok := assetBaseRisk[in.Asset.Type]
	if !ok {
		base = defaultBaseRisk
	}
	assessment.Score += base
	if base >= criticalAssetBase {
		assessment.Factors = append(assessment.Factors, FactorCriticalInfrastructure)
	}

	assessment.Score += float64(in.Evidence.Strength) * 2
	if in.Evidence.Strength >= models.EvidenceConfirmed {
		assessment.Factors = append(assessment.Factors, FactorConfirmedIncident)
	}

	// NightEndHour is inclusive: with the default 6, hour 6 still counts
	// as night and the bonus window is 22:00 through 06:59.
	hour := in.FirstSeenAt.UTC().Hour()
	if hour >= s.cfg.NightStartHour || hour <= s.cfg.NightEndHour {
		assessment.Score += 2
		assessment.Factors = append(assessment.Factors, FactorNightOperation)
	}

	if nearbyCritical > 0 {
		assessment.Score += float64(nearbyCritical)
		assessment.Factors = append(assessment.Factors, FactorMultipleCriticalAssets)
	}

	switch {
	case assessment.Score >= 15:
		assessment.Level = models.RiskCritical
	case assessment.Score >= 10:
		assessment.Level = models.RiskHigh
	case assessment.Score >= 6:
		assessment.Level = models.RiskMedium
	}

	if in.Location.HasCoordinates() {
		s.updateZone(in.Location, assessment.Score, assessment.AssessedAt)
	}

	return assessment
}

// updateZone appends the score to the incident's grid-cell zone, dropping
// the oldest entry beyond the cap, and recomputes the running average.
func (s *Scorer) updateZone(loc models.Location, score float64, at time.Time) {
	id := ZoneID(loc)

	s.mu.Lock()
	defer s.mu.Unlock()

	zone, ok := s.zones[id]
	if !ok {
		zone = &models.RiskZone{
			ID:        id,
			CenterLat: loc.Lat,
			CenterLon: loc.Lon,
		}
		s.zones[id] = zone
	}

	zone.Scores = append(zone.Scores, score)
	if len(zone.Scores) > s.cfg.ZoneWindowCap {
		zone.Scores = zone.Scores[len(zone.Scores)-s.cfg.ZoneWindowCap:]
	}

	total := 0.0
	for _, v := range zone.Scores {
		total += v
	}
	zone.AverageScore = total / float64(len(zone.Scores))
	zone.UpdatedAt = at
}

// ZoneID keys a location to its one-degree grid cell.
func ZoneID(loc models.Location) string {
	return fmt.Sprintf("%d-%d", int(math.Floor(loc.Lat)), int(math.Floor(loc.Lon)))
}

// Zones returns copies of all zones, sorted by ID for stable output.
func (s *Scorer) Zones() []models.RiskZone {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.RiskZone, 0, len(s.zones))
	for _, zone := range s.zones {
		z := *zone
		z.Scores = append([]float64(nil), zone.Scores...)
		out = append(out, z)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Zone returns a copy of one zone by ID.
func (s *Scorer) Zone(id string) (models.RiskZone, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	zone, ok := s.zones[id]
	if !ok {
		return models.RiskZone{}, false
	}
	z := *zone
	z.Scores = append([]float64(nil), zone.Scores...)
	return z, true
}
