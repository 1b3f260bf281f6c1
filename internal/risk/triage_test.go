// AeroSentry - Drone Incident Correlation and Evidentiary Fusion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aerosentry

package risk

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/tomtom215/aerosentry/internal/models"
)

var triageNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func storeIncident(id string, severity int, seenAt time.Time) *models.Incident {
	return &models.Incident{
		ID:          id,
		FirstSeenAt: seenAt,
		Location:    models.Location{Name: id, Lat: 55.6, Lon: 12.6},
		Asset:       models.Asset{Type: models.AssetTypeAirport},
		Severity:    severity,
	}
}

func TestHeuristicModelSaturatedFactors(t *testing.T) {
	f := models.TriageFactors{
		Severity: 10, AssetCriticality: 10, Frequency: 10,
		Escalation: 10, Coordination: 10, Persistence: 10,
	}
	if got := (HeuristicModel{}).Predict(f); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("Predict(saturated) = %f, want 1.0", got)
	}
}

func TestTriageIsolatedIncidentIsLow(t *testing.T) {
	in := storeIncident("solo", 5, triageNow)
	got := NewTriager(nil).Assess([]*models.Incident{in}, in, false)

	// severity 5 and criticality 7 weighted, plus the self-count frequency.
	want := 5.0/10*weightSeverity + 7.0/10*weightAssetCriticality + 1.0/10*weightFrequency
	if math.Abs(got.Score-want) > 1e-9 {
		t.Errorf("Score = %f, want %f", got.Score, want)
	}
	if got.Level != models.SeverityLow {
		t.Errorf("Level = %q, want LOW", got.Level)
	}
	if got.Confidence != 0.5 {
		t.Errorf("Confidence = %f, want 0.5 (3 of 6 factors carried signal)", got.Confidence)
	}
}

func TestTriageCoordinationRaisesScore(t *testing.T) {
	in := storeIncident("solo", 5, triageNow)
	triager := NewTriager(nil)

	plain := triager.Assess([]*models.Incident{in}, in, false)
	flagged := triager.Assess([]*models.Incident{in}, in, true)

	if diff := flagged.Score - plain.Score; math.Abs(diff-weightCoordination) > 1e-9 {
		t.Errorf("coordination delta = %f, want %f", diff, weightCoordination)
	}
}

func TestDetectEscalation(t *testing.T) {
	build := func(olderSev, recentSev int) []*models.Incident {
		var incidents []*models.Incident
		for i := 0; i < 10; i++ {
			incidents = append(incidents, storeIncident(fmt.Sprintf("o%d", i), olderSev,
				triageNow.Add(time.Duration(i-20)*time.Hour)))
		}
		for i := 0; i < 10; i++ {
			incidents = append(incidents, storeIncident(fmt.Sprintf("r%d", i), recentSev,
				triageNow.Add(time.Duration(i-10)*time.Hour)))
		}
		return incidents
	}

	if !detectEscalation(build(3, 5)) {
		t.Error("severity 3 -> 5 not flagged as escalation (ratio 1.67 > 1.3)")
	}
	if detectEscalation(build(5, 5)) {
		t.Error("flat severity flagged as escalation")
	}
	if detectEscalation(build(5, 3)) {
		t.Error("de-escalation flagged as escalation")
	}
	if detectEscalation([]*models.Incident{storeIncident("a", 9, triageNow)}) {
		t.Error("tiny store flagged as escalation")
	}
}

func TestPersistenceIncidentsPerDay(t *testing.T) {
	// Four incidents over two days at one location: 2 per day, scaled x10.
	var incidents []*models.Incident
	for i := 0; i < 4; i++ {
		incidents = append(incidents, storeIncident(fmt.Sprintf("p%d", i), 5,
			triageNow.Add(-time.Duration(i)*16*time.Hour)))
	}

	got := persistence(incidents, incidents[0].Location)
	want := 4.0 / 2.0 * 10
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("persistence = %f, want %f", got, want)
	}
}

func TestPersistenceSingleIncidentIsZero(t *testing.T) {
	in := storeIncident("solo", 5, triageNow)
	if got := persistence([]*models.Incident{in}, in.Location); got != 0 {
		t.Errorf("persistence = %f, want 0 for a lone incident", got)
	}
}

func TestCategorizeThresholds(t *testing.T) {
	tests := []struct {
		score float64
		want  models.SeverityLabel
	}{
		{0.85, models.SeverityCritical},
		{0.8, models.SeverityCritical},
		{0.65, models.SeverityHigh},
		{0.45, models.SeverityMedium},
		{0.25, models.SeverityLow},
		{0.1, models.SeverityMinimal},
	}
	for _, tt := range tests {
		if got := categorize(tt.score); got != tt.want {
			t.Errorf("categorize(%f) = %q, want %q", tt.score, got, tt.want)
		}
	}
}
