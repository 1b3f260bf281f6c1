// AeroSentry - Drone Incident Correlation and Evidentiary Fusion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aerosentry

package patterns

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/aerosentry/internal/models"
)

var patternNow = time.Date(2026, 3, 14, 14, 30, 0, 0, time.UTC)

func testIncident(id string, lat, lon float64, seenAt time.Time, severity int) *models.Incident {
	return &models.Incident{
		ID:            id,
		FirstSeenAt:   seenAt,
		LastUpdatedAt: seenAt,
		Location:      models.Location{Name: id, Lat: lat, Lon: lon},
		Asset:         models.Asset{Type: models.AssetTypeAirport},
		Severity:      severity,
	}
}

func TestCoordinatedDetectorEmitsForCorrelatedTrio(t *testing.T) {
	trigger := testIncident("a", 55.60, 12.60, patternNow, 5)
	near1 := testIncident("b", 55.645, 12.60, patternNow.Add(-10*time.Minute), 5)  // ~5 km north
	near2 := testIncident("c", 55.69, 12.60, patternNow.Add(-20*time.Minute), 5)   // ~10 km north
	far := testIncident("d", 51.47, -0.45, patternNow.Add(-5*time.Minute), 5)      // Heathrow

	snap := NewSnapshot([]*models.Incident{trigger, near1, near2, far}, trigger, patternNow)
	patterns, err := NewCoordinatedDetector(DefaultCoordinatedConfig()).Detect(context.Background(), snap)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(patterns) != 1 {
		t.Fatalf("got %d patterns, want 1", len(patterns))
	}

	p := patterns[0]
	if p.Type != models.PatternCoordinated {
		t.Errorf("Type = %q, want coordinated", p.Type)
	}
	if p.Confidence <= 0 {
		t.Errorf("Confidence = %f, want > 0", p.Confidence)
	}
	if len(p.MemberIncidentIDs) != 3 {
		t.Fatalf("members = %v, want trigger plus two correlated", p.MemberIncidentIDs)
	}
	want := map[string]bool{"a": true, "b": true, "c": true}
	for _, id := range p.MemberIncidentIDs {
		if !want[id] {
			t.Errorf("unexpected member %q", id)
		}
	}
}

func TestCoordinatedDetectorNoTriggerNoPattern(t *testing.T) {
	a := testIncident("a", 55.60, 12.60, patternNow, 5)
	b := testIncident("b", 55.61, 12.60, patternNow, 5)
	c := testIncident("c", 55.62, 12.60, patternNow, 5)

	snap := NewSnapshot([]*models.Incident{a, b, c}, nil, patternNow)
	patterns, err := NewCoordinatedDetector(DefaultCoordinatedConfig()).Detect(context.Background(), snap)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if patterns != nil {
		t.Fatalf("sweep pass emitted %d coordinated patterns, want none", len(patterns))
	}
}

func TestCreateSpatialClustersDeterministic(t *testing.T) {
	build := func() []*models.Incident {
		return []*models.Incident{
			testIncident("a", 55.60, 12.60, patternNow.Add(-3*time.Hour), 5),
			testIncident("b", 55.65, 12.62, patternNow.Add(-2*time.Hour), 5),
			testIncident("c", 55.70, 12.58, patternNow.Add(-1*time.Hour), 5),
			testIncident("d", 51.47, -0.45, patternNow, 5),
			testIncident("noloc", 0, 0, patternNow, 5),
		}
	}

	first := CreateSpatialClusters(build(), 50000, 3)
	second := CreateSpatialClusters(build(), 50000, 3)

	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("cluster counts = %d, %d, want 1 each", len(first), len(second))
	}
	if len(first[0].Members) != 3 {
		t.Fatalf("cluster size = %d, want 3", len(first[0].Members))
	}
	for i := range first[0].Members {
		if first[0].Members[i].ID != second[0].Members[i].ID {
			t.Errorf("member %d differs: %q vs %q", i, first[0].Members[i].ID, second[0].Members[i].ID)
		}
	}
	if first[0].Center != second[0].Center {
		t.Errorf("centers differ: %+v vs %+v", first[0].Center, second[0].Center)
	}
}

func TestHotZoneDetectorEmitsClusterPattern(t *testing.T) {
	incidents := []*models.Incident{
		testIncident("a", 55.60, 12.60, patternNow.Add(-3*time.Hour), 6),
		testIncident("b", 55.62, 12.61, patternNow.Add(-2*time.Hour), 6),
		testIncident("c", 55.61, 12.59, patternNow.Add(-1*time.Hour), 6),
	}
	trigger := incidents[2]

	snap := NewSnapshot(incidents, trigger, patternNow)
	patterns, err := NewHotZoneDetector(DefaultClusterConfig()).Detect(context.Background(), snap)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(patterns) != 1 {
		t.Fatalf("got %d patterns, want 1", len(patterns))
	}

	p := patterns[0]
	if p.Type != models.PatternInfrastructure {
		t.Errorf("Type = %q, want infrastructure-targeting", p.Type)
	}
	var c models.ClusterCharacteristics
	if err := json.Unmarshal(p.Characteristics, &c); err != nil {
		t.Fatalf("characteristics: %v", err)
	}
	if c.IncidentCount != 3 {
		t.Errorf("IncidentCount = %d, want 3", c.IncidentCount)
	}
	if c.MeanSeverity != 6 {
		t.Errorf("MeanSeverity = %f, want 6", c.MeanSeverity)
	}
	if p.SeverityLabel != models.SeverityHigh {
		t.Errorf("SeverityLabel = %q, want HIGH", p.SeverityLabel)
	}
}

func TestHotZoneDetectorReclassifiesMigration(t *testing.T) {
	// Six incidents over four hours: early half fixed, late half displaced
	// about 15 km east at latitude 55.
	const eastLon = 12.0 + 0.235195
	incidents := []*models.Incident{
		testIncident("e1", 55.0, 12.0, patternNow.Add(-4*time.Hour), 5),
		testIncident("e2", 55.0, 12.0, patternNow.Add(-3*time.Hour), 5),
		testIncident("e3", 55.0, 12.0, patternNow.Add(-150*time.Minute), 5),
		testIncident("l1", 55.0, eastLon, patternNow.Add(-100*time.Minute), 5),
		testIncident("l2", 55.0, eastLon, patternNow.Add(-50*time.Minute), 5),
		testIncident("l3", 55.0, eastLon, patternNow, 5),
	}
	trigger := incidents[5]

	snap := NewSnapshot(incidents, trigger, patternNow)
	patterns, err := NewHotZoneDetector(DefaultClusterConfig()).Detect(context.Background(), snap)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(patterns) != 1 {
		t.Fatalf("got %d patterns, want 1", len(patterns))
	}

	p := patterns[0]
	if p.Type != models.PatternMigration {
		t.Fatalf("Type = %q, want migration", p.Type)
	}
	var m models.MigrationCharacteristics
	if err := json.Unmarshal(p.Characteristics, &m); err != nil {
		t.Fatalf("characteristics: %v", err)
	}
	if math.Abs(m.SpeedKmH-3.75) > 0.1 {
		t.Errorf("SpeedKmH = %f, want ~3.75", m.SpeedKmH)
	}
	if m.Direction != "E" {
		t.Errorf("Direction = %q, want E", m.Direction)
	}
	if m.DistanceMeters < 14000 || m.DistanceMeters > 16000 {
		t.Errorf("DistanceMeters = %f, want ~15000", m.DistanceMeters)
	}
}

func TestSwarmDetectorBoundary(t *testing.T) {
	build := func(n int) []*models.Incident {
		incidents := make([]*models.Incident, n)
		for i := 0; i < n; i++ {
			incidents[i] = testIncident(fmt.Sprintf("s%d", i), 55.618, 12.656,
				patternNow.Add(-time.Duration(i)*time.Minute), 5)
		}
		return incidents
	}

	d := NewSwarmDetector(DefaultSwarmConfig())

	snap := NewSnapshot(build(5), nil, patternNow)
	patterns, err := d.Detect(context.Background(), snap)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(patterns) != 1 {
		t.Fatalf("5 incidents: got %d patterns, want 1", len(patterns))
	}
	if patterns[0].Confidence != 0.9 {
		t.Errorf("Confidence = %f, want 0.9", patterns[0].Confidence)
	}
	if patterns[0].SeverityLabel != models.SeverityCritical {
		t.Errorf("SeverityLabel = %q, want CRITICAL", patterns[0].SeverityLabel)
	}

	snap = NewSnapshot(build(4), nil, patternNow)
	patterns, err = d.Detect(context.Background(), snap)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if patterns != nil {
		t.Fatalf("4 incidents: got %d patterns, want none", len(patterns))
	}
}

func TestSwarmDetectorIgnoresDispersedIncidents(t *testing.T) {
	incidents := []*models.Incident{
		testIncident("s0", 55.6, 12.6, patternNow, 5),
		testIncident("s1", 56.0, 12.6, patternNow, 5),
		testIncident("s2", 56.4, 12.6, patternNow, 5),
		testIncident("s3", 56.8, 12.6, patternNow, 5),
		testIncident("s4", 57.2, 12.6, patternNow, 5),
	}

	snap := NewSnapshot(incidents, nil, patternNow)
	patterns, err := NewSwarmDetector(DefaultSwarmConfig()).Detect(context.Background(), snap)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if patterns != nil {
		t.Fatalf("dispersed incidents emitted %d patterns, want none", len(patterns))
	}
}

func TestRecurringDetectorFlagsPeakHour(t *testing.T) {
	// All incidents in the 14:00 bucket on a Saturday.
	incidents := make([]*models.Incident, 10)
	for i := range incidents {
		incidents[i] = testIncident(fmt.Sprintf("r%d", i), 55.6, 12.6,
			patternNow.Add(-time.Duration(i)*24*time.Hour), 5)
	}
	trigger := incidents[0]

	snap := NewSnapshot(incidents, trigger, patternNow)
	patterns, err := NewRecurringDetector(DefaultRecurringConfig()).Detect(context.Background(), snap)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(patterns) != 1 {
		t.Fatalf("got %d patterns, want 1", len(patterns))
	}

	var c models.RecurringCharacteristics
	if err := json.Unmarshal(patterns[0].Characteristics, &c); err != nil {
		t.Fatalf("characteristics: %v", err)
	}
	if len(c.PeakHours) != 1 || c.PeakHours[0] != 14 {
		t.Errorf("PeakHours = %v, want [14]", c.PeakHours)
	}
	for _, day := range c.PeakDays {
		valid := false
		for _, name := range dayNames {
			if day == name {
				valid = true
			}
		}
		if !valid {
			t.Errorf("invalid peak day %q", day)
		}
	}
}

func TestRecurringDetectorQuietHourNoPattern(t *testing.T) {
	incidents := make([]*models.Incident, 24)
	for i := range incidents {
		incidents[i] = testIncident(fmt.Sprintf("r%d", i), 55.6, 12.6,
			patternNow.Add(-time.Duration(i)*time.Hour), 5)
	}
	trigger := incidents[0]

	snap := NewSnapshot(incidents, trigger, patternNow)
	patterns, err := NewRecurringDetector(DefaultRecurringConfig()).Detect(context.Background(), snap)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if patterns != nil {
		t.Fatalf("uniform hours emitted %d patterns, want none", len(patterns))
	}
}

func TestPreferenceDetectorFlagsDominantAssetType(t *testing.T) {
	var incidents []*models.Incident
	for i := 0; i < 3; i++ {
		in := testIncident(fmt.Sprintf("ap%d", i), 55.6, 12.6, patternNow, 6)
		incidents = append(incidents, in)
	}
	for i := 0; i < 7; i++ {
		in := testIncident(fmt.Sprintf("u%d", i), 56.6, 13.6, patternNow, 3)
		in.Asset.Type = models.AssetTypeUnknown
		incidents = append(incidents, in)
	}

	snap := NewSnapshot(incidents, nil, patternNow)
	patterns, err := NewPreferenceDetector(DefaultPreferenceConfig()).Detect(context.Background(), snap)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(patterns) != 1 {
		t.Fatalf("got %d patterns, want 1", len(patterns))
	}

	p := patterns[0]
	if math.Abs(p.Confidence-0.3) > 1e-9 {
		t.Errorf("Confidence = %f, want 0.3", p.Confidence)
	}
	var prefs []models.InfrastructurePreference
	if err := json.Unmarshal(p.Characteristics, &prefs); err != nil {
		t.Fatalf("characteristics: %v", err)
	}
	if len(prefs) != 1 || prefs[0].Type != models.AssetTypeAirport {
		t.Errorf("preferences = %+v, want single airport entry", prefs)
	}
	if len(p.MemberIncidentIDs) != 3 {
		t.Errorf("members = %v, want the 3 airport incidents", p.MemberIncidentIDs)
	}
}

func TestPreferenceDetectorBalancedStoreNoPattern(t *testing.T) {
	types := []models.AssetType{
		models.AssetTypeAirport, models.AssetTypeMilitary, models.AssetTypeHarbour,
		models.AssetTypeRail, models.AssetTypeBorder, models.AssetTypeNuclear,
	}
	var incidents []*models.Incident
	for i, at := range types {
		in := testIncident(fmt.Sprintf("b%d", i), 55.6, 12.6, patternNow, 5)
		in.Asset.Type = at
		incidents = append(incidents, in)
	}

	snap := NewSnapshot(incidents, nil, patternNow)
	patterns, err := NewPreferenceDetector(DefaultPreferenceConfig()).Detect(context.Background(), snap)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if patterns != nil {
		t.Fatalf("balanced store emitted %d patterns, want none", len(patterns))
	}
}

func TestEscalationDetectorEmitsOnRisingTrend(t *testing.T) {
	incidents := []*models.Incident{
		testIncident("e0", 55.60, 12.60, patternNow.Add(-5*time.Hour), 2),
		testIncident("e1", 55.61, 12.61, patternNow.Add(-4*time.Hour), 2),
		testIncident("e2", 55.62, 12.62, patternNow.Add(-3*time.Hour), 3),
		testIncident("e3", 55.63, 12.63, patternNow.Add(-2*time.Hour), 5),
		testIncident("e4", 55.64, 12.64, patternNow.Add(-time.Hour), 9),
		testIncident("e5", 55.65, 12.65, patternNow, 9),
	}

	snap := NewSnapshot(incidents, nil, patternNow)
	patterns, err := NewEscalationDetector(DefaultEscalationConfig()).Detect(context.Background(), snap)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(patterns) != 1 {
		t.Fatalf("got %d patterns, want 1", len(patterns))
	}

	p := patterns[0]
	if p.Type != models.PatternEscalation {
		t.Errorf("Type = %q, want escalation", p.Type)
	}
	if p.Confidence != 0.8 {
		t.Errorf("Confidence = %f, want 0.8", p.Confidence)
	}
	if len(p.MemberIncidentIDs) != 6 {
		t.Errorf("members = %d, want the full recent window", len(p.MemberIncidentIDs))
	}
	// late mean 9 maps to the critical band
	if p.SeverityLabel != models.SeverityCritical {
		t.Errorf("SeverityLabel = %q, want CRITICAL", p.SeverityLabel)
	}

	var ch models.EscalationCharacteristics
	if err := json.Unmarshal(p.Characteristics, &ch); err != nil {
		t.Fatalf("characteristics unmarshal: %v", err)
	}
	if ch.EarlyMeanSeverity != 2 || ch.LateMeanSeverity != 9 {
		t.Errorf("means = %f/%f, want 2/9", ch.EarlyMeanSeverity, ch.LateMeanSeverity)
	}
	if ch.IncidentCount != 6 {
		t.Errorf("IncidentCount = %d, want 6", ch.IncidentCount)
	}
}

func TestEscalationDetectorQuietOnFlatAndFallingTrends(t *testing.T) {
	build := func(severities ...int) *Snapshot {
		incidents := make([]*models.Incident, len(severities))
		for i, sev := range severities {
			incidents[i] = testIncident(fmt.Sprintf("e%d", i), 55.6, 12.6,
				patternNow.Add(-time.Duration(len(severities)-i)*time.Hour), sev)
		}
		return NewSnapshot(incidents, nil, patternNow)
	}

	d := NewEscalationDetector(DefaultEscalationConfig())

	for name, snap := range map[string]*Snapshot{
		"flat":    build(5, 5, 5, 5, 5, 5),
		"falling": build(9, 9, 5, 4, 2, 2),
		"sparse":  build(2, 9),
	} {
		patterns, err := d.Detect(context.Background(), snap)
		if err != nil {
			t.Fatalf("%s: Detect() error = %v", name, err)
		}
		if patterns != nil {
			t.Errorf("%s trend emitted %d patterns, want none", name, len(patterns))
		}
	}
}

func TestEscalationDetectorWindowExcludesOldIncidents(t *testing.T) {
	// The low-severity early third sits outside the 24h window, so the
	// surviving window is flat and nothing fires.
	incidents := []*models.Incident{
		testIncident("old0", 55.60, 12.60, patternNow.Add(-30*time.Hour), 2),
		testIncident("old1", 55.61, 12.61, patternNow.Add(-28*time.Hour), 2),
		testIncident("e0", 55.62, 12.62, patternNow.Add(-2*time.Hour), 9),
		testIncident("e1", 55.63, 12.63, patternNow.Add(-time.Hour), 9),
		testIncident("e2", 55.64, 12.64, patternNow, 9),
	}

	snap := NewSnapshot(incidents, nil, patternNow)
	patterns, err := NewEscalationDetector(DefaultEscalationConfig()).Detect(context.Background(), snap)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if patterns != nil {
		t.Fatalf("stale low-severity incidents leaked into the trend: %d patterns", len(patterns))
	}
}
