// AeroSentry - Drone Incident Correlation and Evidentiary Fusion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aerosentry

package patterns

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/aerosentry/internal/models"
)

type stubDetector struct {
	pType    models.PatternType
	patterns []*models.Pattern
	err      error
	enabled  bool
}

func (d *stubDetector) Type() models.PatternType { return d.pType }
func (d *stubDetector) Detect(context.Context, *Snapshot) ([]*models.Pattern, error) {
	return d.patterns, d.err
}
func (d *stubDetector) Configure(json.RawMessage) error { return nil }
func (d *stubDetector) Enabled() bool                   { return d.enabled }
func (d *stubDetector) SetEnabled(enabled bool)         { d.enabled = enabled }

func TestAnalyzerIsolatesDetectorErrors(t *testing.T) {
	store := NewStore()
	analyzer := NewAnalyzer(store, nil)

	good := &models.Pattern{ID: "p1", Type: models.PatternSwarm, DetectedAt: patternNow}
	analyzer.RegisterDetector(&stubDetector{
		pType: models.PatternCoordinated, err: errors.New("boom"), enabled: true,
	})
	analyzer.RegisterDetector(&stubDetector{
		pType: models.PatternSwarm, patterns: []*models.Pattern{good}, enabled: true,
	})

	snap := NewSnapshot(nil, nil, patternNow)
	patterns, err := analyzer.Analyze(context.Background(), snap)
	if err == nil {
		t.Error("Analyze() error = nil, want detection error reported")
	}
	if len(patterns) != 1 || patterns[0].ID != "p1" {
		t.Fatalf("patterns = %v, want the healthy detector's finding", patterns)
	}
	if store.Len() != 1 {
		t.Errorf("store.Len() = %d, want 1", store.Len())
	}

	m := analyzer.Metrics()
	if m.DetectionErrors != 1 {
		t.Errorf("DetectionErrors = %d, want 1", m.DetectionErrors)
	}
	if m.PatternsEmitted != 1 {
		t.Errorf("PatternsEmitted = %d, want 1", m.PatternsEmitted)
	}
}

func TestAnalyzerSkipsDisabledDetectors(t *testing.T) {
	analyzer := NewAnalyzer(NewStore(), nil)
	analyzer.RegisterDetector(&stubDetector{
		pType:    models.PatternSwarm,
		patterns: []*models.Pattern{{ID: "p1", Type: models.PatternSwarm}},
		enabled:  false,
	})

	patterns, err := analyzer.Analyze(context.Background(), NewSnapshot(nil, nil, patternNow))
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if patterns != nil {
		t.Fatalf("disabled detector produced %d patterns", len(patterns))
	}
}

func TestAnalyzerDisabledEngineDoesNothing(t *testing.T) {
	analyzer := NewAnalyzer(NewStore(), nil)
	analyzer.RegisterDetector(&stubDetector{
		pType:    models.PatternSwarm,
		patterns: []*models.Pattern{{ID: "p1", Type: models.PatternSwarm}},
		enabled:  true,
	})
	analyzer.SetEnabled(false)

	patterns, err := analyzer.Analyze(context.Background(), NewSnapshot(nil, nil, patternNow))
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if patterns != nil {
		t.Fatalf("disabled analyzer produced %d patterns", len(patterns))
	}
}

func TestStoreEvictsBeyondCap(t *testing.T) {
	store := &Store{cap: 3}
	for i := 0; i < 5; i++ {
		store.Add(&models.Pattern{
			ID:         fmt.Sprintf("p%d", i),
			Type:       models.PatternSwarm,
			DetectedAt: patternNow.Add(time.Duration(i) * time.Minute),
		})
	}

	if store.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", store.Len())
	}
	recent := store.Recent(0)
	if recent[0].ID != "p4" || recent[len(recent)-1].ID != "p2" {
		t.Errorf("Recent() order = [%s..%s], want newest first p4..p2", recent[0].ID, recent[len(recent)-1].ID)
	}

	counts := store.CountByType()
	if counts[models.PatternSwarm] != 3 {
		t.Errorf("CountByType[swarm] = %d, want 3", counts[models.PatternSwarm])
	}
}

func TestNewSnapshotSortsByFirstSeen(t *testing.T) {
	a := testIncident("late", 55.6, 12.6, patternNow, 5)
	b := testIncident("early", 55.6, 12.6, patternNow.Add(-time.Hour), 5)
	c := testIncident("tie", 55.6, 12.6, patternNow, 5)

	snap := NewSnapshot([]*models.Incident{a, b, c}, nil, patternNow)
	want := []string{"early", "late", "tie"}
	for i, in := range snap.Incidents {
		if in.ID != want[i] {
			t.Errorf("Incidents[%d] = %q, want %q (stable time order)", i, in.ID, want[i])
		}
	}
}
