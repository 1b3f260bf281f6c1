// AeroSentry - Drone Incident Correlation and Evidentiary Fusion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aerosentry

package risk

import (
	"fmt"
	"testing"
	"time"

	"github.com/tomtom215/aerosentry/internal/models"
)

// trendIncidents builds a time-ordered history, one incident per severity,
// spaced ten minutes apart.
func trendIncidents(severities ...int) []*models.Incident {
	incidents := make([]*models.Incident, len(severities))
	for i, sev := range severities {
		incidents[i] = storeIncident(
			fmt.Sprintf("trend-%d", i),
			sev,
			triageNow.Add(time.Duration(i)*10*time.Minute),
		)
	}
	return incidents
}

func TestAnalyzeSeverityTrend(t *testing.T) {
	tests := []struct {
		name       string
		severities []int
		want       models.SeverityTrend
	}{
		{
			name:       "rising thirds escalate",
			severities: []int{2, 2, 3, 5, 9, 9}, // early mean 2, late mean 9
			want:       models.TrendEscalating,
		},
		{
			name:       "falling thirds de-escalate",
			severities: []int{9, 9, 5, 4, 2, 2}, // early mean 9, late mean 2
			want:       models.TrendDeEscalating,
		},
		{
			name:       "flat history is stable",
			severities: []int{5, 5, 5, 5, 5, 5},
			want:       models.TrendStable,
		},
		{
			name:       "exactly 1.5x late mean is stable",
			severities: []int{2, 2, 5, 5, 3, 3}, // late 3 == early 2 * 1.5, not above
			want:       models.TrendStable,
		},
		{
			name:       "just above 1.5x escalates",
			severities: []int{2, 2, 3, 3, 4, 4}, // late 4 > early 2 * 1.5
			want:       models.TrendEscalating,
		},
		{
			name:       "exactly 0.5x late mean is stable",
			severities: []int{8, 8, 5, 5, 4, 4}, // late 4 == early 8 * 0.5, not below
			want:       models.TrendStable,
		},
		{
			name:       "just below 0.5x de-escalates",
			severities: []int{8, 8, 5, 5, 3, 3}, // late 3 < early 8 * 0.5
			want:       models.TrendDeEscalating,
		},
		{
			name:       "two incidents are too few",
			severities: []int{1, 10},
			want:       models.TrendStable,
		},
		{
			name:       "minimum history of three classifies",
			severities: []int{2, 5, 9}, // thirds of one: 9 > 2 * 1.5
			want:       models.TrendEscalating,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AnalyzeSeverityTrend(trendIncidents(tt.severities...)); got != tt.want {
				t.Errorf("AnalyzeSeverityTrend(%v) = %q, want %q", tt.severities, got, tt.want)
			}
		})
	}
}

func TestSeverityTrendOrdersByFirstSeen(t *testing.T) {
	// Same incidents as the escalating case, presented newest first.
	incidents := trendIncidents(2, 2, 3, 5, 9, 9)
	reversed := make([]*models.Incident, len(incidents))
	for i, in := range incidents {
		reversed[len(incidents)-1-i] = in
	}

	if got := AnalyzeSeverityTrend(reversed); got != models.TrendEscalating {
		t.Errorf("AnalyzeSeverityTrend(reversed) = %q, want escalating", got)
	}
	if reversed[0].ID != "trend-5" {
		t.Error("input slice order must not be mutated by the trend sort")
	}
}

func TestSeverityTrendDetailReportsMeans(t *testing.T) {
	_, early, late := SeverityTrendDetail(trendIncidents(2, 2, 3, 5, 9, 9))
	if early != 2 {
		t.Errorf("early mean = %f, want 2", early)
	}
	if late != 9 {
		t.Errorf("late mean = %f, want 9", late)
	}
}

func TestAssessReportsSeverityTrend(t *testing.T) {
	incidents := trendIncidents(2, 2, 3, 5, 9, 9)
	in := incidents[len(incidents)-1]

	got := NewTriager(nil).Assess(incidents, in, false)
	if got.Trend != models.TrendEscalating {
		t.Errorf("Trend = %q, want escalating", got.Trend)
	}

	solo := storeIncident("solo", 5, triageNow)
	if got := NewTriager(nil).Assess([]*models.Incident{solo}, solo, false); got.Trend != models.TrendStable {
		t.Errorf("Trend = %q for one-incident history, want stable", got.Trend)
	}
}
