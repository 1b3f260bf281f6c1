// AeroSentry - Drone Incident Correlation and Evidentiary Fusion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aerosentry

package geo

import (
	"math"
	"testing"

	"github.com/tomtom215/aerosentry/internal/models"
)

var (
	copenhagen = models.Location{Name: "Copenhagen Airport", Lat: 55.6180, Lon: 12.6560}
	billund    = models.Location{Name: "Billund Airport", Lat: 55.7403, Lon: 9.1522}
	heathrow   = models.Location{Name: "London Heathrow", Lat: 51.4700, Lon: -0.4543}
	noCoords   = models.Location{Name: "somewhere"}
)

func TestDistanceMeters(t *testing.T) {
	tests := []struct {
		name      string
		a, b      models.Location
		wantKm    float64
		tolerance float64
	}{
		{"copenhagen to billund", copenhagen, billund, 218, 10},
		{"copenhagen to heathrow", copenhagen, heathrow, 967, 30},
		{"same point", copenhagen, copenhagen, 0, 0.001},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceMeters(tt.a, tt.b) / 1000
			if math.Abs(got-tt.wantKm) > tt.tolerance {
				t.Errorf("DistanceMeters() = %.1f km, want %.1f±%.1f km", got, tt.wantKm, tt.tolerance)
			}
		})
	}
}

func TestDistanceSymmetry(t *testing.T) {
	ab := DistanceMeters(copenhagen, heathrow)
	ba := DistanceMeters(heathrow, copenhagen)
	if ab != ba {
		t.Errorf("distance not symmetric: %f != %f", ab, ba)
	}
	if d := DistanceMeters(copenhagen, copenhagen); d != 0 {
		t.Errorf("distance to self = %f, want 0", d)
	}
}

func TestDistanceMissingCoordinates(t *testing.T) {
	if d := DistanceMeters(noCoords, copenhagen); !math.IsInf(d, 1) {
		t.Errorf("distance with missing coordinates = %f, want +Inf", d)
	}
	if d := DistanceMeters(copenhagen, noCoords); !math.IsInf(d, 1) {
		t.Errorf("distance with missing coordinates = %f, want +Inf", d)
	}
}

func TestBearingDegrees(t *testing.T) {
	tests := []struct {
		name     string
		from, to models.Location
		want     float64
		tol      float64
	}{
		{"due north", models.Location{Lat: 50, Lon: 10}, models.Location{Lat: 51, Lon: 10}, 0, 0.5},
		{"due east", models.Location{Lat: 0, Lon: 10}, models.Location{Lat: 0, Lon: 11}, 90, 0.5},
		{"due south", models.Location{Lat: 51, Lon: 10}, models.Location{Lat: 50, Lon: 10}, 180, 0.5},
		{"due west", models.Location{Lat: 0, Lon: 11}, models.Location{Lat: 0, Lon: 10}, 270, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BearingDegrees(tt.from, tt.to)
			if math.Abs(got-tt.want) > tt.tol {
				t.Errorf("BearingDegrees() = %.2f, want %.2f", got, tt.want)
			}
		})
	}
}

func TestCompassDirection(t *testing.T) {
	tests := []struct {
		bearing float64
		want    string
	}{
		{0, "N"}, {44, "NE"}, {45, "NE"}, {90, "E"}, {135, "SE"},
		{180, "S"}, {225, "SW"}, {270, "W"}, {315, "NW"}, {350, "N"},
	}
	for _, tt := range tests {
		if got := CompassDirection(tt.bearing); got != tt.want {
			t.Errorf("CompassDirection(%.0f) = %q, want %q", tt.bearing, got, tt.want)
		}
	}
}

func TestCentroid(t *testing.T) {
	locs := []models.Location{
		{Lat: 10, Lon: 20},
		{Lat: 20, Lon: 40},
		noCoords, // skipped
	}
	c := Centroid(locs)
	if c.Lat != 15 || c.Lon != 30 {
		t.Errorf("Centroid() = (%f, %f), want (15, 30)", c.Lat, c.Lon)
	}

	empty := Centroid([]models.Location{noCoords})
	if empty.HasCoordinates() {
		t.Errorf("Centroid of invalid points should be the (0,0) sentinel")
	}
}

func TestBounds(t *testing.T) {
	locs := []models.Location{
		{Lat: 10, Lon: -5},
		{Lat: 20, Lon: 15},
	}
	box, ok := Bounds(locs)
	if !ok {
		t.Fatal("Bounds() reported no valid locations")
	}
	if box.MinLat != 10 || box.MaxLat != 20 || box.MinLon != -5 || box.MaxLon != 15 {
		t.Errorf("Bounds() = %+v", box)
	}
	if _, ok := Bounds([]models.Location{noCoords}); ok {
		t.Error("Bounds() of no valid locations should report false")
	}
}
