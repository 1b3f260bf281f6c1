// AeroSentry - Drone Incident Correlation and Evidentiary Fusion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aerosentry

// Package geo provides the geodesic primitives used by the correlation and
// pattern detection layers: haversine distance, initial bearing, compass
// labels, centroids and bounding boxes. All functions are pure.
package geo

import (
	"math"

	"github.com/tomtom215/aerosentry/internal/models"
)

// earthRadiusMeters is the mean Earth radius used by the haversine formula.
const earthRadiusMeters = 6371000

// DistanceMeters returns the great-circle distance between two locations.
// Locations without coordinates yield +Inf so that absent positions fail
// every proximity test instead of clustering at (0,0).
func DistanceMeters(a, b models.Location) float64 {
	if !a.HasCoordinates() || !b.HasCoordinates() {
		return math.Inf(1)
	}
	return haversine(a.Lat, a.Lon, b.Lat, b.Lon)
}

func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	h := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMeters * c
}

// BearingDegrees returns the initial compass bearing (0-360) from one
// location to another.
func BearingDegrees(from, to models.Location) float64 {
	phi1 := from.Lat * math.Pi / 180
	phi2 := to.Lat * math.Pi / 180
	dLambda := (to.Lon - from.Lon) * math.Pi / 180

	y := math.Sin(dLambda) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLambda)

	theta := math.Atan2(y, x)
	return math.Mod(theta*180/math.Pi+360, 360)
}

var compassLabels = [8]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// CompassDirection maps a bearing to one of the 8 compass labels.
func CompassDirection(bearing float64) string {
	idx := int(math.Round(bearing/45)) % 8
	return compassLabels[idx]
}

// Centroid returns the arithmetic mean of the locations that carry
// coordinates. With no valid input it returns the (0,0) sentinel; callers
// must treat that as "no centroid", not a real position.
func Centroid(locations []models.Location) models.Location {
	var sumLat, sumLon float64
	var n int
	for _, l := range locations {
		if !l.HasCoordinates() {
			continue
		}
		sumLat += l.Lat
		sumLon += l.Lon
		n++
	}
	if n == 0 {
		return models.Location{}
	}
	return models.Location{Lat: sumLat / float64(n), Lon: sumLon / float64(n)}
}

// BoundingBox is an axis-aligned lat/lon rectangle.
type BoundingBox struct {
	MinLat, MinLon float64
	MaxLat, MaxLon float64
}

// Bounds returns the bounding box of the locations with coordinates, and
// false when none carry coordinates.
func Bounds(locations []models.Location) (BoundingBox, bool) {
	box := BoundingBox{
		MinLat: math.Inf(1), MinLon: math.Inf(1),
		MaxLat: math.Inf(-1), MaxLon: math.Inf(-1),
	}
	found := false
	for _, l := range locations {
		if !l.HasCoordinates() {
			continue
		}
		found = true
		box.MinLat = math.Min(box.MinLat, l.Lat)
		box.MinLon = math.Min(box.MinLon, l.Lon)
		box.MaxLat = math.Max(box.MaxLat, l.Lat)
		box.MaxLon = math.Max(box.MaxLon, l.Lon)
	}
	return box, found
}
