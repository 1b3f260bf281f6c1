// AeroSentry - Drone Incident Correlation and Evidentiary Fusion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aerosentry

package patterns

import (
	"github.com/tomtom215/aerosentry/internal/geo"
	"github.com/tomtom215/aerosentry/internal/models"
)

// SpatialCluster is an ephemeral grouping of nearby incidents. Recomputed
// on every detection pass, never persisted.
type SpatialCluster struct {
	Center       models.Location
	RadiusMeters float64
	Members      []*models.Incident
}

// Contains reports whether a location falls inside the cluster radius.
func (c *SpatialCluster) Contains(loc models.Location) bool {
	return geo.DistanceMeters(loc, c.Center) <= c.RadiusMeters
}

// CreateSpatialClusters groups incidents by a greedy star clustering: each
// unvisited located incident seeds a cluster, and every other unvisited
// incident within epsilon of the SEED joins it. Membership is measured
// against the seed, not against other members, which keeps the result
// deterministic for a given input order. After collection the center is
// recomputed as the member centroid and the radius as the max member
// distance to that center. Clusters below minIncidents are discarded.
func CreateSpatialClusters(incidents []*models.Incident, epsilonMeters float64, minIncidents int) []SpatialCluster {
	var clusters []SpatialCluster
	visited := make([]bool, len(incidents))

	for i, seed := range incidents {
		if visited[i] || !seed.Location.HasCoordinates() {
			continue
		}

		members := []*models.Incident{seed}
		visited[i] = true

		for j, other := range incidents {
			if visited[j] || !other.Location.HasCoordinates() {
				continue
			}
			if geo.DistanceMeters(seed.Location, other.Location) <= epsilonMeters {
				members = append(members, other)
				visited[j] = true
			}
		}

		if len(members) < minIncidents {
			continue
		}

		locs := make([]models.Location, len(members))
		for k, m := range members {
			locs[k] = m.Location
		}
		center := geo.Centroid(locs)

		radius := 0.0
		for _, m := range members {
			if d := geo.DistanceMeters(m.Location, center); d > radius {
				radius = d
			}
		}

		clusters = append(clusters, SpatialCluster{
			Center:       center,
			RadiusMeters: radius,
			Members:      members,
		})
	}

	return clusters
}
