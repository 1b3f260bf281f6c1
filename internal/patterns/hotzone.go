// AeroSentry - Drone Incident Correlation and Evidentiary Fusion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aerosentry

package patterns

import (
	"context"
	"fmt"
	"sync"

	"github.com/goccy/go-json"

	"github.com/tomtom215/aerosentry/internal/geo"
	"github.com/tomtom215/aerosentry/internal/models"
)

// HotZoneDetector finds spatial incident clusters around the trigger and
// emits them as infrastructure-targeting hot zones, or as migration patterns
// when the cluster's center of mass is drifting.
type HotZoneDetector struct {
	mu      sync.RWMutex
	config  ClusterConfig
	enabled bool
}

// NewHotZoneDetector creates the detector with the given config.
func NewHotZoneDetector(config ClusterConfig) *HotZoneDetector {
	return &HotZoneDetector{config: config, enabled: true}
}

// Type returns the pattern type. Migration findings are a reclassification
// of the same cluster analysis, so one detector owns both.
func (d *HotZoneDetector) Type() models.PatternType {
	return models.PatternInfrastructure
}

// Detect clusters the snapshot and reports the largest qualifying cluster
// containing the trigger. On sweeps (nil trigger) every qualifying cluster
// is reported.
func (d *HotZoneDetector) Detect(_ context.Context, snap *Snapshot) ([]*models.Pattern, error) {
	d.mu.RLock()
	cfg := d.config
	d.mu.RUnlock()

	clusters := CreateSpatialClusters(snap.Incidents, cfg.EpsilonMeters, cfg.MinIncidents)
	if len(clusters) == 0 {
		return nil, nil
	}

	if snap.Trigger == nil {
		patterns := make([]*models.Pattern, 0, len(clusters))
		for i := range clusters {
			patterns = append(patterns, d.clusterPattern(&clusters[i], cfg, snap))
		}
		return patterns, nil
	}

	// Largest cluster whose radius covers the trigger.
	var target *SpatialCluster
	for i := range clusters {
		c := &clusters[i]
		if !c.Contains(snap.Trigger.Location) {
			continue
		}
		if target == nil || len(c.Members) > len(target.Members) {
			target = c
		}
	}
	if target == nil {
		return nil, nil
	}

	return []*models.Pattern{d.clusterPattern(target, cfg, snap)}, nil
}

// clusterPattern renders one cluster as a hot-zone pattern, upgraded to
// migration when the early-half centroid has moved far enough.
func (d *HotZoneDetector) clusterPattern(c *SpatialCluster, cfg ClusterConfig, snap *Snapshot) *models.Pattern {
	severity := meanSeverity(c.Members)
	label := severityLabelForMean(severity)
	confidence := float64(len(c.Members)) / float64(len(snap.Incidents))

	if vector, migrating := migrationVector(c, cfg.MigrationMinMeters); migrating {
		return newPattern(
			models.PatternMigration,
			confidence,
			c.Members,
			vector,
			label,
			fmt.Sprintf("Threat migration detected - pattern moving %s", vector.Direction),
			snap.Now,
		)
	}

	characteristics := models.ClusterCharacteristics{
		CenterLat:     c.Center.Lat,
		CenterLon:     c.Center.Lon,
		RadiusMeters:  c.RadiusMeters,
		IncidentCount: len(c.Members),
		AssetTypes:    assetTypes(c.Members),
		MeanSeverity:  severity,
	}
	return newPattern(
		models.PatternInfrastructure,
		confidence,
		c.Members,
		characteristics,
		label,
		fmt.Sprintf("Hot zone identified with %d incidents", len(c.Members)),
		snap.Now,
	)
}

// migrationVector splits the cluster's members (already time-ordered in the
// snapshot) into early and late halves and measures centroid displacement.
// A cluster migrates when the displacement exceeds the threshold; speed is
// computed over the first-to-last member timestamps.
func migrationVector(c *SpatialCluster, minMeters float64) (models.MigrationCharacteristics, bool) {
	if len(c.Members) < 3 {
		return models.MigrationCharacteristics{}, false
	}

	half := len(c.Members) / 2
	early := centroidOf(c.Members[:half])
	late := centroidOf(c.Members[half:])

	distance := geo.DistanceMeters(early, late)
	if distance <= minMeters {
		return models.MigrationCharacteristics{}, false
	}

	bearing := geo.BearingDegrees(early, late)
	elapsed := c.Members[len(c.Members)-1].FirstSeenAt.Sub(c.Members[0].FirstSeenAt)

	speed := 0.0
	if hours := elapsed.Hours(); hours > 0 {
		speed = distance / 1000 / hours
	}

	return models.MigrationCharacteristics{
		FromLat:        early.Lat,
		FromLon:        early.Lon,
		ToLat:          late.Lat,
		ToLon:          late.Lon,
		Bearing:        bearing,
		Direction:      geo.CompassDirection(bearing),
		DistanceMeters: distance,
		SpeedKmH:       speed,
	}, true
}

func centroidOf(incidents []*models.Incident) models.Location {
	locs := make([]models.Location, len(incidents))
	for i, in := range incidents {
		locs[i] = in.Location
	}
	return geo.Centroid(locs)
}

// assetTypes lists the distinct asset types present, in member order.
func assetTypes(incidents []*models.Incident) []models.AssetType {
	seen := make(map[models.AssetType]bool)
	var types []models.AssetType
	for _, in := range incidents {
		t := in.Asset.Type
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		types = append(types, t)
	}
	return types
}

// Configure updates the detector configuration from JSON.
func (d *HotZoneDetector) Configure(config json.RawMessage) error {
	var cfg ClusterConfig
	if err := json.Unmarshal(config, &cfg); err != nil {
		return fmt.Errorf("hot zone config: %w", err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.config = cfg
	return nil
}

// Enabled returns whether this detector is enabled.
func (d *HotZoneDetector) Enabled() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.enabled
}

// SetEnabled enables or disables the detector.
func (d *HotZoneDetector) SetEnabled(enabled bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enabled = enabled
}
