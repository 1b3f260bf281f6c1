// AeroSentry - Drone Incident Correlation and Evidentiary Fusion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aerosentry

package patterns

import (
	"context"
	"sort"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/aerosentry/internal/models"
)

// Snapshot is the immutable store view a detection pass operates on.
// Incidents are sorted by first-seen time, ties broken by arrival order, so
// migration and escalation splits are deterministic.
type Snapshot struct {
	// Incidents is the full store view, sorted oldest first.
	Incidents []*models.Incident

	// Trigger is the incident that caused this pass, nil on periodic sweeps.
	// Detectors that anchor on "the new incident" return no patterns when
	// Trigger is nil.
	Trigger *models.Incident

	// Now anchors all recency windows for the pass.
	Now time.Time
}

// NewSnapshot builds a snapshot from a store view in arrival order. The
// input slice is sorted in place.
func NewSnapshot(incidents []*models.Incident, trigger *models.Incident, now time.Time) *Snapshot {
	sort.SliceStable(incidents, func(i, j int) bool {
		return incidents[i].FirstSeenAt.Before(incidents[j].FirstSeenAt)
	})
	return &Snapshot{Incidents: incidents, Trigger: trigger, Now: now}
}

// Detector is the interface all pattern detectors implement. Detectors are
// side-effect-free over the snapshot; emitting patterns is the analyzer's job.
type Detector interface {
	// Type returns the pattern type this detector emits.
	Type() models.PatternType

	// Detect evaluates the snapshot and returns zero or more patterns.
	// A small store is not an error; detectors below their minimum sample
	// size return (nil, nil).
	Detect(ctx context.Context, snap *Snapshot) ([]*models.Pattern, error)

	// Configure updates the detector configuration.
	Configure(config json.RawMessage) error

	// Enabled returns whether this detector is currently enabled.
	Enabled() bool

	// SetEnabled enables or disables the detector.
	SetEnabled(enabled bool)
}

// Notifier delivers detected patterns to external channels.
type Notifier interface {
	// Send delivers a pattern to the notification channel.
	Send(ctx context.Context, pattern *models.Pattern) error

	// Name returns the notifier name (e.g. "webhook", "log").
	Name() string

	// Enabled returns whether this notifier is enabled.
	Enabled() bool
}

// PatternBroadcaster pushes patterns to live subscribers (WebSocket).
type PatternBroadcaster interface {
	BroadcastJSON(messageType string, data interface{})
}

// CoordinatedConfig configures the coordinated-activity detector.
type CoordinatedConfig struct {
	// Window is the correlation time window.
	Window time.Duration `json:"window"`

	// DistanceMeters is the correlation distance threshold.
	DistanceMeters float64 `json:"distance_meters"`

	// ConfidenceThreshold is the minimum pairwise correlation to count a
	// neighbour as related.
	ConfidenceThreshold float64 `json:"confidence_threshold"`

	// MinIncidents is the pattern-wide minimum member count, trigger included.
	MinIncidents int `json:"min_incidents"`
}

// DefaultCoordinatedConfig returns the standard thresholds.
func DefaultCoordinatedConfig() CoordinatedConfig {
	return CoordinatedConfig{
		Window:              time.Hour,
		DistanceMeters:      50000,
		ConfidenceThreshold: 0.7,
		MinIncidents:        3,
	}
}

// ClusterConfig configures the spatial hot-zone detector.
type ClusterConfig struct {
	// EpsilonMeters is the star-clustering radius around each seed.
	EpsilonMeters float64 `json:"epsilon_meters"`

	// MinIncidents is the minimum cluster size to qualify.
	MinIncidents int `json:"min_incidents"`

	// MigrationMinMeters is the early-to-late centroid displacement above
	// which a hot zone is reclassified as migrating.
	MigrationMinMeters float64 `json:"migration_min_meters"`
}

// DefaultClusterConfig returns the standard thresholds.
func DefaultClusterConfig() ClusterConfig {
	return ClusterConfig{
		EpsilonMeters:      50000,
		MinIncidents:       3,
		MigrationMinMeters: 10000,
	}
}

// SwarmConfig configures the swarm detector.
type SwarmConfig struct {
	// Window is the lookback: only incidents first seen within it count.
	Window time.Duration `json:"window"`

	// MinIncidents is the minimum simultaneous incident count.
	MinIncidents int `json:"min_incidents"`

	// MeanRadiusMeters is the maximum mean member-to-centroid distance.
	MeanRadiusMeters float64 `json:"mean_radius_meters"`
}

// DefaultSwarmConfig returns the standard thresholds.
func DefaultSwarmConfig() SwarmConfig {
	return SwarmConfig{
		Window:           10 * time.Minute,
		MinIncidents:     5,
		MeanRadiusMeters: 10000,
	}
}

// EscalationConfig configures the severity-trend detector.
type EscalationConfig struct {
	// Window is the lookback over which the trend is computed.
	Window time.Duration `json:"window"`

	// MinIncidents is the minimum window population for a trend to mean
	// anything.
	MinIncidents int `json:"min_incidents"`
}

// DefaultEscalationConfig returns the standard thresholds.
func DefaultEscalationConfig() EscalationConfig {
	return EscalationConfig{Window: 24 * time.Hour, MinIncidents: 3}
}

// RecurringConfig configures the temporal-pattern detector.
type RecurringConfig struct {
	// TriggerFactor is the multiple of the mean hourly count the trigger's
	// hour bucket must exceed.
	TriggerFactor float64 `json:"trigger_factor"`

	// PeakFactor is the multiple of the mean above which an hour or day is
	// listed as a peak.
	PeakFactor float64 `json:"peak_factor"`
}

// DefaultRecurringConfig returns the standard factors.
func DefaultRecurringConfig() RecurringConfig {
	return RecurringConfig{TriggerFactor: 2.0, PeakFactor: 1.5}
}

// PreferenceConfig configures the infrastructure-preference detector.
type PreferenceConfig struct {
	// MinShare is the fraction of all incidents a single asset type must
	// exceed to count as a preferred target.
	MinShare float64 `json:"min_share"`
}

// DefaultPreferenceConfig returns the standard share threshold.
func DefaultPreferenceConfig() PreferenceConfig {
	return PreferenceConfig{MinShare: 0.2}
}

// newPattern assembles an emitted pattern. Characteristics marshalling
// cannot fail for the payload structs in models; a marshal error leaves the
// payload empty rather than dropping the finding.
func newPattern(
	pType models.PatternType,
	confidence float64,
	members []*models.Incident,
	characteristics interface{},
	label models.SeverityLabel,
	message string,
	detectedAt time.Time,
) *models.Pattern {
	p := &models.Pattern{
		ID:                uuid.NewString(),
		Type:              pType,
		Confidence:        confidence,
		MemberIncidentIDs: memberIDs(members),
		SeverityLabel:     label,
		Message:           message,
		DetectedAt:        detectedAt,
	}
	if characteristics != nil {
		if raw, err := json.Marshal(characteristics); err == nil {
			p.Characteristics = raw
		}
	}
	return p
}

// severityLabelForMean maps a mean member severity (1-10) to a label.
func severityLabelForMean(mean float64) models.SeverityLabel {
	switch {
	case mean >= 8:
		return models.SeverityCritical
	case mean >= 6:
		return models.SeverityHigh
	case mean >= 4:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

func severityOf(in *models.Incident) float64 {
	return float64(severityOrDefault(in))
}

func meanSeverity(incidents []*models.Incident) float64 {
	if len(incidents) == 0 {
		return 0
	}
	total := 0.0
	for _, in := range incidents {
		total += severityOf(in)
	}
	return total / float64(len(incidents))
}

func memberIDs(incidents []*models.Incident) []string {
	ids := make([]string, len(incidents))
	for i, in := range incidents {
		ids[i] = in.ID
	}
	return ids
}
