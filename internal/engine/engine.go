// AeroSentry - Drone Incident Correlation and Evidentiary Fusion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aerosentry

// Package engine wires the fusion pipeline: normalization, identity
// resolution, evidence classification, pattern detection and risk scoring.
// Every candidate report flows through Ingest; consumers observe results
// through the incident store, the event bus and the WebSocket hub.
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"

	"github.com/tomtom215/aerosentry/internal/alerting"
	"github.com/tomtom215/aerosentry/internal/archive"
	"github.com/tomtom215/aerosentry/internal/config"
	"github.com/tomtom215/aerosentry/internal/evidence"
	"github.com/tomtom215/aerosentry/internal/geo"
	"github.com/tomtom215/aerosentry/internal/logging"
	"github.com/tomtom215/aerosentry/internal/metrics"
	"github.com/tomtom215/aerosentry/internal/models"
	"github.com/tomtom215/aerosentry/internal/normalize"
	"github.com/tomtom215/aerosentry/internal/patterns"
	"github.com/tomtom215/aerosentry/internal/resolver"
	"github.com/tomtom215/aerosentry/internal/risk"
)

// Engine owns the full ingest pipeline and the stores it feeds.
type Engine struct {
	cfg          *config.Config
	resolver     *resolver.Resolver
	classifier   *evidence.Classifier
	analyzer     *patterns.Analyzer
	patternStore *patterns.Store
	scorer       *risk.Scorer
	triager      *risk.Triager
	archive      *archive.Store
	hub          patterns.PatternBroadcaster
	bus          *gochannel.GoChannel
	now          func() time.Time
}

// IngestReport is the full outcome of ingesting one candidate.
type IngestReport struct {
	Incident            *models.Incident        `json:"incident"`
	Created             bool                    `json:"created"`
	MergedByCorrelation bool                    `json:"merged_by_correlation"`
	Risk                models.RiskAssessment   `json:"risk"`
	Triage              models.TriageAssessment `json:"triage"`
	Patterns            []*models.Pattern       `json:"patterns,omitempty"`
}

// BatchResult pairs one batch entry with its outcome. Rejected entries
// carry the error; the rest of the batch is unaffected.
type BatchResult struct {
	Index  int           `json:"index"`
	Report *IngestReport `json:"report,omitempty"`
	Err    error         `json:"-"`
	Error  string        `json:"error,omitempty"`
}

// New assembles the pipeline from configuration. The hub may be nil; the
// archive is opened only when enabled.
func New(cfg *config.Config, hub patterns.PatternBroadcaster) (*Engine, error) {
	res := resolver.New(resolver.NewStore(), resolver.Config{
		MergeWindow:         cfg.Correlation.Window,
		MergeDistanceMeters: cfg.Correlation.DistanceMeters,
		MergeThreshold:      cfg.Correlation.MergeThreshold,
	})

	patternStore := patterns.NewStore()
	analyzer := patterns.NewAnalyzer(patternStore, hub)
	analyzer.RegisterDetector(patterns.NewCoordinatedDetector(patterns.CoordinatedConfig{
		Window:              cfg.Correlation.Window,
		DistanceMeters:      cfg.Correlation.DistanceMeters,
		ConfidenceThreshold: cfg.Patterns.ConfidenceThreshold,
		MinIncidents:        cfg.Patterns.MinIncidentsForPattern,
	}))
	analyzer.RegisterDetector(patterns.NewHotZoneDetector(patterns.ClusterConfig{
		EpsilonMeters:      cfg.Patterns.ClusterEpsilonMeters,
		MinIncidents:       cfg.Patterns.MinIncidentsForPattern,
		MigrationMinMeters: cfg.Patterns.MigrationMinMeters,
	}))
	analyzer.RegisterDetector(patterns.NewSwarmDetector(patterns.SwarmConfig{
		Window:           cfg.Patterns.SwarmWindow,
		MinIncidents:     cfg.Patterns.SwarmMinIncidents,
		MeanRadiusMeters: cfg.Patterns.SwarmMeanRadiusMeters,
	}))
	analyzer.RegisterDetector(patterns.NewEscalationDetector(patterns.DefaultEscalationConfig()))
	analyzer.RegisterDetector(patterns.NewRecurringDetector(patterns.DefaultRecurringConfig()))
	analyzer.RegisterDetector(patterns.NewPreferenceDetector(patterns.DefaultPreferenceConfig()))

	analyzer.RegisterNotifier(alerting.NewLogNotifier())
	if cfg.Alerting.WebhookURL != "" {
		analyzer.RegisterNotifier(alerting.NewWebhookNotifier(alerting.WebhookConfig{
			URL:               cfg.Alerting.WebhookURL,
			MaxPerSec:         cfg.Alerting.WebhookMaxPerSec,
			BreakerMaxFails:   cfg.Alerting.BreakerMaxFails,
			BreakerOpenPeriod: cfg.Alerting.BreakerOpenPeriod,
		}))
	}

	var arch *archive.Store
	if cfg.Archive.Enabled {
		var err error
		arch, err = archive.Open(cfg.Archive.Path)
		if err != nil {
			return nil, err
		}
	}

	return &Engine{
		cfg:          cfg,
		resolver:     res,
		classifier:   evidence.New(),
		analyzer:     analyzer,
		patternStore: patternStore,
		scorer: risk.NewScorer(risk.Config{
			NightStartHour: cfg.Risk.NightStartHour,
			NightEndHour:   cfg.Risk.NightEndHour,
			ZoneWindowCap:  cfg.Risk.ZoneWindowCap,
		}),
		triager: risk.NewTriager(nil),
		archive: arch,
		hub:     hub,
		bus:     newBus(),
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// Close releases the event bus and the archive.
func (e *Engine) Close() error {
	err := e.bus.Close()
	if e.archive != nil {
		if aerr := e.archive.Close(); aerr != nil && err == nil {
			err = aerr
		}
	}
	return err
}

// Ingest runs one candidate through the full pipeline. Rejections surface
// as *normalize.RejectionError; detector failures are isolated and logged,
// never failing the ingest.
func (e *Engine) Ingest(ctx context.Context, raw normalize.RawCandidate) (*IngestReport, error) {
	start := time.Now()
	defer func() {
		metrics.IngestDuration.Observe(time.Since(start).Seconds())
	}()

	cand, err := normalize.Normalize(raw)
	if err != nil {
		var rej *normalize.RejectionError
		if errors.As(err, &rej) {
			metrics.RecordRejection(string(rej.Reason))
		}
		return nil, err
	}
	metrics.RecordCandidate(string(cand.SourceType))

	res := e.resolver.Resolve(cand)
	in := res.Incident
	metrics.RecordResolution(res.Created, res.MergedByCorrelation, e.resolver.Store().Len())

	classifyStart := time.Now()
	assessment := e.classifier.Classify(in)
	metrics.RecordClassification(assessment.Attribution, time.Since(classifyStart))
	in.Evidence = assessment

	all := e.resolver.Store().All()
	riskAssessment := e.scorer.Score(in, e.countNearbyCritical(all, in))
	in.RiskLevel = string(riskAssessment.Level)
	metrics.RecordRiskAssessment(string(riskAssessment.Level), len(e.scorer.Zones()))

	e.resolver.Store().UpdateEnrichment(in.ID, assessment, in.Severity, in.RiskLevel)

	detected := e.detect(ctx, all, in)
	triage := e.triager.Assess(all, in, coordinatedWith(detected, in.ID))

	report := &IngestReport{
		Incident:            in,
		Created:             res.Created,
		MergedByCorrelation: res.MergedByCorrelation,
		Risk:                riskAssessment,
		Triage:              triage,
		Patterns:            detected,
	}

	e.publish(TopicIncidentUpdated, IncidentEvent{Incident: in, Created: res.Created})
	e.publish(TopicRiskAssessed, RiskEvent{IncidentID: in.ID, Risk: riskAssessment, Triage: triage})
	for _, p := range detected {
		e.publish(TopicPatternDetected, p)
	}

	if e.hub != nil {
		e.hub.BroadcastJSON("incident_updated", in)
		e.hub.BroadcastJSON("risk_assessed", RiskEvent{IncidentID: in.ID, Risk: riskAssessment, Triage: triage})
	}

	if e.archive != nil {
		if err := e.archive.WriteIncident(in); err != nil {
			logging.Error().Err(err).Str("incident", in.ID).Msg("archive write failed")
		}
		for _, p := range detected {
			if err := e.archive.WritePattern(p); err != nil {
				logging.Error().Err(err).Str("pattern", p.ID).Msg("archive write failed")
			}
		}
	}

	return report, nil
}

// IngestBatch runs every entry through Ingest, collecting per-entry
// outcomes. One malformed entry never aborts the batch.
func (e *Engine) IngestBatch(ctx context.Context, raws []normalize.RawCandidate) []BatchResult {
	results := make([]BatchResult, 0, len(raws))
	for i, raw := range raws {
		report, err := e.Ingest(ctx, raw)
		result := BatchResult{Index: i, Report: report, Err: err}
		if err != nil {
			result.Error = err.Error()
		}
		results = append(results, result)
	}
	return results
}

// Sweep re-runs the detectors over the whole store without a trigger
// incident. Store-wide detectors (swarm, hot zones) emit on sweeps even
// when no new candidate arrived.
func (e *Engine) Sweep(ctx context.Context) ([]*models.Pattern, error) {
	all := e.resolver.Store().All()
	if len(all) == 0 {
		return nil, nil
	}

	start := time.Now()
	snap := patterns.NewSnapshot(all, nil, e.now())
	detected, err := e.analyzer.Analyze(ctx, snap)
	e.recordDetection(start, detected, err)

	for _, p := range detected {
		e.publish(TopicPatternDetected, p)
		if e.archive != nil {
			if aerr := e.archive.WritePattern(p); aerr != nil {
				logging.Error().Err(aerr).Str("pattern", p.ID).Msg("archive write failed")
			}
		}
	}
	return detected, err
}

// detect runs the analyzer with the incident as trigger. Detector errors
// are logged and swallowed; partial results still count.
func (e *Engine) detect(ctx context.Context, all []*models.Incident, in *models.Incident) []*models.Pattern {
	start := time.Now()
	snap := patterns.NewSnapshot(all, in, e.now())
	detected, err := e.analyzer.Analyze(ctx, snap)
	e.recordDetection(start, detected, err)
	if err != nil {
		logging.Warn().Err(err).Str("incident", in.ID).Msg("pattern detection partially failed")
	}
	return detected
}

func (e *Engine) recordDetection(start time.Time, detected []*models.Pattern, err error) {
	errs := 0
	if err != nil {
		errs = 1
	}
	metrics.RecordDetectionPass(time.Since(start), errs)
	for _, p := range detected {
		metrics.RecordPattern(string(p.Type))
	}
}

// countNearbyCritical counts distinct critical assets, other than the
// incident's own, within the correlation radius.
func (e *Engine) countNearbyCritical(all []*models.Incident, in *models.Incident) int {
	if !in.Location.HasCoordinates() {
		return 0
	}
	seen := make(map[string]bool)
	for _, other := range all {
		if other.ID == in.ID || !risk.CriticalAsset(other.Asset.Type) {
			continue
		}
		if other.Asset.Name == "" || other.Asset.Name == in.Asset.Name {
			continue
		}
		if !other.Location.HasCoordinates() {
			continue
		}
		if geo.DistanceMeters(in.Location, other.Location) <= e.cfg.Correlation.DistanceMeters {
			seen[other.Asset.Name] = true
		}
	}
	return len(seen)
}

// coordinatedWith reports whether any coordinated pattern includes the
// incident.
func coordinatedWith(detected []*models.Pattern, incidentID string) bool {
	for _, p := range detected {
		if p.Type != models.PatternCoordinated {
			continue
		}
		for _, id := range p.MemberIncidentIDs {
			if id == incidentID {
				return true
			}
		}
	}
	return false
}

// Incidents returns a snapshot of all incidents, newest first.
func (e *Engine) Incidents() []*models.Incident {
	all := e.resolver.Store().All()
	// Store order is insertion order; the API wants recent activity first.
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	return all
}

// Incident returns one incident by ID.
func (e *Engine) Incident(id string) (*models.Incident, bool) {
	return e.resolver.Store().Get(id)
}

// ErrArchiveDisabled is returned by History when no archive is configured.
var ErrArchiveDisabled = errors.New("incident archive is disabled")

// History returns the archived snapshots of an incident, oldest first.
func (e *Engine) History(id string) ([]*models.Incident, error) {
	if e.archive == nil {
		return nil, ErrArchiveDisabled
	}
	return e.archive.IncidentHistory(id)
}

// Patterns returns recent detected patterns, newest first.
func (e *Engine) Patterns(limit int) []*models.Pattern {
	return e.patternStore.Recent(limit)
}

// RiskZones returns all risk zones.
func (e *Engine) RiskZones() []models.RiskZone {
	return e.scorer.Zones()
}

// Stats summarizes engine state for the API.
type Stats struct {
	Incidents            int                        `json:"incidents"`
	EvidenceDistribution map[string]int             `json:"evidence_distribution"`
	Patterns             int                        `json:"patterns"`
	PatternsByType       map[models.PatternType]int `json:"patterns_by_type"`
	RiskZones            int                        `json:"risk_zones"`
	DetectionMetrics     patterns.AnalyzerMetrics   `json:"detection"`
}

// Stats returns a point-in-time summary.
func (e *Engine) Stats() Stats {
	all := e.resolver.Store().All()
	dist := make(map[string]int, 4)
	for _, in := range all {
		dist[in.Evidence.Strength.Attribution()]++
	}
	return Stats{
		Incidents:            len(all),
		EvidenceDistribution: dist,
		Patterns:             e.patternStore.Len(),
		PatternsByType:       e.patternStore.CountByType(),
		RiskZones:            len(e.scorer.Zones()),
		DetectionMetrics:     e.analyzer.Metrics(),
	}
}

// ConfigureDetectors forwards runtime configuration to detectors of the
// given type.
func (e *Engine) ConfigureDetectors(pType models.PatternType, raw json.RawMessage) error {
	return e.analyzer.ConfigureDetectors(pType, raw)
}
