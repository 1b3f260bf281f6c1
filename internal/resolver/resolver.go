// AeroSentry - Drone Incident Correlation and Evidentiary Fusion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aerosentry

// Package resolver decides whether a candidate refers to an existing incident
// and either merges it or creates a new one. It owns the canonical incident
// store.
//
// Two matching strategies are applied. The streaming path first looks for a
// spatiotemporally correlated incident (live alerts rarely share identical
// location strings); the batch path falls back to an exact merge key of
// (location-or-asset code, calendar date).
package resolver

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/aerosentry/internal/logging"
	"github.com/tomtom215/aerosentry/internal/models"
	"github.com/tomtom215/aerosentry/internal/patterns"
)

// Config holds the thresholds of the streaming correlation match.
type Config struct {
	// MergeWindow is how far apart in time two reports may be and still
	// describe one event.
	MergeWindow time.Duration

	// MergeDistanceMeters is the spatial gate for the streaming match.
	MergeDistanceMeters float64

	// MergeThreshold is the minimum overall correlation score to merge.
	MergeThreshold float64
}

// DefaultConfig returns the tuned defaults: 1 hour, 50 km, 0.7.
func DefaultConfig() Config {
	return Config{
		MergeWindow:         time.Hour,
		MergeDistanceMeters: 50000,
		MergeThreshold:      0.7,
	}
}

// Resolution reports what the resolver did with a candidate.
type Resolution struct {
	Incident *models.Incident
	Created  bool
	// MergedByCorrelation is true when the streaming correlation match
	// fired rather than the exact key match.
	MergedByCorrelation bool
}

// Resolver merges candidates into the incident store.
type Resolver struct {
	store *Store
	cfg   Config
}

// New creates a resolver owning the given store.
func New(store *Store, cfg Config) *Resolver {
	return &Resolver{store: store, cfg: cfg}
}

// Store exposes the canonical store for read-only consumers.
func (r *Resolver) Store() *Store {
	return r.store
}

// Resolve merges the candidate into an existing incident or creates a new
// one. It always succeeds. The streaming correlation match is tried before
// the key match, then the key match, then creation.
func (r *Resolver) Resolve(cand *models.Candidate) Resolution {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := mergeKey(cand)

	// Streaming path: merge into a recent nearby incident even when the
	// location strings differ.
	if target := r.findCorrelated(cand); target != nil {
		r.mergeLocked(target, cand)
		logging.Debug().
			Str("incident", target.ID).
			Str("source", cand.Source.Publisher).
			Msg("candidate merged by correlation")
		return Resolution{Incident: target.Clone(), MergedByCorrelation: true}
	}

	if id, ok := r.store.byKey[key]; ok {
		existing := r.store.incidents[id]
		r.mergeLocked(existing, cand)
		logging.Debug().
			Str("incident", id).
			Str("key", key).
			Msg("candidate merged by key")
		return Resolution{Incident: existing.Clone()}
	}

	in := newIncident(cand)
	r.store.insert(key, in)
	logging.Info().
		Str("incident", in.ID).
		Str("location", in.Location.Name).
		Str("asset_type", string(in.Asset.Type)).
		Msg("new incident created")
	return Resolution{Incident: in.Clone(), Created: true}
}

// findCorrelated returns the best correlated incident above the merge
// threshold, or nil. Caller holds the store mutex.
func (r *Resolver) findCorrelated(cand *models.Candidate) *models.Incident {
	probe := &models.Incident{
		FirstSeenAt: cand.ObservedAt,
		Location:    cand.Location,
		Severity:    cand.Severity,
	}

	var best *models.Incident
	bestScore := 0.0
	for _, id := range r.store.order {
		in := r.store.incidents[id]
		dt := cand.ObservedAt.Sub(in.LastUpdatedAt)
		if dt < 0 {
			dt = -dt
		}
		if dt > r.cfg.MergeWindow {
			continue
		}
		corr := patterns.Correlate(probe, in, r.cfg.MergeWindow, r.cfg.MergeDistanceMeters)
		if corr.Overall > bestScore {
			bestScore = corr.Overall
			best = in
		}
	}
	if bestScore > r.cfg.MergeThreshold {
		return best
	}
	return nil
}

// mergeLocked folds a candidate into an existing incident. Caller holds the
// store mutex. Append order of sources follows candidate arrival order and
// LastUpdatedAt stays monotonic non-decreasing.
func (r *Resolver) mergeLocked(in *models.Incident, cand *models.Candidate) {
	if !in.HasSource(cand.Source) {
		in.Sources = append(in.Sources, cand.Source)
	}

	if cand.ObservedAt.Before(in.FirstSeenAt) {
		in.FirstSeenAt = cand.ObservedAt
	}
	if cand.ObservedAt.After(in.LastUpdatedAt) {
		in.LastUpdatedAt = cand.ObservedAt
	}

	if cand.Severity > in.Severity {
		in.Severity = cand.Severity
	}

	// Fill in position detail the incident was missing.
	if !in.Location.HasCoordinates() && cand.Location.HasCoordinates() {
		in.Location.Lat = cand.Location.Lat
		in.Location.Lon = cand.Location.Lon
	}
	if in.Location.Country == "" {
		in.Location.Country = cand.Location.Country
	}
	if in.Asset.Type == models.AssetTypeUnknown && cand.Asset.Type != models.AssetTypeUnknown {
		in.Asset = cand.Asset
	}

	in.AddTag(string(cand.SourceType))
}

// newIncident builds a fresh incident from the first candidate.
func newIncident(cand *models.Candidate) *models.Incident {
	in := &models.Incident{
		ID:            generateID(cand),
		FirstSeenAt:   cand.ObservedAt,
		LastUpdatedAt: cand.ObservedAt,
		Location:      cand.Location,
		Asset:         cand.Asset,
		Sources:       []models.SourceRecord{cand.Source},
		Severity:      cand.Severity,
	}
	in.Evidence = models.EvidenceAssessment{
		Strength:        models.EvidenceUnconfirmed,
		Attribution:     models.EvidenceUnconfirmed.Attribution(),
		ConfidenceScore: 0.3,
	}
	in.AddTag(string(cand.SourceType))
	return in
}

// mergeKey is (location name or asset code, calendar date). Two candidates
// with the same key on the same UTC day describe the same event in the batch
// model.
func mergeKey(cand *models.Candidate) string {
	return locationKey(cand) + "|" + cand.ObservedAt.UTC().Format("2006-01-02")
}

func locationKey(cand *models.Candidate) string {
	if name := strings.ToLower(strings.TrimSpace(cand.Location.Name)); name != "" {
		return name
	}
	if cand.Location.ICAO != "" {
		return strings.ToLower(cand.Location.ICAO)
	}
	if cand.Location.IATA != "" {
		return strings.ToLower(cand.Location.IATA)
	}
	// Coordinate-only candidates bucket to two decimal places (~1 km).
	return fmt.Sprintf("%.2f,%.2f", cand.Location.Lat, cand.Location.Lon)
}

// generateID builds the stable id {sourceType}-{locationCode}-{date}-{hash}.
// The hash is deterministic over the source title and URL so that re-runs on
// identical input produce identical ids.
func generateID(cand *models.Candidate) string {
	code := cand.Location.ICAO
	if code == "" {
		code = cand.Location.IATA
	}
	if code == "" {
		name := strings.ReplaceAll(strings.TrimSpace(cand.Location.Name), " ", "")
		if len(name) > 4 {
			name = name[:4]
		}
		code = name
	}
	if code == "" {
		code = "xxxx"
	}

	distinguisher := cand.Source.Title + cand.Source.URL
	if distinguisher == "" {
		distinguisher = cand.Location.Name + cand.ObservedAt.UTC().Format(time.RFC3339)
	}

	return strings.ToLower(fmt.Sprintf("%s-%s-%s-%s",
		cand.SourceType,
		code,
		cand.ObservedAt.UTC().Format("2006-01-02"),
		shortHash(distinguisher),
	))
}

// shortHash returns a 6-character base-36 digest.
func shortHash(s string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	enc := strconv.FormatUint(uint64(h.Sum32()), 36)
	for len(enc) < 6 {
		enc = "0" + enc
	}
	return enc[:6]
}
