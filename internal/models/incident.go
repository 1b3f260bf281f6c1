// AeroSentry - Drone Incident Correlation and Evidentiary Fusion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aerosentry

package models

import (
	"sort"
	"time"
)

// SourceType identifies the collector class a candidate came from.
type SourceType string

const (
	SourceTypeNews              SourceType = "news"
	SourceTypeNOTAM             SourceType = "notam"
	SourceTypeSocial            SourceType = "social"
	SourceTypeAviationAuthority SourceType = "aviation-authority"
	SourceTypeAggregator        SourceType = "aggregator"
)

// AssetType categorizes the targeted infrastructure.
type AssetType string

const (
	AssetTypeAirport  AssetType = "airport"
	AssetTypeNuclear  AssetType = "nuclear"
	AssetTypeMilitary AssetType = "military"
	AssetTypeHarbour  AssetType = "harbour"
	AssetTypeRail     AssetType = "rail"
	AssetTypeBorder   AssetType = "border"
	AssetTypeUnknown  AssetType = "unknown"
)

// DefaultSeverity is assumed when a candidate carries no severity hint.
const DefaultSeverity = 3

// Location is a resolved geographic position. The (0,0) coordinate pair is
// the sentinel for "coordinates unknown"; use HasCoordinates before any
// distance computation.
type Location struct {
	Name    string  `json:"name"`
	Country string  `json:"country,omitempty"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	ICAO    string  `json:"icao,omitempty"`
	IATA    string  `json:"iata,omitempty"`
}

// HasCoordinates reports whether the location carries real coordinates.
func (l Location) HasCoordinates() bool {
	return !isZeroCoordinate(l.Lat, l.Lon)
}

// Asset describes the infrastructure an incident is associated with.
type Asset struct {
	Type        AssetType `json:"type"`
	Name        string    `json:"name"`
	ICAO        string    `json:"icao,omitempty"`
	IATA        string    `json:"iata,omitempty"`
	Criticality int       `json:"criticality"`
}

// SourceRecord is one attribution unit attached to an incident. Records are
// never shared between incidents.
type SourceRecord struct {
	Publisher   string    `json:"publisher"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Snippet     string    `json:"snippet,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	// Credibility is a 0-10 weight; zero means "not yet assessed" and the
	// classifier will derive it from the publisher string.
	Credibility float64 `json:"credibility,omitempty"`
}

// Candidate is one normalized report from one collector. Immutable after
// creation; consumed exactly once by the identity resolver.
type Candidate struct {
	SourceType SourceType   `json:"source_type"`
	ObservedAt time.Time    `json:"observed_at"`
	Location   Location     `json:"location"`
	Asset      Asset        `json:"asset"`
	Severity   int          `json:"severity,omitempty"`
	Source     SourceRecord `json:"source"`
	RawText    string       `json:"raw_text,omitempty"`
}

// Incident is the canonical merged entity. Only the identity resolver mutates
// store membership; other components mutate only fields of incidents they are
// handed.
type Incident struct {
	ID            string             `json:"id"`
	FirstSeenAt   time.Time          `json:"first_seen_at"`
	LastUpdatedAt time.Time          `json:"last_updated_at"`
	Location      Location           `json:"location"`
	Asset         Asset              `json:"asset"`
	Sources       []SourceRecord     `json:"sources"`
	Evidence      EvidenceAssessment `json:"evidence"`
	Severity      int                `json:"severity"`
	RiskLevel     string             `json:"risk_level,omitempty"`
	Tags          []string           `json:"tags"`
}

// AddTag inserts a tag keeping Tags sorted and unique.
func (in *Incident) AddTag(tag string) {
	if tag == "" {
		return
	}
	i := sort.SearchStrings(in.Tags, tag)
	if i < len(in.Tags) && in.Tags[i] == tag {
		return
	}
	in.Tags = append(in.Tags, "")
	copy(in.Tags[i+1:], in.Tags[i:])
	in.Tags[i] = tag
}

// HasSource reports whether an identical source record is already attached.
// Used by the resolver to keep merges idempotent.
func (in *Incident) HasSource(s SourceRecord) bool {
	for _, existing := range in.Sources {
		if existing.URL != "" && existing.URL == s.URL {
			return true
		}
		if existing.URL == "" && s.URL == "" &&
			existing.Publisher == s.Publisher && existing.Title == s.Title {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so detectors and scorers can read a consistent
// snapshot while unrelated merges proceed.
func (in *Incident) Clone() *Incident {
	out := *in
	out.Sources = append([]SourceRecord(nil), in.Sources...)
	out.Tags = append([]string(nil), in.Tags...)
	return &out
}
