// AeroSentry - Drone Incident Correlation and Evidentiary Fusion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aerosentry

// Package normalize converts raw collector payloads into canonical incident
// candidates. It is the only place where collector output is validated;
// everything downstream can assume a well-formed Candidate.
package normalize

import (
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/aerosentry/internal/models"
)

// RejectReason is the typed cause of a candidate rejection.
type RejectReason string

const (
	RejectMissingLocation  RejectReason = "missing-location"
	RejectMissingTimestamp RejectReason = "missing-timestamp"
	RejectMissingSource    RejectReason = "missing-source"
)

// RejectionError reports why a raw payload could not become a candidate.
// Rejections are expected operational outcomes, not failures of the engine.
type RejectionError struct {
	Reason RejectReason
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("candidate rejected: %s", e.Reason)
}

// RawCandidate is the loosely-typed input contract shared by all collectors.
type RawCandidate struct {
	SourceType string        `json:"source_type"`
	ObservedAt time.Time     `json:"observed_at"`
	Location   LocationHint  `json:"location"`
	Asset      AssetHint     `json:"asset"`
	Severity   int           `json:"severity,omitempty"`
	Source     RawSource     `json:"source"`
	RawText    string        `json:"raw_text,omitempty"`
}

// LocationHint carries whatever position information the collector had.
type LocationHint struct {
	Name    string  `json:"name,omitempty"`
	Country string  `json:"country,omitempty"`
	Lat     float64 `json:"lat,omitempty"`
	Lon     float64 `json:"lon,omitempty"`
	ICAO    string  `json:"icao,omitempty"`
	IATA    string  `json:"iata,omitempty"`
}

// AssetHint carries the collector's guess at the targeted asset.
type AssetHint struct {
	Type string `json:"type,omitempty"`
	Name string `json:"name,omitempty"`
}

// RawSource is the collector's attribution for the report.
type RawSource struct {
	Publisher   string    `json:"publisher"`
	URL         string    `json:"url,omitempty"`
	Title       string    `json:"title,omitempty"`
	Snippet     string    `json:"snippet,omitempty"`
	PublishedAt time.Time `json:"published_at,omitempty"`
	Credibility float64   `json:"credibility,omitempty"`
}

// assetKeywords maps substrings of location/asset text to asset types, in
// match priority order.
var assetKeywords = []struct {
	keywords []string
	assetType models.AssetType
}{
	{[]string{"nuclear", "power plant", "power station"}, models.AssetTypeNuclear},
	{[]string{"air base", "military", "raf ", "air force", "barracks"}, models.AssetTypeMilitary},
	{[]string{"airport", "airfield", "aerodrome"}, models.AssetTypeAirport},
	{[]string{"port ", "port of", "harbour", "harbor", "dock"}, models.AssetTypeHarbour},
	{[]string{"station", "railway", "hauptbahnhof", "centraal"}, models.AssetTypeRail},
	{[]string{"border", "bridge", "crossing", "tunnel"}, models.AssetTypeBorder},
}

// Normalize validates a raw payload and produces an immutable Candidate.
// A candidate must carry an observation timestamp, at least a location name
// or coordinates, and a source attribution. The transform is pure; rejection
// is reported through a typed error, never a panic.
func Normalize(raw RawCandidate) (*models.Candidate, error) {
	if raw.ObservedAt.IsZero() {
		return nil, &RejectionError{Reason: RejectMissingTimestamp}
	}

	loc := models.Location{
		Name:    strings.TrimSpace(raw.Location.Name),
		Country: strings.ToUpper(strings.TrimSpace(raw.Location.Country)),
		Lat:     raw.Location.Lat,
		Lon:     raw.Location.Lon,
		ICAO:    strings.ToUpper(strings.TrimSpace(raw.Location.ICAO)),
		IATA:    strings.ToUpper(strings.TrimSpace(raw.Location.IATA)),
	}
	if loc.Name == "" && !loc.HasCoordinates() {
		return nil, &RejectionError{Reason: RejectMissingLocation}
	}

	if strings.TrimSpace(raw.Source.Publisher) == "" && strings.TrimSpace(raw.Source.URL) == "" {
		return nil, &RejectionError{Reason: RejectMissingSource}
	}

	sourceType := models.SourceType(strings.ToLower(strings.TrimSpace(raw.SourceType)))
	switch sourceType {
	case models.SourceTypeNews, models.SourceTypeNOTAM, models.SourceTypeSocial,
		models.SourceTypeAviationAuthority, models.SourceTypeAggregator:
	default:
		sourceType = models.SourceTypeAggregator
	}

	severity := raw.Severity
	if severity < 1 || severity > 10 {
		severity = models.DefaultSeverity
	}

	publishedAt := raw.Source.PublishedAt
	if publishedAt.IsZero() {
		publishedAt = raw.ObservedAt
	}

	return &models.Candidate{
		SourceType: sourceType,
		ObservedAt: raw.ObservedAt.UTC(),
		Location:   loc,
		Asset:      resolveAsset(raw.Asset, loc, raw.RawText),
		Severity:   severity,
		Source: models.SourceRecord{
			Publisher:   strings.TrimSpace(raw.Source.Publisher),
			URL:         strings.TrimSpace(raw.Source.URL),
			Title:       strings.TrimSpace(raw.Source.Title),
			Snippet:     raw.Source.Snippet,
			PublishedAt: publishedAt.UTC(),
			Credibility: clampCredibility(raw.Source.Credibility),
		},
		RawText: raw.RawText,
	}, nil
}

// resolveAsset picks the asset type from the hint when valid, otherwise
// infers it from the location name and raw text, defaulting to unknown.
func resolveAsset(hint AssetHint, loc models.Location, rawText string) models.Asset {
	asset := models.Asset{
		Type: models.AssetTypeUnknown,
		Name: strings.TrimSpace(hint.Name),
	}
	if asset.Name == "" {
		asset.Name = loc.Name
	}
	asset.ICAO = loc.ICAO
	asset.IATA = loc.IATA

	switch t := models.AssetType(strings.ToLower(strings.TrimSpace(hint.Type))); t {
	case models.AssetTypeAirport, models.AssetTypeNuclear, models.AssetTypeMilitary,
		models.AssetTypeHarbour, models.AssetTypeRail, models.AssetTypeBorder:
		asset.Type = t
		return asset
	}

	// ICAO/IATA codes imply an airport even without a matching name.
	if loc.ICAO != "" || loc.IATA != "" {
		asset.Type = models.AssetTypeAirport
		return asset
	}

	haystack := strings.ToLower(loc.Name + " " + hint.Name + " " + rawText)
	for _, entry := range assetKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(haystack, kw) {
				asset.Type = entry.assetType
				return asset
			}
		}
	}

	return asset
}

func clampCredibility(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 10 {
		return 10
	}
	return c
}
