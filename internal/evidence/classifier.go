// AeroSentry - Drone Incident Correlation and Evidentiary Fusion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aerosentry

// Package evidence grades the corroboration of an incident into a 0-3
// strength with a matching attribution label, plus an independent confidence
// score for the grading itself. Classification is deterministic given the
// incident's sources and asset, and never fails: absence of evidence is a
// valid classification (strength 0, low confidence).
package evidence

import (
	"math"
	"strings"
	"time"

	"github.com/tomtom215/aerosentry/internal/models"
)

// publisherScores maps publisher/type substrings to credibility weights.
// Scanned in declaration order; the highest matching weight wins per source.
var publisherScores = []struct {
	substr string
	score  float64
}{
	{"notam", 10},
	{"navtex", 10},
	{"official", 9},
	{"authority", 9},
	{"police", 8},
	{"news", 6},
	{"media", 6},
	{"journalist", 6},
	{"local news", 4},
	{"regional media", 4},
	{"social media", 2},
	{"twitter", 2},
	{"facebook", 2},
	{"reddit", 1},
}

// reputablePublishers get a +2 bonus on top of the substring score.
var reputablePublishers = []string{"bbc", "reuters", "associated press", "guardian", "times"}

// officialSourceThreshold is the max credibility at or above which an
// incident counts as having an official source.
const officialSourceThreshold = 8

var (
	confirmationWords = []string{"confirmed", "verified", "investigated", "arrested", "charged", "official", "authority"}
	uncertaintyWords  = []string{"allegedly", "reportedly", "might", "could", "possibly", "unconfirmed", "rumored"}
	officialPhrases   = []string{"according to authorities", "police statement", "official investigation", "press release"}
	technicalTerms    = []string{"altitude", "flight path", "airspace", "radar", "atc", "notam", "restricted zone"}
	emotionalWords    = []string{"shocking", "terrifying", "dramatic", "panic", "chaos", "mysterious"}
)

// assetImportance grades infrastructure classes for the scoring modifier.
var assetImportance = map[models.AssetType]string{
	models.AssetTypeNuclear:  "critical",
	models.AssetTypeMilitary: "high",
	models.AssetTypeAirport:  "high",
	models.AssetTypeHarbour:  "medium",
	models.AssetTypeRail:     "medium",
	models.AssetTypeBorder:   "medium",
	models.AssetTypeUnknown:  "low",
}

// Classifier computes evidence assessments. The zero value is not usable;
// construct with New.
type Classifier struct {
	now func() time.Time
}

// New creates a classifier using the wall clock for recency.
func New() *Classifier {
	return &Classifier{now: time.Now}
}

// NewWithClock creates a classifier with an injected clock for tests.
func NewWithClock(now func() time.Time) *Classifier {
	return &Classifier{now: now}
}

// Classify grades the incident's current source set. The returned
// assessment always satisfies the attribution invariant: the label is read
// off the canonical table for the computed strength.
func (c *Classifier) Classify(in *models.Incident) models.EvidenceAssessment {
	if len(in.Sources) == 0 {
		return models.EvidenceAssessment{
			Strength:        models.EvidenceUnconfirmed,
			Attribution:     models.EvidenceUnconfirmed.Attribution(),
			ConfidenceScore: 0.3,
		}
	}

	factors := models.EvidenceFactors{
		SourceCredibility: analyzeSourceCredibility(in.Sources),
		Content:           analyzeContent(collectText(in)),
		Geographic:        analyzeGeographic(in),
		Temporal:          c.analyzeTemporal(in),
	}

	strength := determineStrength(factors)

	return models.EvidenceAssessment{
		Strength:        strength,
		Attribution:     strength.Attribution(),
		Factors:         factors,
		Reasoning:       reasoning(factors),
		ConfidenceScore: confidenceScore(factors),
	}
}

// analyzeSourceCredibility scores each source off the publisher table and
// aggregates max, average and official-source presence.
func analyzeSourceCredibility(sources []models.SourceRecord) models.SourceCredibilityFactors {
	var total, max float64
	for _, s := range sources {
		score := s.Credibility
		haystack := strings.ToLower(s.Publisher)
		for _, entry := range publisherScores {
			if strings.Contains(haystack, entry.substr) {
				score = math.Max(score, entry.score)
			}
		}
		for _, rep := range reputablePublishers {
			if strings.Contains(haystack, rep) {
				score += 2
				break
			}
		}
		total += score
		max = math.Max(max, score)
	}
	return models.SourceCredibilityFactors{
		AverageScore:      total / float64(len(sources)),
		MaxScore:          max,
		SourceCount:       len(sources),
		HasOfficialSource: max >= officialSourceThreshold,
	}
}

func collectText(in *models.Incident) string {
	var b strings.Builder
	for _, s := range in.Sources {
		b.WriteString(s.Title)
		b.WriteByte(' ')
		b.WriteString(s.Snippet)
		b.WriteByte(' ')
	}
	return strings.ToLower(b.String())
}

// analyzeContent counts distinct vocabulary hits per signal class. Each
// keyword counts at most once regardless of repetition.
func analyzeContent(content string) models.ContentFactors {
	count := func(words []string) int {
		n := 0
		for _, w := range words {
			if strings.Contains(content, w) {
				n++
			}
		}
		return n
	}
	return models.ContentFactors{
		ConfirmationKeywords: count(confirmationWords),
		UncertaintyKeywords:  count(uncertaintyWords),
		OfficialLanguage:     count(officialPhrases),
		TechnicalDetail:      count(technicalTerms),
		EmotionalLanguage:    count(emotionalWords),
	}
}

func analyzeGeographic(in *models.Incident) models.GeographicFactors {
	importance, ok := assetImportance[in.Asset.Type]
	if !ok {
		importance = "low"
	}

	specificity := 0
	if in.Location.HasCoordinates() {
		specificity += 3
	}
	if in.Location.ICAO != "" || in.Location.IATA != "" {
		specificity += 2
	}
	if in.Location.Name != "" {
		specificity++
	}

	return models.GeographicFactors{
		AssetType:           in.Asset.Type,
		AssetImportance:     importance,
		LocationSpecificity: specificity,
	}
}

func (c *Classifier) analyzeTemporal(in *models.Incident) models.TemporalFactors {
	age := c.now().Sub(in.FirstSeenAt).Hours()
	recency := "historical"
	switch {
	case age < 24:
		recency = "recent"
	case age < 168:
		recency = "current"
	}
	return models.TemporalFactors{AgeHours: age, Recency: recency}
}

// determineStrength applies the fixed point-scoring rule and maps the total
// to the 0-3 grade.
func determineStrength(f models.EvidenceFactors) models.EvidenceStrength {
	score := 0.0

	// Source credibility tier: 0-4 points.
	switch {
	case f.SourceCredibility.HasOfficialSource:
		score += 4
	case f.SourceCredibility.MaxScore >= 6:
		score += 3
	case f.SourceCredibility.MaxScore >= 4:
		score += 2
	case f.SourceCredibility.MaxScore >= 2:
		score++
	}

	// Content signals: 0-3 points, minus uncertainty penalty.
	switch {
	case f.Content.ConfirmationKeywords >= 2:
		score += 2
	case f.Content.ConfirmationKeywords >= 1:
		score++
	}
	if f.Content.OfficialLanguage >= 1 {
		score++
	}
	if f.Content.UncertaintyKeywords >= 2 {
		score--
	}

	// Corroboration bonus.
	switch {
	case f.SourceCredibility.SourceCount >= 3:
		score++
	case f.SourceCredibility.SourceCount >= 2:
		score += 0.5
	}

	if f.Geographic.AssetImportance == "critical" {
		score += 0.5
	}

	switch {
	case score >= 6:
		return models.EvidenceConfirmed
	case score >= 4:
		return models.EvidenceSuspected
	case score >= 2:
		return models.EvidenceSingleSource
	default:
		return models.EvidenceUnconfirmed
	}
}

// confidenceScore blends data-completeness signals into a 0-1 trust value
// for the grading itself, independent of the strength grade.
func confidenceScore(f models.EvidenceFactors) float64 {
	confidence := 0.5

	confidence += (f.SourceCredibility.AverageScore / 10) * 0.3
	confidence += math.Min(float64(f.SourceCredibility.SourceCount)/5, 1) * 0.2
	confidence += (float64(f.Geographic.LocationSpecificity) / 6) * 0.1

	switch {
	case f.Temporal.AgeHours < 48:
		confidence += 0.1
	case f.Temporal.AgeHours < 168:
		confidence += 0.05
	}

	return math.Min(math.Max(confidence, 0), 1)
}

// reasoning builds the human-readable grading summary.
func reasoning(f models.EvidenceFactors) string {
	var reasons []string
	if f.SourceCredibility.HasOfficialSource {
		reasons = append(reasons, "official source available")
	}
	if f.SourceCredibility.SourceCount > 1 {
		reasons = append(reasons, "multiple corroborating sources")
	}
	if f.Content.ConfirmationKeywords > 0 {
		reasons = append(reasons, "contains confirmation keywords")
	}
	if f.Content.UncertaintyKeywords > 0 {
		reasons = append(reasons, "contains uncertainty language")
	}
	if f.Geographic.AssetImportance == "critical" {
		reasons = append(reasons, "critical infrastructure involved")
	}
	return strings.Join(reasons, "; ")
}
