// AeroSentry - Drone Incident Correlation and Evidentiary Fusion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aerosentry

package models

// EvidenceStrength is the 0-3 corroboration grade.
type EvidenceStrength int

const (
	EvidenceUnconfirmed  EvidenceStrength = 0
	EvidenceSingleSource EvidenceStrength = 1
	EvidenceSuspected    EvidenceStrength = 2
	EvidenceConfirmed    EvidenceStrength = 3
)

// attributions is the single source of truth for the strength -> label
// mapping. Attribution must always be read off this table, never derived
// independently, so that strength and attribution cannot drift apart.
var attributions = map[EvidenceStrength]string{
	EvidenceUnconfirmed:  "unconfirmed",
	EvidenceSingleSource: "single-source",
	EvidenceSuspected:    "suspected",
	EvidenceConfirmed:    "confirmed",
}

// Attribution returns the canonical label for a strength grade.
func (s EvidenceStrength) Attribution() string {
	if label, ok := attributions[s]; ok {
		return label
	}
	return attributions[EvidenceUnconfirmed]
}

// SourceCredibilityFactors summarize the credibility of an incident's sources.
type SourceCredibilityFactors struct {
	AverageScore      float64 `json:"average_score"`
	MaxScore          float64 `json:"max_score"`
	SourceCount       int     `json:"source_count"`
	HasOfficialSource bool    `json:"has_official_source"`
}

// ContentFactors count textual signals across all attached source text.
type ContentFactors struct {
	ConfirmationKeywords int `json:"confirmation_keywords"`
	UncertaintyKeywords  int `json:"uncertainty_keywords"`
	OfficialLanguage     int `json:"official_language"`
	TechnicalDetail      int `json:"technical_detail"`
	EmotionalLanguage    int `json:"emotional_language"`
}

// GeographicFactors describe asset importance and location specificity.
type GeographicFactors struct {
	AssetType           AssetType `json:"asset_type"`
	AssetImportance     string    `json:"asset_importance"`
	LocationSpecificity int       `json:"location_specificity"`
}

// TemporalFactors describe recency of the incident at classification time.
type TemporalFactors struct {
	AgeHours float64 `json:"age_hours"`
	Recency  string  `json:"recency"`
}

// EvidenceFactors are the independently computed sub-scores behind a grade.
type EvidenceFactors struct {
	SourceCredibility SourceCredibilityFactors `json:"source_credibility"`
	Content           ContentFactors           `json:"content"`
	Geographic        GeographicFactors        `json:"geographic"`
	Temporal          TemporalFactors          `json:"temporal"`
}

// EvidenceAssessment is the classifier's output. Invariant: Attribution is
// always the canonical label for Strength.
type EvidenceAssessment struct {
	Strength        EvidenceStrength `json:"strength"`
	Attribution     string           `json:"attribution"`
	Factors         EvidenceFactors  `json:"factors"`
	Reasoning       string           `json:"reasoning,omitempty"`
	ConfidenceScore float64          `json:"confidence_score"`
}
