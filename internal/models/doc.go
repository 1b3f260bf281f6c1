// AeroSentry - Drone Incident Correlation and Evidentiary Fusion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aerosentry

// Package models defines the shared data model of the fusion engine: incident
// candidates produced by collectors, canonical merged incidents, evidence
// assessments, emitted patterns, and risk artifacts.
//
// Candidates are immutable once normalized. Incidents are mutable but their
// store membership is owned exclusively by the resolver; every other component
// reads snapshots (see Incident.Clone).
package models
