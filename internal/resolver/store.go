// AeroSentry - Drone Incident Correlation and Evidentiary Fusion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aerosentry

package resolver

import (
	"sync"

	"github.com/tomtom215/aerosentry/internal/models"
)

// Store is the canonical in-memory incident collection. It replaces the
// ambient global registries of earlier designs with an injected object; the
// resolver is the only component allowed to change store membership.
//
// All merge/create operations run under one mutex so that two candidates with
// the same merge key can never race into two incidents. Readers get deep
// copies and may run concurrently with unrelated merges.
type Store struct {
	mu        sync.RWMutex
	incidents map[string]*models.Incident
	byKey     map[string]string
	// order preserves arrival order for deterministic iteration and for
	// tie-breaking equal timestamps in detector passes.
	order []string
}

// NewStore creates an empty incident store.
func NewStore() *Store {
	return &Store{
		incidents: make(map[string]*models.Incident),
		byKey:     make(map[string]string),
	}
}

// Get returns a snapshot of the incident with the given id.
func (s *Store) Get(id string) (*models.Incident, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	in, ok := s.incidents[id]
	if !ok {
		return nil, false
	}
	return in.Clone(), true
}

// All returns snapshots of every incident in arrival order.
func (s *Store) All() []*models.Incident {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Incident, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.incidents[id].Clone())
	}
	return out
}

// Len returns the number of incidents in the store.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.incidents)
}

// UpdateEnrichment writes back fields owned by downstream components
// (evidence, severity, risk level) for an incident the resolver produced.
// Store membership is untouched.
func (s *Store) UpdateEnrichment(id string, evidence models.EvidenceAssessment, severity int, riskLevel string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.incidents[id]
	if !ok {
		return
	}
	in.Evidence = evidence
	if severity >= 1 && severity <= 10 {
		in.Severity = severity
	}
	if riskLevel != "" {
		in.RiskLevel = riskLevel
	}
}

// insert registers a new incident under its merge key. Caller holds mu.
func (s *Store) insert(key string, in *models.Incident) {
	s.incidents[in.ID] = in
	s.byKey[key] = in.ID
	s.order = append(s.order, in.ID)
}
