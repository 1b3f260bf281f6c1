// AeroSentry - Drone Incident Correlation and Evidentiary Fusion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aerosentry

package patterns

import (
	"sync"

	"github.com/tomtom215/aerosentry/internal/models"
)

// defaultStoreCap bounds the retained pattern history.
const defaultStoreCap = 1000

// Store retains emitted patterns, newest last, bounded by a cap. Patterns
// are immutable after emission so reads return the shared values.
type Store struct {
	mu       sync.RWMutex
	patterns []*models.Pattern
	cap      int
}

// NewStore creates a pattern store with the default retention cap.
func NewStore() *Store {
	return &Store{cap: defaultStoreCap}
}

// Add appends a pattern, evicting the oldest beyond the cap.
func (s *Store) Add(p *models.Pattern) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.patterns = append(s.patterns, p)
	if len(s.patterns) > s.cap {
		s.patterns = s.patterns[len(s.patterns)-s.cap:]
	}
}

// Recent returns up to limit patterns, newest first. limit <= 0 returns all.
func (s *Store) Recent(limit int) []*models.Pattern {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.patterns)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]*models.Pattern, n)
	for i := 0; i < n; i++ {
		out[i] = s.patterns[len(s.patterns)-1-i]
	}
	return out
}

// CountByType tallies retained patterns per type.
func (s *Store) CountByType() map[models.PatternType]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[models.PatternType]int)
	for _, p := range s.patterns {
		counts[p.Type]++
	}
	return counts
}

// Len returns the number of retained patterns.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.patterns)
}
