// AeroSentry - Drone Incident Correlation and Evidentiary Fusion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aerosentry

package patterns

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/aerosentry/internal/logging"
	"github.com/tomtom215/aerosentry/internal/models"
)

// Analyzer coordinates detector evaluation and pattern emission. Detectors
// run sequentially over one snapshot; a failing detector is isolated and
// logged, never aborting the pass for the others.
type Analyzer struct {
	store       *Store
	broadcaster PatternBroadcaster

	mu        sync.RWMutex
	detectors map[models.PatternType][]Detector
	notifiers []Notifier
	enabled   bool

	metricsStore *AnalyzerMetrics
}

// AnalyzerMetrics tracks analysis performance.
type AnalyzerMetrics struct {
	PassesRun        int64
	PatternsEmitted  int64
	DetectionErrors  int64
	ProcessingTimeMs int64
	LastProcessedAt  time.Time
	ByType           map[models.PatternType]int64
	mu               sync.RWMutex
}

// NewAnalyzer creates an analyzer. The store retains emitted patterns for
// the query API; broadcaster may be nil.
func NewAnalyzer(store *Store, broadcaster PatternBroadcaster) *Analyzer {
	return &Analyzer{
		store:       store,
		broadcaster: broadcaster,
		detectors:   make(map[models.PatternType][]Detector),
		enabled:     true,
		metricsStore: &AnalyzerMetrics{
			ByType: make(map[models.PatternType]int64),
		},
	}
}

// RegisterDetector adds a detector to the analyzer. Multiple detectors may
// share a pattern type (hot zones and preference both emit
// infrastructure-targeting).
func (a *Analyzer) RegisterDetector(detector Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()

	pType := detector.Type()
	a.detectors[pType] = append(a.detectors[pType], detector)

	logging.Info().Str("detector", string(pType)).Msg("registered pattern detector")
}

// RegisterNotifier adds a notifier to the analyzer.
func (a *Analyzer) RegisterNotifier(notifier Notifier) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.notifiers = append(a.notifiers, notifier)
	logging.Info().Str("notifier", notifier.Name()).Msg("registered pattern notifier")
}

// Analyze runs every enabled detector against the snapshot, persists and
// emits the findings, and returns them. Detector errors are collected and
// returned alongside any patterns the healthy detectors produced.
func (a *Analyzer) Analyze(ctx context.Context, snap *Snapshot) ([]*models.Pattern, error) {
	detectors := a.enabledDetectors()
	if detectors == nil {
		return nil, nil
	}

	start := time.Now()

	var patterns []*models.Pattern
	var errs []error
	for _, detector := range detectors {
		found, err := detector.Detect(ctx, snap)
		if err != nil {
			a.metricsStore.mu.Lock()
			a.metricsStore.DetectionErrors++
			a.metricsStore.mu.Unlock()

			logging.Error().Err(err).Str("detector", string(detector.Type())).Msg("detector failed")
			errs = append(errs, fmt.Errorf("%s: %w", detector.Type(), err))
			continue
		}
		patterns = append(patterns, found...)
	}

	a.updateMetrics(start, patterns)

	for _, p := range patterns {
		a.store.Add(p)
	}
	a.notify(ctx, patterns)
	a.broadcast(patterns)

	if len(errs) > 0 {
		return patterns, fmt.Errorf("detection errors: %v", errs)
	}
	return patterns, nil
}

func (a *Analyzer) enabledDetectors() []Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if !a.enabled {
		return nil
	}

	var detectors []Detector
	for _, group := range a.detectors {
		for _, d := range group {
			if d.Enabled() {
				detectors = append(detectors, d)
			}
		}
	}
	if len(detectors) == 0 {
		return nil
	}
	return detectors
}

func (a *Analyzer) updateMetrics(start time.Time, patterns []*models.Pattern) {
	a.metricsStore.mu.Lock()
	defer a.metricsStore.mu.Unlock()

	a.metricsStore.PassesRun++
	a.metricsStore.PatternsEmitted += int64(len(patterns))
	a.metricsStore.ProcessingTimeMs = time.Since(start).Milliseconds()
	a.metricsStore.LastProcessedAt = time.Now()
	for _, p := range patterns {
		a.metricsStore.ByType[p.Type]++
	}
}

// notify fans each pattern out to all enabled notifiers without blocking
// the analysis pass.
func (a *Analyzer) notify(ctx context.Context, patterns []*models.Pattern) {
	if len(patterns) == 0 {
		return
	}

	a.mu.RLock()
	notifiers := make([]Notifier, 0, len(a.notifiers))
	for _, n := range a.notifiers {
		if n.Enabled() {
			notifiers = append(notifiers, n)
		}
	}
	a.mu.RUnlock()

	for _, pattern := range patterns {
		for _, notifier := range notifiers {
			go func(n Notifier, p *models.Pattern) {
				if err := n.Send(ctx, p); err != nil {
					logging.Error().Err(err).Str("notifier", n.Name()).Msg("failed to send pattern")
				}
			}(notifier, pattern)
		}
	}
}

func (a *Analyzer) broadcast(patterns []*models.Pattern) {
	if a.broadcaster == nil {
		return
	}
	for _, p := range patterns {
		a.broadcaster.BroadcastJSON("pattern_detected", p)
	}
}

// SetEnabled enables or disables the whole analyzer.
func (a *Analyzer) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// Enabled returns whether the analyzer is enabled.
func (a *Analyzer) Enabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// ErrDetectorNotFound reports a configure call for a pattern type with no
// registered detector.
var ErrDetectorNotFound = errors.New("detector not found")

// ConfigureDetectors applies a JSON config to every detector of a type.
func (a *Analyzer) ConfigureDetectors(pType models.PatternType, config json.RawMessage) error {
	a.mu.RLock()
	group, ok := a.detectors[pType]
	a.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrDetectorNotFound, pType)
	}
	for _, d := range group {
		if err := d.Configure(config); err != nil {
			return err
		}
	}
	return nil
}

// Metrics returns a copy of the analyzer metrics.
func (a *Analyzer) Metrics() AnalyzerMetrics {
	a.metricsStore.mu.RLock()
	defer a.metricsStore.mu.RUnlock()

	byType := make(map[models.PatternType]int64, len(a.metricsStore.ByType))
	for k, v := range a.metricsStore.ByType {
		byType[k] = v
	}
	return AnalyzerMetrics{
		PassesRun:        a.metricsStore.PassesRun,
		PatternsEmitted:  a.metricsStore.PatternsEmitted,
		DetectionErrors:  a.metricsStore.DetectionErrors,
		ProcessingTimeMs: a.metricsStore.ProcessingTimeMs,
		LastProcessedAt:  a.metricsStore.LastProcessedAt,
		ByType:           byType,
	}
}
