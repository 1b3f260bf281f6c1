// AeroSentry - Drone Incident Correlation and Evidentiary Fusion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aerosentry

package engine

import (
	"context"
	"time"

	"github.com/tomtom215/aerosentry/internal/logging"
)

// SweepService periodically re-runs the pattern detectors over the whole
// incident store. Swarms disperse and hot zones cool off without any new
// candidate arriving, so detection cannot be purely ingest-driven.
type SweepService struct {
	engine   *Engine
	interval time.Duration
}

// NewSweepService creates a sweep service using the configured interval.
func NewSweepService(e *Engine) *SweepService {
	return &SweepService{engine: e, interval: e.cfg.Patterns.SweepInterval}
}

// String identifies the service in the supervision tree.
func (s *SweepService) String() string {
	return "pattern-sweep"
}

// Serve runs sweeps until the context is canceled. Implements suture.Service.
func (s *SweepService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	logging.Info().Dur("interval", s.interval).Msg("pattern sweep service started")
	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("pattern sweep service stopped")
			return ctx.Err()
		case <-ticker.C:
			detected, err := s.engine.Sweep(ctx)
			if err != nil {
				logging.Warn().Err(err).Msg("sweep pass partially failed")
			}
			if len(detected) > 0 {
				logging.Info().Int("patterns", len(detected)).Msg("sweep pass emitted patterns")
			}
		}
	}
}
