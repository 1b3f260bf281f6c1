// AeroSentry - Drone Incident Correlation and Evidentiary Fusion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aerosentry

package config

import (
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config failed validation: %v", err)
	}
}

func TestDefaultThresholds(t *testing.T) {
	cfg := Default()

	if cfg.Correlation.Window != time.Hour {
		t.Errorf("correlation window = %v, want 1h", cfg.Correlation.Window)
	}
	if cfg.Correlation.DistanceMeters != 50000 {
		t.Errorf("correlation distance = %v, want 50000", cfg.Correlation.DistanceMeters)
	}
	if cfg.Correlation.MergeThreshold != 0.7 {
		t.Errorf("merge threshold = %v, want 0.7", cfg.Correlation.MergeThreshold)
	}
	if cfg.Patterns.MinIncidentsForPattern != 3 {
		t.Errorf("min incidents = %v, want 3", cfg.Patterns.MinIncidentsForPattern)
	}
	if cfg.Patterns.SwarmMinIncidents != 5 {
		t.Errorf("swarm min = %v, want 5", cfg.Patterns.SwarmMinIncidents)
	}
	if cfg.Risk.ZoneWindowCap != 100 {
		t.Errorf("zone window cap = %v, want 100", cfg.Risk.ZoneWindowCap)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero correlation window", func(c *Config) { c.Correlation.Window = 0 }},
		{"merge threshold above one", func(c *Config) { c.Correlation.MergeThreshold = 1.5 }},
		{"min incidents below two", func(c *Config) { c.Patterns.MinIncidentsForPattern = 1 }},
		{"swarm min below pattern min", func(c *Config) { c.Patterns.SwarmMinIncidents = 2 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"archive enabled without path", func(c *Config) { c.Archive.Enabled = true; c.Archive.Path = "" }},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() accepted invalid config")
			}
		})
	}
}

func TestLoadUsesDefaultsWithoutFile(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, "/nonexistent/aerosentry.yaml")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Patterns.ClusterEpsilonMeters != 50000 {
		t.Errorf("cluster epsilon = %v, want default 50000", cfg.Patterns.ClusterEpsilonMeters)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("AEROSENTRY_SERVER_PORT", "9000")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("server port = %d, want 9000 from env", cfg.Server.Port)
	}
}
