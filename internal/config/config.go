// AeroSentry - Drone Incident Correlation and Evidentiary Fusion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aerosentry

// Package config loads and validates the engine configuration using Koanf v2
// with layered sources: built-in defaults, an optional YAML file, then
// environment variables (AEROSENTRY_ prefix) with the highest precedence.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order
// of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/aerosentry/config.yaml",
	"/etc/aerosentry/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "AEROSENTRY_CONFIG_PATH"

// EnvPrefix namespaces all environment overrides.
const EnvPrefix = "AEROSENTRY_"

// Config is the complete engine configuration. Every correlation and scoring
// threshold lives here; no component carries its own magic numbers.
type Config struct {
	Correlation CorrelationConfig `koanf:"correlation" validate:"required"`
	Patterns    PatternConfig     `koanf:"patterns" validate:"required"`
	Risk        RiskConfig        `koanf:"risk" validate:"required"`
	Server      ServerConfig      `koanf:"server"`
	Archive     ArchiveConfig     `koanf:"archive"`
	Alerting    AlertingConfig    `koanf:"alerting"`
	Logging     LoggingConfig     `koanf:"logging"`
}

// CorrelationConfig controls pairwise correlation and streaming merges.
type CorrelationConfig struct {
	// Window is the temporal correlation window between two incidents.
	Window time.Duration `koanf:"window" validate:"gt=0"`

	// DistanceMeters is the spatial correlation threshold.
	DistanceMeters float64 `koanf:"distance_m" validate:"gt=0"`

	// MergeThreshold is the minimum overall correlation for a streaming
	// alert to merge into an existing incident rather than open a new one.
	MergeThreshold float64 `koanf:"merge_threshold" validate:"gte=0,lte=1"`
}

// PatternConfig controls the spatiotemporal pattern detectors.
type PatternConfig struct {
	MinIncidentsForPattern int           `koanf:"min_incidents" validate:"gte=2"`
	ConfidenceThreshold    float64       `koanf:"confidence_threshold" validate:"gte=0,lte=1"`
	ClusterEpsilonMeters   float64       `koanf:"cluster_epsilon_m" validate:"gt=0"`
	MigrationMinMeters     float64       `koanf:"migration_min_m" validate:"gt=0"`
	SwarmWindow            time.Duration `koanf:"swarm_window" validate:"gt=0"`
	SwarmMinIncidents      int           `koanf:"swarm_min_incidents" validate:"gte=2"`
	SwarmMeanRadiusMeters  float64       `koanf:"swarm_mean_radius_m" validate:"gt=0"`

	// SweepInterval is the cadence of the periodic full-window scan that
	// re-runs the store-wide detectors (swarm, escalation).
	SweepInterval time.Duration `koanf:"sweep_interval" validate:"gt=0"`
}

// RiskConfig controls risk scoring and risk zones.
type RiskConfig struct {
	// NightStartHour/NightEndHour bound the night-operation bonus window.
	// Both bounds are inclusive: the defaults 22 and 6 cover 22:00-06:59.
	NightStartHour int `koanf:"night_start_hour" validate:"gte=0,lte=23"`
	NightEndHour   int `koanf:"night_end_hour" validate:"gte=0,lte=23"`

	// ZoneWindowCap bounds the rolling score window per risk zone.
	ZoneWindowCap int `koanf:"zone_window_cap" validate:"gt=0"`
}

// ServerConfig controls the HTTP API surface.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"gt=0,lte=65535"`
	Timeout         time.Duration `koanf:"timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// ArchiveConfig controls the embedded incident archive.
type ArchiveConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

// AlertingConfig controls outbound alert delivery.
type AlertingConfig struct {
	WebhookURL        string        `koanf:"webhook_url"`
	WebhookRateLimit  time.Duration `koanf:"webhook_rate_limit"`
	WebhookMaxPerSec  float64       `koanf:"webhook_max_per_sec"`
	BreakerMaxFails   uint32        `koanf:"breaker_max_fails"`
	BreakerOpenPeriod time.Duration `koanf:"breaker_open_period"`
}

// LoggingConfig configures the logging package.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"omitempty,oneof=trace debug info warn error fatal disabled"`
	Format string `koanf:"format" validate:"omitempty,oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with the engine defaults. These mirror the
// correlation and detection thresholds the system was tuned with.
func defaultConfig() *Config {
	return &Config{
		Correlation: CorrelationConfig{
			Window:         time.Hour,
			DistanceMeters: 50000,
			MergeThreshold: 0.7,
		},
		Patterns: PatternConfig{
			MinIncidentsForPattern: 3,
			ConfidenceThreshold:    0.7,
			ClusterEpsilonMeters:   50000,
			MigrationMinMeters:     10000,
			SwarmWindow:            10 * time.Minute,
			SwarmMinIncidents:      5,
			SwarmMeanRadiusMeters:  10000,
			SweepInterval:          5 * time.Minute,
		},
		Risk: RiskConfig{
			NightStartHour: 22,
			NightEndHour:   6,
			ZoneWindowCap:  100,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8490,
			Timeout:         30 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Archive: ArchiveConfig{
			Enabled: false,
			Path:    "/data/aerosentry/archive",
		},
		Alerting: AlertingConfig{
			WebhookURL:        "",
			WebhookRateLimit:  500 * time.Millisecond,
			WebhookMaxPerSec:  2,
			BreakerMaxFails:   5,
			BreakerOpenPeriod: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load builds the configuration from defaults, optional YAML file, and
// environment variables, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// AEROSENTRY_CORRELATION_DISTANCE_M -> correlation.distance_m
	envProvider := env.Provider(EnvPrefix, ".", func(key string) string {
		key = strings.TrimPrefix(key, EnvPrefix)
		key = strings.ToLower(key)
		return strings.Replace(key, "_", ".", 1)
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Default returns the built-in defaults without file or env layering. Used
// by tests and by components constructed outside the server entrypoint.
func Default() *Config {
	return defaultConfig()
}

// Validate checks the configuration using struct tags plus cross-field rules
// the tags cannot express.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return err
	}

	if c.Patterns.SwarmMinIncidents < c.Patterns.MinIncidentsForPattern {
		return fmt.Errorf("patterns.swarm_min_incidents (%d) must be >= patterns.min_incidents (%d)",
			c.Patterns.SwarmMinIncidents, c.Patterns.MinIncidentsForPattern)
	}
	if c.Archive.Enabled && c.Archive.Path == "" {
		return fmt.Errorf("archive.path is required when archive.enabled is true")
	}

	return nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
