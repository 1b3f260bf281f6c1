// AeroSentry - Drone Incident Correlation and Evidentiary Fusion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aerosentry

// Package main is the entry point for the AeroSentry server.
//
// AeroSentry ingests drone sighting reports from heterogeneous sources
// (news feeds, official notices, social media, direct observer reports),
// fuses duplicate reports into incidents, grades the evidence behind each
// incident, detects spatiotemporal patterns across incidents, and scores
// operational risk per incident and per geographic zone.
//
// # Startup Order
//
//  1. Configuration: Koanf v2 layered sources (env vars with the
//     AEROSENTRY_ prefix over config.yaml over built-in defaults)
//  2. Logging: zerolog, JSON or console format
//  3. Engine: resolver, classifier, pattern analyzer, risk scorer,
//     optional BadgerDB archive, alert notifiers
//  4. Supervision tree: WebSocket hub, pattern sweeper, HTTP server
//     under suture with restart-with-backoff semantics
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the HTTP server drains
// in-flight requests, the hub closes its clients, the sweep loop stops,
// and the engine flushes the archive before exit.
//
// # Port 8490
//
// The default port 8490 sits in the unassigned user range and echoes the
// 8.4 GHz band reserved for deep space research, a nod to airspace watching.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/tomtom215/aerosentry/internal/api"
	"github.com/tomtom215/aerosentry/internal/config"
	"github.com/tomtom215/aerosentry/internal/engine"
	"github.com/tomtom215/aerosentry/internal/logging"
	"github.com/tomtom215/aerosentry/internal/supervisor"
	"github.com/tomtom215/aerosentry/internal/supervisor/services"
	ws "github.com/tomtom215/aerosentry/internal/websocket"
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("Server exited with error")
	}
}

func run() error {
	// Load configuration first to get logging settings.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("addr", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)).
		Bool("archive_enabled", cfg.Archive.Enabled).
		Bool("webhook_alerts", cfg.Alerting.WebhookURL != "").
		Msg("Starting AeroSentry")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := ws.NewHub()

	eng, err := engine.New(cfg, hub)
	if err != nil {
		return fmt.Errorf("initialize engine: %w", err)
	}
	defer func() {
		if err := eng.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing engine")
		}
	}()

	router := api.NewRouter(eng, hub, cfg.Server)
	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: cfg.Server.Timeout,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddDetectionService(engine.NewSweepService(eng))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.Timeout))

	logging.Info().
		Dur("sweep_interval", cfg.Patterns.SweepInterval).
		Msg("Supervision tree starting")

	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervision tree: %w", err)
	}

	if report, reportErr := tree.UnstoppedServiceReport(); reportErr == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop within timeout")
		}
	}

	logging.Info().Msg("Shutdown complete")
	return nil
}
