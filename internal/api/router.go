// AeroSentry - Drone Incident Correlation and Evidentiary Fusion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aerosentry

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/aerosentry/internal/config"
	"github.com/tomtom215/aerosentry/internal/engine"
	"github.com/tomtom215/aerosentry/internal/websocket"
)

// Router assembles the HTTP surface.
type Router struct {
	handler *Handler
	cfg     config.ServerConfig
}

// NewRouter creates a router over the engine and the WebSocket hub.
func NewRouter(eng *engine.Engine, hub *websocket.Hub, cfg config.ServerConfig) *Router {
	return &Router{
		handler: NewHandler(eng, hub),
		cfg:     cfg,
	}
}

// Setup builds the route tree with the global middleware stack.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: router.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/api/v1/health", router.handler.Health)

	r.Route("/api/v1", func(r chi.Router) {
		if router.cfg.RateLimitReqs > 0 {
			r.Use(httprate.Limit(
				router.cfg.RateLimitReqs,
				router.cfg.RateLimitWindow,
				httprate.WithKeyFuncs(httprate.KeyByIP),
			))
		}
		r.Use(PrometheusMetrics)

		r.Post("/candidates", router.handler.IngestCandidate)
		r.Post("/candidates/batch", router.handler.IngestBatch)

		r.Get("/incidents", router.handler.Incidents)
		r.Get("/incidents/{id}", router.handler.Incident)
		r.Get("/incidents/{id}/history", router.handler.IncidentHistory)

		r.Get("/patterns", router.handler.Patterns)
		r.Patch("/detectors/{type}", router.handler.ConfigureDetector)
		r.Get("/riskzones", router.handler.RiskZones)
		r.Get("/stats", router.handler.Stats)

		r.Get("/ws", router.handler.WebSocket)
	})

	return r
}
