// AeroSentry - Drone Incident Correlation and Evidentiary Fusion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aerosentry

package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	gorillaws "github.com/gorilla/websocket"

	"github.com/tomtom215/aerosentry/internal/engine"
	"github.com/tomtom215/aerosentry/internal/logging"
	"github.com/tomtom215/aerosentry/internal/models"
	"github.com/tomtom215/aerosentry/internal/normalize"
	"github.com/tomtom215/aerosentry/internal/patterns"
	"github.com/tomtom215/aerosentry/internal/websocket"
)

// maxBodyBytes bounds candidate payloads.
const maxBodyBytes = 1 << 20

// maxBatchSize bounds one batch ingestion request.
const maxBatchSize = 500

// Handler implements the HTTP endpoints over the engine.
type Handler struct {
	engine    *engine.Engine
	hub       *websocket.Hub
	startTime time.Time
}

// NewHandler creates the endpoint handler.
func NewHandler(eng *engine.Engine, hub *websocket.Hub) *Handler {
	return &Handler{
		engine:    eng,
		hub:       hub,
		startTime: time.Now(),
	}
}

// Health reports liveness and basic engine state.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	stats := h.engine.Stats()
	rw.Success(map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
		"incidents":      stats.Incidents,
		"ws_clients":     h.wsClientCount(),
	})
}

func (h *Handler) wsClientCount() int {
	if h.hub == nil {
		return 0
	}
	return h.hub.GetClientCount()
}

// IngestCandidate accepts one raw candidate report.
func (h *Handler) IngestCandidate(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var raw normalize.RawCandidate
	if err := decodeBody(w, r, &raw); err != nil {
		rw.BadRequest("invalid candidate payload: " + err.Error())
		return
	}

	report, err := h.engine.Ingest(r.Context(), raw)
	if err != nil {
		var rej *normalize.RejectionError
		if errors.As(err, &rej) {
			rw.ErrorWithDetails(http.StatusUnprocessableEntity, ErrCodeUnprocessable,
				"candidate rejected", map[string]string{"reason": string(rej.Reason)})
			return
		}
		logging.Error().Err(err).Msg("candidate ingestion failed")
		rw.InternalError("candidate ingestion failed")
		return
	}

	if report.Created {
		rw.Created(report)
		return
	}
	rw.Success(report)
}

// IngestBatch accepts a batch of raw candidates. The batch settles fully;
// per-entry outcomes are reported individually.
func (h *Handler) IngestBatch(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var raws []normalize.RawCandidate
	if err := decodeBody(w, r, &raws); err != nil {
		rw.BadRequest("invalid batch payload: " + err.Error())
		return
	}
	if len(raws) == 0 {
		rw.BadRequest("batch is empty")
		return
	}
	if len(raws) > maxBatchSize {
		rw.BadRequest("batch exceeds " + strconv.Itoa(maxBatchSize) + " entries")
		return
	}

	results := h.engine.IngestBatch(r.Context(), raws)
	accepted := 0
	for _, res := range results {
		if res.Err == nil {
			accepted++
		}
	}
	rw.Accepted(map[string]interface{}{
		"accepted": accepted,
		"rejected": len(results) - accepted,
		"results":  results,
	})
}

// Incidents lists all incidents, newest first.
func (h *Handler) Incidents(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	incidents := h.engine.Incidents()
	rw.SuccessWithCount(incidents, len(incidents))
}

// Incident returns one incident by ID.
func (h *Handler) Incident(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id := chi.URLParam(r, "id")

	in, ok := h.engine.Incident(id)
	if !ok {
		rw.NotFound("incident not found")
		return
	}
	rw.Success(in)
}

// IncidentHistory returns archived snapshots of one incident.
func (h *Handler) IncidentHistory(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id := chi.URLParam(r, "id")

	history, err := h.engine.History(id)
	if err != nil {
		if errors.Is(err, engine.ErrArchiveDisabled) {
			rw.Error(http.StatusServiceUnavailable, ErrCodeUnavailable, "incident archive is disabled")
			return
		}
		logging.Error().Err(err).Str("incident", id).Msg("history lookup failed")
		rw.InternalError("history lookup failed")
		return
	}
	if len(history) == 0 {
		rw.NotFound("no archived snapshots for incident")
		return
	}
	rw.SuccessWithCount(history, len(history))
}

// Patterns lists recent detected patterns, newest first. Accepts ?limit=N.
func (h *Handler) Patterns(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			rw.BadRequest("limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	patterns := h.engine.Patterns(limit)
	rw.SuccessWithCount(patterns, len(patterns))
}

// ConfigureDetector applies a JSON configuration to every registered
// detector of the pattern type named in the path.
func (h *Handler) ConfigureDetector(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	pType := models.PatternType(chi.URLParam(r, "type"))

	var raw json.RawMessage
	if err := decodeBody(w, r, &raw); err != nil {
		rw.BadRequest("invalid detector config: " + err.Error())
		return
	}

	if err := h.engine.ConfigureDetectors(pType, raw); err != nil {
		if errors.Is(err, patterns.ErrDetectorNotFound) {
			rw.NotFound("unknown detector type: " + string(pType))
			return
		}
		rw.ErrorWithDetails(http.StatusUnprocessableEntity, ErrCodeUnprocessable,
			"detector rejected configuration", err.Error())
		return
	}

	rw.Success(map[string]interface{}{"type": pType, "configured": true})
}

// RiskZones lists all risk zones.
func (h *Handler) RiskZones(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	zones := h.engine.RiskZones()
	rw.SuccessWithCount(zones, len(zones))
}

// Stats returns the engine summary.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	rw.Success(h.engine.Stats())
}

// WebSocket upgrades the connection and registers the client with the hub.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		NewResponseWriter(w, r).Error(http.StatusServiceUnavailable, ErrCodeUnavailable, "live feed unavailable")
		return
	}

	upgrader := gorillaws.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		HandshakeTimeout: 10 * time.Second,
		CheckOrigin:      func(*http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error().Err(err).Msg("websocket upgrade error")
		return
	}

	client := websocket.NewClient(h.hub, conn)
	h.hub.Register <- client
	client.Start()
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	defer func() { _ = r.Body.Close() }()
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}
