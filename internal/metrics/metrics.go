// AeroSentry - Drone Incident Correlation and Evidentiary Fusion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aerosentry

// Package metrics provides Prometheus instrumentation for the fusion
// pipeline: ingestion throughput, merge behavior, evidence grading,
// pattern detection, risk scoring, the HTTP API and the WebSocket feed.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion metrics
	CandidatesIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "candidates_ingested_total",
			Help: "Total number of candidates accepted by the normalizer",
		},
		[]string{"source_type"},
	)

	CandidatesRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "candidates_rejected_total",
			Help: "Total number of candidates rejected by the normalizer",
		},
		[]string{"reason"},
	)

	IngestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ingest_duration_seconds",
			Help:    "End-to-end duration of one candidate through the pipeline",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Resolver metrics
	IncidentsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "incidents_created_total",
			Help: "Total number of new incidents created by the resolver",
		},
	)

	IncidentsMerged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "incidents_merged_total",
			Help: "Total number of candidates merged into existing incidents",
		},
		[]string{"method"}, // "key", "correlation"
	)

	IncidentStoreSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "incident_store_size",
			Help: "Current number of incidents in the store",
		},
	)

	// Evidence metrics
	EvidenceAssessments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evidence_assessments_total",
			Help: "Total number of evidence classifications by resulting strength",
		},
		[]string{"attribution"},
	)

	ClassifyDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "evidence_classify_duration_seconds",
			Help:    "Duration of evidence classification",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
	)

	// Pattern detection metrics
	PatternsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "patterns_emitted_total",
			Help: "Total number of patterns emitted by type",
		},
		[]string{"type"},
	)

	DetectorErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "detector_errors_total",
			Help: "Total number of detector failures isolated during analysis",
		},
	)

	DetectionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "detection_pass_duration_seconds",
			Help:    "Duration of one full detection pass",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Risk metrics
	RiskAssessments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_assessments_total",
			Help: "Total number of risk assessments by resulting level",
		},
		[]string{"level"},
	)

	RiskZoneCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "risk_zones",
			Help: "Current number of tracked risk zones",
		},
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// WebSocket metrics
	WSConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections_active",
			Help: "Current number of connected WebSocket clients",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of messages broadcast to WebSocket clients",
		},
	)

	WSMessagesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_dropped_total",
			Help: "Total number of messages dropped due to slow clients",
		},
	)

	// Notifier metrics
	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Total number of notification deliveries by outcome",
		},
		[]string{"notifier", "outcome"}, // outcome: "ok", "error", "breaker_open", "rate_limited"
	)

	// Archive metrics
	ArchiveWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "archive_writes_total",
			Help: "Total number of incident snapshots written to the archive",
		},
		[]string{"outcome"},
	)
)

// RecordCandidate counts one accepted candidate.
func RecordCandidate(sourceType string) {
	CandidatesIngested.WithLabelValues(sourceType).Inc()
}

// RecordRejection counts one normalizer rejection.
func RecordRejection(reason string) {
	CandidatesRejected.WithLabelValues(reason).Inc()
}

// RecordResolution counts a resolver outcome and refreshes the store gauge.
func RecordResolution(created, byCorrelation bool, storeSize int) {
	if created {
		IncidentsCreated.Inc()
	} else if byCorrelation {
		IncidentsMerged.WithLabelValues("correlation").Inc()
	} else {
		IncidentsMerged.WithLabelValues("key").Inc()
	}
	IncidentStoreSize.Set(float64(storeSize))
}

// RecordClassification counts one evidence assessment.
func RecordClassification(attribution string, duration time.Duration) {
	EvidenceAssessments.WithLabelValues(attribution).Inc()
	ClassifyDuration.Observe(duration.Seconds())
}

// RecordPattern counts one emitted pattern.
func RecordPattern(patternType string) {
	PatternsEmitted.WithLabelValues(patternType).Inc()
}

// RecordDetectionPass records one analysis pass and any isolated failures.
func RecordDetectionPass(duration time.Duration, errs int) {
	DetectionDuration.Observe(duration.Seconds())
	if errs > 0 {
		DetectorErrors.Add(float64(errs))
	}
}

// RecordRiskAssessment counts one risk scoring and refreshes the zone gauge.
func RecordRiskAssessment(level string, zoneCount int) {
	RiskAssessments.WithLabelValues(level).Inc()
	RiskZoneCount.Set(float64(zoneCount))
}

// RecordAPIRequest records one completed API request.
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the in-flight request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordNotification counts one notifier delivery attempt.
func RecordNotification(notifier, outcome string) {
	NotificationsSent.WithLabelValues(notifier, outcome).Inc()
}

// RecordArchiveWrite counts one archive write attempt.
func RecordArchiveWrite(err error) {
	if err != nil {
		ArchiveWrites.WithLabelValues("error").Inc()
		return
	}
	ArchiveWrites.WithLabelValues("ok").Inc()
}
