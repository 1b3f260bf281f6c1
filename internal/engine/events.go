// AeroSentry - Drone Incident Correlation and Evidentiary Fusion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aerosentry

package engine

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/aerosentry/internal/logging"
	"github.com/tomtom215/aerosentry/internal/models"
)

// Event bus topics. In-process consumers subscribe through Subscribe.
const (
	TopicIncidentUpdated = "incidents.updated"
	TopicPatternDetected = "patterns.detected"
	TopicRiskAssessed    = "risk.assessed"
)

// IncidentEvent is the payload published on TopicIncidentUpdated.
type IncidentEvent struct {
	Incident *models.Incident `json:"incident"`
	Created  bool             `json:"created"`
}

// RiskEvent is the payload published on TopicRiskAssessed.
type RiskEvent struct {
	IncidentID string                  `json:"incident_id"`
	Risk       models.RiskAssessment   `json:"risk"`
	Triage     models.TriageAssessment `json:"triage"`
}

// newBus creates the in-process event bus.
func newBus() *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 256,
	}, watermillLogger{})
}

// publish marshals the payload and publishes it on the bus. Publish
// failures are logged, not propagated: downstream consumers are advisory
// and must not fail the ingest path.
func (e *Engine) publish(topic string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error().Err(err).Str("topic", topic).Msg("failed to marshal event")
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), data)
	if err := e.bus.Publish(topic, msg); err != nil {
		logging.Error().Err(err).Str("topic", topic).Msg("failed to publish event")
	}
}

// Subscribe returns a channel of messages for the given topic. The channel
// closes when the context is canceled or the engine shuts down.
func (e *Engine) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return e.bus.Subscribe(ctx, topic)
}

// watermillLogger adapts the structured logger to watermill's interface.
type watermillLogger struct {
	fields watermill.LogFields
}

func (l watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	l.event(logging.Error().Err(err), fields).Msg(msg)
}

func (l watermillLogger) Info(msg string, fields watermill.LogFields) {
	l.event(logging.Debug(), fields).Msg(msg)
}

func (l watermillLogger) Debug(msg string, fields watermill.LogFields) {
	l.event(logging.Debug(), fields).Msg(msg)
}

func (l watermillLogger) Trace(msg string, fields watermill.LogFields) {
	l.event(logging.Debug(), fields).Msg(msg)
}

func (l watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	merged := make(watermill.LogFields, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return watermillLogger{fields: merged}
}

func (l watermillLogger) event(ev *zerolog.Event, fields watermill.LogFields) *zerolog.Event {
	for k, v := range l.fields {
		ev = ev.Interface(k, v)
	}
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	return ev
}
