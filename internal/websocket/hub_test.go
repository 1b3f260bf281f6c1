// AeroSentry - Drone Incident Correlation and Evidentiary Fusion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aerosentry

package websocket

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/tomtom215/aerosentry/internal/logging"
	"github.com/tomtom215/aerosentry/internal/models"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

// setupHub creates and starts a hub that stops when the test ends.
func setupHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = hub.RunWithContext(ctx) }()
	time.Sleep(10 * time.Millisecond)
	return hub
}

// createTestClient creates a client with no underlying connection. The hub
// only touches the send channel, so a nil conn is safe in these tests.
func createTestClient(hub *Hub) *Client {
	return &Client{
		id:   clientIDCounter.Add(1),
		hub:  hub,
		conn: nil,
		send: make(chan Message, 256),
	}
}

// registerClient registers a client and waits for registration to complete.
func registerClient(hub *Hub, client *Client) {
	hub.Register <- client
	time.Sleep(20 * time.Millisecond)
}

func TestNewHub(t *testing.T) {
	hub := NewHub()

	if hub == nil {
		t.Fatal("NewHub returned nil")
	}

	checks := []struct {
		name   string
		check  bool
		errMsg string
	}{
		{"clients map", hub.clients != nil, "clients map not initialized"},
		{"broadcast channel", hub.broadcast != nil, "broadcast channel not initialized"},
		{"Register channel", hub.Register != nil, "Register channel not initialized"},
		{"Unregister channel", hub.Unregister != nil, "Unregister channel not initialized"},
		{"empty clients", len(hub.clients) == 0, "clients map should be empty"},
	}

	for _, c := range checks {
		if !c.check {
			t.Errorf("%s: %s", c.name, c.errMsg)
		}
	}
}

func TestHubRegisterUnregister(t *testing.T) {
	hub := setupHub(t)
	client := createTestClient(hub)

	registerClient(hub, client)
	if got := hub.GetClientCount(); got != 1 {
		t.Errorf("after register: client count = %d, want 1", got)
	}

	hub.Unregister <- client
	time.Sleep(20 * time.Millisecond)
	if got := hub.GetClientCount(); got != 0 {
		t.Errorf("after unregister: client count = %d, want 0", got)
	}

	// Unregistering closes the send channel.
	select {
	case _, ok := <-client.send:
		if ok {
			t.Error("expected send channel to be closed")
		}
	default:
		t.Error("send channel not closed after unregister")
	}
}

func TestHubBroadcastDeliversToAllClients(t *testing.T) {
	hub := setupHub(t)
	clients := make([]*Client, 3)
	for i := range clients {
		clients[i] = createTestClient(hub)
		registerClient(hub, clients[i])
	}

	hub.BroadcastJSON(MessageTypePatternDetected, map[string]string{"pattern_id": "p1"})
	time.Sleep(20 * time.Millisecond)

	for i, client := range clients {
		select {
		case msg := <-client.send:
			if msg.Type != MessageTypePatternDetected {
				t.Errorf("client %d: message type = %q, want %q", i, msg.Type, MessageTypePatternDetected)
			}
		default:
			t.Errorf("client %d: no message received", i)
		}
	}
}

func TestHubEvictsSlowClient(t *testing.T) {
	hub := setupHub(t)

	slow := createTestClient(hub)
	slow.send = make(chan Message) // unbuffered, nothing reads it
	healthy := createTestClient(hub)
	registerClient(hub, slow)
	registerClient(hub, healthy)

	hub.BroadcastJSON(MessageTypeIncidentUpdated, map[string]string{"incident_id": "i1"})
	time.Sleep(20 * time.Millisecond)

	if got := hub.GetClientCount(); got != 1 {
		t.Fatalf("client count after broadcast = %d, want 1 (slow client evicted)", got)
	}

	select {
	case msg := <-healthy.send:
		if msg.Type != MessageTypeIncidentUpdated {
			t.Errorf("healthy client message type = %q, want %q", msg.Type, MessageTypeIncidentUpdated)
		}
	default:
		t.Error("healthy client did not receive the message")
	}
}

func TestHubShutdownClosesClients(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.RunWithContext(ctx) }()
	time.Sleep(10 * time.Millisecond)

	client := createTestClient(hub)
	registerClient(hub, client)

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("RunWithContext returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("hub did not stop after context cancellation")
	}

	if got := hub.GetClientCount(); got != 0 {
		t.Errorf("client count after shutdown = %d, want 0", got)
	}
	select {
	case _, ok := <-client.send:
		if ok {
			t.Error("expected send channel to be closed")
		}
	default:
		t.Error("send channel not closed on shutdown")
	}
}

func TestBroadcastJSONFullChannelDrops(t *testing.T) {
	hub := NewHub() // not running, broadcast queue fills up

	for i := 0; i < 300; i++ {
		hub.BroadcastJSON(MessageTypeAlert, i)
	}
	// 256 queued, the rest dropped without blocking; reaching here is the assertion.
	if len(hub.broadcast) != 256 {
		t.Errorf("broadcast queue length = %d, want 256", len(hub.broadcast))
	}
}

func TestMarshalMessage(t *testing.T) {
	msg := Message{
		Type: MessageTypeRiskAssessed,
		Data: models.RiskAssessment{Score: 12, Level: models.RiskHigh},
	}

	data, err := MarshalMessage(msg)
	if err != nil {
		t.Fatalf("MarshalMessage: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("MarshalMessage returned empty payload")
	}
}

func TestClientIDsAreUnique(t *testing.T) {
	hub := NewHub()
	a := createTestClient(hub)
	b := createTestClient(hub)
	if a.ID() == b.ID() {
		t.Errorf("client IDs collide: %d", a.ID())
	}
	if b.ID() <= a.ID() {
		t.Errorf("client IDs not increasing: %d then %d", a.ID(), b.ID())
	}
}
