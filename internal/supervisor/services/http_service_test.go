// AeroSentry - Drone Incident Correlation and Evidentiary Fusion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aerosentry

package services

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/tomtom215/aerosentry/internal/logging"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{Level: "info", Format: "console", Output: io.Discard})
}

// fakeServer blocks in ListenAndServe until Shutdown or a scripted failure.
type fakeServer struct {
	startErr     error
	shutdownErr  error
	shutdownDone chan struct{}
	closed       chan struct{}
}

func newFakeServer() *fakeServer {
	return &fakeServer{
		shutdownDone: make(chan struct{}),
		closed:       make(chan struct{}),
	}
}

func (f *fakeServer) ListenAndServe() error {
	if f.startErr != nil {
		return f.startErr
	}
	<-f.closed
	return errors.New("http: Server closed")
}

func (f *fakeServer) Shutdown(_ context.Context) error {
	close(f.closed)
	close(f.shutdownDone)
	return f.shutdownErr
}

func TestHTTPServerServiceGracefulShutdown(t *testing.T) {
	srv := newFakeServer()
	svc := NewHTTPServerService(srv, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Serve returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}

	select {
	case <-srv.shutdownDone:
	default:
		t.Fatal("Shutdown was not invoked")
	}
}

func TestHTTPServerServiceStartFailure(t *testing.T) {
	srv := newFakeServer()
	srv.startErr = errors.New("listen tcp: address already in use")
	svc := NewHTTPServerService(srv, time.Second)

	err := svc.Serve(context.Background())
	if err == nil || !errors.Is(err, srv.startErr) {
		t.Fatalf("Serve returned %v, want wrapped start error", err)
	}
}

func TestHTTPServerServiceDefaultTimeout(t *testing.T) {
	svc := NewHTTPServerService(newFakeServer(), 0)
	if svc.shutdownTimeout != 10*time.Second {
		t.Fatalf("shutdownTimeout = %v, want 10s default", svc.shutdownTimeout)
	}
}

func TestHTTPServerServiceString(t *testing.T) {
	if got := NewHTTPServerService(newFakeServer(), time.Second).String(); got != "http-server" {
		t.Fatalf("String() = %q", got)
	}
}

func TestWebSocketHubServiceDelegates(t *testing.T) {
	hub := &stubHub{err: context.Canceled}
	svc := NewWebSocketHubService(hub)

	if err := svc.Serve(context.Background()); !errors.Is(err, context.Canceled) {
		t.Fatalf("Serve returned %v, want delegated error", err)
	}
	if !hub.called {
		t.Fatal("RunWithContext was not called")
	}
	if svc.String() != "websocket-hub" {
		t.Fatalf("String() = %q", svc.String())
	}
}

type stubHub struct {
	called bool
	err    error
}

func (s *stubHub) RunWithContext(_ context.Context) error {
	s.called = true
	return s.err
}
