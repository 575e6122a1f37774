// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package smtpserver runs the authenticated SMTP listener. Sessions must
// authenticate (PLAIN or LOGIN) before any mail transaction; accepted
// messages are parsed and written to the shared event store.
package smtpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"github.com/emersion/go-smtp"

	"github.com/alertsink/alertsink/internal/store"
)

const (
	// maxMessageBytes bounds a single DATA payload. Alert notification
	// mails are small; 10 MiB leaves generous headroom.
	maxMessageBytes = 10 << 20

	maxRecipients = 50
)

// Server wraps the SMTP protocol engine around the event store.
type Server struct {
	addr string
	smtp *smtp.Server
}

// New creates the SMTP server listening configuration. The credential
// pair is required before MAIL is accepted on any session.
func New(host string, port int, gate *AuthGate, st *store.EventStore) *Server {
	s := smtp.NewServer(&backend{store: st, gate: gate})

	s.Domain = "localhost"
	s.MaxMessageBytes = maxMessageBytes
	s.MaxRecipients = maxRecipients
	// Alert senders on the internal network don't do STARTTLS; without
	// this, AUTH would never be advertised on a plaintext connection.
	s.AllowInsecureAuth = true

	return &Server{
		addr: fmt.Sprintf("%s:%d", host, port),
		smtp: s,
	}
}

// Start binds the listen address and serves in the background. It
// signals readiness via the returned channel after the port is bound,
// and stops accepting new sessions when ctx is cancelled; in-flight
// sessions get a best-effort chance to finish via Close.
func (s *Server) Start(ctx context.Context) (<-chan struct{}, error) {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return nil, fmt.Errorf("bind smtp address %s: %w", s.addr, err)
	}

	ready := make(chan struct{})

	go func() {
		<-ctx.Done()
		slog.Info("smtp server shutting down")
		s.smtp.Close()
	}()

	go func() {
		slog.Info("smtp server listening", "addr", s.addr)
		close(ready)
		if err := s.Serve(ln); err != nil {
			slog.Error("smtp server error", "error", err)
		}
	}()

	return ready, nil
}

// Serve accepts sessions on ln until the server is closed. Exposed so
// tests can drive the server on an ephemeral port.
func (s *Server) Serve(ln net.Listener) error {
	err := s.smtp.Serve(ln)
	if err == smtp.ErrServerClosed {
		return nil
	}
	return err
}

// Close stops the listener and closes active sessions.
func (s *Server) Close() error {
	return s.smtp.Close()
}
