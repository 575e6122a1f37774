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

package smtpserver

import (
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/google/uuid"

	"github.com/alertsink/alertsink/internal/mailparse"
	"github.com/alertsink/alertsink/internal/models"
	"github.com/alertsink/alertsink/internal/store"
)

// errProcessing is returned when an accepted DATA payload cannot be
// parsed. 451 tells the client the failure is on our side and transient;
// the listener keeps serving subsequent sessions either way.
var errProcessing = &smtp.SMTPError{
	Code:         451,
	EnhancedCode: smtp.EnhancedCode{4, 5, 0},
	Message:      "Error processing message",
}

// backend creates one session per SMTP connection.
type backend struct {
	store *store.EventStore
	gate  *AuthGate
}

func (b *backend) NewSession(c *smtp.Conn) (smtp.Session, error) {
	s := &session{
		store:  b.store,
		gate:   b.gate,
		id:     uuid.New().String(),
		peerIP: peerIP(c),
	}
	slog.Debug("smtp session opened", "session_id", s.id, "peer", s.peerIP)
	return s, nil
}

// session models one SMTP connection. The protocol engine drives the
// EHLO → AUTH → MAIL → RCPT → DATA sequencing; the session enforces
// that no mail transaction starts before authentication succeeds, and
// after each accepted message loops back for the next transaction.
type session struct {
	store  *store.EventStore
	gate   *AuthGate
	id     string
	peerIP string

	authenticated bool
	from          string
	rcpts         []string
}

// AuthMechanisms advertises the two supported mechanisms. Anything else
// the client asks for is rejected by Auth without consulting credentials.
func (s *session) AuthMechanisms() []string {
	return []string{sasl.Plain, sasl.Login}
}

func (s *session) Auth(mech string) (sasl.Server, error) {
	switch mech {
	case sasl.Plain:
		return sasl.NewPlainServer(func(identity, username, password string) error {
			if identity != "" && identity != username {
				return smtp.ErrAuthFailed
			}
			return s.checkCredentials(username, password)
		}), nil
	case sasl.Login:
		return sasl.NewLoginServer(func(username, password string) error {
			return s.checkCredentials(username, password)
		}), nil
	default:
		slog.Warn("unsupported auth mechanism",
			"session_id", s.id,
			"mechanism", mech,
		)
		return nil, smtp.ErrAuthUnsupported
	}
}

func (s *session) checkCredentials(username, password string) error {
	if !s.gate.Check(username, password) {
		slog.Warn("smtp authentication failed",
			"session_id", s.id,
			"username", username,
			"peer", s.peerIP,
		)
		return smtp.ErrAuthFailed
	}
	s.authenticated = true
	slog.Info("smtp authentication successful",
		"session_id", s.id,
		"username", username,
	)
	return nil
}

func (s *session) Mail(from string, opts *smtp.MailOptions) error {
	if !s.authenticated {
		return smtp.ErrAuthRequired
	}
	s.from = from
	return nil
}

func (s *session) Rcpt(to string, opts *smtp.RcptOptions) error {
	if !s.authenticated {
		return smtp.ErrAuthRequired
	}
	s.rcpts = append(s.rcpts, to)
	return nil
}

// Data receives the message bytes, parses them and stores the result.
// Parsing failures reject only this message — the connection and the
// listener stay usable.
func (s *session) Data(r io.Reader) error {
	if !s.authenticated {
		return smtp.ErrAuthRequired
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		slog.Error("failed to read message data",
			"session_id", s.id,
			"error", err,
		)
		return errProcessing
	}

	msg, err := mailparse.Parse(raw)
	if err != nil {
		slog.Error("failed to parse message",
			"session_id", s.id,
			"from", s.from,
			"size", len(raw),
			"error", err,
		)
		return errProcessing
	}

	// Prefer the From header; fall back to the envelope sender.
	from := msg.From
	if from == "" {
		from = s.from
	}

	rec := s.store.AddEmail(models.EmailRecord{
		Timestamp:      time.Now().UTC(),
		From:           from,
		To:             append([]string(nil), s.rcpts...),
		Subject:        msg.Subject,
		Body:           msg.Body,
		RawHeaders:     msg.Headers,
		ReceivedFromIP: s.peerIP,
	})

	slog.Info("email stored",
		"session_id", s.id,
		"email_id", rec.ID,
		"from", rec.From,
		"subject", rec.Subject,
		"stored", s.store.EmailsStored(),
	)
	return nil
}

// Reset clears the in-progress transaction so the session can accept
// another message. Authentication state survives a reset.
func (s *session) Reset() {
	s.from = ""
	s.rcpts = nil
}

func (s *session) Logout() error {
	slog.Debug("smtp session closed", "session_id", s.id)
	return nil
}

func peerIP(c *smtp.Conn) string {
	addr := c.Conn().RemoteAddr().String()
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
