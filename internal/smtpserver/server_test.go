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
	"errors"
	"fmt"
	"net"
	netsmtp "net/smtp"
	"strings"
	"testing"

	"github.com/alertsink/alertsink/internal/store"
)

// startTestServer runs the SMTP server on an ephemeral loopback port.
func startTestServer(t *testing.T) (string, *store.EventStore) {
	t.Helper()

	st := store.New(store.DefaultCapacity)
	srv := New("127.0.0.1", 0, NewAuthGate("admin", "admin"), st)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { srv.Close() })

	return ln.Addr().String(), st
}

// loginAuth implements the LOGIN mechanism for the stdlib SMTP client,
// which only ships PLAIN and CRAM-MD5.
type loginAuth struct {
	username, password string
}

func (a *loginAuth) Start(server *netsmtp.ServerInfo) (string, []byte, error) {
	return "LOGIN", nil, nil
}

func (a *loginAuth) Next(fromServer []byte, more bool) ([]byte, error) {
	if !more {
		return nil, nil
	}
	prompt := strings.ToLower(string(fromServer))
	switch {
	case strings.Contains(prompt, "username"):
		return []byte(a.username), nil
	case strings.Contains(prompt, "password"):
		return []byte(a.password), nil
	default:
		return nil, errors.New("unexpected server challenge")
	}
}

func sendMessage(addr string, auth netsmtp.Auth, from string, to []string, raw string) error {
	c, err := netsmtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer c.Close()

	if err := c.Hello("tester"); err != nil {
		return fmt.Errorf("helo: %w", err)
	}
	if auth != nil {
		if err := c.Auth(auth); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}
	if err := c.Mail(from); err != nil {
		return fmt.Errorf("mail: %w", err)
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("rcpt: %w", err)
		}
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write([]byte(raw)); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close data: %w", err)
	}
	return c.Quit()
}

const testMessage = "From: smm-alerts@example.com\r\n" +
	"To: admin@example.com\r\n" +
	"Subject: [CRITICAL] Kafka Broker Down\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Broker 1 stopped responding.\r\n"

// TestSessionRequiresAuth verifies MAIL is rejected before AUTH.
func TestSessionRequiresAuth(t *testing.T) {
	addr, st := startTestServer(t)

	err := sendMessage(addr, nil, "smm-alerts@example.com", []string{"admin@example.com"}, testMessage)
	if err == nil {
		t.Fatal("unauthenticated MAIL was accepted")
	}
	if !strings.Contains(err.Error(), "mail:") {
		t.Errorf("failure happened at the wrong step: %v", err)
	}
	if got := st.EmailsStored(); got != 0 {
		t.Errorf("EmailsStored() = %d after rejected session, want 0", got)
	}
}

// TestSessionRejectsBadCredentials verifies wrong credentials fail at AUTH.
func TestSessionRejectsBadCredentials(t *testing.T) {
	addr, st := startTestServer(t)

	auth := netsmtp.PlainAuth("", "admin", "wrong", "127.0.0.1")
	err := sendMessage(addr, auth, "smm-alerts@example.com", []string{"admin@example.com"}, testMessage)
	if err == nil {
		t.Fatal("bad credentials were accepted")
	}
	if !strings.Contains(err.Error(), "auth:") {
		t.Errorf("failure happened at the wrong step: %v", err)
	}
	if got := st.EmailsStored(); got != 0 {
		t.Errorf("EmailsStored() = %d, want 0", got)
	}
}

// TestSessionPlainAuthDelivery verifies a full authenticated transaction
// ends with the message normalised into the store.
func TestSessionPlainAuthDelivery(t *testing.T) {
	addr, st := startTestServer(t)

	auth := netsmtp.PlainAuth("", "admin", "admin", "127.0.0.1")
	if err := sendMessage(addr, auth, "envelope@example.com", []string{"admin@example.com"}, testMessage); err != nil {
		t.Fatalf("send: %v", err)
	}

	page, total := st.ListEmails("", 0, 10)
	if total != 1 {
		t.Fatalf("stored %d emails, want 1", total)
	}

	rec := page[0]
	if rec.ID != 1 {
		t.Errorf("ID = %d, want 1", rec.ID)
	}
	// Header From wins over the envelope sender.
	if rec.From != "smm-alerts@example.com" {
		t.Errorf("From = %q, want header sender", rec.From)
	}
	if rec.Subject != "[CRITICAL] Kafka Broker Down" {
		t.Errorf("Subject = %q", rec.Subject)
	}
	if !strings.Contains(rec.Body, "stopped responding") {
		t.Errorf("Body = %q", rec.Body)
	}
	if len(rec.To) != 1 || rec.To[0] != "admin@example.com" {
		t.Errorf("To = %v, want envelope recipient", rec.To)
	}
	if rec.ReceivedFromIP != "127.0.0.1" {
		t.Errorf("ReceivedFromIP = %q, want 127.0.0.1", rec.ReceivedFromIP)
	}

	stats := st.EmailStats()
	if stats.TotalReceived != 1 {
		t.Errorf("TotalReceived = %d, want 1", stats.TotalReceived)
	}
	if stats.BySender["smm-alerts@example.com"] != 1 {
		t.Errorf("BySender = %v", stats.BySender)
	}
}

// TestSessionLoginAuthDelivery verifies the LOGIN mechanism end to end.
func TestSessionLoginAuthDelivery(t *testing.T) {
	addr, st := startTestServer(t)

	auth := &loginAuth{username: "admin", password: "admin"}
	if err := sendMessage(addr, auth, "smm-alerts@example.com", []string{"admin@example.com"}, testMessage); err != nil {
		t.Fatalf("send: %v", err)
	}

	if got := st.EmailsStored(); got != 1 {
		t.Errorf("EmailsStored() = %d, want 1", got)
	}
}

// TestSessionEnvelopeFallback verifies the envelope sender is used when
// the message has no From header.
func TestSessionEnvelopeFallback(t *testing.T) {
	addr, st := startTestServer(t)

	raw := "Subject: no from header\r\n\r\nbody\r\n"
	auth := netsmtp.PlainAuth("", "admin", "admin", "127.0.0.1")
	if err := sendMessage(addr, auth, "envelope@example.com", []string{"admin@example.com"}, raw); err != nil {
		t.Fatalf("send: %v", err)
	}

	page, total := st.ListEmails("", 0, 10)
	if total != 1 {
		t.Fatalf("stored %d emails, want 1", total)
	}
	if page[0].From != "envelope@example.com" {
		t.Errorf("From = %q, want envelope fallback", page[0].From)
	}
}

// TestSessionMultipleMessages verifies a session loops back for the next
// transaction after an accepted DATA, keeping its authentication.
func TestSessionMultipleMessages(t *testing.T) {
	addr, st := startTestServer(t)

	c, err := netsmtp.Dial(addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()

	if err := c.Hello("tester"); err != nil {
		t.Fatalf("helo: %v", err)
	}
	if err := c.Auth(netsmtp.PlainAuth("", "admin", "admin", "127.0.0.1")); err != nil {
		t.Fatalf("auth: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := c.Mail("smm-alerts@example.com"); err != nil {
			t.Fatalf("mail %d: %v", i, err)
		}
		if err := c.Rcpt("admin@example.com"); err != nil {
			t.Fatalf("rcpt %d: %v", i, err)
		}
		w, err := c.Data()
		if err != nil {
			t.Fatalf("data %d: %v", i, err)
		}
		if _, err := w.Write([]byte(testMessage)); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("close %d: %v", i, err)
		}
	}
	if err := c.Quit(); err != nil {
		t.Fatalf("quit: %v", err)
	}

	if got := st.EmailsStored(); got != 2 {
		t.Errorf("EmailsStored() = %d, want 2", got)
	}
	if got := st.EmailStats().TotalReceived; got != 2 {
		t.Errorf("TotalReceived = %d, want 2", got)
	}
}
