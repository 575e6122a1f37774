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

package mailparse

import (
	"strings"
	"testing"
)

const crlf = "\r\n"

func lines(parts ...string) []byte {
	return []byte(strings.Join(parts, crlf) + crlf)
}

// TestParseSinglePart verifies a plain single-part message.
func TestParseSinglePart(t *testing.T) {
	raw := lines(
		"From: smm-alerts@example.com",
		"To: admin@example.com",
		"Subject: [CRITICAL] Kafka Broker Down",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"Alert: Kafka broker has stopped responding",
	)

	msg, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	if msg.From != "smm-alerts@example.com" {
		t.Errorf("From = %q", msg.From)
	}
	if msg.Subject != "[CRITICAL] Kafka Broker Down" {
		t.Errorf("Subject = %q", msg.Subject)
	}
	if !strings.Contains(msg.Body, "stopped responding") {
		t.Errorf("Body = %q, want broker text", msg.Body)
	}
	if got := msg.Headers["To"]; got != "admin@example.com" {
		t.Errorf("Headers[To] = %q", got)
	}
}

// TestParseMissingSubject verifies the default subject is applied.
func TestParseMissingSubject(t *testing.T) {
	raw := lines(
		"From: smm-alerts@example.com",
		"",
		"no subject here",
	)

	msg, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if msg.Subject != DefaultSubject {
		t.Errorf("Subject = %q, want %q", msg.Subject, DefaultSubject)
	}
}

// TestParseEncodedWordSubject verifies RFC 2047 subjects are decoded.
func TestParseEncodedWordSubject(t *testing.T) {
	raw := lines(
		"From: smm-alerts@example.com",
		"Subject: =?utf-8?q?Disk_usage_=C3=BCber_80=25?=",
		"",
		"body",
	)

	msg, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if msg.Subject != "Disk usage über 80%" {
		t.Errorf("Subject = %q, want decoded umlaut subject", msg.Subject)
	}
}

// TestParseMultipartSkipsAttachment verifies attachments never leak into
// the body.
func TestParseMultipartSkipsAttachment(t *testing.T) {
	raw := lines(
		"From: smm-alerts@example.com",
		"Subject: with attachment",
		"MIME-Version: 1.0",
		"Content-Type: multipart/mixed; boundary=frontier",
		"",
		"--frontier",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"visible alert text",
		"--frontier",
		"Content-Type: application/octet-stream",
		"Content-Disposition: attachment; filename=dump.bin",
		"Content-Transfer-Encoding: base64",
		"",
		"aGlkZGVuIGF0dGFjaG1lbnQgY29udGVudA==",
		"--frontier--",
	)

	msg, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if !strings.Contains(msg.Body, "visible alert text") {
		t.Errorf("Body = %q, want the plain part", msg.Body)
	}
	if strings.Contains(msg.Body, "hidden attachment") {
		t.Errorf("Body = %q, attachment content leaked", msg.Body)
	}
}

// TestParseAlternativeConcatenatesTextAndHTML verifies both body
// variants are kept, plain first.
func TestParseAlternativeConcatenatesTextAndHTML(t *testing.T) {
	raw := lines(
		"From: smm-alerts@example.com",
		"Subject: alternative",
		"MIME-Version: 1.0",
		"Content-Type: multipart/alternative; boundary=sep",
		"",
		"--sep",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"plain body",
		"--sep",
		"Content-Type: text/html; charset=utf-8",
		"",
		"<p>html body</p>",
		"--sep--",
	)

	msg, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if !strings.Contains(msg.Body, "plain body") {
		t.Errorf("Body = %q, missing plain part", msg.Body)
	}
	if !strings.Contains(msg.Body, "<p>html body</p>") {
		t.Errorf("Body = %q, missing html part", msg.Body)
	}
	if strings.Index(msg.Body, "plain body") > strings.Index(msg.Body, "html body") {
		t.Errorf("Body = %q, want plain before html", msg.Body)
	}
}

// TestParseDuplicateHeadersLastWins pins the duplicate-header contract.
func TestParseDuplicateHeadersLastWins(t *testing.T) {
	raw := lines(
		"From: smm-alerts@example.com",
		"X-Env: first",
		"X-Env: second",
		"Subject: dup headers",
		"",
		"body",
	)

	msg, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if got := msg.Headers["X-Env"]; got != "second" {
		t.Errorf("Headers[X-Env] = %q, want last value", got)
	}
}

// TestParseEmptyInput verifies garbage in yields an error, not a panic.
func TestParseEmptyInput(t *testing.T) {
	if _, err := Parse(nil); err == nil {
		t.Fatal("Parse(nil) succeeded, want error")
	}
}

// TestParseHeaderOnlyMessage verifies a missing body is not fatal.
func TestParseHeaderOnlyMessage(t *testing.T) {
	raw := lines(
		"From: smm-alerts@example.com",
		"Subject: headers only",
		"",
	)

	msg, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if msg.Body != "" {
		t.Errorf("Body = %q, want empty", msg.Body)
	}
}
