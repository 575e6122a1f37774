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

// Package mailparse normalises raw MIME message bytes into the fields
// stored on an EmailRecord. Parsing is tolerant by design: unknown
// charsets and malformed encoded-words degrade to replaced bytes, and
// undecodable parts degrade to a partial body — a bad message must
// never take the SMTP listener down.
package mailparse

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/jhillyerd/enmime/v2"
)

// DefaultSubject is stored when a message carries no Subject header.
const DefaultSubject = "No Subject"

// ErrBadMessage marks bytes that cannot be parsed as a MIME message at
// all. The SMTP layer maps it to a transient rejection.
var ErrBadMessage = errors.New("unparseable MIME message")

// Message is the normalised content of one parsed email.
type Message struct {
	// From is the decoded From header, empty when the message has none
	// (callers fall back to the envelope sender).
	From string

	// Subject is the decoded Subject header, DefaultSubject when missing.
	Subject string

	// Body is the concatenated decoded text of all non-attachment
	// text/plain and text/html parts, in message order.
	Body string

	// Headers maps header name to value. Duplicate headers collapse to
	// the last occurrence; headers are informational only.
	Headers map[string]string
}

// Parse decodes raw message bytes into a Message.
func Parse(raw []byte) (*Message, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadMessage, err)
	}

	subject := strings.TrimSpace(env.GetHeader("Subject"))
	if subject == "" {
		subject = DefaultSubject
	}

	return &Message{
		From:    strings.TrimSpace(env.GetHeader("From")),
		Subject: subject,
		Body:    assembleBody(env),
		Headers: flattenHeaders(env),
	}, nil
}

// assembleBody walks every part and concatenates the decoded text and
// HTML content, skipping attachments. enmime has already converted part
// content to UTF-8, replacing malformed byte sequences.
func assembleBody(env *enmime.Envelope) string {
	if env.Root == nil {
		return ""
	}

	parts := env.Root.DepthMatchAll(func(p *enmime.Part) bool {
		if p.Disposition == "attachment" {
			return false
		}
		return p.ContentType == "text/plain" || p.ContentType == "text/html"
	})

	var chunks []string
	for _, p := range parts {
		if len(p.Content) > 0 {
			chunks = append(chunks, string(p.Content))
		}
	}
	return strings.TrimSpace(strings.Join(chunks, "\n"))
}

func flattenHeaders(env *enmime.Envelope) map[string]string {
	headers := make(map[string]string)
	if env.Root == nil {
		return headers
	}
	for name, values := range env.Root.Header {
		if len(values) > 0 {
			headers[name] = values[len(values)-1]
		}
	}
	return headers
}
