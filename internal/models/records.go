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

// Package models defines the data structures shared across the receiver.
package models

import "time"

// UnknownLabel is the category used when an alert payload carries no
// severity or alert type.
const UnknownLabel = "UNKNOWN"

// AlertRecord is one alert received over the HTTP channel.
//
// Data is the submitted JSON object, stored opaque and returned to API
// consumers unmodified. Severity and AlertType are derived from Data at
// ingestion time and drive statistics and filtering; they are not
// serialised separately because they remain visible inside Data.
type AlertRecord struct {
	ID           int            `json:"id"`
	Timestamp    time.Time      `json:"timestamp"`
	ReceivedFrom string         `json:"received_from"`
	Data         map[string]any `json:"data"`

	Severity  string `json:"-"`
	AlertType string `json:"-"`
}

// EmailRecord is one message received over the SMTP channel, normalised
// from raw MIME bytes.
//
// RawHeaders maps header name to value with duplicates collapsed to the
// last occurrence. Headers are informational only, so losing earlier
// duplicates (and map ordering) is an accepted limitation.
type EmailRecord struct {
	ID             int               `json:"id"`
	Timestamp      time.Time         `json:"timestamp"`
	From           string            `json:"from"`
	To             []string          `json:"to"`
	Subject        string            `json:"subject"`
	Body           string            `json:"body"`
	RawHeaders     map[string]string `json:"raw_headers"`
	ReceivedFromIP string            `json:"received_from_ip"`
}

// AlertStats is a point-in-time copy of the alert channel aggregates.
// TotalReceived counts every accepted alert since start or the last
// clear, including alerts already evicted from the bounded store.
type AlertStats struct {
	TotalReceived int            `json:"total_received"`
	BySeverity    map[string]int `json:"by_severity"`
	ByType        map[string]int `json:"by_type"`
}

// EmailStats is a point-in-time copy of the email channel aggregates.
type EmailStats struct {
	TotalReceived int            `json:"total_received"`
	BySender      map[string]int `json:"by_sender"`
	BySubject     map[string]int `json:"by_subject"`
}
