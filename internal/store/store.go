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

// Package store holds the received alerts and emails in two bounded
// in-memory buffers with running aggregate statistics. The store is
// volatile: nothing survives a restart.
package store

import (
	"strings"
	"sync"

	"github.com/alertsink/alertsink/internal/models"
)

// DefaultCapacity is how many records each channel retains. Older
// records are evicted FIFO once the buffer is full.
const DefaultCapacity = 1000

// EventStore is the shared state written by both ingestion channels and
// read by the HTTP API. The alert and email channels are fully
// independent: each has its own mutex, buffer, tally and ID sequence,
// so ingestion on one never contends with the other.
//
// Each channel mutex makes the buffer append and the aggregate update
// atomic as a pair — no reader observes one without the other.
//
// Record IDs are the channel's all-time received count, assigned under
// the channel lock. IDs are therefore strictly increasing and gap-free
// for accepted records, and restart at 1 after a clear.
type EventStore struct {
	alertMu    sync.RWMutex
	alerts     *Ring[models.AlertRecord]
	alertStats *alertTally

	emailMu    sync.RWMutex
	emails     *Ring[models.EmailRecord]
	emailStats *emailTally
}

// New creates an empty EventStore with the given per-channel capacity.
// Production callers pass DefaultCapacity; tests use smaller buffers to
// exercise eviction cheaply.
func New(capacity int) *EventStore {
	return &EventStore{
		alerts:     NewRing[models.AlertRecord](capacity),
		alertStats: newAlertTally(),
		emails:     NewRing[models.EmailRecord](capacity),
		emailStats: newEmailTally(),
	}
}

// AddAlert assigns the next alert ID, appends the record and updates the
// aggregates in one atomic step. It returns the stored record with its
// ID set.
func (s *EventStore) AddAlert(rec models.AlertRecord) models.AlertRecord {
	s.alertMu.Lock()
	defer s.alertMu.Unlock()
	rec.ID = s.alertStats.record(rec.Severity, rec.AlertType)
	s.alerts.Append(rec)
	return rec
}

// AddEmail assigns the next email ID, appends the record and updates the
// aggregates in one atomic step. The email ID sequence is independent of
// the alert sequence.
func (s *EventStore) AddEmail(rec models.EmailRecord) models.EmailRecord {
	s.emailMu.Lock()
	defer s.emailMu.Unlock()
	rec.ID = s.emailStats.record(rec.From, rec.Subject)
	s.emails.Append(rec)
	return rec
}

// ListAlerts returns a newest-first page of stored alerts. When severity
// is non-empty only exact matches are included. total is the filtered
// count, not the buffer size.
func (s *EventStore) ListAlerts(severity string, offset, limit int) ([]models.AlertRecord, int) {
	s.alertMu.RLock()
	all := s.alerts.Snapshot()
	s.alertMu.RUnlock()

	if severity != "" {
		filtered := all[:0]
		for _, rec := range all {
			if rec.Severity == severity {
				filtered = append(filtered, rec)
			}
		}
		all = filtered
	}

	reverse(all)
	return paginate(all, offset, limit), len(all)
}

// ListEmails returns a newest-first page of stored emails. When sender
// is non-empty only records whose From contains it (case-insensitive)
// are included.
func (s *EventStore) ListEmails(sender string, offset, limit int) ([]models.EmailRecord, int) {
	s.emailMu.RLock()
	all := s.emails.Snapshot()
	s.emailMu.RUnlock()

	if sender != "" {
		needle := strings.ToLower(sender)
		filtered := all[:0]
		for _, rec := range all {
			if strings.Contains(strings.ToLower(rec.From), needle) {
				filtered = append(filtered, rec)
			}
		}
		all = filtered
	}

	reverse(all)
	return paginate(all, offset, limit), len(all)
}

// AlertStats returns a copy of the alert aggregates.
func (s *EventStore) AlertStats() models.AlertStats {
	s.alertMu.RLock()
	defer s.alertMu.RUnlock()
	return s.alertStats.snapshot()
}

// EmailStats returns a copy of the email aggregates.
func (s *EventStore) EmailStats() models.EmailStats {
	s.emailMu.RLock()
	defer s.emailMu.RUnlock()
	return s.emailStats.snapshot()
}

// ClearAlerts empties the alert buffer and resets its aggregates and ID
// sequence in one atomic step.
func (s *EventStore) ClearAlerts() {
	s.alertMu.Lock()
	defer s.alertMu.Unlock()
	s.alerts.Clear()
	s.alertStats.clear()
}

// ClearEmails empties the email buffer and resets its aggregates and ID
// sequence in one atomic step.
func (s *EventStore) ClearEmails() {
	s.emailMu.Lock()
	defer s.emailMu.Unlock()
	s.emails.Clear()
	s.emailStats.clear()
}

// AlertsStored returns the number of alerts currently buffered.
func (s *EventStore) AlertsStored() int {
	s.alertMu.RLock()
	defer s.alertMu.RUnlock()
	return s.alerts.Len()
}

// EmailsStored returns the number of emails currently buffered.
func (s *EventStore) EmailsStored() int {
	s.emailMu.RLock()
	defer s.emailMu.RUnlock()
	return s.emails.Len()
}

func reverse[T any](items []T) {
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
}

// paginate slices [offset, offset+limit) out of items. A non-positive
// limit yields an empty page, a negative offset is treated as zero, and
// an offset past the end yields an empty page rather than an error.
func paginate[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
