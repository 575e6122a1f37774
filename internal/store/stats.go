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

package store

import "github.com/alertsink/alertsink/internal/models"

// alertTally tracks running alert counts. It is not safe for concurrent
// use on its own — EventStore serialises access alongside the ring so
// the pair updates atomically.
//
// Category labels are case-sensitive free-form strings; no normalisation
// is performed. Callers that need canonical casing must normalise before
// ingestion.
type alertTally struct {
	total      int
	bySeverity map[string]int
	byType     map[string]int
}

func newAlertTally() *alertTally {
	return &alertTally{
		bySeverity: make(map[string]int),
		byType:     make(map[string]int),
	}
}

// record increments the total and the severity/type categories, creating
// categories lazily on first occurrence. It returns the new total, which
// doubles as the ID of the record being counted.
func (t *alertTally) record(severity, alertType string) int {
	t.total++
	t.bySeverity[severity]++
	t.byType[alertType]++
	return t.total
}

func (t *alertTally) snapshot() models.AlertStats {
	return models.AlertStats{
		TotalReceived: t.total,
		BySeverity:    copyCounts(t.bySeverity),
		ByType:        copyCounts(t.byType),
	}
}

func (t *alertTally) clear() {
	t.total = 0
	t.bySeverity = make(map[string]int)
	t.byType = make(map[string]int)
}

// emailTally is the email-channel counterpart of alertTally, keyed by
// sender and subject.
type emailTally struct {
	total     int
	bySender  map[string]int
	bySubject map[string]int
}

func newEmailTally() *emailTally {
	return &emailTally{
		bySender:  make(map[string]int),
		bySubject: make(map[string]int),
	}
}

func (t *emailTally) record(sender, subject string) int {
	t.total++
	t.bySender[sender]++
	t.bySubject[subject]++
	return t.total
}

func (t *emailTally) snapshot() models.EmailStats {
	return models.EmailStats{
		TotalReceived: t.total,
		BySender:      copyCounts(t.bySender),
		BySubject:     copyCounts(t.bySubject),
	}
}

func (t *emailTally) clear() {
	t.total = 0
	t.bySender = make(map[string]int)
	t.bySubject = make(map[string]int)
}

func copyCounts(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
