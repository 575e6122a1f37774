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

// Package ingest validates and normalises inbound alert payloads into
// records ready for the event store.
package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/alertsink/alertsink/internal/models"
)

// ErrBadPayload marks an alert body that is not a JSON object. The
// request is rejected without touching the store.
var ErrBadPayload = errors.New("alert payload is not a JSON object")

// Alert parses body into an AlertRecord. The payload schema is not
// validated beyond "must be a JSON object": the object is stored opaque
// and only the two well-known optional fields are extracted.
//
// severity comes from the "severity" key; the alert type from
// "alertType" with a fallback to the legacy "type" key. Missing or
// non-string values degrade to UNKNOWN, never to an error. The returned
// record has no ID — the store assigns one on append.
func Alert(body []byte, sourceAddr string) (models.AlertRecord, error) {
	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		return models.AlertRecord{}, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	if data == nil {
		// "null" decodes without error but carries nothing to store.
		return models.AlertRecord{}, ErrBadPayload
	}

	return models.AlertRecord{
		Timestamp:    time.Now().UTC(),
		ReceivedFrom: sourceAddr,
		Data:         data,
		Severity:     stringField(data, "severity"),
		AlertType:    stringField(data, "alertType", "type"),
	}, nil
}

// stringField returns the first key present in data with a string value,
// or UNKNOWN when none is.
func stringField(data map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := data[key].(string); ok && v != "" {
			return v
		}
	}
	return models.UnknownLabel
}
