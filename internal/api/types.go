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

package api

import (
	"time"

	"github.com/alertsink/alertsink/internal/models"
)

// IngestResponse acknowledges one accepted alert.
type IngestResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	AlertID int    `json:"alert_id"`
}

// StatusResponse is the generic success/error envelope.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// AlertListResponse is one page of stored alerts. Total is the filtered
// count, which exceeds the page size when pagination applies.
type AlertListResponse struct {
	Alerts []models.AlertRecord `json:"alerts"`
	Total  int                  `json:"total"`
	Offset int                  `json:"offset"`
	Limit  int                  `json:"limit"`
}

// EmailListResponse is one page of stored emails.
type EmailListResponse struct {
	Emails []models.EmailRecord `json:"emails"`
	Total  int                  `json:"total"`
	Offset int                  `json:"offset"`
	Limit  int                  `json:"limit"`
}

// HealthResponse reports both channels for the health endpoint.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Services  Services  `json:"services"`
}

type Services struct {
	HTTP ServiceHealth `json:"http"`
	SMTP ServiceHealth `json:"smtp"`
}

type ServiceHealth struct {
	Status       string `json:"status"`
	AlertsStored *int   `json:"alerts_stored,omitempty"`
	EmailsStored *int   `json:"emails_stored,omitempty"`
}
