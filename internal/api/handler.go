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

// Package api serves the REST endpoints for alert ingestion, querying
// both channels, statistics and the dashboard page. All state access
// goes through the shared event store; handlers hold no state of their
// own.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/alertsink/alertsink/internal/ingest"
	"github.com/alertsink/alertsink/internal/store"
)

const (
	defaultLimit = 100

	// maxAlertBody bounds a single POST body. Alert payloads are small
	// JSON documents; 1 MiB leaves generous headroom.
	maxAlertBody = 1 << 20
)

// Handler is the HTTP handler for all routes.
type Handler struct {
	store *store.EventStore
	mux   *http.ServeMux
}

// New creates a Handler wired to the given event store and registers
// all routes.
func New(st *store.EventStore) http.Handler {
	h := &Handler{store: st, mux: http.NewServeMux()}

	h.mux.HandleFunc("/", h.index)
	h.mux.HandleFunc("/health", h.health)
	h.mux.HandleFunc("/api/alerts", h.alerts)
	h.mux.HandleFunc("/api/alerts/stats", h.alertStats)
	h.mux.HandleFunc("/api/alerts/clear", h.clearAlerts)
	h.mux.HandleFunc("/api/emails", h.emails)
	h.mux.HandleFunc("/api/emails/stats", h.emailStats)
	h.mux.HandleFunc("/api/emails/clear", h.clearEmails)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// alerts handles POST /api/alerts (ingest) and GET /api/alerts (list).
func (h *Handler) alerts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.receiveAlert(w, r)
	case http.MethodGet:
		h.listAlerts(w, r)
	default:
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// receiveAlert ingests one alert payload. A body that is not a JSON
// object is rejected with 400 and no state change; the request source
// address is recorded on the stored alert.
func (h *Handler) receiveAlert(w http.ResponseWriter, r *http.Request) {
	source := remoteIP(r)
	slog.Info("received http alert", "source", source)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxAlertBody))
	if err != nil {
		jsonErr(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	rec, err := ingest.Alert(body, source)
	if err != nil {
		slog.Warn("rejected alert payload", "source", source, "error", err)
		if errors.Is(err, ingest.ErrBadPayload) {
			jsonErr(w, http.StatusBadRequest, "request body must be a JSON object")
			return
		}
		jsonErr(w, http.StatusInternalServerError, "failed to process alert")
		return
	}

	rec = h.store.AddAlert(rec)
	slog.Info("alert stored",
		"alert_id", rec.ID,
		"severity", rec.Severity,
		"alert_type", rec.AlertType,
		"total", h.store.AlertStats().TotalReceived,
	)

	jsonResp(w, http.StatusOK, IngestResponse{
		Status:  "success",
		Message: "Alert received and stored",
		AlertID: rec.ID,
	})
}

// listAlerts returns GET /api/alerts — a newest-first page with an
// optional exact-match severity filter.
func (h *Handler) listAlerts(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultLimit)
	offset := queryInt(r, "offset", 0)
	severity := r.URL.Query().Get("severity")

	page, total := h.store.ListAlerts(severity, offset, limit)
	jsonResp(w, http.StatusOK, AlertListResponse{
		Alerts: page,
		Total:  total,
		Offset: offset,
		Limit:  limit,
	})
}

// alertStats returns GET /api/alerts/stats.
func (h *Handler) alertStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, h.store.AlertStats())
}

// clearAlerts handles POST /api/alerts/clear.
func (h *Handler) clearAlerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	slog.Warn("clearing all alerts", "source", remoteIP(r))
	h.store.ClearAlerts()
	jsonResp(w, http.StatusOK, StatusResponse{
		Status:  "success",
		Message: "All alerts cleared",
	})
}

// emails returns GET /api/emails — a newest-first page with an optional
// case-insensitive sender substring filter.
func (h *Handler) emails(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	limit := queryInt(r, "limit", defaultLimit)
	offset := queryInt(r, "offset", 0)
	sender := r.URL.Query().Get("sender")

	page, total := h.store.ListEmails(sender, offset, limit)
	jsonResp(w, http.StatusOK, EmailListResponse{
		Emails: page,
		Total:  total,
		Offset: offset,
		Limit:  limit,
	})
}

// emailStats returns GET /api/emails/stats.
func (h *Handler) emailStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, h.store.EmailStats())
}

// clearEmails handles POST /api/emails/clear.
func (h *Handler) clearEmails(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	slog.Warn("clearing all emails", "source", remoteIP(r))
	h.store.ClearEmails()
	jsonResp(w, http.StatusOK, StatusResponse{
		Status:  "success",
		Message: "All emails cleared",
	})
}

// health returns GET /health — store counts for both channels.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	alerts := h.store.AlertsStored()
	emails := h.store.EmailsStored()
	jsonResp(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Services: Services{
			HTTP: ServiceHealth{Status: "running", AlertsStored: &alerts},
			SMTP: ServiceHealth{Status: "running", EmailsStored: &emails},
		},
	})
}

// index serves the dashboard page on "/" only; the catch-all pattern
// also receives every unregistered path.
func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		jsonErr(w, http.StatusNotFound, "not found")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(dashboardHTML))
}

// --- helpers ----------------------------------------------------------------

// queryInt parses an integer query parameter, falling back to def for
// missing or unparseable values.
func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// remoteIP strips the port from the request's remote address.
func remoteIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func jsonResp(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, StatusResponse{Status: "error", Message: msg})
}
