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

// Unified Alert Receiver
//
// Entry point for the alert receiver. It:
//  1. Loads configuration from config.yaml and environment variables
//  2. Creates the bounded in-memory event store (alerts + emails)
//  3. Starts the authenticated SMTP listener for the email channel
//  4. Serves the HTTP API: alert ingestion, queries, stats, dashboard
//  5. Handles graceful shutdown on SIGTERM/SIGINT
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alertsink/alertsink/internal/api"
	"github.com/alertsink/alertsink/internal/config"
	"github.com/alertsink/alertsink/internal/smtpserver"
	"github.com/alertsink/alertsink/internal/store"
)

func main() {
	// Structured JSON logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(),
	}))
	slog.SetDefault(logger)

	slog.Info("starting unified alert receiver")

	// --- Load Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"http_port", cfg.HTTPPort,
		"smtp_addr", fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		"smtp_user", cfg.SMTPUsername,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Event Store ---
	// One bounded buffer per channel; everything is in memory and
	// intentionally lost on restart.
	st := store.New(store.DefaultCapacity)

	// --- SMTP Listener ---
	gate := smtpserver.NewAuthGate(cfg.SMTPUsername, cfg.SMTPPassword)
	mailSrv := smtpserver.New(cfg.SMTPHost, cfg.SMTPPort, gate, st)

	ready, err := mailSrv.Start(ctx)
	if err != nil {
		slog.Error("failed to start smtp server", "error", err)
		os.Exit(1)
	}
	<-ready

	// --- HTTP API ---
	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	server := &http.Server{
		Addr:         addr,
		Handler:      api.New(st),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	// --- Graceful Shutdown ---
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
		sig := <-sigCh

		slog.Info("received shutdown signal", "signal", sig.String())
		cancel() // Stops the SMTP listener

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("http server listening", "addr", addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("alert receiver stopped")
}

// logLevel reads LOG_LEVEL (debug, info, warn, error), defaulting to info.
func logLevel() slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
