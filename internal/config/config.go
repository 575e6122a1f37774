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

// Package config loads configuration from config.yaml and environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the alert receiver.
type Config struct {
	// HTTP API
	HTTPPort int

	// SMTP listener
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
}

// rawConfig mirrors the YAML structure for unmarshalling.
type rawConfig struct {
	HTTP struct {
		Port int `yaml:"port"`
	} `yaml:"http"`
	SMTP struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
	} `yaml:"smtp"`
}

// Load reads configuration from config.yaml (with env var expansion) and
// environment variables. Environment variables win over the file; the
// file is optional and a missing one just means defaults.
func Load() (*Config, error) {
	configPath := envOrDefault("CONFIG_PATH", "config.yaml")

	var raw rawConfig
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		// Expand ${VAR} references in the YAML
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
			return nil, fmt.Errorf("parse config YAML %s: %w", configPath, err)
		}
	case os.IsNotExist(err):
		// Env vars and defaults only
	default:
		return nil, fmt.Errorf("read config file %s: %w", configPath, err)
	}

	cfg := &Config{
		HTTPPort:     firstPositive(intFromEnv("HTTP_PORT"), raw.HTTP.Port, 18123),
		SMTPHost:     firstNonEmpty(os.Getenv("SMTP_HOST"), raw.SMTP.Host, "0.0.0.0"),
		SMTPPort:     firstPositive(intFromEnv("SMTP_PORT"), raw.SMTP.Port, 1025),
		SMTPUsername: firstNonEmpty(os.Getenv("SMTP_USERNAME"), raw.SMTP.Username, "admin"),
		SMTPPassword: firstNonEmpty(os.Getenv("SMTP_PASSWORD"), raw.SMTP.Password, "admin"),
	}

	if cfg.HTTPPort == cfg.SMTPPort {
		return nil, fmt.Errorf("HTTP and SMTP ports both set to %d", cfg.HTTPPort)
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// intFromEnv returns the integer value of an env var, or 0 when unset or
// unparseable.
func intFromEnv(key string) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return 0
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
