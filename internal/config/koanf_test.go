// Printdeck - Print Management Sync Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/printdeck

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestDefaultConfig verifies that defaultConfig() returns the documented defaults
func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Backend.URL != "http://localhost:8000" {
		t.Errorf("Backend.URL = %q, want http://localhost:8000", cfg.Backend.URL)
	}
	if cfg.Realtime.ReconnectDelay != time.Second {
		t.Errorf("Realtime.ReconnectDelay = %v, want 1s", cfg.Realtime.ReconnectDelay)
	}
	if cfg.Realtime.MaxReconnectAttempts != 5 {
		t.Errorf("Realtime.MaxReconnectAttempts = %d, want 5", cfg.Realtime.MaxReconnectAttempts)
	}
	if cfg.Polling.Interval != 5*time.Second {
		t.Errorf("Polling.Interval = %v, want 5s", cfg.Polling.Interval)
	}
	if cfg.Upload.RedirectDelay != 2*time.Second {
		t.Errorf("Upload.RedirectDelay = %v, want 2s", cfg.Upload.RedirectDelay)
	}
	if cfg.Upload.MonitorAttempts != 30 {
		t.Errorf("Upload.MonitorAttempts = %d, want 30", cfg.Upload.MonitorAttempts)
	}
	if cfg.Notifications.Capacity != 50 {
		t.Errorf("Notifications.Capacity = %d, want 50", cfg.Notifications.Capacity)
	}
	if cfg.Server.Enabled {
		t.Error("Server.Enabled should be false by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

// TestEnvTransformFunc verifies environment variable name transformations
func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"PRINTDECK_API_URL", "backend.url"},
		{"PRINTDECK_WS_URL", "realtime.url"},
		{"PRINTDECK_WS_MAX_RECONNECTS", "realtime.max_reconnect_attempts"},
		{"PRINTDECK_POLL_INTERVAL", "polling.interval"},
		{"PRINTDECK_HTTP_PORT", "server.port"},
		{"LOG_LEVEL", "logging.level"},
		{"log_format", "logging.format"},
		{"PATH", ""},
		{"HOME", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := envTransformFunc(tt.input); got != tt.expected {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFindConfigFile(t *testing.T) {
	tmpDir := t.TempDir()

	origDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	defer func() {
		if err := os.Chdir(origDir); err != nil {
			t.Errorf("Failed to restore working directory: %v", err)
		}
	}()
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("Failed to change to temp directory: %v", err)
	}

	t.Run("no config file exists", func(t *testing.T) {
		t.Setenv(ConfigPathEnvVar, "")
		if result := findConfigFile(); result != "" {
			t.Errorf("findConfigFile() = %q, want empty string", result)
		}
	})

	t.Run("printdeck.yaml exists", func(t *testing.T) {
		t.Setenv(ConfigPathEnvVar, "")
		path := filepath.Join(tmpDir, "printdeck.yaml")
		if err := os.WriteFile(path, []byte("logging:\n  level: info\n"), 0o600); err != nil {
			t.Fatalf("Failed to create config file: %v", err)
		}
		defer os.Remove(path)

		if result := findConfigFile(); result != "printdeck.yaml" {
			t.Errorf("findConfigFile() = %q, want printdeck.yaml", result)
		}
	})

	t.Run("CONFIG_PATH takes precedence", func(t *testing.T) {
		customPath := filepath.Join(tmpDir, "custom.yaml")
		if err := os.WriteFile(customPath, []byte("{}"), 0o600); err != nil {
			t.Fatalf("Failed to create custom config file: %v", err)
		}
		defer os.Remove(customPath)
		t.Setenv(ConfigPathEnvVar, customPath)

		if result := findConfigFile(); result != customPath {
			t.Errorf("findConfigFile() = %q, want %q", result, customPath)
		}
	})

	t.Run("CONFIG_PATH pointing nowhere falls back", func(t *testing.T) {
		t.Setenv(ConfigPathEnvVar, "/non/existent/printdeck.yaml")
		if result := findConfigFile(); result != "" {
			t.Errorf("findConfigFile() = %q, want empty string", result)
		}
	})
}

// TestLoadFileEnvVars tests loading configuration from environment variables
func TestLoadFileEnvVars(t *testing.T) {
	t.Setenv("PRINTDECK_API_URL", "http://printserver.lan:8000")
	t.Setenv("PRINTDECK_WS_MAX_RECONNECTS", "8")
	t.Setenv("PRINTDECK_POLL_INTERVAL", "10s")
	t.Setenv("PRINTDECK_CIRCUIT_BREAKER", "false")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadFile("")
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.Backend.URL != "http://printserver.lan:8000" {
		t.Errorf("Backend.URL = %q", cfg.Backend.URL)
	}
	if cfg.Realtime.MaxReconnectAttempts != 8 {
		t.Errorf("Realtime.MaxReconnectAttempts = %d, want 8", cfg.Realtime.MaxReconnectAttempts)
	}
	if cfg.Polling.Interval != 10*time.Second {
		t.Errorf("Polling.Interval = %v, want 10s", cfg.Polling.Interval)
	}
	if cfg.Backend.CircuitBreaker {
		t.Error("Backend.CircuitBreaker = true, want false")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Upload.MonitorAttempts != 30 {
		t.Errorf("Upload.MonitorAttempts = %d, want 30 (default)", cfg.Upload.MonitorAttempts)
	}
}

// TestLoadFileYAML tests loading configuration from a YAML file with env overrides
func TestLoadFileYAML(t *testing.T) {
	configContent := `
backend:
  url: "http://from-file.lan:8000"
  timeout: 12s
realtime:
  url: "ws://from-file.lan:9001"
server:
  enabled: true
  port: 9999
logging:
  level: "warn"
`
	path := filepath.Join(t.TempDir(), "printdeck.yaml")
	if err := os.WriteFile(path, []byte(configContent), 0o600); err != nil {
		t.Fatalf("Failed to create config file: %v", err)
	}
	t.Setenv("LOG_LEVEL", "error")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.Backend.URL != "http://from-file.lan:8000" {
		t.Errorf("Backend.URL = %q", cfg.Backend.URL)
	}
	if cfg.Backend.Timeout != 12*time.Second {
		t.Errorf("Backend.Timeout = %v, want 12s", cfg.Backend.Timeout)
	}
	if cfg.RealtimeURL() != "ws://from-file.lan:9001" {
		t.Errorf("RealtimeURL() = %q", cfg.RealtimeURL())
	}
	if !cfg.Server.Enabled || cfg.Server.Port != 9999 {
		t.Errorf("Server = %+v, want enabled on 9999", cfg.Server)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("Logging.Level = %q, want error (env overrides file)", cfg.Logging.Level)
	}
}

func TestLoadFileValidationFailure(t *testing.T) {
	t.Setenv("PRINTDECK_API_URL", "ftp://printserver")

	_, err := LoadFile("")
	if err == nil {
		t.Fatal("expected validation error for ftp scheme")
	}
	if !strings.Contains(err.Error(), "PRINTDECK_API_URL") {
		t.Errorf("error %q should name PRINTDECK_API_URL", err)
	}
}

func TestRealtimeURLDerivedFromBackend(t *testing.T) {
	tests := []struct {
		backend string
		want    string
	}{
		{"http://printserver.lan:8000", "ws://printserver.lan:8001"},
		{"https://print.example.com", "wss://print.example.com:8001"},
		{"::bad::", "ws://localhost:8001"},
	}
	for _, tt := range tests {
		cfg := defaultConfig()
		cfg.Backend.URL = tt.backend
		if got := cfg.RealtimeURL(); got != tt.want {
			t.Errorf("RealtimeURL() with backend %q = %q, want %q", tt.backend, got, tt.want)
		}
	}
}
