// Printdeck - Print Management Sync Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/printdeck

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists config file locations in priority order.
var DefaultConfigPaths = []string{
	"printdeck.yaml",
	"printdeck.yml",
	"/etc/printdeck/config.yaml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

const (
	defaultBackendURL  = "http://localhost:8000"
	defaultRealtimeURL = "ws://localhost:8001"
)

func defaultConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			URL:            defaultBackendURL,
			Timeout:        30 * time.Second,
			UploadTimeout:  5 * time.Minute,
			RateLimit:      20,
			RateBurst:      40,
			CircuitBreaker: true,
		},
		Realtime: RealtimeConfig{
			Enabled:              true,
			URL:                  "",
			ReconnectDelay:       time.Second,
			MaxReconnectAttempts: 5,
			HandshakeTimeout:     10 * time.Second,
			PingInterval:         30 * time.Second,
			ReadTimeout:          90 * time.Second,
		},
		Polling: PollingConfig{
			Enabled:  true,
			Interval: 5 * time.Second,
		},
		Upload: UploadConfig{
			RedirectDelay:   2 * time.Second,
			MonitorAttempts: 30,
			MonitorInterval: 2 * time.Second,
		},
		Notifications: NotificationsConfig{
			Capacity: 50,
		},
		Server: ServerConfig{
			Enabled:         false,
			Host:            "127.0.0.1",
			Port:            9464,
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration from defaults, an optional YAML file and the
// environment, in that order, then validates it.
func Load() (*Config, error) {
	return LoadFile(findConfigFile())
}

// LoadFile is Load with an explicit config file path. An empty path skips
// the file layer.
func LoadFile(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the first config file that exists, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

var envMappings = map[string]string{
	"printdeck_api_url":            "backend.url",
	"printdeck_api_timeout":        "backend.timeout",
	"printdeck_upload_timeout":     "backend.upload_timeout",
	"printdeck_rate_limit":         "backend.rate_limit",
	"printdeck_rate_burst":         "backend.rate_burst",
	"printdeck_circuit_breaker":    "backend.circuit_breaker",
	"printdeck_ws_enabled":         "realtime.enabled",
	"printdeck_ws_url":             "realtime.url",
	"printdeck_ws_reconnect_delay": "realtime.reconnect_delay",
	"printdeck_ws_max_reconnects":  "realtime.max_reconnect_attempts",
	"printdeck_ws_ping_interval":   "realtime.ping_interval",
	"printdeck_ws_read_timeout":    "realtime.read_timeout",
	"printdeck_poll_enabled":       "polling.enabled",
	"printdeck_poll_interval":      "polling.interval",
	"printdeck_redirect_delay":     "upload.redirect_delay",
	"printdeck_monitor_attempts":   "upload.monitor_attempts",
	"printdeck_monitor_interval":   "upload.monitor_interval",
	"printdeck_notification_limit": "notifications.capacity",
	"printdeck_http_enabled":       "server.enabled",
	"printdeck_http_host":          "server.host",
	"printdeck_http_port":          "server.port",
	"printdeck_http_shutdown":      "server.shutdown_timeout",
	"log_level":                    "logging.level",
	"log_format":                   "logging.format",
	"log_caller":                   "logging.caller",
}

// envTransformFunc maps an environment variable name to its koanf path.
// Unmapped variables return "" and are skipped.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
