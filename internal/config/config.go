// Printdeck - Print Management Sync Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/printdeck

package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds all printdeck configuration.
type Config struct {
	Backend       BackendConfig       `koanf:"backend"`
	Realtime      RealtimeConfig      `koanf:"realtime"`
	Polling       PollingConfig       `koanf:"polling"`
	Upload        UploadConfig        `koanf:"upload"`
	Notifications NotificationsConfig `koanf:"notifications"`
	Server        ServerConfig        `koanf:"server"`
	Logging       LoggingConfig       `koanf:"logging"`
}

// BackendConfig configures the REST client for the print server.
type BackendConfig struct {
	// URL is the base URL of the print server REST API.
	// Default: http://localhost:8000
	URL string `koanf:"url"`

	// Timeout bounds every non-upload REST call.
	Timeout time.Duration `koanf:"timeout"`

	// UploadTimeout bounds a single multipart job submission.
	UploadTimeout time.Duration `koanf:"upload_timeout"`

	// RateLimit is the sustained request rate (requests/second) shared by the
	// poller and user actions. Zero disables client-side limiting.
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`

	// CircuitBreaker wraps the client in a gobreaker circuit breaker.
	CircuitBreaker bool `koanf:"circuit_breaker"`
}

// RealtimeConfig configures the WebSocket push channel.
type RealtimeConfig struct {
	Enabled bool `koanf:"enabled"`

	// URL is the push endpoint. Default: ws://localhost:8001
	URL string `koanf:"url"`

	// ReconnectDelay is the base of the exponential reconnect backoff.
	ReconnectDelay time.Duration `koanf:"reconnect_delay"`

	// MaxReconnectAttempts caps consecutive reconnects before the
	// connection is declared lost.
	MaxReconnectAttempts int `koanf:"max_reconnect_attempts"`

	HandshakeTimeout time.Duration `koanf:"handshake_timeout"`
	PingInterval     time.Duration `koanf:"ping_interval"`
	ReadTimeout      time.Duration `koanf:"read_timeout"`
}

// PollingConfig configures the periodic REST refresh.
type PollingConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Interval time.Duration `koanf:"interval"`
}

// UploadConfig configures the submission pipeline and job monitoring.
type UploadConfig struct {
	// RedirectDelay is the pause after a successful batch before the queue
	// is cleared. Zero clears immediately.
	RedirectDelay time.Duration `koanf:"redirect_delay"`

	// MonitorAttempts and MonitorInterval drive `printdeck test` job polling.
	MonitorAttempts int           `koanf:"monitor_attempts"`
	MonitorInterval time.Duration `koanf:"monitor_interval"`
}

// NotificationsConfig configures the in-memory notification ring.
type NotificationsConfig struct {
	Capacity int `koanf:"capacity"`
}

// ServerConfig configures the optional local HTTP surface
// (health, metrics, snapshot).
type ServerConfig struct {
	Enabled         bool          `koanf:"enabled"`
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Addr returns host:port for net/http.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is json or console.
	// Default: json
	Format string `koanf:"format"`

	// Caller adds file:line to every entry.
	Caller bool `koanf:"caller"`
}

// RealtimeURL returns the configured push endpoint. When none is set it is
// derived from the backend URL on port 8001, the print server's default.
func (c *Config) RealtimeURL() string {
	if c.Realtime.URL != "" {
		return c.Realtime.URL
	}
	u, err := url.Parse(c.Backend.URL)
	if err != nil || u.Host == "" {
		return defaultRealtimeURL
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}
	return fmt.Sprintf("%s://%s:8001", scheme, u.Hostname())
}
