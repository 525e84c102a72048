// Printdeck - Print Management Sync Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/printdeck

package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/tomtom215/printdeck/internal/logging"
)

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

// Validate checks every section and returns the first problem found.
func (c *Config) Validate() error {
	if err := c.validateBackend(); err != nil {
		return err
	}
	if err := c.validateRealtime(); err != nil {
		return err
	}
	if err := c.validatePolling(); err != nil {
		return err
	}
	if err := c.validateUpload(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateBackend() error {
	if c.Backend.URL == "" {
		return fmt.Errorf("PRINTDECK_API_URL is required")
	}
	if err := validateURL(c.Backend.URL, "PRINTDECK_API_URL", "http", "https"); err != nil {
		return err
	}
	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("PRINTDECK_API_TIMEOUT must be positive, got %v", c.Backend.Timeout)
	}
	if c.Backend.UploadTimeout <= 0 {
		return fmt.Errorf("PRINTDECK_UPLOAD_TIMEOUT must be positive, got %v", c.Backend.UploadTimeout)
	}
	if c.Backend.RateLimit < 0 {
		return fmt.Errorf("PRINTDECK_RATE_LIMIT must not be negative, got %v", c.Backend.RateLimit)
	}
	if c.Backend.RateLimit > 0 && c.Backend.RateBurst < 1 {
		return fmt.Errorf("PRINTDECK_RATE_BURST must be at least 1 when rate limiting is enabled")
	}
	return nil
}

func (c *Config) validateRealtime() error {
	if !c.Realtime.Enabled {
		return nil
	}
	if c.Realtime.URL != "" {
		if err := validateURL(c.Realtime.URL, "PRINTDECK_WS_URL", "ws", "wss"); err != nil {
			return err
		}
	}
	if c.Realtime.ReconnectDelay <= 0 {
		return fmt.Errorf("PRINTDECK_WS_RECONNECT_DELAY must be positive, got %v", c.Realtime.ReconnectDelay)
	}
	if c.Realtime.MaxReconnectAttempts < 0 {
		return fmt.Errorf("PRINTDECK_WS_MAX_RECONNECTS must not be negative, got %d", c.Realtime.MaxReconnectAttempts)
	}
	if c.Realtime.PingInterval <= 0 {
		return fmt.Errorf("PRINTDECK_WS_PING_INTERVAL must be positive, got %v", c.Realtime.PingInterval)
	}
	if c.Realtime.ReadTimeout <= c.Realtime.PingInterval {
		return fmt.Errorf("PRINTDECK_WS_READ_TIMEOUT (%v) must exceed the ping interval (%v)",
			c.Realtime.ReadTimeout, c.Realtime.PingInterval)
	}
	return nil
}

func (c *Config) validatePolling() error {
	if c.Polling.Enabled && c.Polling.Interval < 100*time.Millisecond {
		return fmt.Errorf("PRINTDECK_POLL_INTERVAL must be at least 100ms, got %v", c.Polling.Interval)
	}
	return nil
}

func (c *Config) validateUpload() error {
	if c.Upload.RedirectDelay < 0 {
		return fmt.Errorf("PRINTDECK_REDIRECT_DELAY must not be negative, got %v", c.Upload.RedirectDelay)
	}
	if c.Upload.MonitorAttempts < 1 {
		return fmt.Errorf("PRINTDECK_MONITOR_ATTEMPTS must be at least 1, got %d", c.Upload.MonitorAttempts)
	}
	if c.Upload.MonitorInterval <= 0 {
		return fmt.Errorf("PRINTDECK_MONITOR_INTERVAL must be positive, got %v", c.Upload.MonitorInterval)
	}
	if c.Notifications.Capacity < 1 {
		return fmt.Errorf("PRINTDECK_NOTIFICATION_LIMIT must be at least 1, got %d", c.Notifications.Capacity)
	}
	return nil
}

func (c *Config) validateServer() error {
	if !c.Server.Enabled {
		return nil
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("PRINTDECK_HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("PRINTDECK_HTTP_SHUTDOWN must be positive, got %v", c.Server.ShutdownTimeout)
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error, off")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

// validateURL checks that rawURL parses, uses one of schemes and names a host.
func validateURL(rawURL, fieldName string, schemes ...string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}
	ok := false
	for _, s := range schemes {
		if parsed.Scheme == s {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("%s scheme must be one of %v, got: %q", fieldName, schemes, parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s host is required", fieldName)
	}
	if parsed.RawQuery != "" {
		return fmt.Errorf("%s should not contain query parameters, remove: ?%s", fieldName, parsed.RawQuery)
	}
	return nil
}
