// Printdeck - Print Management Sync Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/printdeck

package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"empty backend url", func(c *Config) { c.Backend.URL = "" }, "PRINTDECK_API_URL is required"},
		{"backend without host", func(c *Config) { c.Backend.URL = "http://" }, "host is required"},
		{"backend with query", func(c *Config) { c.Backend.URL = "http://a:8000?x=1" }, "query parameters"},
		{"negative rate", func(c *Config) { c.Backend.RateLimit = -1 }, "PRINTDECK_RATE_LIMIT"},
		{"rate without burst", func(c *Config) { c.Backend.RateBurst = 0 }, "PRINTDECK_RATE_BURST"},
		{"ws url with http scheme", func(c *Config) { c.Realtime.URL = "http://a:8001" }, "PRINTDECK_WS_URL"},
		{"realtime disabled skips checks", func(c *Config) {
			c.Realtime.Enabled = false
			c.Realtime.URL = "http://wrong"
		}, ""},
		{"read timeout below ping", func(c *Config) { c.Realtime.ReadTimeout = time.Second }, "PRINTDECK_WS_READ_TIMEOUT"},
		{"poll too fast", func(c *Config) { c.Polling.Interval = time.Millisecond }, "PRINTDECK_POLL_INTERVAL"},
		{"zero redirect delay allowed", func(c *Config) { c.Upload.RedirectDelay = 0 }, ""},
		{"negative redirect delay", func(c *Config) { c.Upload.RedirectDelay = -time.Second }, "PRINTDECK_REDIRECT_DELAY"},
		{"zero notification capacity", func(c *Config) { c.Notifications.Capacity = 0 }, "PRINTDECK_NOTIFICATION_LIMIT"},
		{"server port out of range", func(c *Config) {
			c.Server.Enabled = true
			c.Server.Port = 70000
		}, "PRINTDECK_HTTP_PORT"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "LOG_LEVEL"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestServerAddr(t *testing.T) {
	t.Parallel()

	s := ServerConfig{Host: "127.0.0.1", Port: 9464}
	if got := s.Addr(); got != "127.0.0.1:9464" {
		t.Errorf("Addr() = %q", got)
	}
}
