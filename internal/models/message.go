// Printdeck - Print Management Sync Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/printdeck

package models

import "github.com/goccy/go-json"

// Push event types carried in Envelope.Type.
const (
	EventPrinterStatus = "printer_status_update"
	EventJobProgress   = "job_progress_update"
	EventSystemMetrics = "system_metrics"
	EventNotification  = "notification"

	// EventWildcard subscribes a handler to every event type.
	EventWildcard = "*"
)

// Envelope is one push frame: {"type": "...", "payload": {...}}.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}
