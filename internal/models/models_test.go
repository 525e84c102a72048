// Printdeck - Print Management Sync Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/printdeck

package models

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestJobStatusIsTerminal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status JobStatus
		want   bool
	}{
		{JobPending, false},
		{JobProcessing, false},
		{JobCompleted, true},
		{JobFailed, true},
		{JobCancelled, true},
	}
	for _, tt := range tests {
		if got := tt.status.IsTerminal(); got != tt.want {
			t.Errorf("%s.IsTerminal() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestPrinterCloneIsDeep(t *testing.T) {
	t.Parallel()

	now := time.Now()
	p := Printer{
		ID:           "p1",
		Capabilities: PrinterCapabilities{SupportedFormats: []string{"pdf"}, Resolutions: []int{300}},
		LastActivity: &now,
	}
	c := p.Clone()
	c.Capabilities.SupportedFormats[0] = "png"
	c.Capabilities.Resolutions[0] = 600
	*c.LastActivity = now.Add(time.Hour)

	if p.Capabilities.SupportedFormats[0] != "pdf" {
		t.Error("clone shares SupportedFormats")
	}
	if p.Capabilities.Resolutions[0] != 300 {
		t.Error("clone shares Resolutions")
	}
	if !p.LastActivity.Equal(now) {
		t.Error("clone shares LastActivity")
	}
}

func TestPrinterSupports(t *testing.T) {
	t.Parallel()

	p := Printer{Capabilities: PrinterCapabilities{SupportedFormats: []string{"pdf", "png"}}}
	if !p.Supports("pdf") {
		t.Error("Supports(pdf) = false")
	}
	if p.Supports("dwg") {
		t.Error("Supports(dwg) = true")
	}
}

func TestPrintJobDecodesServerPayload(t *testing.T) {
	t.Parallel()

	raw := `{
		"id": "j1",
		"fileName": "report.pdf",
		"fileSize": 2048,
		"fileType": "pdf",
		"status": "processing",
		"printerId": "p1",
		"printerName": "Office",
		"progress": 42,
		"options": {"copies": 2, "paperSize": "A4", "orientation": "portrait",
			"colorMode": "grayscale", "duplex": "long-edge", "quality": "high"},
		"createdAt": "2026-03-01T10:00:00Z",
		"startedAt": "2026-03-01T10:00:05Z"
	}`

	var job PrintJob
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if job.Status != JobProcessing || job.Progress != 42 {
		t.Errorf("status/progress = %s/%d", job.Status, job.Progress)
	}
	if job.Options.Duplex != DuplexLongEdge || job.Options.Copies != 2 {
		t.Errorf("options = %+v", job.Options)
	}
	if job.StartedAt == nil || job.CompletedAt != nil {
		t.Errorf("StartedAt = %v, CompletedAt = %v", job.StartedAt, job.CompletedAt)
	}
	if job.Version != 0 {
		t.Errorf("Version = %d, want 0 for unversioned payload", job.Version)
	}
}

func TestPrintJobCloneCopiesFitToPage(t *testing.T) {
	t.Parallel()

	fit := true
	j := PrintJob{ID: "j1", Options: PrintOptions{FitToPage: &fit}}
	c := j.Clone()
	*c.Options.FitToPage = false
	if !*j.Options.FitToPage {
		t.Error("clone shares FitToPage")
	}
}

func TestPrintOptionsClone(t *testing.T) {
	t.Parallel()

	fit := true
	o := DefaultPrintOptions()
	o.FitToPage = &fit
	c := o.Clone()
	fit = false
	if c.FitToPage == nil || !*c.FitToPage {
		t.Error("clone follows the caller's FitToPage")
	}

	if DefaultPrintOptions().Clone().FitToPage != nil {
		t.Error("nil FitToPage should stay nil")
	}
}

func TestDefaultPrintOptions(t *testing.T) {
	t.Parallel()

	o := DefaultPrintOptions()
	if o.Copies != 1 || o.PaperSize != "A4" || o.Orientation != Portrait ||
		o.ColorMode != ColorModeAuto || o.Duplex != DuplexNone || o.Quality != QualityNormal {
		t.Errorf("DefaultPrintOptions() = %+v", o)
	}
}

func TestOfflineStatus(t *testing.T) {
	t.Parallel()

	s := OfflineStatus()
	if s.Status != ServerOffline || s.Version != "unknown" || s.CUPSConnected || s.DatabaseConnected || s.Uptime != 0 {
		t.Errorf("OfflineStatus() = %+v", s)
	}
}

func TestEnvelopeKeepsRawPayload(t *testing.T) {
	t.Parallel()

	var env Envelope
	if err := json.Unmarshal([]byte(`{"type":"system_metrics","payload":{"cpuUsage":12.5}}`), &env); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if env.Type != EventSystemMetrics {
		t.Errorf("Type = %q", env.Type)
	}
	var m SystemMetrics
	if err := json.Unmarshal(env.Payload, &m); err != nil {
		t.Fatalf("payload Unmarshal() error = %v", err)
	}
	if m.CPUUsage != 12.5 {
		t.Errorf("CPUUsage = %v", m.CPUUsage)
	}
}
