// Printdeck - Print Management Sync Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/printdeck

package models

import "time"

// PrinterStatus is the server-reported state of a printer.
type PrinterStatus string

const (
	PrinterOnline  PrinterStatus = "online"
	PrinterOffline PrinterStatus = "offline"
	PrinterError   PrinterStatus = "error"
	PrinterBusy    PrinterStatus = "busy"
)

// Printer is a print destination known to the server.
type Printer struct {
	ID                 string              `json:"id"`
	Name               string              `json:"name"`
	Status             PrinterStatus       `json:"status"`
	Type               string              `json:"type"`
	Manufacturer       string              `json:"manufacturer"`
	Model              string              `json:"model"`
	Location           string              `json:"location,omitempty"`
	Capabilities       PrinterCapabilities `json:"capabilities"`
	CurrentJobs        int                 `json:"currentJobs"`
	TotalJobsProcessed int64               `json:"totalJobsProcessed"`
	LastActivity       *time.Time          `json:"lastActivity,omitempty"`
	IPAddress          string              `json:"ipAddress,omitempty"`
	URI                string              `json:"uri"`
	Version            uint64              `json:"version,omitempty"`
}

// PrinterCapabilities describes what a printer accepts.
type PrinterCapabilities struct {
	SupportedFormats []string `json:"supportedFormats"`
	ColorSupported   bool     `json:"colorSupported"`
	DuplexSupported  bool     `json:"duplexSupported"`
	MaxPaperSize     string   `json:"maxPaperSize"`
	Resolutions      []int    `json:"resolutions"`
	PaperSizes       []string `json:"paperSizes"`
}

// IsOnline reports whether the printer accepts new jobs.
func (p *Printer) IsOnline() bool {
	return p.Status == PrinterOnline
}

// Supports reports whether format (a file extension without dot) is listed
// in the printer's supported formats. Comparison is case-sensitive, as the
// server reports lowercase extensions.
func (p *Printer) Supports(format string) bool {
	for _, f := range p.Capabilities.SupportedFormats {
		if f == format {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (p Printer) Clone() Printer {
	c := p
	c.Capabilities.SupportedFormats = cloneSlice(p.Capabilities.SupportedFormats)
	c.Capabilities.Resolutions = cloneSlice(p.Capabilities.Resolutions)
	c.Capabilities.PaperSizes = cloneSlice(p.Capabilities.PaperSizes)
	if p.LastActivity != nil {
		t := *p.LastActivity
		c.LastActivity = &t
	}
	return c
}

// AddPrinterRequest is the body of POST /api/printers.
type AddPrinterRequest struct {
	URI  string `json:"uri" validate:"required,uri"`
	Name string `json:"name,omitempty" validate:"omitempty,max=128"`
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}
