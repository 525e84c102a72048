// Printdeck - Print Management Sync Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/printdeck

package store

import (
	"slices"
	"strings"
	"time"

	"github.com/tomtom215/printdeck/internal/models"
)

// JobFilters narrows a job list. Zero-valued fields do not filter.
type JobFilters struct {
	Statuses   []models.JobStatus `json:"status,omitempty"`
	PrinterIDs []string           `json:"printer,omitempty"`

	// From and To bound CreatedAt, both inclusive. A zero time leaves that
	// side open.
	From time.Time `json:"from,omitempty"`
	To   time.Time `json:"to,omitempty"`

	// Search matches file name, printer name or user, case-insensitively.
	Search string `json:"search,omitempty"`
}

// PrinterFilters narrows a printer list. Zero-valued fields do not filter.
type PrinterFilters struct {
	Statuses []models.PrinterStatus `json:"status,omitempty"`
	Types    []string               `json:"type,omitempty"`

	// Search matches name, model, manufacturer or location, case-insensitively.
	Search string `json:"search,omitempty"`
}

// FilterJobs returns the jobs matching every set criterion, in input order.
// The input slice is not modified.
func FilterJobs(jobs []models.PrintJob, f JobFilters) []models.PrintJob {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]models.PrintJob, 0, len(jobs))

	for i := range jobs {
		j := &jobs[i]
		if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, j.Status) {
			continue
		}
		if len(f.PrinterIDs) > 0 && !slices.Contains(f.PrinterIDs, j.PrinterID) {
			continue
		}
		if !f.From.IsZero() && j.CreatedAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && j.CreatedAt.After(f.To) {
			continue
		}
		if search != "" && !containsFold(search, j.FileName, j.PrinterName, j.User) {
			continue
		}
		out = append(out, j.Clone())
	}
	return out
}

// FilterPrinters returns the printers matching every set criterion, in input
// order. The input slice is not modified.
func FilterPrinters(printers []models.Printer, f PrinterFilters) []models.Printer {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]models.Printer, 0, len(printers))

	for i := range printers {
		p := &printers[i]
		if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, p.Status) {
			continue
		}
		if len(f.Types) > 0 && !slices.Contains(f.Types, p.Type) {
			continue
		}
		if search != "" && !containsFold(search, p.Name, p.Model, p.Manufacturer, p.Location) {
			continue
		}
		out = append(out, p.Clone())
	}
	return out
}

// containsFold reports whether any field contains needle, which must already
// be lower case.
func containsFold(needle string, fields ...string) bool {
	for _, f := range fields {
		if f != "" && strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}
