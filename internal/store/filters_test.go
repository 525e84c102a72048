// Printdeck - Print Management Sync Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/printdeck

package store

import (
	"testing"
	"time"

	"github.com/tomtom215/printdeck/internal/models"
)

func TestFilterJobs(t *testing.T) {
	t.Parallel()

	day := func(d int) time.Time { return time.Date(2026, 3, d, 12, 0, 0, 0, time.UTC) }
	jobs := []models.PrintJob{
		{ID: "j1", FileName: "Report.PDF", PrinterName: "Office", PrinterID: "p1", Status: models.JobCompleted, CreatedAt: day(1), User: "ana"},
		{ID: "j2", FileName: "plan.dwg", PrinterName: "Plotter", PrinterID: "p2", Status: models.JobFailed, CreatedAt: day(5)},
		{ID: "j3", FileName: "photo.png", PrinterName: "Office", PrinterID: "p1", Status: models.JobProcessing, CreatedAt: day(10), User: "Bruno"},
	}

	tests := []struct {
		name string
		f    JobFilters
		want string
	}{
		{"no filters", JobFilters{}, "j1,j2,j3"},
		{"status", JobFilters{Statuses: []models.JobStatus{models.JobFailed, models.JobProcessing}}, "j2,j3"},
		{"printer", JobFilters{PrinterIDs: []string{"p1"}}, "j1,j3"},
		{"date inclusive", JobFilters{From: day(1), To: day(5)}, "j1,j2"},
		{"open end", JobFilters{From: day(5)}, "j2,j3"},
		{"search file name", JobFilters{Search: "report"}, "j1"},
		{"search printer name", JobFilters{Search: "PLOT"}, "j2"},
		{"search user", JobFilters{Search: "bruno"}, "j3"},
		{"combined", JobFilters{PrinterIDs: []string{"p1"}, Search: "office", Statuses: []models.JobStatus{models.JobCompleted}}, "j1"},
		{"no match", JobFilters{Search: "nothing"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := jobIDs(FilterJobs(jobs, tt.f)); got != tt.want {
				t.Errorf("FilterJobs = %q, want %q", got, tt.want)
			}
		})
	}

	if jobs[0].ID != "j1" || len(jobs) != 3 {
		t.Error("input slice modified")
	}
}

func TestFilterPrinters(t *testing.T) {
	t.Parallel()

	printers := []models.Printer{
		{ID: "p1", Name: "Office Laser", Model: "M404", Manufacturer: "HP", Type: "laser", Status: models.PrinterOnline, Location: "2nd floor"},
		{ID: "p2", Name: "Plotter", Model: "T650", Manufacturer: "HP", Type: "plotter", Status: models.PrinterOffline},
		{ID: "p3", Name: "Photo", Model: "SC-P700", Manufacturer: "Epson", Type: "inkjet", Status: models.PrinterOnline},
	}

	ids := func(ps []models.Printer) string {
		out := ""
		for i, p := range ps {
			if i > 0 {
				out += ","
			}
			out += p.ID
		}
		return out
	}

	tests := []struct {
		name string
		f    PrinterFilters
		want string
	}{
		{"no filters", PrinterFilters{}, "p1,p2,p3"},
		{"status", PrinterFilters{Statuses: []models.PrinterStatus{models.PrinterOnline}}, "p1,p3"},
		{"type", PrinterFilters{Types: []string{"plotter", "inkjet"}}, "p2,p3"},
		{"search manufacturer", PrinterFilters{Search: "epson"}, "p3"},
		{"search model", PrinterFilters{Search: "t650"}, "p2"},
		{"search location", PrinterFilters{Search: "FLOOR"}, "p1"},
		{"combined", PrinterFilters{Search: "hp", Statuses: []models.PrinterStatus{models.PrinterOffline}}, "p2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ids(FilterPrinters(printers, tt.f)); got != tt.want {
				t.Errorf("FilterPrinters = %q, want %q", got, tt.want)
			}
		})
	}
}
