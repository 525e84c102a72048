// Printdeck - Print Management Sync Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/printdeck

package testinfra

import (
	"context"
	"sync"

	"github.com/tomtom215/printdeck/internal/backend"
	"github.com/tomtom215/printdeck/internal/models"
)

var _ backend.API = (*StubAPI)(nil)

// StubAPI is a backend.API whose methods delegate to optional function
// fields. Unset fields succeed with zero values.
type StubAPI struct {
	ListPrintersFunc     func(ctx context.Context) ([]models.Printer, error)
	GetPrinterFunc       func(ctx context.Context, id string) (*models.Printer, error)
	DiscoverPrintersFunc func(ctx context.Context) ([]models.Printer, error)
	AddPrinterFunc       func(ctx context.Context, req models.AddPrinterRequest) (*models.Printer, error)
	RemovePrinterFunc    func(ctx context.Context, id string) error
	PausePrinterFunc     func(ctx context.Context, id string) error
	ResumePrinterFunc    func(ctx context.Context, id string) error
	PrinterJobsFunc      func(ctx context.Context, id string) ([]models.PrintJob, error)

	ListJobsFunc   func(ctx context.Context) ([]models.PrintJob, error)
	GetJobFunc     func(ctx context.Context, id string) (*models.PrintJob, error)
	CreateJobFunc  func(ctx context.Context, req *backend.CreateJobRequest) (*models.PrintJob, error)
	CancelJobFunc  func(ctx context.Context, id string) error
	RetryJobFunc   func(ctx context.Context, id string) (*models.PrintJob, error)
	CancelJobsFunc func(ctx context.Context, ids []string) error
	JobHistoryFunc func(ctx context.Context, limit int) ([]models.PrintJob, error)

	SystemStatusFunc   func(ctx context.Context) (*models.SystemStatus, error)
	SystemMetricsFunc  func(ctx context.Context) (*models.SystemMetrics, error)
	DashboardStatsFunc func(ctx context.Context) (*models.DashboardStats, error)
	SystemLogsFunc     func(ctx context.Context, limit int) ([]models.LogEntry, error)
	SettingsFunc       func(ctx context.Context) (map[string]any, error)
	SaveSettingsFunc   func(ctx context.Context, settings map[string]any) error

	mu    sync.Mutex
	calls map[string]int
}

// Calls returns how many times method was invoked.
func (s *StubAPI) Calls(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method]
}

// TotalCalls returns the number of invocations across all methods.
func (s *StubAPI) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

func (s *StubAPI) record(method string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = make(map[string]int)
	}
	s.calls[method]++
}

func (s *StubAPI) ListPrinters(ctx context.Context) ([]models.Printer, error) {
	s.record("ListPrinters")
	if s.ListPrintersFunc != nil {
		return s.ListPrintersFunc(ctx)
	}
	return nil, nil
}

func (s *StubAPI) GetPrinter(ctx context.Context, id string) (*models.Printer, error) {
	s.record("GetPrinter")
	if s.GetPrinterFunc != nil {
		return s.GetPrinterFunc(ctx, id)
	}
	return &models.Printer{ID: id}, nil
}

func (s *StubAPI) DiscoverPrinters(ctx context.Context) ([]models.Printer, error) {
	s.record("DiscoverPrinters")
	if s.DiscoverPrintersFunc != nil {
		return s.DiscoverPrintersFunc(ctx)
	}
	return nil, nil
}

func (s *StubAPI) AddPrinter(ctx context.Context, req models.AddPrinterRequest) (*models.Printer, error) {
	s.record("AddPrinter")
	if s.AddPrinterFunc != nil {
		return s.AddPrinterFunc(ctx, req)
	}
	return &models.Printer{ID: req.URI, Name: req.Name, URI: req.URI}, nil
}

func (s *StubAPI) RemovePrinter(ctx context.Context, id string) error {
	s.record("RemovePrinter")
	if s.RemovePrinterFunc != nil {
		return s.RemovePrinterFunc(ctx, id)
	}
	return nil
}

func (s *StubAPI) PausePrinter(ctx context.Context, id string) error {
	s.record("PausePrinter")
	if s.PausePrinterFunc != nil {
		return s.PausePrinterFunc(ctx, id)
	}
	return nil
}

func (s *StubAPI) ResumePrinter(ctx context.Context, id string) error {
	s.record("ResumePrinter")
	if s.ResumePrinterFunc != nil {
		return s.ResumePrinterFunc(ctx, id)
	}
	return nil
}

func (s *StubAPI) PrinterJobs(ctx context.Context, id string) ([]models.PrintJob, error) {
	s.record("PrinterJobs")
	if s.PrinterJobsFunc != nil {
		return s.PrinterJobsFunc(ctx, id)
	}
	return nil, nil
}

func (s *StubAPI) ListJobs(ctx context.Context) ([]models.PrintJob, error) {
	s.record("ListJobs")
	if s.ListJobsFunc != nil {
		return s.ListJobsFunc(ctx)
	}
	return nil, nil
}

func (s *StubAPI) GetJob(ctx context.Context, id string) (*models.PrintJob, error) {
	s.record("GetJob")
	if s.GetJobFunc != nil {
		return s.GetJobFunc(ctx, id)
	}
	return &models.PrintJob{ID: id}, nil
}

func (s *StubAPI) CreateJob(ctx context.Context, req *backend.CreateJobRequest) (*models.PrintJob, error) {
	s.record("CreateJob")
	if s.CreateJobFunc != nil {
		return s.CreateJobFunc(ctx, req)
	}
	return &models.PrintJob{
		ID:        "job-" + req.FileName,
		FileName:  req.FileName,
		PrinterID: req.PrinterID,
		Status:    models.JobPending,
		Options:   req.Options,
	}, nil
}

func (s *StubAPI) CancelJob(ctx context.Context, id string) error {
	s.record("CancelJob")
	if s.CancelJobFunc != nil {
		return s.CancelJobFunc(ctx, id)
	}
	return nil
}

func (s *StubAPI) RetryJob(ctx context.Context, id string) (*models.PrintJob, error) {
	s.record("RetryJob")
	if s.RetryJobFunc != nil {
		return s.RetryJobFunc(ctx, id)
	}
	return nil, nil
}

func (s *StubAPI) CancelJobs(ctx context.Context, ids []string) error {
	s.record("CancelJobs")
	if s.CancelJobsFunc != nil {
		return s.CancelJobsFunc(ctx, ids)
	}
	return nil
}

func (s *StubAPI) JobHistory(ctx context.Context, limit int) ([]models.PrintJob, error) {
	s.record("JobHistory")
	if s.JobHistoryFunc != nil {
		return s.JobHistoryFunc(ctx, limit)
	}
	return nil, nil
}

func (s *StubAPI) SystemStatus(ctx context.Context) (*models.SystemStatus, error) {
	s.record("SystemStatus")
	if s.SystemStatusFunc != nil {
		return s.SystemStatusFunc(ctx)
	}
	return &models.SystemStatus{Status: models.ServerOnline}, nil
}

func (s *StubAPI) SystemMetrics(ctx context.Context) (*models.SystemMetrics, error) {
	s.record("SystemMetrics")
	if s.SystemMetricsFunc != nil {
		return s.SystemMetricsFunc(ctx)
	}
	return &models.SystemMetrics{}, nil
}

func (s *StubAPI) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	s.record("DashboardStats")
	if s.DashboardStatsFunc != nil {
		return s.DashboardStatsFunc(ctx)
	}
	return &models.DashboardStats{}, nil
}

func (s *StubAPI) SystemLogs(ctx context.Context, limit int) ([]models.LogEntry, error) {
	s.record("SystemLogs")
	if s.SystemLogsFunc != nil {
		return s.SystemLogsFunc(ctx, limit)
	}
	return nil, nil
}

func (s *StubAPI) Settings(ctx context.Context) (map[string]any, error) {
	s.record("Settings")
	if s.SettingsFunc != nil {
		return s.SettingsFunc(ctx)
	}
	return map[string]any{}, nil
}

func (s *StubAPI) SaveSettings(ctx context.Context, settings map[string]any) error {
	s.record("SaveSettings")
	if s.SaveSettingsFunc != nil {
		return s.SaveSettingsFunc(ctx, settings)
	}
	return nil
}
