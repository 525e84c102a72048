// Printdeck - Print Management Sync Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/printdeck

/*
client.go - Print Server REST Client

Implements the print server REST contract:

	GET    /api/printers                GET  /api/jobs
	GET    /api/printers/{id}           GET  /api/jobs/{id}
	POST   /api/printers/discover       POST /api/jobs (multipart)
	POST   /api/printers                POST /api/jobs/{id}/cancel
	DELETE /api/printers/{id}           POST /api/jobs/{id}/retry
	POST   /api/printers/{id}/pause     POST /api/jobs/cancel-multiple
	POST   /api/printers/{id}/resume    GET  /api/jobs/history?limit=
	GET    /api/printers/{id}/jobs
	GET    /api/system/status|metrics|stats|logs|settings
	POST   /api/system/settings

REST calls are never retried automatically.
*/

package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/printdeck/internal/config"
	"github.com/tomtom215/printdeck/internal/logging"
	"github.com/tomtom215/printdeck/internal/metrics"
	"github.com/tomtom215/printdeck/internal/models"
)

// API is the print server REST surface. Both Client and
// CircuitBreakerClient implement it.
type API interface {
	ListPrinters(ctx context.Context) ([]models.Printer, error)
	GetPrinter(ctx context.Context, id string) (*models.Printer, error)
	DiscoverPrinters(ctx context.Context) ([]models.Printer, error)
	AddPrinter(ctx context.Context, req models.AddPrinterRequest) (*models.Printer, error)
	RemovePrinter(ctx context.Context, id string) error
	PausePrinter(ctx context.Context, id string) error
	ResumePrinter(ctx context.Context, id string) error
	PrinterJobs(ctx context.Context, id string) ([]models.PrintJob, error)

	ListJobs(ctx context.Context) ([]models.PrintJob, error)
	GetJob(ctx context.Context, id string) (*models.PrintJob, error)
	CreateJob(ctx context.Context, req *CreateJobRequest) (*models.PrintJob, error)
	CancelJob(ctx context.Context, id string) error
	// RetryJob returns the job the server queued, or nil when the server
	// replied without a body.
	RetryJob(ctx context.Context, id string) (*models.PrintJob, error)
	CancelJobs(ctx context.Context, ids []string) error
	JobHistory(ctx context.Context, limit int) ([]models.PrintJob, error)

	SystemStatus(ctx context.Context) (*models.SystemStatus, error)
	SystemMetrics(ctx context.Context) (*models.SystemMetrics, error)
	DashboardStats(ctx context.Context) (*models.DashboardStats, error)
	SystemLogs(ctx context.Context, limit int) ([]models.LogEntry, error)
	Settings(ctx context.Context) (map[string]any, error)
	SaveSettings(ctx context.Context, settings map[string]any) error
}

var _ API = (*Client)(nil)

// maxResponseBytes bounds every response body read into memory.
const maxResponseBytes = 16 << 20

// Client talks to the print server over HTTP.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	uploadClient  *http.Client
	uploadTimeout time.Duration
	limiter       *rate.Limiter
}

// NewClient creates a REST client from backend configuration.
func NewClient(cfg *config.BackendConfig) *Client {
	c := &Client{
		baseURL:       strings.TrimSuffix(cfg.URL, "/"),
		httpClient:    &http.Client{Timeout: cfg.Timeout},
		uploadClient:  &http.Client{},
		uploadTimeout: cfg.UploadTimeout,
	}
	if cfg.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)
	}
	return c
}

// BaseURL returns the server base URL without trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListPrinters returns every printer the server knows about.
func (c *Client) ListPrinters(ctx context.Context) ([]models.Printer, error) {
	var printers []models.Printer
	if err := c.doJSON(ctx, http.MethodGet, "/api/printers", "/api/printers", nil, &printers); err != nil {
		return nil, err
	}
	return printers, nil
}

// GetPrinter returns one printer.
func (c *Client) GetPrinter(ctx context.Context, id string) (*models.Printer, error) {
	var p models.Printer
	if err := c.doJSON(ctx, http.MethodGet, "/api/printers/"+url.PathEscape(id), "/api/printers/{id}", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// DiscoverPrinters asks the server to scan for printers and returns what it found.
func (c *Client) DiscoverPrinters(ctx context.Context) ([]models.Printer, error) {
	var printers []models.Printer
	if err := c.doJSON(ctx, http.MethodPost, "/api/printers/discover", "/api/printers/discover", nil, &printers); err != nil {
		return nil, err
	}
	return printers, nil
}

// AddPrinter registers a printer by URI.
func (c *Client) AddPrinter(ctx context.Context, req models.AddPrinterRequest) (*models.Printer, error) {
	var p models.Printer
	if err := c.doJSON(ctx, http.MethodPost, "/api/printers", "/api/printers", req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// RemovePrinter deletes a printer.
func (c *Client) RemovePrinter(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/printers/"+url.PathEscape(id), "/api/printers/{id}", nil, nil)
}

// PausePrinter stops a printer from taking jobs.
func (c *Client) PausePrinter(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/printers/"+url.PathEscape(id)+"/pause", "/api/printers/{id}/pause", nil, nil)
}

// ResumePrinter lets a paused printer take jobs again.
func (c *Client) ResumePrinter(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/printers/"+url.PathEscape(id)+"/resume", "/api/printers/{id}/resume", nil, nil)
}

// PrinterJobs returns the jobs queued on one printer.
func (c *Client) PrinterJobs(ctx context.Context, id string) ([]models.PrintJob, error) {
	var jobs []models.PrintJob
	if err := c.doJSON(ctx, http.MethodGet, "/api/printers/"+url.PathEscape(id)+"/jobs", "/api/printers/{id}/jobs", nil, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// ListJobs returns all jobs.
func (c *Client) ListJobs(ctx context.Context) ([]models.PrintJob, error) {
	var jobs []models.PrintJob
	if err := c.doJSON(ctx, http.MethodGet, "/api/jobs", "/api/jobs", nil, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// GetJob returns one job.
func (c *Client) GetJob(ctx context.Context, id string) (*models.PrintJob, error) {
	var j models.PrintJob
	if err := c.doJSON(ctx, http.MethodGet, "/api/jobs/"+url.PathEscape(id), "/api/jobs/{id}", nil, &j); err != nil {
		return nil, err
	}
	return &j, nil
}

// CancelJob cancels one job.
func (c *Client) CancelJob(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/jobs/"+url.PathEscape(id)+"/cancel", "/api/jobs/{id}/cancel", nil, nil)
}

// RetryJob asks the server to run a failed or cancelled job again.
func (c *Client) RetryJob(ctx context.Context, id string) (*models.PrintJob, error) {
	var j models.PrintJob
	body, err := c.do(ctx, http.MethodPost, "/api/jobs/"+url.PathEscape(id)+"/retry", "/api/jobs/{id}/retry", nil)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	if err := json.Unmarshal(body, &j); err != nil || j.ID == "" {
		// Some servers reply {"success": true}; treat it as no job.
		return nil, nil //nolint:nilerr // non-job acknowledgement
	}
	return &j, nil
}

// CancelJobs cancels several jobs in one call.
func (c *Client) CancelJobs(ctx context.Context, ids []string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/jobs/cancel-multiple", "/api/jobs/cancel-multiple",
		models.CancelMultipleRequest{JobIDs: ids}, nil)
}

// JobHistory returns finished jobs, newest first. limit <= 0 lets the
// server choose.
func (c *Client) JobHistory(ctx context.Context, limit int) ([]models.PrintJob, error) {
	var jobs []models.PrintJob
	if err := c.doJSON(ctx, http.MethodGet, "/api/jobs/history"+limitQuery(limit), "/api/jobs/history", nil, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// SystemStatus returns server health.
func (c *Client) SystemStatus(ctx context.Context) (*models.SystemStatus, error) {
	var s models.SystemStatus
	if err := c.doJSON(ctx, http.MethodGet, "/api/system/status", "/api/system/status", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// SystemMetrics returns server load.
func (c *Client) SystemMetrics(ctx context.Context) (*models.SystemMetrics, error) {
	var m models.SystemMetrics
	if err := c.doJSON(ctx, http.MethodGet, "/api/system/metrics", "/api/system/metrics", nil, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// DashboardStats returns overview counters.
func (c *Client) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	var s models.DashboardStats
	if err := c.doJSON(ctx, http.MethodGet, "/api/system/stats", "/api/system/stats", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// SystemLogs returns recent server log lines.
func (c *Client) SystemLogs(ctx context.Context, limit int) ([]models.LogEntry, error) {
	var entries []models.LogEntry
	if err := c.doJSON(ctx, http.MethodGet, "/api/system/logs"+limitQuery(limit), "/api/system/logs", nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Settings returns the server's settings document.
func (c *Client) Settings(ctx context.Context) (map[string]any, error) {
	settings := map[string]any{}
	if err := c.doJSON(ctx, http.MethodGet, "/api/system/settings", "/api/system/settings", nil, &settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// SaveSettings replaces the server's settings document.
func (c *Client) SaveSettings(ctx context.Context, settings map[string]any) error {
	return c.doJSON(ctx, http.MethodPost, "/api/system/settings", "/api/system/settings", settings, nil)
}

func limitQuery(limit int) string {
	if limit <= 0 {
		return ""
	}
	return "?limit=" + strconv.Itoa(limit)
}

// doJSON sends in as the JSON body (when non-nil) and decodes the response
// into out (when non-nil). route is the templated path used as metric label.
func (c *Client) doJSON(ctx context.Context, method, path, route string, in, out any) error {
	body, err := c.do(ctx, method, path, route, in)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		metrics.BackendErrors.WithLabelValues(route, "decode").Inc()
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

// do performs one request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, method, path, route string, in any) ([]byte, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	var reqBody io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s %s request: %w", method, path, err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(c.httpClient, req, route)
}

func (c *Client) send(hc *http.Client, req *http.Request, route string) ([]byte, error) {
	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		metrics.RecordBackendRequest(req.Method, route, time.Since(start), "transport")
		return nil, fmt.Errorf("%s %s failed: %w", req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		metrics.RecordBackendRequest(req.Method, route, time.Since(start), "transport")
		return nil, fmt.Errorf("failed to read %s %s response: %w", req.Method, req.URL.Path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.RecordBackendRequest(req.Method, route, time.Since(start), "status")
		apiErr := newAPIError(req.Method, req.URL.Path, resp.StatusCode, body)
		logging.Debug().
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Int("status", resp.StatusCode).
			Str("message", apiErr.Message).
			Msg("print server returned error status")
		return nil, apiErr
	}

	metrics.RecordBackendRequest(req.Method, route, time.Since(start), "")
	return body, nil
}

// wait blocks on the client-side rate limiter, if any.
func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return nil
}
