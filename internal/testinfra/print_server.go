// Printdeck - Print Management Sync Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/printdeck

package testinfra

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/printdeck/internal/models"
)

// PrintServer is an in-memory print backend for tests.
type PrintServer struct {
	server   *httptest.Server
	upgrader websocket.Upgrader

	mu           sync.Mutex
	printers     []models.Printer
	jobs         []models.PrintJob
	nextJob      int
	failUploads  map[string]string
	failRoutes   map[string]int
	createStatus models.JobStatus
	requests     map[string]int
	uploads      []string

	connMu sync.Mutex
	conns  map[*websocket.Conn]struct{}
}

// NewPrintServer starts a print backend that is closed with the test.
func NewPrintServer(tb testing.TB) *PrintServer {
	tb.Helper()
	s := &PrintServer{
		upgrader:     websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		failUploads:  make(map[string]string),
		failRoutes:   make(map[string]int),
		createStatus: models.JobPending,
		requests:     make(map[string]int),
		conns:        make(map[*websocket.Conn]struct{}),
	}
	s.server = httptest.NewServer(s.routes())
	tb.Cleanup(s.Close)
	return s
}

// URL is the REST base URL.
func (s *PrintServer) URL() string { return s.server.URL }

// WSURL is the push endpoint URL.
func (s *PrintServer) WSURL() string {
	return "ws" + strings.TrimPrefix(s.server.URL, "http") + "/ws"
}

// Close disconnects push clients and stops the server.
func (s *PrintServer) Close() {
	s.DropConnections()
	s.server.Close()
}

// AddPrinter installs p.
func (s *PrintServer) AddPrinter(p models.Printer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.printers = append(s.printers, p)
}

// AddJob installs j.
func (s *PrintServer) AddJob(j models.PrintJob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, j)
}

// SetJobStatus changes a stored job, as the print queue would.
func (s *PrintServer) SetJobStatus(id string, status models.JobStatus, progress int) (models.PrintJob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.jobs {
		if s.jobs[i].ID == id {
			s.jobs[i].Status = status
			s.jobs[i].Progress = progress
			s.jobs[i].Version++
			return s.jobs[i], true
		}
	}
	return models.PrintJob{}, false
}

// SetCreateStatus sets the status given to newly created jobs.
func (s *PrintServer) SetCreateStatus(status models.JobStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createStatus = status
}

// FailUpload makes POST /api/jobs reject files named name.
func (s *PrintServer) FailUpload(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failUploads[name] = "unsupported file: " + name
}

// FailRoute makes every request to the chi route pattern (for example
// "GET /api/printers") answer with status.
func (s *PrintServer) FailRoute(route string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failRoutes[route] = status
}

// Requests returns how many requests hit a route, keyed as
// "METHOD /pattern".
func (s *PrintServer) Requests(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[route]
}

// TotalRequests counts every REST request served.
func (s *PrintServer) TotalRequests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.requests {
		n += c
	}
	return n
}

// Uploads returns the file names received by POST /api/jobs, in order.
func (s *PrintServer) Uploads() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.uploads...)
}

// Push sends one event frame to every connected push client.
func (s *PrintServer) Push(eventType string, payload any) error {
	data, err := json.Marshal(map[string]any{"type": eventType, "payload": payload})
	if err != nil {
		return err
	}
	return s.PushRaw(data)
}

// PushRaw sends data verbatim to every connected push client.
func (s *PrintServer) PushRaw(data []byte) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	for conn := range s.conns {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return err
		}
	}
	return nil
}

// Connections returns the number of connected push clients.
func (s *PrintServer) Connections() int {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	return len(s.conns)
}

// DropConnections closes every push connection without a close frame.
func (s *PrintServer) DropConnections() {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	for conn := range s.conns {
		_ = conn.Close()
		delete(s.conns, conn)
	}
}

func (s *PrintServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.count)

	r.Get("/ws", s.handleWS)

	r.Route("/api/printers", func(r chi.Router) {
		r.Get("/", s.listPrinters)
		r.Post("/", s.addPrinter)
		r.Post("/discover", s.listPrinters)
		r.Get("/{id}", s.getPrinter)
		r.Delete("/{id}", s.removePrinter)
		r.Post("/{id}/pause", s.setPrinterStatus(models.PrinterOffline))
		r.Post("/{id}/resume", s.setPrinterStatus(models.PrinterOnline))
		r.Get("/{id}/jobs", s.printerJobs)
	})

	r.Route("/api/jobs", func(r chi.Router) {
		r.Get("/", s.listJobs)
		r.Post("/", s.createJob)
		r.Get("/history", s.listJobs)
		r.Post("/cancel-multiple", s.cancelJobs)
		r.Get("/{id}", s.getJob)
		r.Post("/{id}/cancel", s.cancelJob)
		r.Post("/{id}/retry", s.retryJob)
	})

	r.Route("/api/system", func(r chi.Router) {
		r.Get("/status", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, models.SystemStatus{
				Status: models.ServerOnline, Uptime: 3600, Version: "test",
				CUPSConnected: true, DatabaseConnected: true,
			})
		})
		r.Get("/metrics", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, models.SystemMetrics{CPUUsage: 12.5, MemoryUsage: 40})
		})
		r.Get("/stats", s.stats)
		r.Get("/logs", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, []models.LogEntry{
				{Timestamp: time.Now().UTC(), Level: "info", Message: "print server started"},
			})
		})
		r.Get("/settings", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"defaultPaperSize": "A4"})
		})
		r.Post("/settings", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
	})

	return r
}

// count records the matched route and applies FailRoute overrides.
func (s *PrintServer) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rctx := chi.RouteContext(r.Context())
		if rctx != nil && r.URL.Path != "/ws" {
			pattern := r.URL.Path
			if tctx := chi.NewRouteContext(); rctx.Routes != nil && rctx.Routes.Match(tctx, r.Method, r.URL.Path) {
				pattern = tctx.RoutePattern()
			}
			key := r.Method + " " + strings.TrimSuffix(pattern, "/")

			s.mu.Lock()
			s.requests[key]++
			status := s.failRoutes[key]
			s.mu.Unlock()

			if status != 0 {
				writeJSON(w, status, map[string]string{"error": "injected failure"})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *PrintServer) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.connMu.Lock()
	s.conns[conn] = struct{}{}
	s.connMu.Unlock()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.connMu.Lock()
	delete(s.conns, conn)
	s.connMu.Unlock()
	_ = conn.Close()
}

func (s *PrintServer) listPrinters(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	out := append([]models.Printer{}, s.printers...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *PrintServer) getPrinter(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.printers {
		if p.ID == id {
			writeJSON(w, http.StatusOK, p)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "printer not found"})
}

func (s *PrintServer) addPrinter(w http.ResponseWriter, r *http.Request) {
	var req models.AddPrinterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URI == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "uri is required"})
		return
	}
	s.mu.Lock()
	p := models.Printer{
		ID:     "printer-" + strconv.Itoa(len(s.printers)+1),
		Name:   req.Name,
		URI:    req.URI,
		Status: models.PrinterOnline,
	}
	s.printers = append(s.printers, p)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, p)
}

func (s *PrintServer) removePrinter(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.printers {
		if p.ID == id {
			s.printers = append(s.printers[:i], s.printers[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "printer not found"})
}

func (s *PrintServer) setPrinterStatus(status models.PrinterStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		s.mu.Lock()
		defer s.mu.Unlock()
		for i := range s.printers {
			if s.printers[i].ID == id {
				s.printers[i].Status = status
				writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "printer not found"})
	}
}

func (s *PrintServer) printerJobs(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	out := []models.PrintJob{}
	for _, j := range s.jobs {
		if j.PrinterID == id {
			out = append(out, j)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *PrintServer) listJobs(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	out := append([]models.PrintJob{}, s.jobs...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *PrintServer) getJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range s.jobs {
		if j.ID == id {
			writeJSON(w, http.StatusOK, j)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "job not found"})
}

func (s *PrintServer) createJob(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file is required"})
		return
	}
	_ = file.Close()

	var opts models.PrintOptions
	if raw := r.FormValue("options"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &opts); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid options"})
			return
		}
	}
	printerID := r.FormValue("printer_id")

	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads = append(s.uploads, header.Filename)

	if msg, ok := s.failUploads[header.Filename]; ok {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": msg})
		return
	}

	printerName := ""
	for _, p := range s.printers {
		if p.ID == printerID {
			printerName = p.Name
		}
	}

	s.nextJob++
	job := models.PrintJob{
		ID:          fmt.Sprintf("job-%d", s.nextJob),
		FileName:    header.Filename,
		FileSize:    header.Size,
		FileType:    strings.TrimPrefix(filepath.Ext(header.Filename), "."),
		Status:      s.createStatus,
		PrinterID:   printerID,
		PrinterName: printerName,
		Options:     opts,
		CreatedAt:   time.Now().UTC(),
		Version:     1,
	}
	if job.Status == models.JobCompleted {
		job.Progress = 100
	}
	s.jobs = append([]models.PrintJob{job}, s.jobs...)
	writeJSON(w, http.StatusCreated, job)
}

func (s *PrintServer) cancelJob(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.SetJobStatus(chi.URLParam(r, "id"), models.JobCancelled, 0); !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "job not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (s *PrintServer) retryJob(w http.ResponseWriter, r *http.Request) {
	job, ok := s.SetJobStatus(chi.URLParam(r, "id"), models.JobPending, 0)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "job not found"})
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *PrintServer) cancelJobs(w http.ResponseWriter, r *http.Request) {
	var req models.CancelMultipleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	for _, id := range req.JobIDs {
		s.SetJobStatus(id, models.JobCancelled, 0)
	}
	writeJSON(w, http.StatusOK, map[string]int{"cancelled": len(req.JobIDs)})
}

func (s *PrintServer) stats(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := models.DashboardStats{PrintersTotal: len(s.printers)}
	for _, p := range s.printers {
		if p.IsOnline() {
			st.PrintersOnline++
		}
	}
	for _, j := range s.jobs {
		switch j.Status {
		case models.JobPending:
			st.JobsPending++
		case models.JobProcessing:
			st.JobsProcessing++
		case models.JobCompleted:
			st.JobsCompleted++
		case models.JobFailed:
			st.JobsFailed++
		}
	}
	writeJSON(w, http.StatusOK, st)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
