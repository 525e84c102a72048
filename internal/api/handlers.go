// Printdeck - Print Management Sync Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/printdeck

package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tomtom215/printdeck/internal/models"
	"github.com/tomtom215/printdeck/internal/store"
)

// HealthStatus is the body of GET /healthz.
type HealthStatus struct {
	Status     string                 `json:"status"`
	Connection models.ConnectionState `json:"connection"`
	Backend    models.ServerState     `json:"backend,omitempty"`
	Uptime     float64                `json:"uptime_seconds"`
}

// Snapshot is the body of GET /api/v1/snapshot.
type Snapshot struct {
	Printers store.PrinterState `json:"printers"`
	Jobs     store.JobState     `json:"jobs"`
	System   store.SystemState  `json:"system"`
}

// Health reports "ok" while the push channel is usable, "degraded" while it
// is reconnecting or the backend reports trouble, and 503 "down" once
// reconnect attempts are exhausted.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	sys := h.stores.System.Snapshot()

	health := HealthStatus{
		Status:     "ok",
		Connection: sys.Connection,
		Uptime:     time.Since(h.startTime).Seconds(),
	}
	if sys.Status != nil {
		health.Backend = sys.Status.Status
	}

	code := http.StatusOK
	switch {
	case sys.Connection == models.ConnLost:
		health.Status = "down"
		code = http.StatusServiceUnavailable
	case sys.Connection == models.ConnReconnecting,
		health.Backend == models.ServerOffline,
		health.Backend == models.ServerDegraded:
		health.Status = "degraded"
	}

	respondJSON(w, r, code, &Response{Status: "success", Data: health})
}

// Snapshot returns every store's current state.
func (h *Handler) Snapshot(w http.ResponseWriter, r *http.Request) {
	respondData(w, r, Snapshot{
		Printers: h.stores.Printers.Snapshot(),
		Jobs:     h.stores.Jobs.Snapshot(),
		System:   h.stores.System.Snapshot(),
	})
}

// Printers returns the printer list filtered by query parameters.
func (h *Handler) Printers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	statuses, err := parseEnum(q, "status", models.PrinterOnline, models.PrinterOffline, models.PrinterError, models.PrinterBusy)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	filters := store.PrinterFilters{
		Statuses: statuses,
		Types:    listParam(q, "type"),
		Search:   q.Get("search"),
	}
	respondList(w, r, store.FilterPrinters(h.stores.Printers.Snapshot().Printers, filters))
}

// Jobs returns the job list filtered by query parameters.
func (h *Handler) Jobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	statuses, err := parseEnum(q, "status",
		models.JobPending, models.JobProcessing, models.JobCompleted, models.JobFailed, models.JobCancelled)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	from, err := timeParam(q, "from")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	to, err := timeParam(q, "to")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "to is before from")
		return
	}
	filters := store.JobFilters{
		Statuses:   statuses,
		PrinterIDs: listParam(q, "printer"),
		Search:     q.Get("search"),
		From:       from,
		To:         to,
	}
	respondList(w, r, store.FilterJobs(h.stores.Jobs.Snapshot().Jobs, filters))
}

// Notifications returns the notification ring, newest first.
func (h *Handler) Notifications(w http.ResponseWriter, r *http.Request) {
	respondList(w, r, h.stores.System.Snapshot().Notifications)
}

// listParam accepts both ?k=a&k=b and ?k=a,b.
func listParam(q url.Values, key string) []string {
	var out []string
	for _, v := range q[key] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// timeParam parses an RFC 3339 timestamp. An absent parameter yields the
// zero time.
func timeParam(q url.Values, key string) (time.Time, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s %q: want RFC 3339", key, v)
	}
	return t, nil
}

func parseEnum[T ~string](q url.Values, key string, allowed ...T) ([]T, error) {
	raw := listParam(q, key)
	out := make([]T, 0, len(raw))
	for _, v := range raw {
		ok := false
		for _, a := range allowed {
			if string(a) == v {
				ok = true
				break
			}
		}
		if !ok {
			return nil, fmt.Errorf("invalid %s %q", key, v)
		}
		out = append(out, T(v))
	}
	return out, nil
}
