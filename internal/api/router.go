// Printdeck - Print Management Sync Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/printdeck

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/printdeck/internal/config"
	"github.com/tomtom215/printdeck/internal/store"
)

// Stores are the state containers the handlers read from.
type Stores struct {
	Printers *store.PrinterStore
	Jobs     *store.JobStore
	System   *store.SystemStore
}

// Handler serves the read-only routes.
type Handler struct {
	stores    Stores
	startTime time.Time
}

// NewHandler returns a Handler over stores.
func NewHandler(stores Stores) *Handler {
	return &Handler{stores: stores, startTime: time.Now()}
}

// Routes builds the chi router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(AccessLog())
		r.Use(Metrics())
		r.Get("/snapshot", h.Snapshot)
		r.Get("/printers", h.Printers)
		r.Get("/jobs", h.Jobs)
		r.Get("/notifications", h.Notifications)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, "NOT_FOUND", "no such route")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	})

	return r
}

// NewServer returns an *http.Server for cfg serving h.
func NewServer(cfg config.ServerConfig, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
