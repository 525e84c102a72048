// Printdeck - Print Management Sync Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/printdeck

// Package router binds push events to the domain stores.
//
// A Router is process scoped. Views call Acquire when they start needing
// live data and the returned Release when they stop. The first Acquire
// registers the store bindings and connects the transport; the last Release
// removes every binding and disconnects. Release is idempotent, so a view
// that releases twice cannot tear down another view's subscription.
//
// Bindings:
//
//	printer_status_update -> PrinterStore.UpdatePrinter
//	job_progress_update   -> JobStore.UpdateJob
//	system_metrics        -> SystemStore.UpdateMetrics
//	notification          -> SystemStore.AddNotification
//	connection state      -> SystemStore.SetConnectionState
package router

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/printdeck/internal/logging"
	"github.com/tomtom215/printdeck/internal/metrics"
	"github.com/tomtom215/printdeck/internal/models"
	"github.com/tomtom215/printdeck/internal/store"
	"github.com/tomtom215/printdeck/internal/websocket"
)

// Transport is the push channel the router drives. *websocket.Client
// implements it.
type Transport interface {
	Connect(ctx context.Context) error
	Disconnect()
	On(eventType string, fn websocket.Handler) websocket.Unsubscribe
	OnStateChange(fn websocket.StateListener) websocket.Unsubscribe
}

var _ Transport = (*websocket.Client)(nil)

// Release drops one reference taken by Acquire.
type Release func()

// notificationPayload is the wire shape of a notification event.
type notificationPayload struct {
	Type      models.NotificationType `json:"type"`
	Title     string                  `json:"title"`
	Message   string                  `json:"message"`
	Timestamp time.Time               `json:"timestamp"`
	Read      bool                    `json:"read"`
}

// Router is the reference-counted binding between a Transport and the
// stores.
type Router struct {
	transport Transport
	printers  *store.PrinterStore
	jobs      *store.JobStore
	system    *store.SystemStore
	log       zerolog.Logger

	mu        sync.Mutex
	refs      int
	disposers []websocket.Unsubscribe
	cancel    context.CancelFunc
}

// New creates an idle router.
func New(t Transport, printers *store.PrinterStore, jobs *store.JobStore, system *store.SystemStore) *Router {
	return &Router{
		transport: t,
		printers:  printers,
		jobs:      jobs,
		system:    system,
		log:       logging.Component("router"),
	}
}

// Acquire takes a reference. The first reference binds the stores and
// connects the transport. The connection outlives ctx's cancellation; it
// ends with the last Release.
func (r *Router) Acquire(ctx context.Context) (Release, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.refs == 0 {
		if err := r.startLocked(ctx); err != nil {
			return nil, err
		}
	}
	r.refs++
	metrics.TrackActiveView(true)

	var once sync.Once
	return func() {
		once.Do(r.release)
	}, nil
}

// Refs returns the number of outstanding references.
func (r *Router) Refs() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.refs
}

// Serve holds one reference until ctx is canceled. It lets the router run
// under a supervisor for the life of the process.
func (r *Router) Serve(ctx context.Context) error {
	release, err := r.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("event router: %w", err)
	}
	defer release()

	<-ctx.Done()
	return ctx.Err()
}

func (r *Router) release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.refs == 0 {
		return
	}
	r.refs--
	metrics.TrackActiveView(false)

	if r.refs == 0 {
		r.stopLocked()
	}
}

func (r *Router) startLocked(ctx context.Context) error {
	r.disposers = append(r.disposers,
		r.transport.On(models.EventPrinterStatus, r.onPrinterStatus),
		r.transport.On(models.EventJobProgress, r.onJobProgress),
		r.transport.On(models.EventSystemMetrics, r.onSystemMetrics),
		r.transport.On(models.EventNotification, r.onNotification),
		r.transport.OnStateChange(r.system.SetConnectionState),
	)

	connCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	if err := r.transport.Connect(connCtx); err != nil {
		cancel()
		r.disposeLocked()
		return fmt.Errorf("connect push channel: %w", err)
	}
	r.cancel = cancel
	r.log.Info().Msg("live updates started")
	return nil
}

func (r *Router) stopLocked() {
	r.disposeLocked()
	r.transport.Disconnect()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.system.SetConnectionState(models.ConnDisconnected)
	r.log.Info().Msg("live updates stopped")
}

func (r *Router) disposeLocked() {
	for _, d := range r.disposers {
		d()
	}
	r.disposers = nil
}

func (r *Router) onPrinterStatus(env models.Envelope) {
	var p models.Printer
	if !r.decode(env, &p) || p.ID == "" {
		return
	}
	r.printers.UpdatePrinter(p)
	metrics.RouterDispatch.WithLabelValues(env.Type, "applied").Inc()
}

func (r *Router) onJobProgress(env models.Envelope) {
	var j models.PrintJob
	if !r.decode(env, &j) || j.ID == "" {
		return
	}
	r.jobs.UpdateJob(j)
	metrics.RouterDispatch.WithLabelValues(env.Type, "applied").Inc()
}

func (r *Router) onSystemMetrics(env models.Envelope) {
	var m models.SystemMetrics
	if !r.decode(env, &m) {
		return
	}
	r.system.UpdateMetrics(m)
	metrics.RouterDispatch.WithLabelValues(env.Type, "applied").Inc()
}

func (r *Router) onNotification(env models.Envelope) {
	var n notificationPayload
	if !r.decode(env, &n) {
		return
	}
	if n.Type == "" {
		n.Type = models.NotifyInfo
	}
	r.system.PushNotification(models.Notification{
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Timestamp: n.Timestamp,
		Read:      n.Read,
	})
	metrics.RouterDispatch.WithLabelValues(env.Type, "applied").Inc()
}

// decode unmarshals the payload into v. Failures are logged, counted and
// reported as false.
func (r *Router) decode(env models.Envelope, v any) bool {
	if len(env.Payload) == 0 {
		metrics.RouterDispatch.WithLabelValues(env.Type, "decode_error").Inc()
		r.log.Debug().Str("type", env.Type).Msg("dropping event without payload")
		return false
	}
	if err := json.Unmarshal(env.Payload, v); err != nil {
		metrics.RouterDispatch.WithLabelValues(env.Type, "decode_error").Inc()
		r.log.Debug().Err(err).Str("type", env.Type).Msg("dropping undecodable event payload")
		return false
	}
	return true
}
