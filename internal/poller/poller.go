// Printdeck - Print Management Sync Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/printdeck

// Package poller refreshes the stores from the REST API on a fixed interval.
//
// The push channel carries incremental changes; the poller is the periodic
// full read that repairs anything a dropped connection missed. It refreshes
// once on start, then on every tick until its context ends.
package poller

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/printdeck/internal/logging"
	"github.com/tomtom215/printdeck/internal/store"
)

// DefaultInterval is the dashboard refresh period.
const DefaultInterval = 5 * time.Second

// Target is one refresh step.
type Target struct {
	Name  string
	Fetch func(ctx context.Context) error
}

// StoreTargets returns the dashboard refresh set: printers, jobs, metrics,
// server status and statistics.
func StoreTargets(printers *store.PrinterStore, jobs *store.JobStore, system *store.SystemStore) []Target {
	return []Target{
		{Name: "printers", Fetch: printers.FetchPrinters},
		{Name: "jobs", Fetch: jobs.FetchJobs},
		{Name: "metrics", Fetch: system.FetchMetrics},
		{Name: "status", Fetch: system.FetchStatus},
		{Name: "stats", Fetch: system.FetchStats},
	}
}

// Poller runs its targets every interval.
type Poller struct {
	interval time.Duration
	targets  []Target
	log      zerolog.Logger
}

// New creates a poller. A non-positive interval uses DefaultInterval.
func New(interval time.Duration, targets ...Target) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		interval: interval,
		targets:  targets,
		log:      logging.Component("poller"),
	}
}

// Interval returns the refresh period.
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Serve refreshes immediately and then on every tick. It returns ctx.Err()
// once ctx is canceled; the ticker is stopped on return.
func (p *Poller) Serve(ctx context.Context) error {
	p.log.Info().Dur("interval", p.interval).Int("targets", len(p.targets)).Msg("poller started")

	p.Refresh(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info().Msg("poller stopped")
			return ctx.Err()
		case <-ticker.C:
			p.Refresh(ctx)
		}
	}
}

// Refresh runs every target once, in order, and returns how many failed.
// Failures are logged; the stores record them in their own state.
func (p *Poller) Refresh(ctx context.Context) int {
	failed := 0
	for _, t := range p.targets {
		if ctx.Err() != nil {
			return failed
		}
		if err := t.Fetch(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return failed
			}
			failed++
			p.log.Debug().Err(err).Str("target", t.Name).Msg("refresh failed")
		}
	}
	return failed
}
