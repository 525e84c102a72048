// Printdeck - Print Management Sync Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/printdeck

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/printdeck/internal/api"
	"github.com/tomtom215/printdeck/internal/logging"
	"github.com/tomtom215/printdeck/internal/models"
	"github.com/tomtom215/printdeck/internal/poller"
	"github.com/tomtom215/printdeck/internal/router"
	"github.com/tomtom215/printdeck/internal/store"
	"github.com/tomtom215/printdeck/internal/supervisor"
	"github.com/tomtom215/printdeck/internal/supervisor/services"
	"github.com/tomtom215/printdeck/internal/websocket"
)

// engine is a fully wired sync engine: stores fed by the push router and
// the poller, optionally exposed over HTTP, all under one supervisor tree.
type engine struct {
	printers *store.PrinterStore
	jobs     *store.JobStore
	system   *store.SystemStore
	router   *router.Router
	poller   *poller.Poller
	tree     *supervisor.SupervisorTree
}

func (a *app) newWatchCmd() *cobra.Command {
	var duration time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the sync engine and print live updates until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}

			e, err := a.buildEngine()
			if err != nil {
				return err
			}
			stop := e.report(cmd.OutOrStdout())
			defer stop()

			return e.run(ctx)
		},
	}
	cmd.Flags().DurationVar(&duration, "for", 0, "stop after this long (default: until interrupted)")
	return cmd
}

func (a *app) buildEngine() (*engine, error) {
	printers, jobs, system := a.stores()
	e := &engine{printers: printers, jobs: jobs, system: system}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to build supervisor tree: %w", err)
	}
	e.tree = tree

	if a.cfg.Realtime.Enabled {
		rt := a.cfg.Realtime
		client := websocket.New(websocket.Options{
			URL:                  a.cfg.RealtimeURL(),
			ReconnectDelay:       rt.ReconnectDelay,
			MaxReconnectAttempts: rt.MaxReconnectAttempts,
			HandshakeTimeout:     rt.HandshakeTimeout,
			PingInterval:         rt.PingInterval,
			ReadTimeout:          rt.ReadTimeout,
		})
		e.router = router.New(client, printers, jobs, system)
		tree.AddRealtimeService(services.NewRealtimeService(e.router))
	}

	if a.cfg.Polling.Enabled {
		e.poller = poller.New(a.cfg.Polling.Interval, poller.StoreTargets(printers, jobs, system)...)
		tree.AddSyncService(services.NewPollerService(e.poller))
	}

	if a.cfg.Server.Enabled {
		h := api.NewHandler(api.Stores{Printers: printers, Jobs: jobs, System: system})
		srv := api.NewServer(a.cfg.Server, h.Routes())
		tree.AddAPIService(services.NewHTTPServerService(srv, a.cfg.Server.ShutdownTimeout))
	}

	return e, nil
}

// run serves the tree until ctx ends. Cancellation is a clean exit.
func (e *engine) run(ctx context.Context) error {
	log := logging.Ctx(ctx)
	log.Info().
		Bool("realtime", e.router != nil).
		Bool("polling", e.poller != nil).
		Msg("sync engine started")

	err := e.tree.Serve(ctx)

	if report, rerr := e.tree.UnstoppedServiceReport(); rerr == nil && len(report) > 0 {
		log.Warn().Int("count", len(report)).Msg("services did not stop in time")
	}
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		log.Info().Msg("sync engine stopped")
		return nil
	}
	return err
}

// report prints connection changes, new notifications and job status
// changes to out. The returned func unsubscribes.
func (e *engine) report(out io.Writer) func() {
	var (
		mu       sync.Mutex
		lastConn models.ConnectionState
		seen     = make(map[string]bool)
		statuses = make(map[string]models.JobStatus)
	)
	printf := func(format string, args ...any) {
		fmt.Fprintf(out, "%s "+format+"\n", append([]any{time.Now().Format("15:04:05")}, args...)...)
	}

	unsubSystem := e.system.Subscribe(func(s store.SystemState) {
		mu.Lock()
		defer mu.Unlock()
		if s.Connection != lastConn {
			lastConn = s.Connection
			printf("connection %s", s.Connection)
		}
		// Newest first; print oldest unseen first.
		for i := len(s.Notifications) - 1; i >= 0; i-- {
			n := s.Notifications[i]
			if seen[n.ID] {
				continue
			}
			seen[n.ID] = true
			printf("[%s] %s %s", n.Type, n.Title, n.Message)
		}
	})

	unsubJobs := e.jobs.Subscribe(func(s store.JobState) {
		mu.Lock()
		defer mu.Unlock()
		for _, j := range s.Jobs {
			if prev, ok := statuses[j.ID]; ok && prev == j.Status {
				continue
			}
			statuses[j.ID] = j.Status
			printf("job %s %s %s (%d%%)", j.ID, j.FileName, j.Status, j.Progress)
		}
	})

	return func() {
		unsubSystem()
		unsubJobs()
	}
}
