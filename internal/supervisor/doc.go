// Printdeck - Print Management Sync Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/printdeck

/*
Package supervisor runs the long-lived parts of printdeck under a suture v4
supervisor tree.

	printdeck (root, sutureslog event hook)
	├── realtime-layer   router.Router (acquires the WebSocket client)
	├── sync-layer       poller.Poller
	└── api-layer        HTTP server (health, metrics, snapshot)

Each layer restarts its own services with suture's failure threshold, decay
and backoff. Supervisor events are logged through a *slog.Logger; printdeck
passes logging.NewSlogLogger() so they land in the zerolog output.

Usage:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddRealtimeService(services.NewRealtimeService(rt))
	tree.AddSyncService(services.NewPollerService(p))
	tree.AddAPIService(services.NewHTTPServerService(srv, cfg.Server.ShutdownTimeout))
	return tree.Serve(ctx)

See the services subpackage for the wrappers.
*/
package supervisor
