// Printdeck - Print Management Sync Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/printdeck

/*
Package services adapts printdeck components to suture.Service.

HTTPServerService turns the blocking ListenAndServe of *http.Server into a
context-bound Serve with graceful Shutdown.

RunnerService names any component that already has Serve(ctx) error, so
supervisor events read "realtime-router" or "rest-poller" instead of a Go
type name. Context cancellation is passed through untouched; any other
error is wrapped with the service name and triggers a restart.

	tree.AddRealtimeService(services.NewRealtimeService(rt))
	tree.AddSyncService(services.NewPollerService(p))
	tree.AddAPIService(services.NewHTTPServerService(srv, 5*time.Second))
*/
package services
