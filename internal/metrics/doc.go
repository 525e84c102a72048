// Printdeck - Print Management Sync Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/printdeck

/*
Package metrics holds printdeck's Prometheus collectors.

All collectors register on the default registry through promauto and are
served at /metrics when the local HTTP surface is enabled:

	curl http://127.0.0.1:9464/metrics

Transport:
  - printdeck_ws_connection_state (gauge, 0=disconnected 1=connecting 2=connected 3=reconnecting 4=lost)
  - printdeck_ws_reconnects_total (counter)
  - printdeck_ws_messages_total (counter, label: type)
  - printdeck_ws_decode_errors_total (counter)
  - printdeck_ws_dropped_sends_total (counter)

Backend:
  - printdeck_backend_request_duration_seconds (histogram, labels: method, endpoint)
  - printdeck_backend_errors_total (counter, labels: endpoint, kind)
  - circuit_breaker_* (gauges and counters, label: name)

Stores and router:
  - printdeck_store_stale_discards_total (counter, label: store)
  - printdeck_store_rollbacks_total (counter, labels: store, action)
  - printdeck_router_dispatch_total (counter, labels: type, result)
  - printdeck_router_active_views (gauge)

Upload:
  - printdeck_upload_files_total (counter, label: result)
  - printdeck_upload_batch_duration_seconds (histogram)
*/
package metrics
