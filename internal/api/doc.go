// Printdeck - Print Management Sync Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/printdeck

/*
Package api serves a read-only view of a running printdeck engine over HTTP.

Routes:

	GET /healthz              push connection and backend status
	GET /metrics              Prometheus exposition
	GET /api/v1/snapshot      every store snapshot in one document
	GET /api/v1/printers      filtered printer list (?status=&type=&search=)
	GET /api/v1/jobs          filtered job list (?status=&printer=&search=)
	GET /api/v1/notifications notification ring, newest first

Every JSON body uses the same envelope:

	{"status":"success","data":{...},"metadata":{"timestamp":"...","request_id":"..."}}

The server is disabled unless server.enabled is set, and it binds to
127.0.0.1 by default. It runs under the supervisor's api layer.
*/
package api
