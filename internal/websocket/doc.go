// Printdeck - Print Management Sync Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/printdeck

/*
Package websocket is the push channel to the print server.

A Client owns one gorilla/websocket connection and a handler registry.
Inbound frames are JSON envelopes:

	{"type": "job_progress_update", "payload": {...}}

Frames are decoded and dispatched on the single reader goroutine in
arrival order: handlers registered for the frame's type first, in
registration order, then wildcard ("*") handlers. Frames that do not
decode, or carry an empty type, are dropped and counted.

Connection states:

	disconnected -> connecting -> connected
	connected -> reconnecting -> connected
	reconnecting -> lost          (attempts exhausted)
	any -> disconnected           (Disconnect or context canceled)

Reconnection waits ReconnectDelay * 2^n before attempt n+1 (1s, 2s, 4s, ...)
for at most MaxReconnectAttempts consecutive failures. A successful open
resets the counter. When attempts run out the client reports StateLost and
stops; call Connect again to restart.

Send writes only while connected. There is no outbound queue: a send on a
closed channel returns ErrNotConnected.

Usage:

	client := websocket.New(websocket.Options{URL: "ws://localhost:8001"})
	off := client.On(models.EventJobProgress, func(env models.Envelope) {
	    // decode env.Payload
	})
	defer off()

	if err := client.Connect(ctx); err != nil {
	    return err
	}
	defer client.Disconnect()
*/
package websocket
