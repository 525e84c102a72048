// Printdeck - Print Management Sync Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/printdeck

// Package main is the printdeck command line client.
//
// printdeck talks to a print server's REST API (default
// http://localhost:8000) and its push channel (default ws://localhost:8001).
// The one-shot commands mirror the print server's debugging workflow:
//
//	printdeck status             backend health and component connectivity
//	printdeck printers           list printers
//	printdeck formats            supported file formats by category
//	printdeck test <file>        upload a file and follow the job to the end
//	printdeck full               status, printers, formats and a test print
//
// plus job management (jobs, jobs cancel, jobs retry), printer management
// (printers discover/add/remove/pause/resume), server settings, and watch,
// which runs the whole sync engine (push router, poller, optional status
// server) under a supervisor tree until interrupted.
//
// # Configuration
//
// Settings come from built-in defaults, an optional YAML file
// (CONFIG_PATH, ./printdeck.yaml, /etc/printdeck/config.yaml) and the
// environment (PRINTDECK_API_URL, PRINTDECK_WS_URL, LOG_LEVEL, ...), with
// command line flags applied last.
//
// Every command exits non-zero on error.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	os.Exit(run())
}

func run() (code int) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "printdeck: internal error: %v\n", r)
			code = 2
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}
