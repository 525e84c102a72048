// Printdeck - Print Management Sync Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/printdeck

// Package testinfra provides test doubles for the print backend.
//
// # StubAPI
//
// StubAPI implements backend.API with one optional function field per
// method. Unset fields return zero values. Every call is counted, so tests
// can assert that a code path made no network call:
//
//	api := &testinfra.StubAPI{
//	    CancelJobFunc: func(ctx context.Context, id string) error {
//	        return errors.New("boom")
//	    },
//	}
//	jobs := store.NewJobStore(api)
//	// ...
//	if api.Calls("CancelJob") != 1 { ... }
//
// # PrintServer
//
// PrintServer is an in-memory print backend on httptest: the REST routes the
// client uses plus a WebSocket push endpoint. It is used by tests that
// exercise the real backend.Client and transport end to end:
//
//	srv := testinfra.NewPrintServer(t)
//	srv.AddPrinter(models.Printer{ID: "p1", Name: "Office", Status: models.PrinterOnline})
//	srv.FailUpload("broken.pdf")
//
//	client := backend.NewClient(&config.BackendConfig{URL: srv.URL(), Timeout: 5 * time.Second})
//	ws := websocket.New(websocket.Options{URL: srv.WSURL()})
//	// ...
//	srv.Push(models.EventJobProgress, job)
package testinfra
