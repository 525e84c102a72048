// Printdeck - Print Management Sync Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/printdeck

/*
Package store holds the local replica of backend state.

There are three stores: PrinterStore, JobStore and SystemStore. Each owns one
slice of state behind a mutex and publishes a deep-copied snapshot to its
subscribers after every change. Listeners run outside the lock and may call
back into the store.

Writers:

  - Fetch* methods replace a collection from a REST read. On failure the
    previous collection is kept and Error is set. A response that arrives
    after the caller's context is canceled is discarded.
  - Update* methods upsert one entity by id. The event router calls these for
    push events.
  - Mutations (cancel, retry, pause, resume) patch the local entry first and
    then call the backend. If the call fails the patch is rolled back, unless
    a newer write already replaced the patched entry.

Ordering:

Entities may carry a monotonic Version. An incoming entity whose Version is
non-zero and lower than the stored one is discarded. Version 0 means the
server does not version that entity and the last arrival wins. While a job is
processing, its progress never moves backwards.

Filters are pure functions over snapshots; see FilterJobs and FilterPrinters.
*/
package store
