// Printdeck - Print Management Sync Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/printdeck

/*
Package models defines the wire and in-memory types shared by the backend
client, the push transport, the stores and the upload pipeline.

JSON field names follow the print server's camelCase contract. Optional
server fields are pointers or omitempty values so that a round trip through
printdeck never invents data the server did not send.

Entity identity:

  - Printer.ID and PrintJob.ID are opaque server-assigned strings.
  - UploadedFile.ID is a client-only random token.
  - Notification.ID is a client-only time-ordered token.

Printer.Version and PrintJob.Version are optional monotonic counters. Zero
means the server did not version the entity.
*/
package models
