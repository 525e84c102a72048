// Printdeck - Print Management Sync Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/printdeck

package upload

import (
	"errors"
	"fmt"
)

// Submit preconditions. Submit wraps each in a *ValidationError and fails
// before any network call.
var (
	ErrNoFiles         = errors.New("no files selected")
	ErrNoPrinter       = errors.New("no printer selected")
	ErrPrinterNotFound = errors.New("printer not found")
	ErrPrinterOffline  = errors.New("printer is not online")
	ErrInvalidOptions  = errors.New("invalid print options")
)

// ErrBatchInProgress is returned when Submit is called while another batch
// is uploading.
var ErrBatchInProgress = errors.New("a batch is already being submitted")

// ValidationError is a rejected submission. Err is one of the precondition
// sentinels; Cause carries the underlying detail, if any.
type ValidationError struct {
	Err   error
	Cause error
}

func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%v: %v", e.Err, e.Cause)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

func invalid(sentinel, cause error) *ValidationError {
	return &ValidationError{Err: sentinel, Cause: cause}
}
