// Printdeck - Print Management Sync Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/printdeck

package backend

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"
)

// APIError is a non-2xx response from the print server.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	// Message is the server's {"error": "..."} text, or the raw body when
	// the body is not in that shape.
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("print server %s %s returned status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("print server %s %s returned status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the print server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// errorBody is the print server's error envelope.
type errorBody struct {
	Error   string `json:"error"`
	Success *bool  `json:"success,omitempty"`
}

// newAPIError builds an APIError from a response body that has already
// been read.
func newAPIError(method, path string, status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Method: method, Path: path}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Error != "" {
		apiErr.Message = eb.Error
		return apiErr
	}

	msg := string(body)
	if len(msg) > 256 {
		msg = msg[:256]
	}
	apiErr.Message = msg
	return apiErr
}
