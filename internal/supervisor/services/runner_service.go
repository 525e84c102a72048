// Printdeck - Print Management Sync Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/printdeck

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/printdeck/internal/logging"
)

// Runner is any component with a context-bound Serve loop.
// *router.Router and *poller.Poller satisfy it.
type Runner interface {
	Serve(ctx context.Context) error
}

// RunnerService gives a Runner a name for supervisor events and wraps its
// failures.
type RunnerService struct {
	runner Runner
	name   string
}

// NewRunnerService wraps runner under name.
func NewRunnerService(name string, runner Runner) *RunnerService {
	return &RunnerService{runner: runner, name: name}
}

// NewRealtimeService wraps the push router. Serve holds one router
// reference, so the WebSocket stays open for as long as the service runs.
func NewRealtimeService(router Runner) *RunnerService {
	return NewRunnerService("realtime-router", router)
}

// NewPollerService wraps the REST poller.
func NewPollerService(poller Runner) *RunnerService {
	return NewRunnerService("rest-poller", poller)
}

// Serve implements suture.Service.
func (s *RunnerService) Serve(ctx context.Context) error {
	err := s.runner.Serve(ctx)
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	logging.Component("supervisor").Warn().Err(err).Str("service", s.name).Msg("service exited")
	return fmt.Errorf("%s: %w", s.name, err)
}

// String names the service in supervisor events.
func (s *RunnerService) String() string {
	return s.name
}
