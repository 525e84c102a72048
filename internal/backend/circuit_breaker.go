// Printdeck - Print Management Sync Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/printdeck

package backend

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/printdeck/internal/logging"
	"github.com/tomtom215/printdeck/internal/metrics"
	"github.com/tomtom215/printdeck/internal/models"
)

// CircuitBreakerClient wraps an API with a circuit breaker so that an
// unreachable print server fails fast instead of stalling every poll.
//
// 4xx responses are the server answering; they do not count as failures.
type CircuitBreakerClient struct {
	client API
	cb     *gobreaker.CircuitBreaker[any]
	name   string
}

var _ API = (*CircuitBreakerClient)(nil)

// NewCircuitBreakerClient wraps client.
// - Max 3 concurrent requests in half-open state
// - 1 minute measurement window
// - 30 second timeout before attempting recovery
// - Opens after 60% failure rate with minimum 10 requests
func NewCircuitBreakerClient(client API, name string) *CircuitBreakerClient {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6
			if shouldTrip {
				logging.Warn().
					Str("breaker", name).
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("opening circuit")
			}
			return shouldTrip
		},

		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return apiErr.StatusCode < 500
			}
			return errors.Is(err, context.Canceled)
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("circuit breaker state transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
	})

	return &CircuitBreakerClient{client: client, cb: cb, name: name}
}

// State returns the breaker state as "closed", "half-open" or "open".
func (cbc *CircuitBreakerClient) State() string {
	return stateToString(cbc.cb.State())
}

func (cbc *CircuitBreakerClient) execute(fn func() (any, error)) (any, error) {
	result, err := cbc.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "rejected").Inc()
			logging.Debug().Err(err).Str("breaker", cbc.name).Msg("request rejected")
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "failure").Inc()
			counts := cbc.cb.Counts()
			metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cbc.name).Set(float64(counts.ConsecutiveFailures))
		}
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "success").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cbc.name).Set(0)
	return result, nil
}

// run is execute for calls with no result.
func (cbc *CircuitBreakerClient) run(fn func() error) error {
	_, err := cbc.execute(func() (any, error) {
		return nil, fn()
	})
	return err
}

// call is execute with a typed result.
func call[T any](cbc *CircuitBreakerClient, fn func() (T, error)) (T, error) {
	var zero T
	result, err := cbc.execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, nil
	}
	return typed, nil
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

func (cbc *CircuitBreakerClient) ListPrinters(ctx context.Context) ([]models.Printer, error) {
	return call(cbc, func() ([]models.Printer, error) { return cbc.client.ListPrinters(ctx) })
}

func (cbc *CircuitBreakerClient) GetPrinter(ctx context.Context, id string) (*models.Printer, error) {
	return call(cbc, func() (*models.Printer, error) { return cbc.client.GetPrinter(ctx, id) })
}

func (cbc *CircuitBreakerClient) DiscoverPrinters(ctx context.Context) ([]models.Printer, error) {
	return call(cbc, func() ([]models.Printer, error) { return cbc.client.DiscoverPrinters(ctx) })
}

func (cbc *CircuitBreakerClient) AddPrinter(ctx context.Context, req models.AddPrinterRequest) (*models.Printer, error) {
	return call(cbc, func() (*models.Printer, error) { return cbc.client.AddPrinter(ctx, req) })
}

func (cbc *CircuitBreakerClient) RemovePrinter(ctx context.Context, id string) error {
	return cbc.run(func() error { return cbc.client.RemovePrinter(ctx, id) })
}

func (cbc *CircuitBreakerClient) PausePrinter(ctx context.Context, id string) error {
	return cbc.run(func() error { return cbc.client.PausePrinter(ctx, id) })
}

func (cbc *CircuitBreakerClient) ResumePrinter(ctx context.Context, id string) error {
	return cbc.run(func() error { return cbc.client.ResumePrinter(ctx, id) })
}

func (cbc *CircuitBreakerClient) PrinterJobs(ctx context.Context, id string) ([]models.PrintJob, error) {
	return call(cbc, func() ([]models.PrintJob, error) { return cbc.client.PrinterJobs(ctx, id) })
}

func (cbc *CircuitBreakerClient) ListJobs(ctx context.Context) ([]models.PrintJob, error) {
	return call(cbc, func() ([]models.PrintJob, error) { return cbc.client.ListJobs(ctx) })
}

func (cbc *CircuitBreakerClient) GetJob(ctx context.Context, id string) (*models.PrintJob, error) {
	return call(cbc, func() (*models.PrintJob, error) { return cbc.client.GetJob(ctx, id) })
}

func (cbc *CircuitBreakerClient) CreateJob(ctx context.Context, req *CreateJobRequest) (*models.PrintJob, error) {
	return call(cbc, func() (*models.PrintJob, error) { return cbc.client.CreateJob(ctx, req) })
}

func (cbc *CircuitBreakerClient) CancelJob(ctx context.Context, id string) error {
	return cbc.run(func() error { return cbc.client.CancelJob(ctx, id) })
}

func (cbc *CircuitBreakerClient) RetryJob(ctx context.Context, id string) (*models.PrintJob, error) {
	return call(cbc, func() (*models.PrintJob, error) { return cbc.client.RetryJob(ctx, id) })
}

func (cbc *CircuitBreakerClient) CancelJobs(ctx context.Context, ids []string) error {
	return cbc.run(func() error { return cbc.client.CancelJobs(ctx, ids) })
}

func (cbc *CircuitBreakerClient) JobHistory(ctx context.Context, limit int) ([]models.PrintJob, error) {
	return call(cbc, func() ([]models.PrintJob, error) { return cbc.client.JobHistory(ctx, limit) })
}

func (cbc *CircuitBreakerClient) SystemStatus(ctx context.Context) (*models.SystemStatus, error) {
	return call(cbc, func() (*models.SystemStatus, error) { return cbc.client.SystemStatus(ctx) })
}

func (cbc *CircuitBreakerClient) SystemMetrics(ctx context.Context) (*models.SystemMetrics, error) {
	return call(cbc, func() (*models.SystemMetrics, error) { return cbc.client.SystemMetrics(ctx) })
}

func (cbc *CircuitBreakerClient) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	return call(cbc, func() (*models.DashboardStats, error) { return cbc.client.DashboardStats(ctx) })
}

func (cbc *CircuitBreakerClient) SystemLogs(ctx context.Context, limit int) ([]models.LogEntry, error) {
	return call(cbc, func() ([]models.LogEntry, error) { return cbc.client.SystemLogs(ctx, limit) })
}

func (cbc *CircuitBreakerClient) Settings(ctx context.Context) (map[string]any, error) {
	return call(cbc, func() (map[string]any, error) { return cbc.client.Settings(ctx) })
}

func (cbc *CircuitBreakerClient) SaveSettings(ctx context.Context, settings map[string]any) error {
	return cbc.run(func() error { return cbc.client.SaveSettings(ctx, settings) })
}
