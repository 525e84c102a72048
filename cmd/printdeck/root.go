// Printdeck - Print Management Sync Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/printdeck

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomtom215/printdeck/internal/backend"
	"github.com/tomtom215/printdeck/internal/config"
	"github.com/tomtom215/printdeck/internal/logging"
	"github.com/tomtom215/printdeck/internal/store"
)

// app is the state shared by every command of one invocation.
type app struct {
	configPath string
	apiURL     string
	wsURL      string
	logLevel   string
	logFormat  string

	cfg *config.Config
	api backend.API
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "printdeck",
		Short:         "Command line client for the print management server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default: CONFIG_PATH or ./printdeck.yaml)")
	flags.StringVar(&a.apiURL, "api-url", "", "print server REST base URL")
	flags.StringVar(&a.wsURL, "ws-url", "", "print server push endpoint")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	flags.StringVar(&a.logFormat, "log-format", "", "log format: json or console")

	root.AddCommand(
		a.newStatusCmd(),
		a.newPrintersCmd(),
		a.newFormatsCmd(),
		a.newTestCmd(),
		a.newFullCmd(),
		a.newJobsCmd(),
		a.newSettingsCmd(),
		a.newWatchCmd(),
	)
	return root
}

// init loads configuration, applies flag overrides, sets up logging and
// gives the command its own correlation ID.
func (a *app) init(cmd *cobra.Command) error {
	var (
		cfg *config.Config
		err error
	)
	if a.configPath != "" {
		cfg, err = config.LoadFile(a.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	if a.apiURL != "" {
		cfg.Backend.URL = a.apiURL
	}
	if a.wsURL != "" {
		cfg.Realtime.URL = a.wsURL
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Logging.Format = a.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
		Output: cmd.ErrOrStderr(),
	})

	ctx := logging.ContextWithNewCorrelationID(cmd.Context())
	cmd.SetContext(ctx)
	logging.Ctx(ctx).Debug().
		Str("command", cmd.CommandPath()).
		Str("api_url", cfg.Backend.URL).
		Msg("command started")

	var api backend.API = backend.NewClient(&cfg.Backend)
	if cfg.Backend.CircuitBreaker {
		api = backend.NewCircuitBreakerClient(api, "print-server")
	}

	a.cfg = cfg
	a.api = api
	return nil
}

// stores builds a fresh set of stores over the app's client.
func (a *app) stores() (*store.PrinterStore, *store.JobStore, *store.SystemStore) {
	return store.NewPrinterStore(a.api),
		store.NewJobStore(a.api),
		store.NewSystemStore(a.api, a.cfg.Notifications.Capacity)
}
