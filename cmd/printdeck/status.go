// Printdeck - Print Management Sync Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/printdeck

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tomtom215/printdeck/internal/models"
)

func (a *app) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show print server health and component connectivity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := a.checkStatus(cmd.Context(), cmd.OutOrStdout())
			return err
		},
	}
}

func (a *app) checkStatus(ctx context.Context, out io.Writer) (*models.SystemStatus, error) {
	status, err := a.api.SystemStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("print server unreachable at %s: %w", a.cfg.Backend.URL, err)
	}

	fmt.Fprintf(out, "Server:   %s\n", a.cfg.Backend.URL)
	fmt.Fprintf(out, "Status:   %s\n", status.Status)
	fmt.Fprintf(out, "Version:  %s\n", valueOrDash(status.Version))
	fmt.Fprintf(out, "Uptime:   %s\n", formatUptime(status.Uptime))
	fmt.Fprintf(out, "CUPS:     %s\n", connected(status.CUPSConnected))
	fmt.Fprintf(out, "Database: %s\n", connected(status.DatabaseConnected))
	return status, nil
}

func connected(ok bool) string {
	if ok {
		return "connected"
	}
	return "disconnected"
}
