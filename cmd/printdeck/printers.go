// Printdeck - Print Management Sync Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/printdeck

package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tomtom215/printdeck/internal/models"
	"github.com/tomtom215/printdeck/internal/store"
)

func (a *app) newPrintersCmd() *cobra.Command {
	var (
		statuses []string
		types    []string
		search   string
	)

	cmd := &cobra.Command{
		Use:   "printers",
		Short: "List printers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			printers, _, _ := a.stores()
			if err := printers.FetchPrinters(cmd.Context()); err != nil {
				return fmt.Errorf("failed to list printers: %w", err)
			}
			filters := store.PrinterFilters{Types: types, Search: search}
			for _, s := range statuses {
				filters.Statuses = append(filters.Statuses, models.PrinterStatus(s))
			}
			printers.SetFilters(filters)
			return writePrinters(cmd.OutOrStdout(), printers.Filtered())
		},
	}
	cmd.Flags().StringSliceVar(&statuses, "status", nil, "only printers in these states (online, offline, error, busy)")
	cmd.Flags().StringSliceVar(&types, "type", nil, "only printers of these types")
	cmd.Flags().StringVar(&search, "search", "", "match name, model, manufacturer or location")

	cmd.AddCommand(
		a.newPrintersDiscoverCmd(),
		a.newPrintersAddCmd(),
		a.printerActionCmd("remove", "Remove a printer", (*store.PrinterStore).RemovePrinter, "removed"),
		a.printerActionCmd("pause", "Pause a printer", (*store.PrinterStore).PausePrinter, "paused"),
		a.printerActionCmd("resume", "Resume a paused printer", (*store.PrinterStore).ResumePrinter, "resumed"),
	)
	return cmd
}

func (a *app) newPrintersDiscoverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "discover",
		Short: "Scan the network for printers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			printers, _, _ := a.stores()
			found, err := printers.DiscoverPrinters(cmd.Context())
			if err != nil {
				return fmt.Errorf("discovery failed: %w", err)
			}
			return writePrinters(cmd.OutOrStdout(), found)
		},
	}
}

func (a *app) newPrintersAddCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "add <uri>",
		Short: "Register a printer by URI",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			printers, _, _ := a.stores()
			p, err := printers.AddPrinter(cmd.Context(), args[0], name)
			if err != nil {
				return fmt.Errorf("failed to add printer: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", p.Name, p.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name (default: chosen by the server)")
	return cmd
}

type printerAction func(*store.PrinterStore, context.Context, string) error

func (a *app) printerActionCmd(use, short string, action printerAction, done string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <printer-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			printers, _, _ := a.stores()
			if err := printers.FetchPrinters(cmd.Context()); err != nil {
				return fmt.Errorf("failed to list printers: %w", err)
			}
			if _, ok := printers.Get(args[0]); !ok {
				return fmt.Errorf("printer %s not found", args[0])
			}
			if err := action(printers, cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("failed to %s printer %s: %w", use, args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Printer %s %s\n", args[0], done)
			return nil
		},
	}
}

func writePrinters(out io.Writer, printers []models.Printer) error {
	if len(printers) == 0 {
		fmt.Fprintln(out, "No printers found")
		return nil
	}

	tw := tabwriter.NewWriter(out, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tTYPE\tJOBS\tURI")
	for _, p := range printers {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			p.ID,
			p.Name,
			p.Status,
			valueOrDash(p.Type),
			p.CurrentJobs,
			valueOrDash(p.URI),
		)
	}
	return tw.Flush()
}
