// Printdeck - Print Management Sync Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/printdeck

package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/printdeck/internal/models"
	"github.com/tomtom215/printdeck/internal/store"
)

func (a *app) newJobsCmd() *cobra.Command {
	var (
		statuses []string
		printers []string
		search   string
		since    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List print jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, jobs, _ := a.stores()
			if err := jobs.FetchJobs(cmd.Context()); err != nil {
				return fmt.Errorf("failed to list jobs: %w", err)
			}
			filters := store.JobFilters{PrinterIDs: printers, Search: search}
			for _, s := range statuses {
				filters.Statuses = append(filters.Statuses, models.JobStatus(s))
			}
			if since > 0 {
				filters.From = time.Now().Add(-since)
			}
			jobs.SetFilters(filters)
			return writeJobs(cmd.OutOrStdout(), jobs.Filtered())
		},
	}

	f := cmd.Flags()
	f.StringSliceVar(&statuses, "status", nil, "only jobs in these states (pending, processing, completed, failed, cancelled)")
	f.StringSliceVar(&printers, "printer", nil, "only jobs on these printer ids")
	f.StringVar(&search, "search", "", "match file name, printer name or user")
	f.DurationVar(&since, "since", 0, "only jobs created within this duration")

	cmd.AddCommand(a.newJobsCancelCmd(), a.newJobsRetryCmd())
	return cmd
}

func (a *app) newJobsCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <job-id>...",
		Short: "Cancel one or more jobs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, jobs, _ := a.stores()
			if err := jobs.FetchJobs(cmd.Context()); err != nil {
				return fmt.Errorf("failed to list jobs: %w", err)
			}

			var err error
			if len(args) == 1 {
				err = jobs.CancelJob(cmd.Context(), args[0])
			} else {
				for _, id := range args {
					jobs.Select(id)
				}
				err = jobs.CancelJobs(cmd.Context(), jobs.Selected())
			}
			if err != nil {
				return fmt.Errorf("failed to cancel: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cancelled %d job(s)\n", len(args))
			return nil
		},
	}
}

func (a *app) newJobsRetryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "retry <job-id>",
		Short: "Requeue a failed or cancelled job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, jobs, _ := a.stores()
			if err := jobs.FetchJobs(cmd.Context()); err != nil {
				return fmt.Errorf("failed to list jobs: %w", err)
			}
			job, err := jobs.RetryJob(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to retry %s: %w", args[0], err)
			}
			if job.ID != args[0] {
				fmt.Fprintf(cmd.OutOrStdout(), "Job %s requeued as %s\n", args[0], job.ID)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Job %s requeued (%s)\n", job.ID, job.Status)
			return nil
		},
	}
}

func writeJobs(out io.Writer, jobs []models.PrintJob) error {
	if len(jobs) == 0 {
		fmt.Fprintln(out, "No jobs found")
		return nil
	}

	tw := tabwriter.NewWriter(out, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFILE\tPRINTER\tSTATUS\tPROGRESS\tCREATED")
	for _, j := range jobs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d%%\t%s\n",
			j.ID,
			j.FileName,
			valueOrDash(firstNonEmpty(j.PrinterName, j.PrinterID)),
			j.Status,
			j.Progress,
			formatTime(j.CreatedAt),
		)
	}
	return tw.Flush()
}
