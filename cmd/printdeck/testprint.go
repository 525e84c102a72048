// Printdeck - Print Management Sync Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/printdeck

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/tomtom215/printdeck/internal/logging"
	"github.com/tomtom215/printdeck/internal/models"
	"github.com/tomtom215/printdeck/internal/upload"
)

var errMonitorTimeout = errors.New("job did not finish in time")

type testPrintOptions struct {
	printerID string
	copies    int
	paperSize string
	color     string
	duplex    string
	quality   string
	pages     string
	noMonitor bool
}

func (o testPrintOptions) printOptions() models.PrintOptions {
	opts := models.DefaultPrintOptions()
	opts.Copies = o.copies
	if o.paperSize != "" {
		opts.PaperSize = o.paperSize
	}
	if o.color != "" {
		opts.ColorMode = models.ColorMode(o.color)
	}
	if o.duplex != "" {
		opts.Duplex = models.Duplex(o.duplex)
	}
	if o.quality != "" {
		opts.Quality = models.Quality(o.quality)
	}
	opts.PageRange = o.pages
	return opts
}

func (a *app) newTestCmd() *cobra.Command {
	var o testPrintOptions

	cmd := &cobra.Command{
		Use:   "test <file>",
		Short: "Print a file and follow the job until it finishes",
		Long: "Uploads one file to a printer (the given one, or the first online printer), " +
			"then polls the job until it completes, fails or is cancelled.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := upload.FileSource(args[0])
			if err != nil {
				return err
			}
			_, err = a.testPrint(cmd.Context(), cmd.OutOrStdout(), src, o)
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.printerID, "printer", "", "target printer id (default: first online printer)")
	f.IntVar(&o.copies, "copies", 1, "number of copies")
	f.StringVar(&o.paperSize, "paper", "", "paper size (default A4)")
	f.StringVar(&o.color, "color", "", "color, grayscale, monochrome or auto")
	f.StringVar(&o.duplex, "duplex", "", "none, short-edge or long-edge")
	f.StringVar(&o.quality, "quality", "", "draft, normal or high")
	f.StringVar(&o.pages, "pages", "", "page range, e.g. 1-3,5")
	f.BoolVar(&o.noMonitor, "no-monitor", false, "return as soon as the job is accepted")
	return cmd
}

// testPrint submits src through the upload pipeline and, unless disabled,
// follows the resulting job to a terminal state. It returns once the
// pipeline has cleared its queue after the configured redirect delay.
func (a *app) testPrint(ctx context.Context, out io.Writer, src upload.Source, o testPrintOptions) (*models.PrintJob, error) {
	printers, jobs, system := a.stores()
	if err := printers.FetchPrinters(ctx); err != nil {
		return nil, fmt.Errorf("failed to list printers: %w", err)
	}
	if o.printerID != "" {
		printers.SelectPrinter(o.printerID)
	} else if _, ok := printers.SelectFirstOnline(); !ok {
		return nil, errors.New("no online printer found")
	}
	target, _ := printers.Selected()

	fmt.Fprintf(out, "File:     %s (%s)\n", src.Name, formatBytes(src.Size))
	fmt.Fprintf(out, "Printer:  %s (%s)\n", valueOrDash(target.Name), printers.Snapshot().SelectedID)
	fmt.Fprintf(out, "Copies:   %d\n", o.copies)

	bar := progressbar.NewOptions(100,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription("Uploading"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)

	cleared := make(chan upload.BatchResult, 1)
	pipeline := upload.New(a.api, printers, jobs, system, upload.Options{
		RedirectDelay: a.cfg.Upload.RedirectDelay,
		OnComplete: func(r upload.BatchResult) {
			cleared <- r
		},
		OnFileChange: func(f models.UploadedFile) {
			_ = bar.Set(f.Progress)
		},
	})
	pipeline.Add(src)

	result, err := pipeline.Submit(ctx, "", o.printOptions())
	if err != nil {
		return nil, err
	}
	_ = bar.Finish()
	fmt.Fprintln(out)

	if len(result.Failures) > 0 {
		return nil, fmt.Errorf("upload failed: %w", result.Failures[0].Error)
	}
	job := result.Jobs[0]
	fmt.Fprintf(out, "Job:      %s (%s)\n", job.ID, job.Status)

	final := &job
	if !o.noMonitor {
		if final, err = a.monitorJob(ctx, out, job.ID); err != nil {
			return final, err
		}
	}

	select {
	case <-cleared:
		fmt.Fprintln(out, "Upload queue cleared")
	case <-ctx.Done():
		return final, ctx.Err()
	}
	return final, nil
}

// monitorJob polls GET /api/jobs/{id} until the job is terminal or the
// configured attempts run out. A failed job is an error.
func (a *app) monitorJob(ctx context.Context, out io.Writer, id string) (*models.PrintJob, error) {
	log := logging.Ctx(ctx)
	attempts := a.cfg.Upload.MonitorAttempts
	interval := a.cfg.Upload.MonitorInterval

	fmt.Fprintf(out, "Monitoring job %s\n", id)
	for i := 0; i < attempts; i++ {
		job, err := a.api.GetJob(ctx, id)
		switch {
		case err != nil:
			log.Warn().Err(err).Str("job_id", id).Int("attempt", i+1).Msg("failed to poll job")
		default:
			fmt.Fprintf(out, "  %s %s (%d%%)\n", statusIcon(job.Status), strings.ToUpper(string(job.Status)), job.Progress)
			switch job.Status {
			case models.JobCompleted:
				fmt.Fprintf(out, "Job %s completed\n", id)
				return job, nil
			case models.JobFailed:
				return job, fmt.Errorf("job %s failed: %s", id, valueOrDash(job.ErrorMessage))
			case models.JobCancelled:
				fmt.Fprintf(out, "Job %s was cancelled\n", id)
				return job, nil
			}
		}

		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}
	return nil, fmt.Errorf("job %s: %w after %d checks", id, errMonitorTimeout, attempts)
}

func statusIcon(s models.JobStatus) string {
	switch s {
	case models.JobCompleted:
		return "[ok]"
	case models.JobFailed:
		return "[!!]"
	case models.JobProcessing:
		return "[..]"
	case models.JobPending:
		return "[  ]"
	default:
		return "[--]"
	}
}
