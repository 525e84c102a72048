// Printdeck - Print Management Sync Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/printdeck

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/printdeck/internal/logging"
	"github.com/tomtom215/printdeck/internal/models"
	"github.com/tomtom215/printdeck/internal/upload"
)

func (a *app) newFullCmd() *cobra.Command {
	var noMonitor bool
	cmd := &cobra.Command{
		Use:   "full",
		Short: "Run the complete check: status, printers, formats and a test print",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runFull(cmd.Context(), cmd.OutOrStdout(), noMonitor)
		},
	}
	cmd.Flags().BoolVar(&noMonitor, "no-monitor", false, "do not wait for the test job to finish")
	return cmd
}

func (a *app) runFull(ctx context.Context, out io.Writer, noMonitor bool) error {
	rule := strings.Repeat("=", 60)
	fmt.Fprintln(out, rule)

	fmt.Fprintln(out, "[1/4] System status")
	if _, err := a.checkStatus(ctx, out); err != nil {
		return err
	}

	fmt.Fprintln(out, "\n[2/4] Printers")
	printers, err := a.api.ListPrinters(ctx)
	if err != nil {
		return fmt.Errorf("failed to list printers: %w", err)
	}
	if err := writePrinters(out, printers); err != nil {
		return err
	}
	var target *models.Printer
	for i := range printers {
		if printers[i].IsOnline() {
			target = &printers[i]
			break
		}
	}
	if target == nil {
		return fmt.Errorf("no online printer found, cannot run test print")
	}

	fmt.Fprintln(out, "\n[3/4] Formats")
	if _, err := a.listFormats(ctx, out); err != nil {
		return err
	}

	fmt.Fprintln(out, "\n[4/4] Test print")
	path, err := writeTestPage()
	if err != nil {
		return err
	}
	defer func() {
		if err := os.Remove(path); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("path", path).Msg("failed to remove test page")
		}
	}()

	src, err := upload.FileSource(path)
	if err != nil {
		return err
	}
	_, err = a.testPrint(ctx, out, src, testPrintOptions{
		printerID: target.ID,
		copies:    1,
		noMonitor: noMonitor,
	})

	fmt.Fprintln(out, rule)
	if err != nil {
		return fmt.Errorf("full check failed: %w", err)
	}
	fmt.Fprintln(out, "Full check passed")
	return nil
}

const testPageTemplate = `<!DOCTYPE html>
<html>
<head><title>printdeck test page</title></head>
<body>
<h1>printdeck test page</h1>
<p>Generated: %s</p>
<ul>
<li>Text rendering</li>
<li>CSS formatting</li>
<li>Backend integration</li>
</ul>
<p>Page 1 of 1</p>
</body>
</html>
`

// writeTestPage writes a one-page HTML document to a temp file.
func writeTestPage() (string, error) {
	f, err := os.CreateTemp("", "printdeck-test-*.html")
	if err != nil {
		return "", fmt.Errorf("failed to create test page: %w", err)
	}
	if _, err := fmt.Fprintf(f, testPageTemplate, time.Now().Format(time.RFC1123)); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("failed to write test page: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("failed to write test page: %w", err)
	}
	return f.Name(), nil
}
