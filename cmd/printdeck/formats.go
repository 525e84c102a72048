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
	"slices"
	"strings"

	"github.com/spf13/cobra"
)

// formatCategories groups the extensions the print server knows about.
var formatCategories = []struct {
	Name    string
	Formats []string
}{
	{"Documents", []string{"pdf", "docx", "doc", "xlsx", "xls", "pptx", "ppt"}},
	{"Design/CAD", []string{"dwg", "dxf", "svg", "ai", "psd", "cdr", "eps"}},
	{"Images", []string{"jpg", "jpeg", "png"}},
}

type formatGroup struct {
	Name      string
	Supported []string
}

var errNoPrinters = errors.New("no printers registered")

func (a *app) newFormatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List the file formats the printers accept",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := a.listFormats(cmd.Context(), cmd.OutOrStdout())
			return err
		},
	}
}

// listFormats reports the first printer's formats; every printer behind one
// server shares the same converter set.
func (a *app) listFormats(ctx context.Context, out io.Writer) ([]string, error) {
	printers, err := a.api.ListPrinters(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list printers: %w", err)
	}
	if len(printers) == 0 {
		return nil, errNoPrinters
	}
	formats := printers[0].Capabilities.SupportedFormats

	fmt.Fprintf(out, "%d supported formats\n", len(formats))
	for _, g := range groupFormats(formats) {
		fmt.Fprintf(out, "%s:\n", g.Name)
		if len(g.Supported) == 0 {
			fmt.Fprintln(out, "  (none)")
			continue
		}
		for _, f := range g.Supported {
			fmt.Fprintf(out, "  .%s\n", strings.ToUpper(f))
		}
	}
	return formats, nil
}

// groupFormats sorts formats into formatCategories. Formats outside every
// category are collected under "Other", which is omitted when empty.
func groupFormats(formats []string) []formatGroup {
	have := make(map[string]bool, len(formats))
	for _, f := range formats {
		have[strings.ToLower(strings.TrimPrefix(f, "."))] = true
	}

	groups := make([]formatGroup, 0, len(formatCategories)+1)
	known := make(map[string]bool)
	for _, c := range formatCategories {
		g := formatGroup{Name: c.Name}
		for _, f := range c.Formats {
			known[f] = true
			if have[f] {
				g.Supported = append(g.Supported, f)
			}
		}
		groups = append(groups, g)
	}

	var other []string
	for f := range have {
		if !known[f] {
			other = append(other, f)
		}
	}
	if len(other) > 0 {
		slices.Sort(other)
		groups = append(groups, formatGroup{Name: "Other", Supported: other})
	}
	return groups
}
