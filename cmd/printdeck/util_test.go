// Printdeck - Print Management Sync Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/printdeck

package main

import (
	"slices"
	"testing"
)

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		seconds int64
		want    string
	}{
		{0, "0s"},
		{59, "59s"},
		{61, "1m 1s"},
		{3600, "1h 0m"},
		{3*86400 + 4*3600 + 59, "3d 4h"},
	}
	for _, tt := range tests {
		if got := formatUptime(tt.seconds); got != tt.want {
			t.Errorf("formatUptime(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{-1, "unknown size"},
		{512, "512 B"},
		{1536, "1.5 KiB"},
		{5 << 20, "5.0 MiB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.n); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestGroupFormats(t *testing.T) {
	groups := groupFormats([]string{".PDF", "dwg", "png", "txt", "html"})

	want := map[string][]string{
		"Documents":  {"pdf"},
		"Design/CAD": {"dwg"},
		"Images":     {"png"},
		"Other":      {"html", "txt"},
	}
	if len(groups) != len(want) {
		t.Fatalf("got %d groups, want %d", len(groups), len(want))
	}
	for _, g := range groups {
		if !slices.Equal(g.Supported, want[g.Name]) {
			t.Errorf("%s = %v, want %v", g.Name, g.Supported, want[g.Name])
		}
	}

	if groups := groupFormats([]string{"pdf"}); len(groups) != len(formatCategories) {
		t.Errorf("Other group should be omitted when empty, got %d groups", len(groups))
	}
}

func TestParseAssignments(t *testing.T) {
	got, err := parseAssignments([]string{"copies=3", "duplex=true", "name=Front Desk", "tags=[\"a\"]", "empty="})
	if err != nil {
		t.Fatalf("parseAssignments: %v", err)
	}
	if got["copies"] != float64(3) {
		t.Errorf("copies = %#v", got["copies"])
	}
	if got["duplex"] != true {
		t.Errorf("duplex = %#v", got["duplex"])
	}
	if got["name"] != "Front Desk" {
		t.Errorf("name = %#v", got["name"])
	}
	if tags, ok := got["tags"].([]any); !ok || len(tags) != 1 {
		t.Errorf("tags = %#v", got["tags"])
	}
	if got["empty"] != "" {
		t.Errorf("empty = %#v", got["empty"])
	}

	for _, bad := range []string{"novalue", "=x", " =x"} {
		if _, err := parseAssignments([]string{bad}); err == nil {
			t.Errorf("parseAssignments(%q) should fail", bad)
		}
	}
}

func TestValueHelpers(t *testing.T) {
	if valueOrDash("") != "-" || valueOrDash("x") != "x" {
		t.Error("valueOrDash")
	}
	if firstNonEmpty("", "b", "c") != "b" || firstNonEmpty() != "" {
		t.Error("firstNonEmpty")
	}
}
