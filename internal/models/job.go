// Printdeck - Print Management Sync Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/printdeck

package models

import "time"

// JobStatus is the lifecycle state of a print job.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
	JobCancelled  JobStatus = "cancelled"
)

// IsTerminal reports whether no further transitions are expected.
func (s JobStatus) IsTerminal() bool {
	return s == JobCompleted || s == JobFailed || s == JobCancelled
}

// PrintJob is a document submitted to a printer.
type PrintJob struct {
	ID            string       `json:"id"`
	FileName      string       `json:"fileName"`
	FileSize      int64        `json:"fileSize"`
	FileType      string       `json:"fileType"`
	Status        JobStatus    `json:"status"`
	PrinterID     string       `json:"printerId"`
	PrinterName   string       `json:"printerName"`
	Progress      int          `json:"progress"`
	Options       PrintOptions `json:"options"`
	CreatedAt     time.Time    `json:"createdAt"`
	StartedAt     *time.Time   `json:"startedAt,omitempty"`
	CompletedAt   *time.Time   `json:"completedAt,omitempty"`
	User          string       `json:"user,omitempty"`
	EstimatedTime int          `json:"estimatedTime,omitempty"`
	CurrentPage   int          `json:"currentPage,omitempty"`
	TotalPages    int          `json:"totalPages,omitempty"`
	ErrorMessage  string       `json:"errorMessage,omitempty"`
	Version       uint64       `json:"version,omitempty"`
}

// Clone returns a deep copy.
func (j PrintJob) Clone() PrintJob {
	c := j
	c.StartedAt = cloneTime(j.StartedAt)
	c.CompletedAt = cloneTime(j.CompletedAt)
	c.Options = j.Options.Clone()
	return c
}

// Orientation of the printed page.
type Orientation string

const (
	Portrait  Orientation = "portrait"
	Landscape Orientation = "landscape"
)

// ColorMode selects colour handling.
type ColorMode string

const (
	ColorModeColor      ColorMode = "color"
	ColorModeGrayscale  ColorMode = "grayscale"
	ColorModeMonochrome ColorMode = "monochrome"
	ColorModeAuto       ColorMode = "auto"
)

// Duplex selects single or double-sided printing.
type Duplex string

const (
	DuplexNone      Duplex = "none"
	DuplexShortEdge Duplex = "short-edge"
	DuplexLongEdge  Duplex = "long-edge"
)

// Quality selects print resolution tier.
type Quality string

const (
	QualityDraft  Quality = "draft"
	QualityNormal Quality = "normal"
	QualityHigh   Quality = "high"
)

// PrintOptions are captured once per batch and never change after submission.
type PrintOptions struct {
	Copies      int         `json:"copies" validate:"min=1,max=999"`
	PaperSize   string      `json:"paperSize" validate:"required,max=32"`
	Orientation Orientation `json:"orientation" validate:"required,oneof=portrait landscape"`
	ColorMode   ColorMode   `json:"colorMode" validate:"required,oneof=color grayscale monochrome auto"`
	Duplex      Duplex      `json:"duplex" validate:"required,oneof=none short-edge long-edge"`
	Quality     Quality     `json:"quality" validate:"required,oneof=draft normal high"`
	PageRange   string      `json:"pageRange,omitempty" validate:"omitempty,pagerange"`
	FitToPage   *bool       `json:"fitToPage,omitempty"`
}

// Clone returns a copy that shares no pointers with o.
func (o PrintOptions) Clone() PrintOptions {
	c := o
	if o.FitToPage != nil {
		v := *o.FitToPage
		c.FitToPage = &v
	}
	return c
}

// DefaultPrintOptions returns the options a new batch starts with.
func DefaultPrintOptions() PrintOptions {
	return PrintOptions{
		Copies:      1,
		PaperSize:   "A4",
		Orientation: Portrait,
		ColorMode:   ColorModeAuto,
		Duplex:      DuplexNone,
		Quality:     QualityNormal,
	}
}

// CancelMultipleRequest is the body of POST /api/jobs/cancel-multiple.
type CancelMultipleRequest struct {
	JobIDs []string `json:"job_ids"`
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
