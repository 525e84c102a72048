// Printdeck - Print Management Sync Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/printdeck

// Package upload submits batches of files as print jobs.
//
// Each queued file moves through
//
//	ready -> uploading -> processing
//	ready -> uploading -> error
//
// Files are uploaded one at a time in queue order with a single, immutable
// set of print options. A failing file is recorded and the batch continues.
package upload

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/printdeck/internal/backend"
	"github.com/tomtom215/printdeck/internal/logging"
	"github.com/tomtom215/printdeck/internal/metrics"
	"github.com/tomtom215/printdeck/internal/models"
	"github.com/tomtom215/printdeck/internal/store"
	"github.com/tomtom215/printdeck/internal/validation"
)

// DefaultRedirectDelay is how long a successful batch stays visible before
// the queue is cleared.
const DefaultRedirectDelay = 2 * time.Second

// Options configures a Pipeline.
type Options struct {
	// RedirectDelay is the wait between a batch with at least one success
	// and clearing the queue. Negative means DefaultRedirectDelay; zero
	// clears before Submit returns.
	RedirectDelay time.Duration

	// OnComplete is called after the queue is cleared following a batch
	// with at least one success.
	OnComplete func(BatchResult)

	// OnFileChange is called with a copy of a file after every status or
	// progress change.
	OnFileChange func(models.UploadedFile)
}

// FileFailure is one file that could not be submitted.
type FileFailure struct {
	File  models.UploadedFile
	Error error
}

// BatchResult summarises one Submit call.
type BatchResult struct {
	CorrelationID string
	Succeeded     int
	Failed        int
	Jobs          []models.PrintJob
	Failures      []FileFailure
	Duration      time.Duration
}

type entry struct {
	file models.UploadedFile
	src  Source
}

// Pipeline is the upload queue plus the batch submitter.
type Pipeline struct {
	api      backend.API
	printers *store.PrinterStore
	jobs     *store.JobStore
	system   *store.SystemStore
	opts     Options
	log      zerolog.Logger

	// after is time.After, replaceable in tests.
	after func(time.Duration) <-chan time.Time

	mu    sync.Mutex
	queue []*entry
	busy  bool
}

// New creates an empty pipeline.
func New(api backend.API, printers *store.PrinterStore, jobs *store.JobStore, system *store.SystemStore, opts Options) *Pipeline {
	if opts.RedirectDelay < 0 {
		opts.RedirectDelay = DefaultRedirectDelay
	}
	return &Pipeline{
		api:      api,
		printers: printers,
		jobs:     jobs,
		system:   system,
		opts:     opts,
		log:      logging.Component("upload"),
		after:    time.After,
	}
}

// Add queues sources and returns their queue records.
func (p *Pipeline) Add(sources ...Source) []models.UploadedFile {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]models.UploadedFile, 0, len(sources))
	for _, src := range sources {
		e := &entry{
			file: models.UploadedFile{
				ID:     uuid.NewString(),
				Name:   src.Name,
				Size:   src.Size,
				Status: models.FileReady,
			},
			src: src,
		}
		p.queue = append(p.queue, e)
		out = append(out, e.file)
	}
	return out
}

// Remove drops a queued file. Files cannot be removed while a batch runs.
func (p *Pipeline) Remove(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.busy {
		return false
	}
	for i, e := range p.queue {
		if e.file.ID == id {
			p.queue = append(p.queue[:i], p.queue[i+1:]...)
			return true
		}
	}
	return false
}

// Files returns a copy of the queue.
func (p *Pipeline) Files() []models.UploadedFile {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.UploadedFile, len(p.queue))
	for i, e := range p.queue {
		out[i] = e.file
	}
	return out
}

// Clear empties the queue unless a batch is running.
func (p *Pipeline) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.busy {
		p.queue = nil
	}
}

// Busy reports whether a batch is being submitted.
func (p *Pipeline) Busy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.busy
}

// Submit uploads every queued file that is not already processing to
// printerID, or to the selected printer when printerID is empty.
//
// Preconditions are checked before any network call and reported as
// *ValidationError. Per-file failures do not fail the batch; they are in
// the result.
func (p *Pipeline) Submit(ctx context.Context, printerID string, options models.PrintOptions) (*BatchResult, error) {
	p.mu.Lock()
	if p.busy {
		p.mu.Unlock()
		return nil, ErrBatchInProgress
	}
	p.busy = true
	batch := make([]*entry, 0, len(p.queue))
	for _, e := range p.queue {
		if e.file.Status != models.FileProcessing {
			batch = append(batch, e)
		}
	}
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.busy = false
		p.mu.Unlock()
	}()

	// Detach from the caller: every file gets the options as they were
	// at this call.
	options = options.Clone()

	printer, err := p.preflight(batch, printerID, options)
	if err != nil {
		p.log.Debug().Err(err).Msg("submission rejected")
		return nil, err
	}

	ctx = logging.ContextWithNewCorrelationID(ctx)
	log := logging.Ctx(ctx)
	log.Info().
		Int("files", len(batch)).
		Str("printer_id", printer.ID).
		Msg("submitting batch")

	start := time.Now()
	result := BatchResult{CorrelationID: logging.CorrelationIDFromContext(ctx)}

	attempted := make([]*entry, 0, len(batch))
	for _, e := range batch {
		if ctx.Err() != nil {
			break
		}
		attempted = append(attempted, e)
		job, err := p.submitOne(ctx, e, printer, options)
		if err != nil {
			result.Failed++
			result.Failures = append(result.Failures, FileFailure{File: p.fileCopy(e), Error: err})
			metrics.RecordUploadFile(false)
			log.Warn().Err(err).Str("file", e.file.Name).Msg("file upload failed")
			p.system.AddNotification(models.NotifyError, "Upload failed", fmt.Sprintf("%s: %s", e.file.Name, errorMessage(err)))
			continue
		}
		result.Succeeded++
		result.Jobs = append(result.Jobs, *job)
		metrics.RecordUploadFile(true)
		log.Info().Str("file", e.file.Name).Str("job_id", job.ID).Msg("file submitted")
		p.system.AddNotification(models.NotifySuccess, "File sent", e.file.Name+" submitted successfully")
	}

	if err := p.jobs.FetchJobs(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to refresh jobs after batch")
	}

	result.Duration = time.Since(start)
	metrics.UploadBatchDuration.Observe(result.Duration.Seconds())

	if result.Succeeded > 0 {
		p.system.AddNotification(models.NotifySuccess, "Batch complete",
			fmt.Sprintf("%d file(s) processed successfully", result.Succeeded))
		p.scheduleRedirect(ctx, attempted, result)
	}

	log.Info().
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Dur("duration", result.Duration).
		Msg("batch finished")

	if err := ctx.Err(); err != nil {
		return &result, err
	}
	return &result, nil
}

// preflight checks every precondition and returns the target printer.
func (p *Pipeline) preflight(batch []*entry, printerID string, options models.PrintOptions) (models.Printer, error) {
	if len(batch) == 0 {
		return models.Printer{}, invalid(ErrNoFiles, nil)
	}
	if printerID == "" {
		if sel, ok := p.printers.Selected(); ok {
			printerID = sel.ID
		}
	}
	if printerID == "" {
		return models.Printer{}, invalid(ErrNoPrinter, nil)
	}
	printer, ok := p.printers.Get(printerID)
	if !ok {
		return models.Printer{}, invalid(ErrPrinterNotFound, fmt.Errorf("id %q", printerID))
	}
	if !printer.IsOnline() {
		return models.Printer{}, invalid(ErrPrinterOffline, fmt.Errorf("%s is %s", printer.Name, printer.Status))
	}
	if err := validation.Check(options); err != nil {
		return models.Printer{}, invalid(ErrInvalidOptions, err)
	}
	return printer, nil
}

func (p *Pipeline) submitOne(ctx context.Context, e *entry, printer models.Printer, options models.PrintOptions) (*models.PrintJob, error) {
	p.update(e, func(f *models.UploadedFile) {
		f.Status = models.FileUploading
		f.Progress = 0
		f.Error = ""
		f.JobID = ""
	})

	placeholder := p.jobs.AddPlaceholder(store.Placeholder{
		FileName:    e.file.Name,
		FileSize:    e.file.Size,
		FileType:    fileType(e.file.Name),
		PrinterID:   printer.ID,
		PrinterName: printer.Name,
		Options:     options,
	})

	job, err := p.upload(ctx, e, printer.ID, options)
	if err != nil {
		p.jobs.DropPlaceholder(placeholder)
		p.update(e, func(f *models.UploadedFile) {
			f.Status = models.FileError
			f.Error = errorMessage(err)
		})
		return nil, err
	}

	p.jobs.ConfirmPlaceholder(placeholder, *job)
	p.update(e, func(f *models.UploadedFile) {
		f.Status = models.FileProcessing
		f.Progress = 100
		f.JobID = job.ID
	})
	return job, nil
}

func (p *Pipeline) upload(ctx context.Context, e *entry, printerID string, options models.PrintOptions) (*models.PrintJob, error) {
	body, err := e.src.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", e.file.Name, err)
	}
	defer func() { _ = body.Close() }()

	return p.api.CreateJob(ctx, &backend.CreateJobRequest{
		PrinterID: printerID,
		FileName:  e.file.Name,
		Size:      e.file.Size,
		Body:      body,
		Options:   options,
		Progress: func(sent, total int64) {
			if total <= 0 {
				return
			}
			pct := int(sent * 100 / total)
			p.update(e, func(f *models.UploadedFile) {
				// 100 is reserved for an accepted file.
				f.Progress = min(pct, 99)
			})
		},
	})
}

func (p *Pipeline) update(e *entry, fn func(*models.UploadedFile)) {
	p.mu.Lock()
	before := e.file
	fn(&e.file)
	after := e.file
	p.mu.Unlock()

	if p.opts.OnFileChange != nil && after != before {
		p.opts.OnFileChange(after)
	}
}

func (p *Pipeline) fileCopy(e *entry) models.UploadedFile {
	p.mu.Lock()
	defer p.mu.Unlock()
	return e.file
}

// scheduleRedirect removes the attempted files from the queue and fires
// OnComplete after the redirect delay. Files queued during the batch, and
// files a canceled batch never reached, stay. A canceled ctx abandons the
// redirect.
func (p *Pipeline) scheduleRedirect(ctx context.Context, attempted []*entry, result BatchResult) {
	finish := func() {
		p.mu.Lock()
		p.queue = slices.DeleteFunc(p.queue, func(e *entry) bool {
			return slices.Contains(attempted, e)
		})
		p.mu.Unlock()
		if p.opts.OnComplete != nil {
			p.opts.OnComplete(result)
		}
	}

	if p.opts.RedirectDelay == 0 {
		finish()
		return
	}

	timer := p.after(p.opts.RedirectDelay)
	go func() {
		select {
		case <-timer:
			finish()
		case <-ctx.Done():
		}
	}()
}

// errorMessage prefers the print server's own message.
func errorMessage(err error) string {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}

func fileType(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}
