// Printdeck - Print Management Sync Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/printdeck

package backend

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/printdeck/internal/models"
)

// CreateJobRequest is one file submission to POST /api/jobs.
type CreateJobRequest struct {
	PrinterID string
	FileName  string
	// Size is the file length in bytes, or -1 when unknown. It is only used
	// for progress reporting.
	Size    int64
	Body    io.Reader
	Options models.PrintOptions

	// Progress, when set, is called from the upload goroutine as bytes are
	// streamed to the server.
	Progress func(sent, total int64)
}

// CreateJob streams a multipart body (file, printer_id, options) to the
// server and returns the job it created.
func (c *Client) CreateJob(ctx context.Context, r *CreateJobRequest) (*models.PrintJob, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	options, err := json.Marshal(r.Options)
	if err != nil {
		return nil, fmt.Errorf("failed to encode print options: %w", err)
	}

	if c.uploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.uploadTimeout)
		defer cancel()
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeJobForm(mw, r, options))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/jobs", pr)
	if err != nil {
		_ = pr.Close()
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	body, err := c.send(c.uploadClient, req, "/api/jobs")
	// Unblocks the writer goroutine if the server answered before reading
	// the whole body.
	_ = pr.Close()
	if err != nil {
		return nil, err
	}

	var job models.PrintJob
	if err := json.Unmarshal(body, &job); err != nil {
		return nil, fmt.Errorf("failed to decode created job: %w", err)
	}
	if job.ID == "" {
		return nil, fmt.Errorf("print server accepted %s but returned no job id", r.FileName)
	}
	return &job, nil
}

// writeJobForm writes the multipart parts in the order the server expects
// and closes the multipart writer.
func writeJobForm(mw *multipart.Writer, r *CreateJobRequest, options []byte) error {
	part, err := mw.CreateFormFile("file", r.FileName)
	if err != nil {
		return err
	}

	src := r.Body
	if r.Progress != nil {
		src = &progressReader{r: r.Body, total: r.Size, report: r.Progress}
	}
	if _, err := io.Copy(part, src); err != nil {
		return fmt.Errorf("failed to stream %s: %w", r.FileName, err)
	}

	if err := mw.WriteField("printer_id", r.PrinterID); err != nil {
		return err
	}
	if err := mw.WriteField("options", string(options)); err != nil {
		return err
	}
	return mw.Close()
}

// progressReader reports cumulative bytes read.
type progressReader struct {
	r      io.Reader
	total  int64
	sent   int64
	report func(sent, total int64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		p.report(p.sent, p.total)
	}
	return n, err
}
