// Printdeck - Print Management Sync Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/printdeck

package models

// FileStatus is the per-file state in the upload queue.
//
//	ready -> uploading -> processing
//	ready -> uploading -> error
type FileStatus string

const (
	FileReady      FileStatus = "ready"
	FileUploading  FileStatus = "uploading"
	FileProcessing FileStatus = "processing"
	FileError      FileStatus = "error"
)

// UploadedFile is a queued file. It never leaves the client as a whole; only
// its bytes are streamed to POST /api/jobs.
type UploadedFile struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Size     int64      `json:"size"`
	Status   FileStatus `json:"status"`
	Progress int        `json:"progress"`
	JobID    string     `json:"jobId,omitempty"`
	Error    string     `json:"error,omitempty"`
}
