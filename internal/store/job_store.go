// Printdeck - Print Management Sync Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/printdeck

package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/printdeck/internal/backend"
	"github.com/tomtom215/printdeck/internal/logging"
	"github.com/tomtom215/printdeck/internal/metrics"
	"github.com/tomtom215/printdeck/internal/models"
)

// placeholderPrefix marks client-side job records awaiting a server id.
const placeholderPrefix = "pending-"

// JobState is a read-only snapshot of the job store.
type JobState struct {
	Jobs        []models.PrintJob `json:"jobs"`
	SelectedIDs []string          `json:"selectedIds"`
	Filters     JobFilters        `json:"filters"`
	Loading     bool              `json:"loading"`
	Error       string            `json:"error,omitempty"`
}

// Filtered applies the state's filters to its jobs.
func (s JobState) Filtered() []models.PrintJob {
	return FilterJobs(s.Jobs, s.Filters)
}

// Placeholder describes a job that is being uploaded.
type Placeholder struct {
	FileName    string
	FileSize    int64
	FileType    string
	PrinterID   string
	PrinterName string
	Options     models.PrintOptions
}

// JobStore is the local replica of the job queue. Jobs are kept newest
// first.
type JobStore struct {
	api backend.API
	log zerolog.Logger

	mu           sync.Mutex
	jobs         []models.PrintJob
	revs         map[string]uint64
	seq          uint64
	placeholders map[string]struct{}
	selected     []string
	filters      JobFilters
	loading      int
	err          string

	subs observers[JobState]
}

// NewJobStore creates an empty job store backed by api.
func NewJobStore(api backend.API) *JobStore {
	return &JobStore{
		api:          api,
		log:          logging.Component("job_store"),
		revs:         make(map[string]uint64),
		placeholders: make(map[string]struct{}),
	}
}

// Subscribe registers fn to receive a snapshot after every change.
func (s *JobStore) Subscribe(fn func(JobState)) Unsubscribe {
	return s.subs.add(fn)
}

// Snapshot returns a deep copy of the current state.
func (s *JobStore) Snapshot() JobState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *JobStore) snapshotLocked() JobState {
	out := make([]models.PrintJob, len(s.jobs))
	for i := range s.jobs {
		out[i] = s.jobs[i].Clone()
	}
	return JobState{
		Jobs:        out,
		SelectedIDs: slices.Clone(s.selected),
		Filters:     s.filters,
		Loading:     s.loading > 0,
		Error:       s.err,
	}
}

// Get returns a copy of the job with id.
func (s *JobStore) Get(id string) (models.PrintJob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.jobs[i].Clone(), true
	}
	return models.PrintJob{}, false
}

// FetchJobs replaces the queue with the backend's list. Upload placeholders
// are kept.
func (s *JobStore) FetchJobs(ctx context.Context) error {
	s.change(func() {
		s.loading++
		s.err = ""
	})

	list, err := s.api.ListJobs(ctx)
	if ctx.Err() != nil {
		s.change(func() { s.loading-- })
		return ctx.Err()
	}
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to load jobs")
		s.change(func() {
			s.loading--
			s.err = fmt.Sprintf("failed to load jobs: %v", err)
		})
		return err
	}

	s.change(func() {
		s.loading--
		s.replaceLocked(list)
	})
	return nil
}

// FetchJob refreshes one job from the backend and upserts it.
func (s *JobStore) FetchJob(ctx context.Context, id string) (*models.PrintJob, error) {
	j, err := s.api.GetJob(ctx, id)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	s.UpdateJob(*j)
	return j, nil
}

// CancelJob marks the job cancelled, then asks the backend to cancel it.
// The local change is rolled back if the call fails.
func (s *JobStore) CancelJob(ctx context.Context, id string) error {
	patches := s.patch([]string{id}, func(j *models.PrintJob) {
		j.Status = models.JobCancelled
	})

	if err := s.api.CancelJob(ctx, id); err != nil {
		s.log.Warn().Err(err).Str("job_id", id).Msg("failed to cancel job")
		s.rollback(patches, "cancel")
		return err
	}
	return nil
}

// RetryJob requeues a job: it is marked pending at 0% and the backend asked
// to retry it. If the server answers with a job under a new id, the original
// record is restored and the new job added.
func (s *JobStore) RetryJob(ctx context.Context, id string) (*models.PrintJob, error) {
	patches := s.patch([]string{id}, func(j *models.PrintJob) {
		j.Status = models.JobPending
		j.Progress = 0
		j.ErrorMessage = ""
	})

	job, err := s.api.RetryJob(ctx, id)
	if err != nil {
		s.log.Warn().Err(err).Str("job_id", id).Msg("failed to retry job")
		s.rollback(patches, "retry")
		return nil, err
	}

	if job != nil {
		if job.ID != id {
			s.rollback(patches, "")
		}
		s.UpdateJob(*job)
	}
	return job, nil
}

// CancelJobs cancels several jobs in one request and clears the selection.
func (s *JobStore) CancelJobs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	s.mu.Lock()
	prevSelection := slices.Clone(s.selected)
	s.mu.Unlock()

	patches := s.patch(ids, func(j *models.PrintJob) {
		j.Status = models.JobCancelled
	})
	s.change(func() { s.selected = nil })

	if err := s.api.CancelJobs(ctx, ids); err != nil {
		s.log.Warn().Err(err).Int("count", len(ids)).Msg("failed to cancel jobs")
		s.rollback(patches, "cancel_multiple")
		s.change(func() {
			if len(s.selected) == 0 {
				s.selected = prevSelection
			}
		})
		return err
	}
	return nil
}

// UpdateJob upserts j by id. New jobs are prepended. A versioned update
// older than the stored job is discarded, and a processing job's progress
// never decreases.
func (s *JobStore) UpdateJob(j models.PrintJob) {
	s.change(func() { s.upsertLocked(j) })
}

// AddPlaceholder prepends a pending job for a file being uploaded and
// returns its local id.
func (s *JobStore) AddPlaceholder(p Placeholder) string {
	id := placeholderPrefix + uuid.NewString()
	job := models.PrintJob{
		ID:          id,
		FileName:    p.FileName,
		FileSize:    p.FileSize,
		FileType:    p.FileType,
		Status:      models.JobPending,
		PrinterID:   p.PrinterID,
		PrinterName: p.PrinterName,
		Options:     p.Options.Clone(),
		CreatedAt:   time.Now(),
	}
	s.change(func() {
		s.jobs = append([]models.PrintJob{job}, s.jobs...)
		s.placeholders[id] = struct{}{}
		s.touchLocked(id)
	})
	return id
}

// ConfirmPlaceholder replaces a placeholder with the server's job record.
// If a push event already delivered the job, the placeholder is dropped and
// the newer of the two records kept.
func (s *JobStore) ConfirmPlaceholder(placeholderID string, job models.PrintJob) {
	s.change(func() {
		delete(s.placeholders, placeholderID)
		delete(s.revs, placeholderID)
		pi := s.indexLocked(placeholderID)

		if s.indexLocked(job.ID) >= 0 || pi < 0 {
			if pi >= 0 {
				s.jobs = append(s.jobs[:pi], s.jobs[pi+1:]...)
			}
			s.upsertLocked(job)
			return
		}

		s.jobs[pi] = normalizeJob(nil, job)
		s.touchLocked(job.ID)
	})
}

// DropPlaceholder removes a placeholder whose upload failed.
func (s *JobStore) DropPlaceholder(placeholderID string) {
	s.change(func() {
		delete(s.placeholders, placeholderID)
		delete(s.revs, placeholderID)
		if i := s.indexLocked(placeholderID); i >= 0 {
			s.jobs = append(s.jobs[:i], s.jobs[i+1:]...)
		}
	})
}

// Select adds id to the selection.
func (s *JobStore) Select(id string) {
	s.change(func() {
		if !slices.Contains(s.selected, id) {
			s.selected = append(s.selected, id)
		}
	})
}

// Deselect removes id from the selection.
func (s *JobStore) Deselect(id string) {
	s.change(func() {
		s.selected = slices.DeleteFunc(s.selected, func(v string) bool { return v == id })
	})
}

// SelectAll selects every job.
func (s *JobStore) SelectAll() {
	s.change(func() {
		s.selected = make([]string, 0, len(s.jobs))
		for i := range s.jobs {
			s.selected = append(s.selected, s.jobs[i].ID)
		}
	})
}

// ClearSelection empties the selection.
func (s *JobStore) ClearSelection() {
	s.change(func() { s.selected = nil })
}

// Selected returns the selected job ids.
func (s *JobStore) Selected() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.selected)
}

// SetFilters replaces the job filters.
func (s *JobStore) SetFilters(f JobFilters) {
	s.change(func() { s.filters = f })
}

// Filtered returns the jobs matching the current filters.
func (s *JobStore) Filtered() []models.PrintJob {
	return s.Snapshot().Filtered()
}

type jobPatch struct {
	prev models.PrintJob
	rev  uint64
}

// patch applies fn to each listed job that exists and returns what is
// needed to undo it.
func (s *JobStore) patch(ids []string, fn func(*models.PrintJob)) map[string]jobPatch {
	patches := make(map[string]jobPatch, len(ids))
	s.change(func() {
		for _, id := range ids {
			i := s.indexLocked(id)
			if i < 0 {
				continue
			}
			prev := s.jobs[i].Clone()
			fn(&s.jobs[i])
			patches[id] = jobPatch{prev: prev, rev: s.touchLocked(id)}
		}
	})
	return patches
}

// rollback restores patched jobs that nothing has written since. An empty
// action restores without counting a rollback.
func (s *JobStore) rollback(patches map[string]jobPatch, action string) {
	if len(patches) == 0 {
		return
	}
	s.change(func() {
		for id, p := range patches {
			if s.revs[id] != p.rev {
				continue
			}
			if i := s.indexLocked(id); i >= 0 {
				s.jobs[i] = p.prev
				s.touchLocked(id)
				if action != "" {
					metrics.StoreRollbacks.WithLabelValues("jobs", action).Inc()
				}
			}
		}
	})
}

func (s *JobStore) upsertLocked(j models.PrintJob) {
	i := s.indexLocked(j.ID)
	if i < 0 {
		s.jobs = append([]models.PrintJob{normalizeJob(nil, j)}, s.jobs...)
		s.touchLocked(j.ID)
		return
	}
	if isStale(s.jobs[i].Version, j.Version) {
		metrics.StoreStaleDiscards.WithLabelValues("jobs").Inc()
		s.log.Debug().
			Str("job_id", j.ID).
			Uint64("stored_version", s.jobs[i].Version).
			Uint64("incoming_version", j.Version).
			Msg("discarding stale job update")
		return
	}
	s.jobs[i] = normalizeJob(&s.jobs[i], j)
	s.touchLocked(j.ID)
}

// replaceLocked installs list as the queue, keeping placeholders on top and
// stored jobs that are newer than their incoming counterpart.
func (s *JobStore) replaceLocked(list []models.PrintJob) {
	next := make([]models.PrintJob, 0, len(list)+len(s.placeholders))
	revs := make(map[string]uint64, len(list)+len(s.placeholders))

	for i := range s.jobs {
		if _, ok := s.placeholders[s.jobs[i].ID]; ok {
			next = append(next, s.jobs[i])
			revs[s.jobs[i].ID] = s.revs[s.jobs[i].ID]
		}
	}

	for _, j := range list {
		if _, dup := revs[j.ID]; dup {
			continue
		}
		var stored *models.PrintJob
		if i := s.indexLocked(j.ID); i >= 0 {
			stored = &s.jobs[i]
			if isStale(stored.Version, j.Version) {
				metrics.StoreStaleDiscards.WithLabelValues("jobs").Inc()
				next = append(next, *stored)
				revs[j.ID] = s.revs[j.ID]
				continue
			}
		}
		next = append(next, normalizeJob(stored, j))
		s.seq++
		revs[j.ID] = s.seq
	}

	s.jobs = next
	s.revs = revs
}

func (s *JobStore) indexLocked(id string) int {
	for i := range s.jobs {
		if s.jobs[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *JobStore) touchLocked(id string) uint64 {
	s.seq++
	s.revs[id] = s.seq
	return s.seq
}

// change runs fn under the lock and publishes the resulting snapshot.
func (s *JobStore) change(fn func()) {
	s.mu.Lock()
	fn()
	drain := s.subs.enqueue(s.snapshotLocked())
	s.mu.Unlock()
	if drain {
		s.subs.drain(&s.log)
	}
}

// normalizeJob clamps progress to 0..100 and, while both records are
// processing, keeps progress from moving backwards.
func normalizeJob(stored *models.PrintJob, in models.PrintJob) models.PrintJob {
	out := in.Clone()
	out.Progress = min(max(out.Progress, 0), 100)
	if stored != nil &&
		stored.Status == models.JobProcessing &&
		out.Status == models.JobProcessing &&
		out.Progress < stored.Progress {
		out.Progress = stored.Progress
	}
	return out
}
