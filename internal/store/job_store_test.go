// Printdeck - Print Management Sync Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/printdeck

package store

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/printdeck/internal/metrics"
	"github.com/tomtom215/printdeck/internal/models"
	"github.com/tomtom215/printdeck/internal/testinfra"
)

func job(id string, status models.JobStatus, progress int) models.PrintJob {
	return models.PrintJob{ID: id, FileName: id + ".pdf", Status: status, Progress: progress}
}

func jobIDs(jobs []models.PrintJob) string {
	ids := make([]string, len(jobs))
	for i, j := range jobs {
		ids[i] = j.ID
	}
	return strings.Join(ids, ",")
}

func TestJobStore_UpdateJobPrepends(t *testing.T) {
	t.Parallel()

	s := NewJobStore(&testinfra.StubAPI{})
	s.UpdateJob(job("j1", models.JobPending, 0))
	s.UpdateJob(job("j2", models.JobPending, 0))
	s.UpdateJob(job("j1", models.JobProcessing, 10))

	snap := s.Snapshot()
	if got := jobIDs(snap.Jobs); got != "j2,j1" {
		t.Errorf("order = %s, want j2,j1", got)
	}
	if snap.Jobs[1].Status != models.JobProcessing {
		t.Errorf("j1 status = %s", snap.Jobs[1].Status)
	}
}

func TestJobStore_ProgressMonotonicWhileProcessing(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		stored models.PrintJob
		in     models.PrintJob
		want   int
	}{
		{"increase", job("j", models.JobProcessing, 40), job("j", models.JobProcessing, 60), 60},
		{"decrease clamped", job("j", models.JobProcessing, 60), job("j", models.JobProcessing, 30), 60},
		{"status change resets", job("j", models.JobProcessing, 60), job("j", models.JobPending, 0), 0},
		{"over 100", job("j", models.JobProcessing, 90), job("j", models.JobProcessing, 250), 100},
		{"negative", job("j", models.JobPending, 0), job("j", models.JobPending, -5), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewJobStore(&testinfra.StubAPI{})
			s.UpdateJob(tt.stored)
			s.UpdateJob(tt.in)
			got, _ := s.Get("j")
			if got.Progress != tt.want {
				t.Errorf("progress = %d, want %d", got.Progress, tt.want)
			}
		})
	}
}

func TestJobStore_StaleVersionDiscarded(t *testing.T) {
	t.Parallel()

	s := NewJobStore(&testinfra.StubAPI{})
	a := job("j1", models.JobCompleted, 100)
	a.Version = 7
	s.UpdateJob(a)

	b := job("j1", models.JobProcessing, 50)
	b.Version = 6
	s.UpdateJob(b)

	got, _ := s.Get("j1")
	if got.Status != models.JobCompleted {
		t.Errorf("stale update applied: %+v", got)
	}
}

func TestJobStore_FetchJobs(t *testing.T) {
	t.Parallel()

	fail := false
	api := &testinfra.StubAPI{
		ListJobsFunc: func(context.Context) ([]models.PrintJob, error) {
			if fail {
				return nil, errors.New("503")
			}
			return []models.PrintJob{job("j2", models.JobPending, 0), job("j1", models.JobCompleted, 100)}, nil
		},
	}
	s := NewJobStore(api)

	if err := s.FetchJobs(context.Background()); err != nil {
		t.Fatalf("FetchJobs: %v", err)
	}
	if got := jobIDs(s.Snapshot().Jobs); got != "j2,j1" {
		t.Errorf("jobs = %s", got)
	}

	fail = true
	_ = s.FetchJobs(context.Background())
	snap := s.Snapshot()
	if got := jobIDs(snap.Jobs); got != "j2,j1" {
		t.Errorf("jobs after failure = %s, want preserved", got)
	}
	if snap.Error == "" {
		t.Error("Error not set after failed fetch")
	}
}

func TestJobStore_CancelJobRollback(t *testing.T) {
	before := testutil.ToFloat64(metrics.StoreRollbacks.WithLabelValues("jobs", "cancel"))

	api := &testinfra.StubAPI{
		CancelJobFunc: func(context.Context, string) error { return errors.New("job already printing") },
	}
	s := NewJobStore(api)
	s.UpdateJob(job("j1", models.JobProcessing, 30))

	if err := s.CancelJob(context.Background(), "j1"); err == nil {
		t.Fatal("expected error")
	}
	got, _ := s.Get("j1")
	if got.Status != models.JobProcessing || got.Progress != 30 {
		t.Errorf("job after failed cancel = %+v, want restored", got)
	}
	if d := testutil.ToFloat64(metrics.StoreRollbacks.WithLabelValues("jobs", "cancel")) - before; d != 1 {
		t.Errorf("rollback metric delta = %v, want 1", d)
	}
}

func TestJobStore_CancelJobSuccess(t *testing.T) {
	t.Parallel()

	s := NewJobStore(&testinfra.StubAPI{})
	s.UpdateJob(job("j1", models.JobPending, 0))

	if err := s.CancelJob(context.Background(), "j1"); err != nil {
		t.Fatalf("CancelJob: %v", err)
	}
	got, _ := s.Get("j1")
	if got.Status != models.JobCancelled {
		t.Errorf("status = %s, want cancelled", got.Status)
	}
}

func TestJobStore_RollbackSkipsNewerPush(t *testing.T) {
	t.Parallel()

	var s *JobStore
	api := &testinfra.StubAPI{
		CancelJobFunc: func(_ context.Context, id string) error {
			s.UpdateJob(job(id, models.JobCompleted, 100))
			return errors.New("too late")
		},
	}
	s = NewJobStore(api)
	s.UpdateJob(job("j1", models.JobProcessing, 90))

	_ = s.CancelJob(context.Background(), "j1")

	got, _ := s.Get("j1")
	if got.Status != models.JobCompleted {
		t.Errorf("status = %s, want pushed completed to survive rollback", got.Status)
	}
}

func TestJobStore_RetryJob(t *testing.T) {
	t.Parallel()

	t.Run("same id", func(t *testing.T) {
		s := NewJobStore(&testinfra.StubAPI{})
		failed := job("j1", models.JobFailed, 40)
		failed.ErrorMessage = "paper jam"
		s.UpdateJob(failed)

		if _, err := s.RetryJob(context.Background(), "j1"); err != nil {
			t.Fatalf("RetryJob: %v", err)
		}
		got, _ := s.Get("j1")
		if got.Status != models.JobPending || got.Progress != 0 || got.ErrorMessage != "" {
			t.Errorf("job after retry = %+v", got)
		}
	})

	t.Run("new id", func(t *testing.T) {
		api := &testinfra.StubAPI{
			RetryJobFunc: func(context.Context, string) (*models.PrintJob, error) {
				j := job("j9", models.JobPending, 0)
				return &j, nil
			},
		}
		s := NewJobStore(api)
		s.UpdateJob(job("j1", models.JobFailed, 40))

		if _, err := s.RetryJob(context.Background(), "j1"); err != nil {
			t.Fatalf("RetryJob: %v", err)
		}
		old, _ := s.Get("j1")
		if old.Status != models.JobFailed {
			t.Errorf("original job = %s, want restored to failed", old.Status)
		}
		if _, ok := s.Get("j9"); !ok {
			t.Error("new job not added")
		}
	})

	t.Run("failure", func(t *testing.T) {
		api := &testinfra.StubAPI{
			RetryJobFunc: func(context.Context, string) (*models.PrintJob, error) {
				return nil, errors.New("printer offline")
			},
		}
		s := NewJobStore(api)
		s.UpdateJob(job("j1", models.JobFailed, 40))

		if _, err := s.RetryJob(context.Background(), "j1"); err == nil {
			t.Fatal("expected error")
		}
		got, _ := s.Get("j1")
		if got.Status != models.JobFailed || got.Progress != 40 {
			t.Errorf("job = %+v, want rolled back", got)
		}
	})
}

func TestJobStore_CancelJobs(t *testing.T) {
	t.Parallel()

	var sent []string
	fail := false
	api := &testinfra.StubAPI{
		CancelJobsFunc: func(_ context.Context, ids []string) error {
			sent = ids
			if fail {
				return errors.New("rejected")
			}
			return nil
		},
	}
	s := NewJobStore(api)
	s.UpdateJob(job("j1", models.JobPending, 0))
	s.UpdateJob(job("j2", models.JobPending, 0))
	s.UpdateJob(job("j3", models.JobPending, 0))
	s.Select("j1")
	s.Select("j2")

	if err := s.CancelJobs(context.Background(), s.Selected()); err != nil {
		t.Fatalf("CancelJobs: %v", err)
	}
	if strings.Join(sent, ",") != "j1,j2" {
		t.Errorf("sent ids = %v", sent)
	}
	for _, id := range []string{"j1", "j2"} {
		if j, _ := s.Get(id); j.Status != models.JobCancelled {
			t.Errorf("%s status = %s", id, j.Status)
		}
	}
	if j, _ := s.Get("j3"); j.Status != models.JobPending {
		t.Errorf("j3 should be untouched, got %s", j.Status)
	}
	if len(s.Selected()) != 0 {
		t.Error("selection should be cleared")
	}

	fail = true
	s.Select("j3")
	if err := s.CancelJobs(context.Background(), []string{"j3"}); err == nil {
		t.Fatal("expected error")
	}
	if j, _ := s.Get("j3"); j.Status != models.JobPending {
		t.Errorf("j3 = %s, want rolled back", j.Status)
	}
	if sel := s.Selected(); len(sel) != 1 || sel[0] != "j3" {
		t.Errorf("selection = %v, want restored", sel)
	}
}

func TestJobStore_Placeholders(t *testing.T) {
	t.Parallel()

	api := &testinfra.StubAPI{
		ListJobsFunc: func(context.Context) ([]models.PrintJob, error) {
			return []models.PrintJob{job("j1", models.JobCompleted, 100)}, nil
		},
	}
	s := NewJobStore(api)

	a := s.AddPlaceholder(Placeholder{FileName: "a.pdf", PrinterID: "p1"})
	b := s.AddPlaceholder(Placeholder{FileName: "b.pdf", PrinterID: "p1"})
	if !strings.HasPrefix(a, placeholderPrefix) || a == b {
		t.Fatalf("placeholder ids %q %q", a, b)
	}

	// A refresh mid-batch keeps in-flight placeholders.
	_ = s.FetchJobs(context.Background())
	if got := jobIDs(s.Snapshot().Jobs); got != b+","+a+",j1" {
		t.Errorf("jobs = %s", got)
	}

	created := job("j7", models.JobPending, 0)
	s.ConfirmPlaceholder(a, created)
	s.DropPlaceholder(b)

	if got := jobIDs(s.Snapshot().Jobs); got != "j7,j1" {
		t.Errorf("jobs after confirm/drop = %s, want j7,j1", got)
	}
}

func TestJobStore_ConfirmAfterPushDoesNotDuplicate(t *testing.T) {
	t.Parallel()

	s := NewJobStore(&testinfra.StubAPI{})
	ph := s.AddPlaceholder(Placeholder{FileName: "a.pdf"})

	pushed := job("j5", models.JobProcessing, 20)
	pushed.Version = 2
	s.UpdateJob(pushed)

	created := job("j5", models.JobPending, 0)
	created.Version = 1
	s.ConfirmPlaceholder(ph, created)

	snap := s.Snapshot()
	if got := jobIDs(snap.Jobs); got != "j5" {
		t.Fatalf("jobs = %s, want j5 once", got)
	}
	if snap.Jobs[0].Status != models.JobProcessing {
		t.Errorf("status = %s, want newer pushed record", snap.Jobs[0].Status)
	}
}

func TestJobStore_Selection(t *testing.T) {
	t.Parallel()

	s := NewJobStore(&testinfra.StubAPI{})
	s.UpdateJob(job("j1", models.JobPending, 0))
	s.UpdateJob(job("j2", models.JobPending, 0))

	s.Select("j1")
	s.Select("j1")
	if got := s.Selected(); len(got) != 1 {
		t.Errorf("duplicate select: %v", got)
	}

	s.SelectAll()
	if got := s.Selected(); len(got) != 2 {
		t.Errorf("SelectAll = %v", got)
	}

	s.Deselect("j2")
	if got := s.Selected(); len(got) != 1 || got[0] != "j1" {
		t.Errorf("after Deselect = %v", got)
	}

	s.ClearSelection()
	if got := s.Selected(); len(got) != 0 {
		t.Errorf("after ClearSelection = %v", got)
	}
}

func TestJobStore_FilteredUsesStoredFilters(t *testing.T) {
	t.Parallel()

	s := NewJobStore(&testinfra.StubAPI{})
	s.UpdateJob(job("j1", models.JobFailed, 0))
	s.UpdateJob(job("j2", models.JobCompleted, 100))
	s.SetFilters(JobFilters{Statuses: []models.JobStatus{models.JobFailed}})

	got := s.Filtered()
	if len(got) != 1 || got[0].ID != "j1" {
		t.Errorf("Filtered = %s", jobIDs(got))
	}
	if len(s.Snapshot().Jobs) != 2 {
		t.Error("filtering must not change the stored jobs")
	}
}

func TestJobStore_ListenersSeeUpdatesInOrder(t *testing.T) {
	t.Parallel()

	s := NewJobStore(&testinfra.StubAPI{})
	s.UpdateJob(job("j1", models.JobPending, 0))

	held := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	var mu sync.Mutex
	var seen []models.JobStatus
	s.Subscribe(func(st JobState) {
		status := st.Jobs[0].Status
		mu.Lock()
		seen = append(seen, status)
		mu.Unlock()
		if status == models.JobProcessing {
			once.Do(func() { close(held) })
			<-release
		}
	})

	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		s.UpdateJob(job("j1", models.JobProcessing, 50))
	}()
	<-held

	secondDone := make(chan struct{})
	go func() {
		defer close(secondDone)
		s.UpdateJob(job("j1", models.JobCompleted, 100))
	}()
	select {
	case <-secondDone:
	case <-time.After(2 * time.Second):
		t.Fatal("second writer blocked behind a slow listener")
	}
	if got := s.Snapshot().Jobs[0].Status; got != models.JobCompleted {
		t.Fatalf("store status = %s, want completed", got)
	}

	close(release)
	<-firstDone

	mu.Lock()
	defer mu.Unlock()
	want := []models.JobStatus{models.JobProcessing, models.JobCompleted}
	if len(seen) != len(want) {
		t.Fatalf("deliveries = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("delivery %d = %s, want %s", i, seen[i], want[i])
		}
	}
}

func TestJobStore_ListenerMayWriteBack(t *testing.T) {
	t.Parallel()

	s := NewJobStore(&testinfra.StubAPI{})
	var calls int
	s.Subscribe(func(st JobState) {
		calls++
		if len(st.Jobs) == 1 {
			s.UpdateJob(job("j2", models.JobPending, 0))
		}
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.UpdateJob(job("j1", models.JobPending, 0))
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("listener writing to its own store deadlocked")
	}
	if calls != 2 {
		t.Errorf("listener calls = %d, want 2", calls)
	}
	if got := jobIDs(s.Snapshot().Jobs); got != "j2,j1" {
		t.Errorf("jobs = %s, want j2,j1", got)
	}
}
