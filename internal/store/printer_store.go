// Printdeck - Print Management Sync Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/printdeck

package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tomtom215/printdeck/internal/backend"
	"github.com/tomtom215/printdeck/internal/logging"
	"github.com/tomtom215/printdeck/internal/metrics"
	"github.com/tomtom215/printdeck/internal/models"
)

// PrinterState is a read-only snapshot of the printer store.
type PrinterState struct {
	Printers    []models.Printer `json:"printers"`
	SelectedID  string           `json:"selectedId,omitempty"`
	Filters     PrinterFilters   `json:"filters"`
	Loading     bool             `json:"loading"`
	Discovering bool             `json:"discovering"`
	Error       string           `json:"error,omitempty"`
}

// Selected returns the selected printer, or nil.
func (s PrinterState) Selected() *models.Printer {
	for i := range s.Printers {
		if s.Printers[i].ID == s.SelectedID {
			return &s.Printers[i]
		}
	}
	return nil
}

// Filtered applies the state's filters to its printers.
func (s PrinterState) Filtered() []models.Printer {
	return FilterPrinters(s.Printers, s.Filters)
}

// PrinterStore is the local replica of the printer fleet.
type PrinterStore struct {
	api backend.API
	log zerolog.Logger

	mu          sync.Mutex
	printers    []models.Printer
	revs        map[string]uint64
	seq         uint64
	selectedID  string
	filters     PrinterFilters
	loading     int
	discovering bool
	err         string

	subs observers[PrinterState]
}

// NewPrinterStore creates an empty printer store backed by api.
func NewPrinterStore(api backend.API) *PrinterStore {
	return &PrinterStore{
		api:  api,
		log:  logging.Component("printer_store"),
		revs: make(map[string]uint64),
	}
}

// Subscribe registers fn to receive a snapshot after every change.
func (s *PrinterStore) Subscribe(fn func(PrinterState)) Unsubscribe {
	return s.subs.add(fn)
}

// Snapshot returns a deep copy of the current state.
func (s *PrinterStore) Snapshot() PrinterState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *PrinterStore) snapshotLocked() PrinterState {
	out := make([]models.Printer, len(s.printers))
	for i := range s.printers {
		out[i] = s.printers[i].Clone()
	}
	return PrinterState{
		Printers:    out,
		SelectedID:  s.selectedID,
		Filters:     s.filters,
		Loading:     s.loading > 0,
		Discovering: s.discovering,
		Error:       s.err,
	}
}

// Get returns a copy of the printer with id.
func (s *PrinterStore) Get(id string) (models.Printer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.printers[i].Clone(), true
	}
	return models.Printer{}, false
}

// FetchPrinters replaces the fleet with the backend's list.
func (s *PrinterStore) FetchPrinters(ctx context.Context) error {
	s.change(func() {
		s.loading++
		s.err = ""
	})

	list, err := s.api.ListPrinters(ctx)
	if ctx.Err() != nil {
		s.change(func() { s.loading-- })
		return ctx.Err()
	}
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to load printers")
		s.change(func() {
			s.loading--
			s.err = fmt.Sprintf("failed to load printers: %v", err)
		})
		return err
	}

	s.change(func() {
		s.loading--
		s.replaceLocked(list)
	})
	return nil
}

// FetchPrinter refreshes one printer from the backend and upserts it.
func (s *PrinterStore) FetchPrinter(ctx context.Context, id string) (*models.Printer, error) {
	p, err := s.api.GetPrinter(ctx, id)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	s.UpdatePrinter(*p)
	return p, nil
}

// DiscoverPrinters asks the backend to scan for printers and installs the
// result as the fleet.
func (s *PrinterStore) DiscoverPrinters(ctx context.Context) ([]models.Printer, error) {
	s.change(func() {
		s.discovering = true
		s.err = ""
	})

	list, err := s.api.DiscoverPrinters(ctx)
	if ctx.Err() != nil {
		s.change(func() { s.discovering = false })
		return nil, ctx.Err()
	}
	if err != nil {
		s.log.Warn().Err(err).Msg("printer discovery failed")
		s.change(func() {
			s.discovering = false
			s.err = fmt.Sprintf("failed to discover printers: %v", err)
		})
		return nil, err
	}

	s.change(func() {
		s.discovering = false
		s.replaceLocked(list)
	})
	return list, nil
}

// AddPrinter registers a printer by URI and upserts the server's record.
func (s *PrinterStore) AddPrinter(ctx context.Context, uri, name string) (*models.Printer, error) {
	p, err := s.api.AddPrinter(ctx, models.AddPrinterRequest{URI: uri, Name: name})
	if err != nil {
		return nil, err
	}
	s.UpdatePrinter(*p)
	return p, nil
}

// RemovePrinter deletes a printer on the server, then locally.
func (s *PrinterStore) RemovePrinter(ctx context.Context, id string) error {
	if err := s.api.RemovePrinter(ctx, id); err != nil {
		s.log.Warn().Err(err).Str("printer_id", id).Msg("failed to remove printer")
		return err
	}
	s.change(func() {
		if i := s.indexLocked(id); i >= 0 {
			s.printers = append(s.printers[:i], s.printers[i+1:]...)
		}
		delete(s.revs, id)
		if s.selectedID == id {
			s.selectedID = ""
		}
	})
	return nil
}

// PausePrinter marks the printer offline, then asks the backend to pause it.
// The local change is rolled back if the call fails.
func (s *PrinterStore) PausePrinter(ctx context.Context, id string) error {
	return s.mutate(ctx, id, "pause", models.PrinterOffline, s.api.PausePrinter)
}

// ResumePrinter marks the printer online, then asks the backend to resume it.
// The local change is rolled back if the call fails.
func (s *PrinterStore) ResumePrinter(ctx context.Context, id string) error {
	return s.mutate(ctx, id, "resume", models.PrinterOnline, s.api.ResumePrinter)
}

func (s *PrinterStore) mutate(ctx context.Context, id, action string, status models.PrinterStatus,
	call func(context.Context, string) error) error {
	var (
		prev    models.Printer
		patched bool
		rev     uint64
	)
	s.change(func() {
		i := s.indexLocked(id)
		if i < 0 {
			return
		}
		prev = s.printers[i].Clone()
		s.printers[i].Status = status
		rev = s.touchLocked(id)
		patched = true
	})

	err := call(ctx, id)
	if err == nil {
		return nil
	}

	s.log.Warn().Err(err).Str("printer_id", id).Str("action", action).Msg("printer action failed")
	if patched {
		s.change(func() {
			if s.revs[id] != rev {
				return
			}
			if i := s.indexLocked(id); i >= 0 {
				s.printers[i] = prev
				s.touchLocked(id)
				metrics.StoreRollbacks.WithLabelValues("printers", action).Inc()
			}
		})
	}
	return err
}

// UpdatePrinter upserts p by id. New printers are appended. A versioned
// update older than the stored printer is discarded.
func (s *PrinterStore) UpdatePrinter(p models.Printer) {
	s.change(func() { s.upsertLocked(p) })
}

// SelectPrinter sets the selected printer id; "" clears the selection.
func (s *PrinterStore) SelectPrinter(id string) {
	s.change(func() { s.selectedID = id })
}

// Selected returns the selected printer.
func (s *PrinterStore) Selected() (models.Printer, bool) {
	s.mu.Lock()
	id := s.selectedID
	s.mu.Unlock()
	if id == "" {
		return models.Printer{}, false
	}
	return s.Get(id)
}

// SelectFirstOnline selects the first online printer when nothing is
// selected yet and returns the selected id.
func (s *PrinterStore) SelectFirstOnline() (string, bool) {
	var id string
	s.change(func() {
		if s.selectedID == "" {
			for i := range s.printers {
				if s.printers[i].IsOnline() {
					s.selectedID = s.printers[i].ID
					break
				}
			}
		}
		id = s.selectedID
	})
	return id, id != ""
}

// SetFilters replaces the printer filters.
func (s *PrinterStore) SetFilters(f PrinterFilters) {
	s.change(func() { s.filters = f })
}

// Filtered returns the printers matching the current filters.
func (s *PrinterStore) Filtered() []models.Printer {
	return s.Snapshot().Filtered()
}

func (s *PrinterStore) upsertLocked(p models.Printer) {
	i := s.indexLocked(p.ID)
	if i < 0 {
		s.printers = append(s.printers, p.Clone())
		s.touchLocked(p.ID)
		return
	}
	if isStale(s.printers[i].Version, p.Version) {
		metrics.StoreStaleDiscards.WithLabelValues("printers").Inc()
		s.log.Debug().
			Str("printer_id", p.ID).
			Uint64("stored_version", s.printers[i].Version).
			Uint64("incoming_version", p.Version).
			Msg("discarding stale printer update")
		return
	}
	s.printers[i] = p.Clone()
	s.touchLocked(p.ID)
}

// replaceLocked installs list as the fleet. Stored printers with a newer
// version than their incoming counterpart survive the replace.
func (s *PrinterStore) replaceLocked(list []models.Printer) {
	next := make([]models.Printer, 0, len(list))
	revs := make(map[string]uint64, len(list))
	for _, p := range list {
		if i := s.indexLocked(p.ID); i >= 0 && isStale(s.printers[i].Version, p.Version) {
			metrics.StoreStaleDiscards.WithLabelValues("printers").Inc()
			next = append(next, s.printers[i])
			revs[p.ID] = s.revs[p.ID]
			continue
		}
		next = append(next, p.Clone())
		s.seq++
		revs[p.ID] = s.seq
	}
	s.printers = next
	s.revs = revs
}

func (s *PrinterStore) indexLocked(id string) int {
	for i := range s.printers {
		if s.printers[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *PrinterStore) touchLocked(id string) uint64 {
	s.seq++
	s.revs[id] = s.seq
	return s.seq
}

// change runs fn under the lock and publishes the resulting snapshot.
func (s *PrinterStore) change(fn func()) {
	s.mu.Lock()
	fn()
	drain := s.subs.enqueue(s.snapshotLocked())
	s.mu.Unlock()
	if drain {
		s.subs.drain(&s.log)
	}
}

// isStale reports whether an incoming version is older than the stored one.
// Version 0 is unversioned and never stale.
func isStale(stored, incoming uint64) bool {
	return incoming > 0 && incoming < stored
}
