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
	"github.com/tomtom215/printdeck/internal/models"
)

// DefaultNotificationCapacity is the notification ring size when none is
// configured.
const DefaultNotificationCapacity = 50

// SystemState is a read-only snapshot of the system store.
type SystemState struct {
	Metrics       *models.SystemMetrics  `json:"metrics,omitempty"`
	Status        *models.SystemStatus   `json:"status,omitempty"`
	Stats         *models.DashboardStats `json:"stats,omitempty"`
	Logs          []models.LogEntry      `json:"logs,omitempty"`
	Notifications []models.Notification  `json:"notifications"`
	Connection    models.ConnectionState `json:"connection"`
	Loading       bool                   `json:"loading"`
	Error         string                 `json:"error,omitempty"`
}

// UnreadCount returns the number of unread notifications.
func (s SystemState) UnreadCount() int {
	n := 0
	for i := range s.Notifications {
		if !s.Notifications[i].Read {
			n++
		}
	}
	return n
}

// SystemStore holds server health, dashboard figures, the push channel state
// and the notification ring.
type SystemStore struct {
	api      backend.API
	log      zerolog.Logger
	capacity int

	mu            sync.Mutex
	metrics       *models.SystemMetrics
	status        *models.SystemStatus
	stats         *models.DashboardStats
	logs          []models.LogEntry
	notifications []models.Notification
	connection    models.ConnectionState
	loading       int
	err           string

	subs observers[SystemState]
}

// NewSystemStore creates an empty system store. capacity bounds the
// notification ring; values below 1 use DefaultNotificationCapacity.
func NewSystemStore(api backend.API, capacity int) *SystemStore {
	if capacity < 1 {
		capacity = DefaultNotificationCapacity
	}
	return &SystemStore{
		api:        api,
		log:        logging.Component("system_store"),
		capacity:   capacity,
		connection: models.ConnDisconnected,
	}
}

// Subscribe registers fn to receive a snapshot after every change.
func (s *SystemStore) Subscribe(fn func(SystemState)) Unsubscribe {
	return s.subs.add(fn)
}

// Snapshot returns a deep copy of the current state.
func (s *SystemStore) Snapshot() SystemState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *SystemStore) snapshotLocked() SystemState {
	return SystemState{
		Metrics:       clonePtr(s.metrics),
		Status:        clonePtr(s.status),
		Stats:         clonePtr(s.stats),
		Logs:          slices.Clone(s.logs),
		Notifications: slices.Clone(s.notifications),
		Connection:    s.connection,
		Loading:       s.loading > 0,
		Error:         s.err,
	}
}

// FetchMetrics refreshes the metrics snapshot. A failure is logged and the
// previous snapshot kept.
func (s *SystemStore) FetchMetrics(ctx context.Context) error {
	m, err := s.api.SystemMetrics(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to fetch system metrics")
		return err
	}
	s.UpdateMetrics(*m)
	return nil
}

// FetchStatus refreshes the server status. A failure installs an offline
// status so the server is shown as unreachable.
func (s *SystemStore) FetchStatus(ctx context.Context) error {
	st, err := s.api.SystemStatus(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to fetch system status")
		offline := models.OfflineStatus()
		s.change(func() { s.status = &offline })
		return err
	}
	s.change(func() { s.status = st })
	return nil
}

// FetchStats refreshes the dashboard figures. A failure sets Error and keeps
// the previous figures.
func (s *SystemStore) FetchStats(ctx context.Context) error {
	s.change(func() {
		s.loading++
		s.err = ""
	})

	st, err := s.api.DashboardStats(ctx)
	if ctx.Err() != nil {
		s.change(func() { s.loading-- })
		return ctx.Err()
	}
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to load dashboard stats")
		s.change(func() {
			s.loading--
			s.err = fmt.Sprintf("failed to load statistics: %v", err)
		})
		return err
	}
	s.change(func() {
		s.loading--
		s.stats = st
	})
	return nil
}

// FetchLogs loads the most recent server log lines.
func (s *SystemStore) FetchLogs(ctx context.Context, limit int) error {
	logs, err := s.api.SystemLogs(ctx, limit)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to fetch system logs")
		return err
	}
	s.change(func() { s.logs = logs })
	return nil
}

// UpdateMetrics replaces the metrics snapshot.
func (s *SystemStore) UpdateMetrics(m models.SystemMetrics) {
	s.change(func() { s.metrics = &m })
}

// SetConnectionState records the push channel state.
func (s *SystemStore) SetConnectionState(state models.ConnectionState) {
	s.change(func() { s.connection = state })
}

// ConnectionState returns the last recorded push channel state.
func (s *SystemStore) ConnectionState() models.ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connection
}

// AddNotification prepends a notification stamped now, evicting the oldest
// beyond the ring capacity, and returns it.
func (s *SystemStore) AddNotification(typ models.NotificationType, title, message string) models.Notification {
	return s.PushNotification(models.Notification{Type: typ, Title: title, Message: message})
}

// PushNotification stores n under a fresh local id. Its Timestamp and Read
// flag are kept; a zero Timestamp becomes now.
func (s *SystemStore) PushNotification(n models.Notification) models.Notification {
	n.ID = newNotificationID()
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}
	s.change(func() {
		s.notifications = append([]models.Notification{n}, s.notifications...)
		if len(s.notifications) > s.capacity {
			s.notifications = s.notifications[:s.capacity]
		}
	})
	return n
}

// MarkNotificationRead flags one notification as read.
func (s *SystemStore) MarkNotificationRead(id string) {
	s.change(func() {
		for i := range s.notifications {
			if s.notifications[i].ID == id {
				s.notifications[i].Read = true
				return
			}
		}
	})
}

// ClearNotifications empties the ring.
func (s *SystemStore) ClearNotifications() {
	s.change(func() { s.notifications = nil })
}

// UnreadCount returns the number of unread notifications.
func (s *SystemStore) UnreadCount() int {
	return s.Snapshot().UnreadCount()
}

func (s *SystemStore) change(fn func()) {
	s.mu.Lock()
	fn()
	drain := s.subs.enqueue(s.snapshotLocked())
	s.mu.Unlock()
	if drain {
		s.subs.drain(&s.log)
	}
}

// newNotificationID returns a time-ordered id. UUIDv7 only fails when the
// random source does; fall back to v4 then.
func newNotificationID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
