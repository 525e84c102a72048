// Printdeck - Print Management Sync Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/printdeck

package store

import (
	"sync"

	"github.com/rs/zerolog"
)

// Unsubscribe removes a listener. Calling it more than once is a no-op.
type Unsubscribe func()

type listener[T any] struct {
	id uint64
	fn func(T)
}

// observers is a listener registry delivering snapshots of type T.
//
// Snapshots are queued in the order the store produced them and delivered
// by one goroutine at a time, so a listener never sees an older snapshot
// after a newer one. A writer that finds delivery already running only
// queues its snapshot; the running drain delivers it.
type observers[T any] struct {
	mu       sync.Mutex
	nextID   uint64
	list     []listener[T]
	pending  []T
	draining bool
}

func (o *observers[T]) add(fn func(T)) Unsubscribe {
	o.mu.Lock()
	o.nextID++
	id := o.nextID
	o.list = append(o.list, listener[T]{id: id, fn: fn})
	o.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			for i, l := range o.list {
				if l.id == id {
					o.list = append(o.list[:i:i], o.list[i+1:]...)
					return
				}
			}
		})
	}
}

// enqueue queues v for delivery. It must be called with the owning store's
// lock held so the queue follows mutation order. It reports whether the
// caller has to run drain after releasing that lock.
func (o *observers[T]) enqueue(v T) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.list) == 0 {
		return false
	}
	o.pending = append(o.pending, v)
	if o.draining {
		return false
	}
	o.draining = true
	return true
}

// drain delivers queued snapshots until the queue is empty. A panicking
// listener is logged and does not stop delivery to the rest.
func (o *observers[T]) drain(log *zerolog.Logger) {
	var zero T
	for {
		o.mu.Lock()
		if len(o.pending) == 0 {
			o.draining = false
			o.pending = nil
			o.mu.Unlock()
			return
		}
		v := o.pending[0]
		o.pending[0] = zero
		o.pending = o.pending[1:]
		list := append([]listener[T](nil), o.list...)
		o.mu.Unlock()

		for _, l := range list {
			func() {
				defer func() {
					if r := recover(); r != nil {
						log.Error().Interface("panic", r).Msg("store listener panicked")
					}
				}()
				l.fn(v)
			}()
		}
	}
}
