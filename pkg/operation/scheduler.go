// Loadout
// Copyright (c) 2026 The Loadout Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Loadout.
//
// Loadout is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Loadout is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Loadout.  If not, see <http://www.gnu.org/licenses/>.

package operation

import (
	"context"

	"github.com/LoadoutProject/loadout/pkg/helpers/syncutil"
)

// Scheduler runs closures on the goroutine that owns UI state. Queue must
// not block and may be called from any goroutine, including the scheduler
// goroutine itself.
type Scheduler interface {
	Queue(fn func())
}

// SchedulerFunc adapts a function such as tview's QueueUpdateDraw.
type SchedulerFunc func(fn func())

func (f SchedulerFunc) Queue(fn func()) {
	f(fn)
}

// Loop is a Scheduler that runs queued closures one at a time, in order,
// on the goroutine calling Run. It stands in for a UI event loop in
// headless mode.
type Loop struct {
	wake    chan struct{}
	pending []func()
	mu      syncutil.Mutex
	stopped bool
}

func NewLoop() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Queue appends fn to the loop. Closures queued after Run has returned are
// dropped.
func (l *Loop) Queue(fn func()) {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.pending = append(l.pending, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Run processes queued closures until ctx is done.
func (l *Loop) Run(ctx context.Context) {
	defer func() {
		l.mu.Lock()
		l.stopped = true
		l.pending = nil
		l.mu.Unlock()
	}()

	for {
		l.mu.Lock()
		batch := l.pending
		l.pending = nil
		l.mu.Unlock()

		for _, fn := range batch {
			if ctx.Err() != nil {
				return
			}
			fn()
		}

		if len(batch) > 0 {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-l.wake:
		}
	}
}
