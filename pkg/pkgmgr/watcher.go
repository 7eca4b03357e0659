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

package pkgmgr

import (
	"fmt"
	"time"

	"github.com/LoadoutProject/loadout/pkg/helpers/syncutil"
	"github.com/fsnotify/fsnotify"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const DefaultDebounce = 500 * time.Millisecond

// Watcher reports changes to the package manager's local database, so
// installs done outside this program are picked up. Bursts of events are
// collapsed into a single callback.
type Watcher struct {
	clock    clockwork.Clock
	fsw      *fsnotify.Watcher
	onChange func()
	timer    clockwork.Timer
	done     chan struct{}
	debounce time.Duration
	mu       syncutil.Mutex
}

// NewWatcher starts watching dir. onChange runs on the watcher's own
// goroutine and must not block.
func NewWatcher(dir string, clock clockwork.Clock, debounce time.Duration, onChange func()) (*Watcher, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("failed to watch package db (%s): %w", dir, err)
	}

	w := &Watcher{
		clock:    clock,
		fsw:      fsw,
		onChange: onChange,
		debounce: debounce,
		done:     make(chan struct{}),
	}
	go w.loop()

	log.Debug().Str("dir", dir).Msg("watching package db")
	return w, nil
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename|fsnotify.Write) == 0 {
				continue
			}
			log.Trace().Str("path", event.Name).Stringer("op", event.Op).Msg("package db event")
			w.schedule()
		case watchErr, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Error().Err(watchErr).Msg("error in package db watcher")
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Reset(w.debounce)
		return
	}
	w.timer = w.clock.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		w.timer = nil
		w.mu.Unlock()
		w.onChange()
	})
}

// Close stops the watcher and any pending callback.
func (w *Watcher) Close() error {
	err := w.fsw.Close()
	<-w.done

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.mu.Unlock()

	if err != nil {
		return fmt.Errorf("failed to close file watcher: %w", err)
	}
	return nil
}
