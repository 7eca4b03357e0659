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

package tui

import (
	"testing"
	"time"

	"github.com/LoadoutProject/loadout/pkg/helpers/syncutil"
	"github.com/rivo/tview"
)

// TestAppRunner runs a tview app on a SimulationScreen in the background
// so tests can inject keys and read the screen.
type TestAppRunner struct {
	runErr  error
	app     *tview.Application
	screen  *TestScreen
	stopMu  syncutil.Mutex
	stopped bool
}

func NewTestAppRunner(t *testing.T, width, height int) *TestAppRunner {
	t.Helper()
	screen := NewTestScreen(t, width, height)
	app := tview.NewApplication()
	app.SetScreen(screen)
	return &TestAppRunner{app: app, screen: screen}
}

// Start runs the app. The root must already be set.
func (r *TestAppRunner) Start() {
	go func() {
		err := r.app.Run()
		r.stopMu.Lock()
		r.runErr = err
		r.stopped = true
		r.stopMu.Unlock()
	}()
	time.Sleep(20 * time.Millisecond)
}

// Stop stops the application. tview.Application.Stop finalizes the screen.
func (r *TestAppRunner) Stop() {
	r.stopMu.Lock()
	alreadyStopped := r.stopped
	r.stopped = true
	r.stopMu.Unlock()

	if !alreadyStopped {
		r.app.Stop()
		time.Sleep(20 * time.Millisecond)
	}
}

func (r *TestAppRunner) Screen() *TestScreen {
	return r.screen
}

func (r *TestAppRunner) App() *tview.Application {
	return r.app
}

func (r *TestAppRunner) Draw() {
	r.app.Draw()
	time.Sleep(10 * time.Millisecond)
}

func (r *TestAppRunner) IsStopped() bool {
	r.stopMu.Lock()
	defer r.stopMu.Unlock()
	return r.stopped
}

func (*TestAppRunner) WaitForCondition(condition func() bool, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func (r *TestAppRunner) WaitForText(text string, timeout time.Duration) bool {
	return r.WaitForCondition(func() bool {
		r.Draw()
		return r.screen.ContainsText(text)
	}, timeout)
}
