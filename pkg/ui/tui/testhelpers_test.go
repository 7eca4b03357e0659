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
	"strings"
	"testing"

	"github.com/LoadoutProject/loadout/pkg/helpers/syncutil"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/stretchr/testify/require"
)

// TestScreen wraps a SimulationScreen with helper methods for testing.
// Show and Sync hold mu so the cells can be read while the app draws.
type TestScreen struct {
	tcell.SimulationScreen
	t         *testing.T
	mu        syncutil.Mutex
	finalized bool
}

func NewTestScreen(t *testing.T, width, height int) *TestScreen {
	t.Helper()
	sim := tcell.NewSimulationScreen("UTF-8")
	require.NotNil(t, sim, "failed to create simulation screen")
	require.NoError(t, sim.Init(), "failed to initialize simulation screen")
	sim.SetSize(width, height)
	return &TestScreen{SimulationScreen: sim, t: t}
}

func (s *TestScreen) InjectEnter() {
	s.InjectKey(tcell.KeyEnter, 0, tcell.ModNone)
}

func (s *TestScreen) InjectEscape() {
	s.InjectKey(tcell.KeyEscape, 0, tcell.ModNone)
}

func (s *TestScreen) InjectArrowDown() {
	s.InjectKey(tcell.KeyDown, 0, tcell.ModNone)
}

func (s *TestScreen) InjectRune(r rune) {
	s.InjectKey(tcell.KeyRune, r, tcell.ModNone)
}

func (s *TestScreen) InjectString(str string) {
	for _, r := range str {
		s.InjectRune(r)
	}
}

func (s *TestScreen) Show() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SimulationScreen.Show()
}

func (s *TestScreen) Sync() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SimulationScreen.Sync()
}

// GetScreenText returns all screen content as a single string.
func (s *TestScreen) GetScreenText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	cells, width, height := s.GetContents()
	var sb strings.Builder
	for y := range height {
		for x := range width {
			cell := cells[y*width+x]
			if len(cell.Runes) > 0 {
				sb.WriteRune(cell.Runes[0])
			} else {
				sb.WriteRune(' ')
			}
		}
		if y < height-1 {
			sb.WriteRune('\n')
		}
	}
	return sb.String()
}

func (s *TestScreen) ContainsText(text string) bool {
	return strings.Contains(s.GetScreenText(), text)
}

func (s *TestScreen) Cleanup() {
	if !s.finalized {
		s.finalized = true
		s.Fini()
	}
}

// drawPrimitive renders p onto a fresh simulation screen without running
// an application.
func drawPrimitive(t *testing.T, p tview.Primitive, width, height int) *TestScreen {
	t.Helper()
	screen := NewTestScreen(t, width, height)
	t.Cleanup(screen.Cleanup)
	p.SetRect(0, 0, width, height)
	p.Draw(screen)
	screen.Show()
	return screen
}
