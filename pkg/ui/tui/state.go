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

import "github.com/LoadoutProject/loadout/pkg/helpers/syncutil"

// ViewState holds TUI state that survives page rebuilds: the search query
// and the package last selected in the catalog.
type ViewState struct {
	query      string
	selectedID string
	mu         syncutil.RWMutex
}

func NewViewState() *ViewState {
	return &ViewState{}
}

func (s *ViewState) Query() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.query
}

func (s *ViewState) SetQuery(q string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = q
}

func (s *ViewState) SelectedID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectedID
}

func (s *ViewState) SetSelectedID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedID = id
}
