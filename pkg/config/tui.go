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

package config

// TUI holds terminal UI preferences.
type TUI struct {
	Theme string `toml:"theme"`
	Mouse bool   `toml:"mouse"`
}

func (c *Instance) TUITheme() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.TUI.Theme == "" {
		return "default"
	}
	return c.vals.TUI.Theme
}

func (c *Instance) SetTUITheme(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.TUI.Theme = name
}

func (c *Instance) TUIMouse() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.TUI.Mouse
}
