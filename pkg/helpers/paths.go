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

package helpers

import (
	"path/filepath"

	"github.com/LoadoutProject/loadout/pkg/config"
	"github.com/adrg/xdg"
)

// ConfigDir returns the directory holding config.toml.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, config.AppName)
}

// StateDir returns the directory holding log files.
func StateDir() string {
	return filepath.Join(xdg.StateHome, config.AppName)
}
