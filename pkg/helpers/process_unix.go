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

//go:build !windows

package helpers

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// IsProcessRunning reports whether proc still exists. A process started
// through pkexec may belong to root, in which case signal 0 fails with
// EPERM; that still means it is alive.
func IsProcessRunning(proc *os.Process) bool {
	if proc == nil {
		return false
	}

	err := unix.Kill(proc.Pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}
