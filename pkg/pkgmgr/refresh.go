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
	"context"
	"time"

	"github.com/LoadoutProject/loadout/pkg/helpers/command"
	"github.com/rs/zerolog/log"
)

const HicolorIconDir = "/usr/share/icons/hicolor"

// Refresher rebuilds the desktop entry and icon caches so newly installed
// applications show up in launchers.
type Refresher struct {
	cmd     command.Executor
	timeout time.Duration
}

func NewRefresher(cmd command.Executor, opts Options) *Refresher {
	opts = opts.withDefaults()
	return &Refresher{cmd: cmd, timeout: opts.RefreshTimeout}
}

// Refresh runs each cache command with its own timeout. These are only for
// convenience, so failures are logged and otherwise ignored.
func (r *Refresher) Refresh(ctx context.Context) {
	cmds := [][]string{
		{"update-desktop-database", "-q"},
		{"gtk-update-icon-cache", "-f", "-t", HicolorIconDir},
	}
	for _, c := range cmds {
		cmdCtx, cancel := context.WithTimeout(ctx, r.timeout)
		err := r.cmd.Run(cmdCtx, c[0], c[1:]...)
		cancel()
		if err != nil {
			log.Warn().Err(err).Str("cmd", c[0]).Msg("desktop cache refresh failed")
		}
	}
}
