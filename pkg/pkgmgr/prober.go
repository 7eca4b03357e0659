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
	"strings"

	"github.com/LoadoutProject/loadout/pkg/helpers/command"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Prober answers whether packages are installed by querying the package
// manager directly. It keeps no cache; every call runs a fresh query.
type Prober struct {
	cmd         command.Executor
	binary      string
	concurrency int
}

func NewProber(cmd command.Executor, opts Options) *Prober {
	opts = opts.withDefaults()
	return &Prober{
		cmd:         cmd,
		binary:      opts.Binary,
		concurrency: opts.ProbeConcurrency,
	}
}

// IsInstalled runs "<pm> -Q <id>". Any failure, including a missing binary
// or an expired context, is reported as not installed.
func (p *Prober) IsInstalled(ctx context.Context, id string) bool {
	if strings.TrimSpace(id) == "" {
		return false
	}
	err := p.cmd.Run(ctx, p.binary, "-Q", id)
	if err != nil {
		log.Debug().Err(err).Str("pkg", id).Msg("package not installed")
		return false
	}
	return true
}

// InstalledVersion returns the version pacman reports for id, or false if
// the package is not installed.
func (p *Prober) InstalledVersion(ctx context.Context, id string) (string, bool) {
	if strings.TrimSpace(id) == "" {
		return "", false
	}
	out, err := p.cmd.Output(ctx, p.binary, "-Q", id)
	if err != nil {
		return "", false
	}
	// "<name> <version>"
	fields := strings.Fields(string(out))
	if len(fields) < 2 {
		return "", true
	}
	return fields[1], true
}

// ProbeAll probes each id with IsInstalled, running a bounded number of
// queries at once. Duplicate ids are probed once.
func (p *Prober) ProbeAll(ctx context.Context, ids []string) map[string]bool {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	results := make([]bool, len(unique))
	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i, id := range unique {
		g.Go(func() error {
			results[i] = p.IsInstalled(ctx, id)
			return nil
		})
	}
	_ = g.Wait()

	installed := make(map[string]bool, len(unique))
	for i, id := range unique {
		installed[id] = results[i]
	}
	return installed
}
