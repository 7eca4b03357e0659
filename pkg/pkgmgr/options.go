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
	"time"

	"github.com/LoadoutProject/loadout/pkg/config"
)

// Options holds the package manager settings shared by the prober, runner
// and refresher.
type Options struct {
	PrivilegeWrapper string
	Binary           string
	LocalDB          string
	OperationTimeout time.Duration
	RefreshTimeout   time.Duration
	ProbeConcurrency int
}

func DefaultOptions() Options {
	return Options{
		PrivilegeWrapper: config.DefaultPrivilegeWrapper,
		Binary:           config.DefaultBinary,
		LocalDB:          config.DefaultLocalDB,
		OperationTimeout: config.DefaultOperationTimeout,
		RefreshTimeout:   config.DefaultRefreshTimeout,
		ProbeConcurrency: config.DefaultProbeConcurrency,
	}
}

func OptionsFromConfig(cfg *config.Instance) Options {
	return Options{
		PrivilegeWrapper: cfg.PrivilegeWrapper(),
		Binary:           cfg.PackageManagerBinary(),
		LocalDB:          cfg.LocalDB(),
		OperationTimeout: cfg.OperationTimeout(),
		RefreshTimeout:   cfg.RefreshTimeout(),
		ProbeConcurrency: cfg.ProbeConcurrency(),
	}
}

// withDefaults fills zero fields so a partially built Options is usable.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.PrivilegeWrapper == "" {
		o.PrivilegeWrapper = d.PrivilegeWrapper
	}
	if o.Binary == "" {
		o.Binary = d.Binary
	}
	if o.LocalDB == "" {
		o.LocalDB = d.LocalDB
	}
	if o.OperationTimeout <= 0 {
		o.OperationTimeout = d.OperationTimeout
	}
	if o.RefreshTimeout <= 0 {
		o.RefreshTimeout = d.RefreshTimeout
	}
	if o.ProbeConcurrency <= 0 {
		o.ProbeConcurrency = d.ProbeConcurrency
	}
	return o
}
