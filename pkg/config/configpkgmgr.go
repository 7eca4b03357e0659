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

import (
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultPrivilegeWrapper = "pkexec"
	DefaultBinary           = "pacman"
	DefaultLocalDB          = "/var/lib/pacman/local"
	DefaultProbeConcurrency = 4
	DefaultOperationTimeout = 5 * time.Minute
	DefaultRefreshTimeout   = 10 * time.Second
)

type PackageManager struct {
	PrivilegeWrapper string `toml:"privilege_wrapper" validate:"required"`
	Binary           string `toml:"binary" validate:"required"`
	OperationTimeout string `toml:"operation_timeout" validate:"required"`
	RefreshTimeout   string `toml:"refresh_timeout" validate:"required"`
	LocalDB          string `toml:"local_db,omitempty"`
	ProbeConcurrency int    `toml:"probe_concurrency" validate:"min=1,max=64"`
	WatchDB          bool   `toml:"watch_db"`
}

func (p PackageManager) operationTimeout() (time.Duration, error) {
	//nolint:wrapcheck // caller adds the key name
	return time.ParseDuration(p.OperationTimeout)
}

func (p PackageManager) refreshTimeout() (time.Duration, error) {
	//nolint:wrapcheck // caller adds the key name
	return time.ParseDuration(p.RefreshTimeout)
}

func (c *Instance) PrivilegeWrapper() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.PackageManager.PrivilegeWrapper
}

func (c *Instance) PackageManagerBinary() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.PackageManager.Binary
}

// OperationTimeout bounds a single install or remove, including the
// interactive pty variant.
func (c *Instance) OperationTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, err := c.vals.PackageManager.operationTimeout()
	if err != nil || d <= 0 {
		log.Warn().Str("value", c.vals.PackageManager.OperationTimeout).
			Msg("invalid operation timeout, using default")
		return DefaultOperationTimeout
	}
	return d
}

// RefreshTimeout bounds each desktop cache refresh command.
func (c *Instance) RefreshTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, err := c.vals.PackageManager.refreshTimeout()
	if err != nil || d <= 0 {
		log.Warn().Str("value", c.vals.PackageManager.RefreshTimeout).
			Msg("invalid refresh timeout, using default")
		return DefaultRefreshTimeout
	}
	return d
}

func (c *Instance) ProbeConcurrency() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.PackageManager.ProbeConcurrency < 1 {
		return DefaultProbeConcurrency
	}
	return c.vals.PackageManager.ProbeConcurrency
}

func (c *Instance) LocalDB() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.PackageManager.LocalDB == "" {
		return DefaultLocalDB
	}
	return c.vals.PackageManager.LocalDB
}

func (c *Instance) WatchDB() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.PackageManager.WatchDB
}
