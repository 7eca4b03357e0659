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

// Package cli implements the headless flags of loadout. Each flag runs a
// single catalog action without starting the text UI.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/LoadoutProject/loadout/pkg/catalog"
	"github.com/LoadoutProject/loadout/pkg/config"
	"github.com/LoadoutProject/loadout/pkg/operation"
	"github.com/LoadoutProject/loadout/pkg/pkgmgr"
	"github.com/rs/zerolog"
)

// Process exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitAborted = 130
)

var ErrConflictingFlags = errors.New("-install and -remove cannot be combined")

type Flags struct {
	set      *flag.FlagSet
	Install  *string
	Remove   *string
	Status   *string
	Search   *string
	PrintCmd *bool
	Quiet    *bool
	Version  *bool
	Verbose  *bool
}

// Env holds everything a headless action needs.
type Env struct {
	Stdout    io.Writer
	Stderr    io.Writer
	Catalog   *catalog.Catalog
	Prober    *pkgmgr.Prober
	Runner    *pkgmgr.Runner
	Refresher operation.Refresher
	Spawner   operation.Spawner
}

// SetupFlags defines all loadout flags on fs.
func SetupFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		set: fs,
		Install: fs.String(
			"install",
			"",
			"install a package by id and exit",
		),
		Remove: fs.String(
			"remove",
			"",
			"remove a package by id and exit",
		),
		Status: fs.String(
			"status",
			"",
			"print whether a package is installed",
		),
		Search: fs.String(
			"search",
			"",
			"list catalog entries matching a query",
		),
		PrintCmd: fs.Bool(
			"print-cmd",
			false,
			"with -install or -remove, print the command instead of running it",
		),
		Quiet: fs.Bool(
			"quiet",
			false,
			"with -install or -remove, wait without streaming output and print only the result",
		),
		Version: fs.Bool(
			"version",
			false,
			"print version and exit",
		),
		Verbose: fs.Bool(
			"verbose",
			false,
			"enable debug logging",
		),
	}
}

func (f *Flags) isFlagPassed(name string) bool {
	found := false
	f.set.Visit(func(fl *flag.Flag) {
		if fl.Name == name {
			found = true
		}
	})
	return found
}

// Pre parses args and handles the flags that need no environment. It
// reports whether the process should exit now.
func (f *Flags) Pre(args []string, out io.Writer) (bool, error) {
	if err := f.set.Parse(args); err != nil {
		return true, fmt.Errorf("failed to parse flags: %w", err)
	}

	if *f.Version {
		_, _ = fmt.Fprintf(out, "%s v%s\n", config.AppName, config.AppVersion)
		return true, nil
	}
	if f.isFlagPassed("install") && f.isFlagPassed("remove") {
		return true, ErrConflictingFlags
	}
	return false, nil
}

// LogLevel returns the level selected by -verbose, or def.
func (f *Flags) LogLevel(def zerolog.Level) zerolog.Level {
	if *f.Verbose {
		return zerolog.DebugLevel
	}
	return def
}

// Headless reports whether any action flag was given, in which case the
// text UI is not started.
func (f *Flags) Headless() bool {
	for _, name := range []string{"install", "remove", "status", "search"} {
		if f.isFlagPassed(name) {
			return true
		}
	}
	return false
}

func (f *Flags) request() (pkgmgr.Request, bool) {
	switch {
	case f.isFlagPassed("install"):
		return pkgmgr.Request{ID: *f.Install, Kind: pkgmgr.Install}, true
	case f.isFlagPassed("remove"):
		return pkgmgr.Request{ID: *f.Remove, Kind: pkgmgr.Remove}, true
	default:
		return pkgmgr.Request{}, false
	}
}

// Post runs the action selected by the parsed flags and returns the
// process exit code. Cancelling ctx aborts a running operation.
func (f *Flags) Post(ctx context.Context, env Env) int {
	if req, ok := f.request(); ok {
		if err := req.Validate(); err != nil {
			_, _ = fmt.Fprintf(env.Stderr, "Error: %s\n", err)
			return ExitFailure
		}
		if *f.PrintCmd {
			_, _ = fmt.Fprintln(env.Stdout, env.Runner.FormatCommand(req))
			return ExitOK
		}
		if *f.Quiet {
			return RunQuiet(ctx, env, req)
		}
		return RunOperation(ctx, env, req)
	}

	switch {
	case f.isFlagPassed("status"):
		return PrintStatus(ctx, env, *f.Status)
	case f.isFlagPassed("search"):
		return PrintSearch(ctx, env, *f.Search)
	default:
		return ExitOK
	}
}
