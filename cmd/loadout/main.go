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

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/LoadoutProject/loadout/internal/telemetry"
	"github.com/LoadoutProject/loadout/pkg/catalog"
	"github.com/LoadoutProject/loadout/pkg/cli"
	"github.com/LoadoutProject/loadout/pkg/config"
	"github.com/LoadoutProject/loadout/pkg/helpers"
	"github.com/LoadoutProject/loadout/pkg/helpers/command"
	"github.com/LoadoutProject/loadout/pkg/operation"
	"github.com/LoadoutProject/loadout/pkg/pkgmgr"
	"github.com/LoadoutProject/loadout/pkg/ui/tui"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// exitCode carries a non-error exit status out of run.
type exitCode int

func (c exitCode) Error() string {
	return fmt.Sprintf("exit status %d", int(c))
}

func main() {
	err := run()
	var code exitCode
	switch {
	case err == nil:
	case errors.As(err, &code):
		telemetry.Close()
		os.Exit(int(code))
	default:
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		telemetry.Close()
		os.Exit(1)
	}
	telemetry.Close()
}

func run() error {
	flags := cli.SetupFlags(flag.CommandLine)
	exit, err := flags.Pre(os.Args[1:], os.Stdout)
	if err != nil {
		return err
	}
	if exit {
		return nil
	}

	if os.Geteuid() == 0 {
		return errors.New("loadout cannot be run as root, privileges are requested per operation")
	}

	var logWriters []io.Writer
	if *flags.Verbose {
		logWriters = []io.Writer{zerolog.ConsoleWriter{Out: os.Stderr}}
	}
	if err := helpers.InitLogging(helpers.StateDir(), logWriters); err != nil {
		return fmt.Errorf("error initializing logging: %w", err)
	}

	cfg, err := config.NewConfig(afero.NewOsFs(), helpers.ConfigDir(), config.BaseDefaults)
	if err != nil {
		log.Error().Err(err).Msg("error loading config")
		return fmt.Errorf("error loading config: %w", err)
	}
	defLevel := zerolog.InfoLevel
	if cfg.DebugLogging() {
		defLevel = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(flags.LogLevel(defLevel))

	err = telemetry.Init(cfg.ErrorReporting(), cfg.DeviceID(), config.AppVersion, cfg.PackageManagerBinary())
	if err != nil {
		log.Warn().Err(err).Msg("error reporting unavailable")
	}

	defer func() {
		if r := recover(); r != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Panic: %v\n", r)
			log.Error().Msgf("panic: %v", r)
			telemetry.Flush()
			panic(r)
		}
	}()

	log.Info().
		Str("version", config.AppVersion).
		Str("config", cfg.Path()).
		Str("log", helpers.LogPath(helpers.StateDir())).
		Bool("error_reporting", telemetry.Enabled()).
		Msg("loadout starting")

	cat, err := catalog.Default()
	if err != nil {
		return fmt.Errorf("error loading catalog: %w", err)
	}

	executor := &command.RealExecutor{}
	opts := pkgmgr.OptionsFromConfig(cfg)
	prober := pkgmgr.NewProber(executor, opts)
	runner := pkgmgr.NewRunner(executor, opts)
	refresher := pkgmgr.NewRefresher(executor, opts)
	spawner := operation.DefaultSpawner()

	if flags.Headless() {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		code := flags.Post(ctx, cli.Env{
			Stdout:    os.Stdout,
			Stderr:    os.Stderr,
			Catalog:   cat,
			Prober:    prober,
			Runner:    runner,
			Refresher: refresher,
			Spawner:   spawner,
		})
		if code != cli.ExitOK {
			return exitCode(code)
		}
		return nil
	}

	ui, err := tui.BuildMain(tui.Deps{
		Config:    cfg,
		Catalog:   cat,
		Prober:    prober,
		Runner:    runner,
		Refresher: refresher,
		Spawner:   spawner,
	})
	if err != nil {
		log.Error().Err(err).Msg("error building UI")
		return fmt.Errorf("error building UI: %w", err)
	}

	if cfg.WatchDB() {
		w, err := pkgmgr.NewWatcher(cfg.LocalDB(), clockwork.NewRealClock(), pkgmgr.DefaultDebounce, ui.RefreshInstalled)
		if err != nil {
			log.Warn().Err(err).Str("dir", cfg.LocalDB()).Msg("not watching package database")
		} else {
			defer func() {
				if err := w.Close(); err != nil {
					log.Debug().Err(err).Msg("error closing watcher")
				}
			}()
		}
	}

	if err := ui.Run(); err != nil {
		log.Error().Err(err).Msg("error running UI")
		return fmt.Errorf("error running UI: %w", err)
	}

	log.Info().Msg("loadout exiting")
	return nil
}
