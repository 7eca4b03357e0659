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

package cli

import (
	"context"
	"fmt"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/LoadoutProject/loadout/pkg/operation"
	"github.com/LoadoutProject/loadout/pkg/pkgmgr"
	"github.com/rs/zerolog/log"
)

const (
	markInstalled    = "installed"
	markNotInstalled = "not installed"

	cancelRetry = 100 * time.Millisecond
)

// exitNotice is how long a cancelled child may take to exit before the
// user is told that it is still running.
var exitNotice = 2 * time.Second

// printObserver reports a session outcome to the terminal and hands the
// exit code to RunOperation.
type printObserver struct {
	env  Env
	sess *operation.Session
	done chan int
	req  pkgmgr.Request
}

func (o *printObserver) OperationFinished(success bool, _ string) {
	if success {
		_, _ = fmt.Fprintf(o.env.Stderr, "\n%s %s successfully\n", o.req.ID, pastTense(o.req.Kind))
		o.done <- ExitOK
		return
	}
	// output was already streamed, only the diagnostic is repeated
	_, _ = fmt.Fprintf(o.env.Stderr, "\nFailed to %s %s: %s\n", o.req.Kind, o.req.ID, o.sess.Diagnostic())
	o.done <- ExitFailure
}

func (o *printObserver) OperationAborted() {
	_, _ = fmt.Fprintf(o.env.Stderr, "\nCancelled %s of %s\n", o.req.Kind, o.req.ID)
	o.done <- ExitAborted
}

func pastTense(k pkgmgr.Kind) string {
	if k == pkgmgr.Remove {
		return "removed"
	}
	return "installed"
}

// RunOperation runs req as one session on a private scheduler loop and
// streams the child's output to env.Stdout. It blocks until the session
// and its post-install refresh are done.
func RunOperation(ctx context.Context, env Env, req pkgmgr.Request) int {
	loop := operation.NewLoop()
	loopCtx, stopLoop := context.WithCancel(context.Background())
	var loopWG sync.WaitGroup
	loopWG.Add(1)
	go func() {
		defer loopWG.Done()
		loop.Run(loopCtx)
	}()
	defer func() {
		stopLoop()
		loopWG.Wait()
	}()

	obs := &printObserver{env: env, req: req, done: make(chan int, 1)}
	sess, err := operation.New(req, operation.Options{
		Commander: env.Runner,
		Scheduler: loop,
		Spawner:   env.Spawner,
		Observer:  obs,
		Sink:      env.Stdout,
		Refresher: env.Refresher,
	})
	if err != nil {
		_, _ = fmt.Fprintf(env.Stderr, "Error: %s\n", err)
		return ExitFailure
	}
	obs.sess = sess

	started := make(chan error, 1)
	loop.Queue(func() { started <- sess.Start() })
	if err := <-started; err != nil {
		_, _ = fmt.Fprintf(env.Stderr, "Error: %s\n", err)
		return ExitFailure
	}

	var code int
	select {
	case code = <-obs.done:
	case <-ctx.Done():
		log.Info().Str("pkg", req.ID).Msg("interrupt received, cancelling operation")
		code = cancelUntilDone(sess, loop, obs.done)
		waitForExit(env, sess)
		return code
	}

	sess.Wait()
	return code
}

// waitForExit waits for a cancelled session, telling the user when the
// child outlives exitNotice. A root-owned pacman ignores our SIGTERM and
// runs until it finishes or its deadline passes.
func waitForExit(env Env, sess *operation.Session) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		sess.Wait()
	}()

	select {
	case <-done:
		return
	case <-time.After(exitNotice):
	}
	binary := env.Runner.Args(sess.Request())[1]
	_, _ = fmt.Fprintf(env.Stderr, "Waiting for %s to exit, it cannot be stopped while running as root...\n", binary)
	<-done
}

// RunQuiet runs req to completion without a terminal and prints only the
// outcome, with the command's diagnostic when it fails.
func RunQuiet(ctx context.Context, env Env, req pkgmgr.Request) int {
	_, _ = fmt.Fprintf(env.Stderr, "Running %s\n", env.Runner.FormatCommand(req))

	ok, msg := env.Runner.Run(ctx, req)
	if !ok {
		_, _ = fmt.Fprintf(env.Stderr, "Failed to %s %s: %s\n", req.Kind, req.ID, msg)
		return ExitFailure
	}
	if req.Kind == pkgmgr.Install && env.Refresher != nil {
		env.Refresher.Refresh(ctx)
	}
	_, _ = fmt.Fprintf(env.Stderr, "%s %s successfully\n", req.ID, pastTense(req.Kind))
	return ExitOK
}

// cancelUntilDone keeps asking the session to cancel until it reaches a
// terminal state. Cancel is a no-op before the child has a pid.
func cancelUntilDone(sess *operation.Session, loop *operation.Loop, done <-chan int) int {
	for {
		loop.Queue(sess.Cancel)
		select {
		case code := <-done:
			return code
		case <-time.After(cancelRetry):
		}
	}
}

// PrintStatus prints whether id is installed. The exit code is 0 when it
// is and 1 otherwise.
func PrintStatus(ctx context.Context, env Env, id string) int {
	version, ok := env.Prober.InstalledVersion(ctx, id)
	if !ok {
		_, _ = fmt.Fprintf(env.Stdout, "%s: %s\n", id, markNotInstalled)
		return ExitFailure
	}
	if version == "" {
		_, _ = fmt.Fprintf(env.Stdout, "%s: %s\n", id, markInstalled)
	} else {
		_, _ = fmt.Fprintf(env.Stdout, "%s: %s (%s)\n", id, markInstalled, version)
	}
	return ExitOK
}

// PrintSearch lists the catalog entries matching query, grouped by
// category, with their installed state.
func PrintSearch(ctx context.Context, env Env, query string) int {
	cats := env.Catalog.Search(query)
	if len(cats) == 0 {
		_, _ = fmt.Fprintf(env.Stderr, "No packages match %q\n", query)
		return ExitFailure
	}

	var ids []string
	for _, cat := range cats {
		for _, p := range cat.Packages {
			ids = append(ids, p.ID)
		}
	}
	installed := env.Prober.ProbeAll(ctx, ids)

	tw := tabwriter.NewWriter(env.Stdout, 0, 4, 2, ' ', 0)
	for _, cat := range cats {
		_, _ = fmt.Fprintf(tw, "%s\n", cat.Title)
		for _, p := range cat.Packages {
			state := markNotInstalled
			if installed[p.ID] {
				state = markInstalled
			}
			_, _ = fmt.Fprintf(tw, "  %s\t%s\t%s\n", p.ID, p.Name, state)
		}
	}
	if err := tw.Flush(); err != nil {
		log.Warn().Err(err).Msg("failed to flush search output")
	}
	return ExitOK
}
