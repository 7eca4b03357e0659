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
	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog/log"
)

// Runner executes install and remove requests through the privilege
// escalation wrapper and waits for them to finish.
type Runner struct {
	cmd     command.Executor
	wrapper string
	binary  string
	timeout time.Duration
}

func NewRunner(cmd command.Executor, opts Options) *Runner {
	opts = opts.withDefaults()
	return &Runner{
		cmd:     cmd,
		wrapper: opts.PrivilegeWrapper,
		binary:  opts.Binary,
		timeout: opts.OperationTimeout,
	}
}

// Timeout is the deadline applied to each request.
func (r *Runner) Timeout() time.Duration {
	return r.timeout
}

// Args returns the full argument vector for req, wrapper first. The
// request is not validated.
func (r *Runner) Args(req Request) []string {
	return []string{r.wrapper, r.binary, req.Kind.flag(), "--noconfirm", req.ID}
}

// FormatCommand renders req as a shell command line for display. The
// result is never executed.
func (r *Runner) FormatCommand(req Request) string {
	return shellquote.Join(r.Args(req)...)
}

// Execute runs req to completion. Failures are returned as *CommandError,
// or a validation error for a malformed request.
func (r *Runner) Execute(ctx context.Context, req Request) error {
	if err := req.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	args := r.Args(req)
	start := time.Now()
	log.Info().
		Str("pkg", req.ID).
		Stringer("kind", req.Kind).
		Strs("args", args).
		Msg("running package operation")

	stdout, stderr, err := r.cmd.Capture(ctx, args[0], args[1:]...)
	if cerr := Classify(ctx, args[0], r.timeout, stdout, stderr, err); cerr != nil {
		log.Warn().
			Err(cerr.Err).
			Str("pkg", req.ID).
			Stringer("kind", req.Kind).
			Int("exit_code", cerr.ExitCode).
			Dur("duration", time.Since(start)).
			Msg("package operation failed")
		return cerr
	}

	log.Info().
		Str("pkg", req.ID).
		Stringer("kind", req.Kind).
		Dur("duration", time.Since(start)).
		Msg("package operation succeeded")
	return nil
}

// Run is Execute with the outcome flattened to a success flag and a
// user-facing message. The message is empty on success.
func (r *Runner) Run(ctx context.Context, req Request) (ok bool, msg string) {
	if err := r.Execute(ctx, req); err != nil {
		return false, err.Error()
	}
	return true, ""
}
