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
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
	"time"
)

// Failure kinds. A *CommandError always wraps exactly one of these.
var (
	ErrTimeout            = errors.New("timed out")
	ErrNonZeroExit        = errors.New("non-zero exit status")
	ErrExecutableNotFound = errors.New("executable not found")
	ErrLaunchFailure      = errors.New("launch failure")
)

// CommandError describes a failed package manager command. Message is the
// text shown to the user.
type CommandError struct {
	Kind     error
	Err      error
	Binary   string
	Message  string
	ExitCode int
}

func (e *CommandError) Error() string {
	return e.Message
}

func (e *CommandError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NotFoundMessage explains a missing binary, which almost always means the
// tool is running on a system without polkit or pacman.
func NotFoundMessage(binary string) string {
	return fmt.Sprintf(
		"%s not found: installing packages needs pkexec (polkit) and pacman, "+
			"which are only available on Arch-based systems",
		binary,
	)
}

// TimeoutMessage is the diagnostic for a command killed by its deadline.
func TimeoutMessage(timeout time.Duration) string {
	return fmt.Sprintf("operation timed out after %s", timeout)
}

// Classify turns the result of running binary into a *CommandError. ctx is
// the context the command ran under, used to tell a deadline kill apart
// from an ordinary non-zero exit. Returns nil when err is nil.
func Classify(
	ctx context.Context,
	binary string,
	timeout time.Duration,
	stdout, stderr []byte,
	err error,
) *CommandError {
	if err == nil {
		return nil
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return &CommandError{
			Kind:     ErrTimeout,
			Err:      err,
			Binary:   binary,
			Message:  TimeoutMessage(timeout),
			ExitCode: -1,
		}
	}

	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		name := binary
		var execErr *exec.Error
		if errors.As(err, &execErr) && execErr.Name != "" {
			name = execErr.Name
		}
		return &CommandError{
			Kind:     ErrExecutableNotFound,
			Err:      err,
			Binary:   name,
			Message:  NotFoundMessage(name),
			ExitCode: -1,
		}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		msg := strings.TrimSpace(string(stderr))
		if msg == "" {
			msg = strings.TrimSpace(string(stdout))
		}
		if msg == "" {
			msg = fmt.Sprintf("%s exited with status %d", binary, exitErr.ExitCode())
		}
		return &CommandError{
			Kind:     ErrNonZeroExit,
			Err:      err,
			Binary:   binary,
			Message:  msg,
			ExitCode: exitErr.ExitCode(),
		}
	}

	return &CommandError{
		Kind:     ErrLaunchFailure,
		Err:      err,
		Binary:   binary,
		Message:  err.Error(),
		ExitCode: -1,
	}
}
