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

// Package command provides an abstraction over exec.Command for testability.
package command

import (
	"bytes"
	"context"
	"os/exec"
	"time"
)

// KillGrace is how long Capture keeps waiting for a command after its
// context is done. A setuid child such as pkexec cannot be killed by the
// calling user, so Capture returns the context error and leaves it running.
var KillGrace = 5 * time.Second

// Executor provides an abstraction over exec.Command for testability.
// This allows commands to be mocked in tests without executing real system commands.
type Executor interface {
	// Run executes a command and waits for it to complete.
	// Returns an error if the command fails to start or exits with non-zero status.
	Run(ctx context.Context, name string, args ...string) error

	// Output runs a command and returns its standard output.
	// Returns the output bytes and an error if the command fails.
	Output(ctx context.Context, name string, args ...string) ([]byte, error)

	// Capture runs a command and returns standard output and standard error
	// separately. The error is the same one Run would return; both buffers
	// are populated even when the command exits with non-zero status.
	Capture(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// RealExecutor uses actual exec.Command to execute system commands.
// This is the production implementation used in normal operation.
type RealExecutor struct{}

// Run executes a system command using exec.CommandContext.
//
//nolint:wrapcheck // Wrapping exec errors loses important context
func (*RealExecutor) Run(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

// Output runs a command and returns its standard output.
//
//nolint:wrapcheck // Wrapping exec errors loses important context
func (*RealExecutor) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Capture runs a command with separate stdout and stderr buffers. If the
// command outlives ctx by KillGrace, both buffers are nil and the error is
// ctx.Err().
//
//nolint:wrapcheck // Wrapping exec errors loses important context
func (*RealExecutor) Capture(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error) {
	var outBuf, errBuf bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	if err := cmd.Start(); err != nil {
		return nil, nil, err
	}

	exited := make(chan error, 1)
	go func() {
		exited <- cmd.Wait()
	}()

	select {
	case err = <-exited:
		return outBuf.Bytes(), errBuf.Bytes(), err
	case <-ctx.Done():
	}

	timer := time.NewTimer(KillGrace)
	defer timer.Stop()
	select {
	case err = <-exited:
		return outBuf.Bytes(), errBuf.Bytes(), err
	case <-timer.C:
		// the copy goroutines may still be writing to the buffers
		return nil, nil, ctx.Err()
	}
}
