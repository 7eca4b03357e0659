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

package operation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/LoadoutProject/loadout/pkg/helpers"
)

// Process is a running child whose stdout and stderr are merged into one
// stream.
type Process interface {
	Pid() int
	// Output is read until EOF by a single reader.
	Output() io.Reader
	Wait() error
	Signal(sig os.Signal) error
	// Close releases the output stream, unblocking a pending read.
	Close() error
}

// Spawner starts a command. The process is bound to ctx and killed when
// ctx is done.
type Spawner interface {
	Spawn(ctx context.Context, args []string) (Process, error)
}

var errNoCommand = errors.New("no command given")

// PipeSpawner attaches both output streams of the child to one pipe.
type PipeSpawner struct{}

func (PipeSpawner) Spawn(ctx context.Context, args []string) (Process, error) {
	if len(args) == 0 {
		return nil, errNoCommand
	}

	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create output pipe: %w", err)
	}

	//nolint:gosec // args come from a validated request
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdout = pw
	cmd.Stderr = pw
	if err := cmd.Start(); err != nil {
		_ = pr.Close()
		_ = pw.Close()
		//nolint:wrapcheck // classified by the caller
		return nil, err
	}
	// the child holds its own copy
	_ = pw.Close()

	return &execProcess{cmd: cmd, out: pr, file: pr}, nil
}

type execProcess struct {
	cmd  *exec.Cmd
	out  io.Reader
	file *os.File
}

func (p *execProcess) Pid() int {
	return p.cmd.Process.Pid
}

func (p *execProcess) Output() io.Reader {
	return p.out
}

func (p *execProcess) Wait() error {
	//nolint:wrapcheck // classified by the caller
	return p.cmd.Wait()
}

func (p *execProcess) Signal(sig os.Signal) error {
	if !helpers.IsProcessRunning(p.cmd.Process) {
		return os.ErrProcessDone
	}
	//nolint:wrapcheck // best effort
	return p.cmd.Process.Signal(sig)
}

func (p *execProcess) Close() error {
	err := p.file.Close()
	if errors.Is(err, os.ErrClosed) {
		return nil
	}
	//nolint:wrapcheck // nothing to add
	return err
}
