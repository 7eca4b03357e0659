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

//go:build !windows

package operation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"

	"github.com/creack/pty"
	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"
)

// PTYSpawner runs the child on a pseudo-terminal so tools that only print
// progress bars to a terminal still stream live output. It falls back to
// PipeSpawner when no pty can be allocated.
type PTYSpawner struct{}

func DefaultSpawner() Spawner {
	return PTYSpawner{}
}

func (PTYSpawner) Spawn(ctx context.Context, args []string) (Process, error) {
	if len(args) == 0 {
		return nil, errNoCommand
	}

	ptmx, tty, err := pty.Open()
	if err != nil {
		log.Debug().Err(err).Msg("pty unavailable, falling back to pipes")
		return PipeSpawner{}.Spawn(ctx, args)
	}
	ptmx, err = pollable(ptmx)
	if err != nil {
		_ = tty.Close()
		return nil, err
	}

	//nolint:gosec // args come from a validated request
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdin = tty
	cmd.Stdout = tty
	cmd.Stderr = tty
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true, Setctty: true}

	if err := cmd.Start(); err != nil {
		_ = tty.Close()
		_ = ptmx.Close()
		//nolint:wrapcheck // classified by the caller
		return nil, err
	}
	_ = tty.Close()

	return &execProcess{cmd: cmd, out: ptyReader{r: ptmx}, file: ptmx}, nil
}

// pollable returns a non-blocking copy of the pty master and closes the
// original. pty.Open leaves the master in blocking mode, where Close does
// not interrupt a pending Read.
func pollable(f *os.File) (*os.File, error) {
	defer func() { _ = f.Close() }()

	fd, err := unix.Dup(int(f.Fd()))
	if err != nil {
		return nil, fmt.Errorf("failed to dup pty master: %w", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("failed to set pty master non-blocking: %w", err)
	}
	return os.NewFile(uintptr(fd), f.Name()), nil
}

// ptyReader maps the EIO a pty master returns once the child side closes
// to a clean EOF.
type ptyReader struct {
	r io.Reader
}

func (p ptyReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if errors.Is(err, syscall.EIO) {
		return n, io.EOF
	}
	//nolint:wrapcheck // passed through to the reader loop
	return n, err
}
