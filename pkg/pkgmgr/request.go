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
	"errors"
	"fmt"
	"strings"
)

// Kind is the package manager operation a Request performs.
type Kind int

const (
	Install Kind = iota + 1
	Remove
)

func (k Kind) String() string {
	switch k {
	case Install:
		return "install"
	case Remove:
		return "remove"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// flag returns the pacman operation flag for the kind.
func (k Kind) flag() string {
	switch k {
	case Install:
		return "-S"
	case Remove:
		return "-R"
	default:
		return ""
	}
}

// ParseKind accepts "install" or "remove", case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "install":
		return Install, nil
	case "remove":
		return Remove, nil
	default:
		return 0, fmt.Errorf("unknown operation kind: %q", s)
	}
}

var (
	ErrEmptyID     = errors.New("package id is empty")
	ErrUnknownKind = errors.New("unknown operation kind")
)

// Request asks for one package to be installed or removed. A request is
// consumed by a single run and never reused.
type Request struct {
	ID   string
	Kind Kind
}

func (r Request) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return ErrEmptyID
	}
	if r.Kind.flag() == "" {
		return fmt.Errorf("%w: %s", ErrUnknownKind, r.Kind)
	}
	return nil
}

func (r Request) String() string {
	return r.Kind.String() + " " + r.ID
}
