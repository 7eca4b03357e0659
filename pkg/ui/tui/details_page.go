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

package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/LoadoutProject/loadout/pkg/catalog"
	"github.com/LoadoutProject/loadout/pkg/pkgmgr"
	"github.com/rivo/tview"
)

// probeTimeout bounds the installed-state query behind the details page.
const probeTimeout = 10 * time.Second

// DetailsPage shows one package and offers to install or remove it,
// depending on a fresh installed-state probe.
type DetailsPage struct {
	frame     *PageFrame
	info      *tview.TextView
	buttons   *ButtonBar
	pkg       catalog.Package
	runner    *pkgmgr.Runner
	installed bool
	probed    bool
	version   string
}

func NewDetailsPage(
	app *tview.Application,
	pkg catalog.Package,
	runner *pkgmgr.Runner,
	onAction func(req pkgmgr.Request),
	onBack func(),
) *DetailsPage {
	p := &DetailsPage{pkg: pkg, runner: runner}

	p.info = tview.NewTextView().
		SetDynamicColors(true).
		SetWordWrap(true)

	p.buttons = NewButtonBar().
		AddButton("Checking...", "", func() {
			onAction(p.Request())
		}).
		AddButton("Back", "Return to the catalog", onBack)
	p.buttons.SetButtonDisabled(0, true)

	p.frame = NewPageFrame(app).
		SetTitle("Loadout", pkg.Name).
		SetContent(p.info).
		SetButtonBar(p.buttons).
		SetOnEscape(onBack).
		SetHints("←→: Select | Enter: Confirm | ESC: Back")

	p.render()
	return p
}

func (p *DetailsPage) Primitive() tview.Primitive {
	return p.frame
}

// Buttons is focused when the page is shown.
func (p *DetailsPage) Buttons() *ButtonBar {
	return p.buttons
}

// Request is the operation the primary button starts.
func (p *DetailsPage) Request() pkgmgr.Request {
	kind := pkgmgr.Install
	if p.installed {
		kind = pkgmgr.Remove
	}
	return pkgmgr.Request{ID: p.pkg.ID, Kind: kind}
}

// Probe queries the installed state in the background and updates the
// page through queue, which must run closures on the UI goroutine.
func (p *DetailsPage) Probe(prober *pkgmgr.Prober, queue func(func())) {
	id := p.pkg.ID
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
		defer cancel()
		version, installed := prober.InstalledVersion(ctx, id)
		queue(func() { p.SetInstalled(installed, version) })
	}()
}

func (p *DetailsPage) SetInstalled(installed bool, version string) {
	p.installed = installed
	p.version = version
	p.probed = true

	if installed {
		p.buttons.SetButtonLabel(0, "Remove")
	} else {
		p.buttons.SetButtonLabel(0, "Install")
	}
	p.buttons.SetButtonDisabled(0, false)
	p.buttons.FocusButton(0)
	p.frame.SetHelpText("Runs: " + tview.Escape(p.runner.FormatCommand(p.Request())))
	p.render()
}

func (p *DetailsPage) render() {
	t := CurrentTheme()
	var sb strings.Builder

	fmt.Fprintf(&sb, "[%s::b]%s[-:-:-]\n\n", t.AccentColorName, tview.Escape(p.pkg.Name))
	fmt.Fprintf(&sb, "%s\n\n", tview.Escape(p.pkg.Description))
	fmt.Fprintf(&sb, "[%s]Package:[-] %s\n", t.SecondaryColor, tview.Escape(p.pkg.ID))

	status := fmt.Sprintf("[%s]checking...[-]", t.SecondaryColor)
	if p.probed {
		switch {
		case p.installed && p.version != "":
			status = fmt.Sprintf("[%s]installed[-] (%s)", t.SuccessColorName, tview.Escape(p.version))
		case p.installed:
			status = fmt.Sprintf("[%s]installed[-]", t.SuccessColorName)
		default:
			status = "not installed"
		}
	}
	fmt.Fprintf(&sb, "[%s]Status:[-]  %s\n", t.SecondaryColor, status)

	p.info.SetText(sb.String())
}
