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
	"fmt"
	"io"
	"time"

	"github.com/LoadoutProject/loadout/pkg/pkgmgr"
	"github.com/rivo/tview"
)

// Buttons on the operation page, in order.
const (
	opButtonCancel = iota
	opButtonDetails
	opButtonClose
)

const pulseInterval = 150 * time.Millisecond

// OperationPage shows a running install or remove. It is the session's
// observer, so its methods run on the UI goroutine.
type OperationPage struct {
	app           *tview.Application
	frame         *PageFrame
	status        *tview.TextView
	progress      *ProgressBar
	output        *tview.TextView
	body          *tview.Flex
	buttons       *ButtonBar
	stop          chan struct{}
	onClose       func()
	req           pkgmgr.Request
	showingOutput bool
	finished      bool
}

// NewOperationPage builds the page for req. cancel is bound to the Cancel
// button and onClose runs when the finished page is closed.
func NewOperationPage(
	app *tview.Application,
	req pkgmgr.Request,
	cancel func(),
	onClose func(),
) *OperationPage {
	t := CurrentTheme()
	p := &OperationPage{app: app, req: req, onClose: onClose}

	p.status = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	p.progress = NewProgressBar()

	p.output = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(true)
	p.output.SetBackgroundColor(t.OutputBackgroundColor)
	p.output.SetTextColor(t.OutputTextColor)
	p.output.SetBorder(true).SetTitle(" Output ")
	p.output.ScrollToEnd()

	p.body = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(p.status, 1, 0, false).
		AddItem(tview.NewBox(), 1, 0, false).
		AddItem(p.progress, 1, 0, false).
		AddItem(tview.NewBox(), 0, 1, false)

	p.buttons = NewButtonBar().
		AddButton("Cancel", "Stop the operation", cancel).
		AddButton("Details", "Show or hide command output", p.ToggleOutput).
		AddButton("Close", "Return to the catalog", p.close)
	p.buttons.SetButtonDisabled(opButtonClose, true)

	verb := "Installing"
	if req.Kind == pkgmgr.Remove {
		verb = "Removing"
	}
	p.frame = NewPageFrame(app).
		SetTitle("Loadout", verb+" "+req.ID).
		SetContent(p.body).
		SetButtonBar(p.buttons).
		SetOnEscape(p.close).
		SetHints("←→: Select | Enter: Confirm")

	p.setStatus(t.AccentColorName, fmt.Sprintf("%s %s...", verb, req.ID))
	return p
}

func (p *OperationPage) Primitive() tview.Primitive {
	return p.frame
}

func (p *OperationPage) Buttons() *ButtonBar {
	return p.buttons
}

// Sink receives the session output. ANSI colors from the package manager
// are translated to tview tags.
func (p *OperationPage) Sink() io.Writer {
	return tview.ANSIWriter(p.output)
}

func (p *OperationPage) StatusText() string {
	return p.status.GetText(true)
}

func (p *OperationPage) Progress() float64 {
	return p.progress.GetProgress()
}

func (p *OperationPage) OutputVisible() bool {
	return p.showingOutput
}

func (p *OperationPage) OutputText() string {
	return p.output.GetText(true)
}

func (p *OperationPage) setStatus(color, text string) {
	p.status.SetText(fmt.Sprintf("[%s::b]%s", color, tview.Escape(text)))
}

// StartPulse animates the progress bar until the operation ends. There is
// no real progress to report, only activity.
func (p *OperationPage) StartPulse() {
	p.stop = make(chan struct{})
	stop := p.stop
	go func() {
		ticker := time.NewTicker(pulseInterval)
		defer ticker.Stop()
		step := 0
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				step = (step + 1) % 20
				frac := float64(step) / 20
				p.app.QueueUpdateDraw(func() {
					if !p.finished {
						p.progress.SetProgress(frac)
					}
				})
			}
		}
	}()
}

func (p *OperationPage) stopPulse() {
	if p.stop != nil {
		close(p.stop)
		p.stop = nil
	}
}

func (p *OperationPage) SetOutputVisible(visible bool) {
	if visible == p.showingOutput {
		return
	}
	p.showingOutput = visible
	if visible {
		p.body.RemoveItem(p.body.GetItem(p.body.GetItemCount() - 1))
		p.body.AddItem(p.output, 0, 1, false)
		p.buttons.SetButtonLabel(opButtonDetails, "Hide details")
	} else {
		p.body.RemoveItem(p.output)
		p.body.AddItem(tview.NewBox(), 0, 1, false)
		p.buttons.SetButtonLabel(opButtonDetails, "Details")
	}
}

func (p *OperationPage) ToggleOutput() {
	p.SetOutputVisible(!p.showingOutput)
}

func (p *OperationPage) end() {
	p.finished = true
	p.stopPulse()
	p.buttons.SetButtonDisabled(opButtonCancel, true)
	p.buttons.SetButtonDisabled(opButtonClose, false)
	p.buttons.FocusButton(opButtonClose)
}

// OperationFinished implements operation.Observer.
func (p *OperationPage) OperationFinished(success bool, _ string) {
	t := CurrentTheme()
	p.end()

	if success {
		done := "installed"
		if p.req.Kind == pkgmgr.Remove {
			done = "removed"
		}
		p.setStatus(t.SuccessColorName, fmt.Sprintf("%s %s successfully", p.req.ID, done))
		p.progress.SetProgress(1)
		p.frame.SetHelpText("")
		return
	}

	p.setStatus(t.ErrorColorName, fmt.Sprintf("Failed to %s %s", p.req.Kind, p.req.ID))
	p.progress.SetProgress(0)
	p.SetOutputVisible(true)
	p.frame.SetHelpText("See the output above for details")
}

// OperationAborted implements operation.Observer.
func (p *OperationPage) OperationAborted() {
	t := CurrentTheme()
	p.end()
	p.setStatus(t.WarningColorName, fmt.Sprintf("Cancelled %s of %s", p.req.Kind, p.req.ID))
	p.progress.SetProgress(0)
}

func (p *OperationPage) close() {
	if !p.finished {
		return
	}
	p.onClose()
}
