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
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// ProgressBar draws a single-line bar filled to a fraction between 0 and 1.
type ProgressBar struct {
	*tview.Box
	progress   float64
	emptyRune  rune
	filledRune rune
}

func NewProgressBar() *ProgressBar {
	return &ProgressBar{
		Box:        tview.NewBox(),
		emptyRune:  tcell.RuneBoard,
		filledRune: tcell.RuneBlock,
	}
}

func (p *ProgressBar) SetProgress(progress float64) *ProgressBar {
	p.progress = min(max(progress, 0), 1)
	return p
}

func (p *ProgressBar) GetProgress() float64 {
	return p.progress
}

func (p *ProgressBar) Draw(screen tcell.Screen) {
	p.DrawForSubclass(screen, p)

	x, y, width, height := p.GetInnerRect()
	if height <= 0 {
		return
	}

	t := CurrentTheme()
	filled := int(float64(width) * p.progress)
	for i := range width {
		if i < filled {
			screen.SetContent(x+i, y, p.filledRune, nil,
				tcell.StyleDefault.Foreground(t.ProgressFillColor).Background(t.PrimitiveBackgroundColor))
		} else {
			screen.SetContent(x+i, y, p.emptyRune, nil,
				tcell.StyleDefault.Foreground(t.ProgressEmptyColor).Background(t.PrimitiveBackgroundColor))
		}
	}
}

// ButtonBar is a horizontal row of buttons with arrow key navigation.
// Disabled buttons are drawn dimmed and ignore Enter and clicks.
type ButtonBar struct {
	*tview.Box
	onEscape     func()
	onUp         func()
	helpCallback func(string)
	buttons      []*tview.Button
	helpTexts    []string
	focusedIndex int
}

func NewButtonBar() *ButtonBar {
	return &ButtonBar{Box: tview.NewBox()}
}

func (bb *ButtonBar) AddButton(label, helpText string, action func()) *ButtonBar {
	btn := tview.NewButton(label).SetSelectedFunc(action)
	bb.buttons = append(bb.buttons, btn)
	bb.helpTexts = append(bb.helpTexts, helpText)
	return bb
}

// SetHelpCallback is called with the help text of a button when it gains
// focus.
func (bb *ButtonBar) SetHelpCallback(fn func(string)) *ButtonBar {
	bb.helpCallback = fn
	return bb
}

func (bb *ButtonBar) SetOnEscape(fn func()) *ButtonBar {
	bb.onEscape = fn
	return bb
}

// SetOnUp is called when Up is pressed, usually to move focus back to the
// page content.
func (bb *ButtonBar) SetOnUp(fn func()) *ButtonBar {
	bb.onUp = fn
	return bb
}

func (bb *ButtonBar) triggerHelp() {
	if bb.helpCallback != nil && bb.focusedIndex < len(bb.helpTexts) {
		bb.helpCallback(bb.helpTexts[bb.focusedIndex])
	}
}

func (bb *ButtonBar) SetButtonDisabled(index int, disabled bool) {
	if index >= 0 && index < len(bb.buttons) {
		bb.buttons[index].SetDisabled(disabled)
	}
}

func (bb *ButtonBar) IsButtonDisabled(index int) bool {
	if index >= 0 && index < len(bb.buttons) {
		return bb.buttons[index].IsDisabled()
	}
	return true
}

func (bb *ButtonBar) SetButtonLabel(index int, label string) {
	if index >= 0 && index < len(bb.buttons) {
		bb.buttons[index].SetLabel(label)
	}
}

// FocusButton moves the selection to index.
func (bb *ButtonBar) FocusButton(index int) {
	if index >= 0 && index < len(bb.buttons) {
		bb.focusedIndex = index
		bb.triggerHelp()
	}
}

func (bb *ButtonBar) FocusedIndex() int {
	return bb.focusedIndex
}

func (bb *ButtonBar) Draw(screen tcell.Screen) {
	bb.DrawForSubclass(screen, bb)

	x, y, width, _ := bb.GetInnerRect()
	if len(bb.buttons) == 0 || width <= 0 {
		return
	}

	spacing := 2
	buttonWidth := max((width-spacing*(len(bb.buttons)-1))/len(bb.buttons), 6)
	hasFocus := bb.HasFocus()

	currentX := x
	for i, btn := range bb.buttons {
		btnWidth := min(buttonWidth, x+width-currentX)
		if btnWidth <= 0 {
			break
		}
		btn.SetRect(currentX, y, btnWidth, 1)
		if hasFocus && i == bb.focusedIndex {
			btn.Focus(func(_ tview.Primitive) {})
		} else {
			btn.Blur()
		}
		btn.Draw(screen)
		currentX += btnWidth + spacing
	}
}

func (bb *ButtonBar) press(index int) {
	btn := bb.buttons[index]
	if btn.IsDisabled() {
		return
	}
	if handler := btn.InputHandler(); handler != nil {
		handler(tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone), func(tview.Primitive) {})
	}
}

func (bb *ButtonBar) InputHandler() func(event *tcell.EventKey, setFocus func(p tview.Primitive)) {
	return bb.WrapInputHandler(func(event *tcell.EventKey, _ func(p tview.Primitive)) {
		if len(bb.buttons) == 0 {
			return
		}

		switch event.Key() {
		case tcell.KeyLeft, tcell.KeyBacktab:
			bb.focusedIndex = (bb.focusedIndex - 1 + len(bb.buttons)) % len(bb.buttons)
			bb.triggerHelp()
		case tcell.KeyRight, tcell.KeyTab:
			bb.focusedIndex = (bb.focusedIndex + 1) % len(bb.buttons)
			bb.triggerHelp()
		case tcell.KeyUp:
			if bb.onUp != nil {
				bb.onUp()
			}
		case tcell.KeyEnter:
			bb.press(bb.focusedIndex)
		case tcell.KeyEscape:
			if bb.onEscape != nil {
				bb.onEscape()
			}
		default:
		}
	})
}

func (bb *ButtonBar) MouseHandler() func(
	action tview.MouseAction,
	event *tcell.EventMouse,
	setFocus func(p tview.Primitive),
) (consumed bool, capture tview.Primitive) {
	return bb.WrapMouseHandler(func(
		action tview.MouseAction,
		event *tcell.EventMouse,
		setFocus func(p tview.Primitive),
	) (consumed bool, capture tview.Primitive) {
		if action != tview.MouseLeftClick {
			return false, nil
		}
		for i, btn := range bb.buttons {
			if !btn.InRect(event.Position()) {
				continue
			}
			bb.focusedIndex = i
			bb.triggerHelp()
			setFocus(bb)
			bb.press(i)
			return true, nil
		}
		return false, nil
	})
}

func (bb *ButtonBar) Focus(delegate func(p tview.Primitive)) {
	if len(bb.buttons) > 0 {
		bb.Box.Focus(delegate)
		bb.triggerHelp()
	}
}
