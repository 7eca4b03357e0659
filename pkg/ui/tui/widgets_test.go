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
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Tests in this package don't run in parallel: themes write tview.Styles.

func TestProgressBar_Clamps(t *testing.T) {
	bar := NewProgressBar()
	assert.InDelta(t, 0.0, bar.SetProgress(-1).GetProgress(), 0)
	assert.InDelta(t, 1.0, bar.SetProgress(7).GetProgress(), 0)
	assert.InDelta(t, 0.25, bar.SetProgress(0.25).GetProgress(), 0)
}

func TestProgressBar_Draw(t *testing.T) {
	bar := NewProgressBar().SetProgress(0.5)
	screen := drawPrimitive(t, bar, 10, 1)

	cells, _, _ := screen.GetContents()
	assert.Equal(t, tcell.RuneBlock, cells[0].Runes[0])
	assert.Equal(t, tcell.RuneBlock, cells[4].Runes[0])
	assert.Equal(t, tcell.RuneBoard, cells[5].Runes[0])
	assert.Equal(t, tcell.RuneBoard, cells[9].Runes[0])
}

func TestButtonBar_Navigation(t *testing.T) {
	var pressed []string
	var help []string
	bar := NewButtonBar().
		AddButton("One", "first", func() { pressed = append(pressed, "one") }).
		AddButton("Two", "second", func() { pressed = append(pressed, "two") }).
		SetHelpCallback(func(s string) { help = append(help, s) })

	handler := bar.InputHandler()
	noFocus := func(tview.Primitive) {}
	key := func(k tcell.Key) { handler(tcell.NewEventKey(k, 0, tcell.ModNone), noFocus) }

	key(tcell.KeyEnter)
	key(tcell.KeyRight)
	assert.Equal(t, 1, bar.FocusedIndex())
	key(tcell.KeyEnter)
	key(tcell.KeyRight)
	assert.Equal(t, 0, bar.FocusedIndex(), "wraps around")
	key(tcell.KeyLeft)
	assert.Equal(t, 1, bar.FocusedIndex())

	assert.Equal(t, []string{"one", "two"}, pressed)
	assert.Equal(t, []string{"second", "first", "second"}, help)
}

func TestButtonBar_DisabledIgnoresEnter(t *testing.T) {
	pressed := 0
	bar := NewButtonBar().AddButton("Close", "", func() { pressed++ })
	bar.SetButtonDisabled(0, true)
	require.True(t, bar.IsButtonDisabled(0))

	handler := bar.InputHandler()
	handler(tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone), func(tview.Primitive) {})
	assert.Zero(t, pressed)

	bar.SetButtonDisabled(0, false)
	handler(tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone), func(tview.Primitive) {})
	assert.Equal(t, 1, pressed)

	assert.True(t, bar.IsButtonDisabled(5), "out of range counts as disabled")
}

func TestButtonBar_EscapeAndUp(t *testing.T) {
	escaped, up := false, false
	bar := NewButtonBar().
		AddButton("OK", "", func() {}).
		SetOnEscape(func() { escaped = true }).
		SetOnUp(func() { up = true })

	handler := bar.InputHandler()
	handler(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone), func(tview.Primitive) {})
	handler(tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone), func(tview.Primitive) {})
	assert.True(t, escaped)
	assert.True(t, up)
}

func TestPageFrame_DrawsTitleAndHints(t *testing.T) {
	app := tview.NewApplication()
	frame := NewPageFrame(app).
		SetTitle("Loadout", "Catalog").
		SetContent(tview.NewTextView().SetText("body text")).
		SetHelpText("help line").
		SetHints("q: Quit")

	screen := drawPrimitive(t, frame, 60, 10)
	assert.True(t, screen.ContainsText("Loadout > Catalog"))
	assert.True(t, screen.ContainsText("body text"))
	assert.True(t, screen.ContainsText("help line"))
	assert.True(t, screen.ContainsText("q: Quit"))
}

func TestSetCurrentTheme(t *testing.T) {
	t.Cleanup(func() { SetCurrentTheme(ThemeDefault.Name) })

	for _, name := range ThemeNames {
		require.True(t, SetCurrentTheme(name), name)
		assert.Equal(t, name, CurrentTheme().Name)
		assert.Equal(t, CurrentTheme().PrimitiveBackgroundColor, tview.Styles.PrimitiveBackgroundColor)
	}
	assert.False(t, SetCurrentTheme("solarized"))
	assert.Equal(t, ThemeNames[len(ThemeNames)-1], CurrentTheme().Name)
}
