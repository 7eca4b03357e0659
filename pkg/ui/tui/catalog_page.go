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

	"github.com/LoadoutProject/loadout/pkg/catalog"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

const (
	markerInstalled = "[✓]"
	markerMissing   = "[ ]"
	markerUnknown   = "[?]"
)

// CatalogPage lists catalog packages grouped by category with a search
// field above. Installed markers are filled in by SetInstalled.
type CatalogPage struct {
	frame     *PageFrame
	search    *tview.InputField
	table     *tview.Table
	catalog   *catalog.Catalog
	view      *ViewState
	installed map[string]bool
	rows      map[int]string
	onSelect  func(pkg catalog.Package)
}

func NewCatalogPage(
	app *tview.Application,
	cat *catalog.Catalog,
	view *ViewState,
	onSelect func(pkg catalog.Package),
	onRefresh func(),
	onQuit func(),
) *CatalogPage {
	p := &CatalogPage{
		catalog:  cat,
		view:     view,
		onSelect: onSelect,
		rows:     make(map[int]string),
	}

	t := CurrentTheme()
	p.search = tview.NewInputField().
		SetLabel("Search: ").
		SetText(view.Query()).
		SetFieldBackgroundColor(t.FieldUnfocusedBg).
		SetFieldTextColor(t.PrimaryTextColor)
	p.search.SetFocusFunc(func() { p.search.SetFieldBackgroundColor(t.FieldFocusedBg) })
	p.search.SetBlurFunc(func() { p.search.SetFieldBackgroundColor(t.FieldUnfocusedBg) })
	p.search.SetChangedFunc(func(text string) {
		view.SetQuery(text)
		p.render()
	})
	p.search.SetDoneFunc(func(key tcell.Key) {
		switch key {
		case tcell.KeyEscape:
			if p.search.GetText() == "" {
				onQuit()
				return
			}
			p.search.SetText("")
		default:
			app.SetFocus(p.table)
		}
	})

	p.table = tview.NewTable().
		SetSelectable(true, false).
		SetSelectedStyle(tcell.StyleDefault.
			Foreground(t.InverseTextColor).
			Background(t.BorderColor))
	p.table.SetSelectedFunc(func(row, _ int) {
		id, ok := p.rows[row]
		if !ok {
			return
		}
		if pkg, ok := p.catalog.Lookup(id); ok {
			view.SetSelectedID(id)
			p.onSelect(pkg)
		}
	})
	p.table.SetSelectionChangedFunc(func(row, _ int) {
		if id, ok := p.rows[row]; ok {
			view.SetSelectedID(id)
			if pkg, ok := p.catalog.Lookup(id); ok {
				p.frame.SetHelpText(pkg.Description)
			}
		}
	})
	p.table.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch {
		case event.Key() == tcell.KeyTab, event.Key() == tcell.KeyRune && event.Rune() == '/':
			app.SetFocus(p.search)
			return nil
		case event.Key() == tcell.KeyEscape:
			onQuit()
			return nil
		case event.Key() == tcell.KeyRune && event.Rune() == 'q':
			onQuit()
			return nil
		case event.Key() == tcell.KeyRune && event.Rune() == 'r':
			onRefresh()
			return nil
		}
		return event
	})

	content := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(p.search, 1, 0, false).
		AddItem(tview.NewBox(), 1, 0, false).
		AddItem(p.table, 0, 1, true)

	p.frame = NewPageFrame(app).
		SetTitle("Loadout", "Catalog").
		SetContent(content).
		SetHints("↑↓: Navigate | Enter: Details | /: Search | r: Refresh | q: Quit")

	p.render()
	return p
}

func (p *CatalogPage) Primitive() tview.Primitive {
	return p.frame
}

// SetInstalled replaces the installed markers and redraws the list.
func (p *CatalogPage) SetInstalled(installed map[string]bool) {
	p.installed = installed
	p.render()
}

func (p *CatalogPage) marker(id string) string {
	if p.installed == nil {
		return markerUnknown
	}
	if p.installed[id] {
		return markerInstalled
	}
	return markerMissing
}

// Notify shows a short message in the help line until the selection moves.
func (p *CatalogPage) Notify(text string) {
	p.frame.SetHelpText(text)
}

// SearchField is the query input.
func (p *CatalogPage) SearchField() *tview.InputField {
	return p.search
}

func (p *CatalogPage) Table() *tview.Table {
	return p.table
}

// render rebuilds the table from the current query, keeping the selected
// package selected when it is still visible.
func (p *CatalogPage) render() {
	t := CurrentTheme()
	p.table.Clear()
	p.rows = make(map[int]string)

	results := p.catalog.Search(p.view.Query())
	if len(results) == 0 {
		p.table.SetCell(0, 0, tview.NewTableCell(
			fmt.Sprintf("[%s]No packages match %q", t.SecondaryColor, p.view.Query()),
		).SetSelectable(false))
		return
	}

	row := 0
	selectRow := -1
	for _, cat := range results {
		p.table.SetCell(row, 0, tview.NewTableCell("").SetSelectable(false))
		p.table.SetCell(row, 1, tview.NewTableCell(
			fmt.Sprintf("[%s::b]%s", t.AccentColorName, tview.Escape(cat.Title)),
		).SetSelectable(false))
		p.table.SetCell(row, 2, tview.NewTableCell("").SetSelectable(false))
		row++

		for _, pkg := range cat.Packages {
			marker := p.marker(pkg.ID)
			color := t.SecondaryColor
			if marker == markerInstalled {
				color = t.SuccessColorName
			}
			p.table.SetCell(row, 0, tview.NewTableCell(
				fmt.Sprintf("[%s]%s", color, tview.Escape(marker)),
			))
			p.table.SetCell(row, 1, tview.NewTableCell(tview.Escape(pkg.Name)))
			p.table.SetCell(row, 2, tview.NewTableCell(tview.Escape(pkg.Description)).
				SetTextColor(t.SecondaryTextColor).
				SetExpansion(1))
			p.rows[row] = pkg.ID
			if selectRow < 0 || pkg.ID == p.view.SelectedID() {
				selectRow = row
			}
			row++
		}
	}

	if selectRow >= 0 {
		p.table.Select(selectRow, 0)
	}
}
