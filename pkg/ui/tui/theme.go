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
	"github.com/LoadoutProject/loadout/pkg/helpers/syncutil"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// Theme defines all colors used in the TUI. The *Name fields are for tview
// color tags.
type Theme struct {
	Name             string
	DisplayName      string
	AccentColorName  string
	SecondaryColor   string
	SuccessColorName string
	WarningColorName string
	ErrorColorName   string

	PrimitiveBackgroundColor tcell.Color
	ContrastBackgroundColor  tcell.Color
	BorderColor              tcell.Color
	PrimaryTextColor         tcell.Color
	SecondaryTextColor       tcell.Color
	InverseTextColor         tcell.Color
	FieldFocusedBg           tcell.Color
	FieldUnfocusedBg         tcell.Color
	ProgressFillColor        tcell.Color
	ProgressEmptyColor       tcell.Color
	OutputBackgroundColor    tcell.Color
	OutputTextColor          tcell.Color
}

// ThemeDefault is a dark blue theme with yellow borders.
var ThemeDefault = Theme{
	Name:        "default",
	DisplayName: "Default (Dark Blue)",

	PrimitiveBackgroundColor: tcell.ColorDarkBlue,
	ContrastBackgroundColor:  tcell.ColorBlue,
	BorderColor:              tcell.ColorLightYellow,
	PrimaryTextColor:         tcell.ColorWhite,
	SecondaryTextColor:       tcell.ColorGray,
	InverseTextColor:         tcell.ColorDarkBlue,

	AccentColorName:  "yellow",
	SecondaryColor:   "gray",
	SuccessColorName: "green",
	WarningColorName: "yellow",
	ErrorColorName:   "red",

	FieldFocusedBg:        tcell.ColorBlue,
	FieldUnfocusedBg:      tcell.ColorDarkBlue,
	ProgressFillColor:     tcell.ColorGreen,
	ProgressEmptyColor:    tcell.ColorGray,
	OutputBackgroundColor: tcell.ColorBlack,
	OutputTextColor:       tcell.ColorSilver,
}

// ThemeHighContrast uses a true black background for accessibility.
var ThemeHighContrast = Theme{
	Name:        "high_contrast",
	DisplayName: "High Contrast",

	PrimitiveBackgroundColor: tcell.NewHexColor(0x000000),
	ContrastBackgroundColor:  tcell.NewHexColor(0x000000),
	BorderColor:              tcell.ColorYellow,
	PrimaryTextColor:         tcell.ColorWhite,
	SecondaryTextColor:       tcell.ColorWhite,
	InverseTextColor:         tcell.NewHexColor(0x000000),

	AccentColorName:  "yellow",
	SecondaryColor:   "white",
	SuccessColorName: "lime",
	WarningColorName: "yellow",
	ErrorColorName:   "red",

	FieldFocusedBg:        tcell.ColorYellow,
	FieldUnfocusedBg:      tcell.NewHexColor(0x000000),
	ProgressFillColor:     tcell.ColorYellow,
	ProgressEmptyColor:    tcell.ColorWhite,
	OutputBackgroundColor: tcell.NewHexColor(0x000000),
	OutputTextColor:       tcell.ColorWhite,
}

// ThemeDracula follows the Dracula palette.
var ThemeDracula = Theme{
	Name:        "dracula",
	DisplayName: "Dracula",

	PrimitiveBackgroundColor: tcell.NewHexColor(0x282A36),
	ContrastBackgroundColor:  tcell.NewHexColor(0x44475A),
	BorderColor:              tcell.NewHexColor(0xBD93F9),
	PrimaryTextColor:         tcell.NewHexColor(0xF8F8F2),
	SecondaryTextColor:       tcell.NewHexColor(0x6272A4),
	InverseTextColor:         tcell.NewHexColor(0x282A36),

	AccentColorName:  "#bd93f9",
	SecondaryColor:   "#6272a4",
	SuccessColorName: "#50fa7b",
	WarningColorName: "#f1fa8c",
	ErrorColorName:   "#ff5555",

	FieldFocusedBg:        tcell.NewHexColor(0x44475A),
	FieldUnfocusedBg:      tcell.NewHexColor(0x282A36),
	ProgressFillColor:     tcell.NewHexColor(0x50FA7B),
	ProgressEmptyColor:    tcell.NewHexColor(0x44475A),
	OutputBackgroundColor: tcell.NewHexColor(0x21222C),
	OutputTextColor:       tcell.NewHexColor(0xF8F8F2),
}

// ThemeNord follows the Nord palette.
var ThemeNord = Theme{
	Name:        "nord",
	DisplayName: "Nord",

	PrimitiveBackgroundColor: tcell.NewHexColor(0x2E3440),
	ContrastBackgroundColor:  tcell.NewHexColor(0x3B4252),
	BorderColor:              tcell.NewHexColor(0x88C0D0),
	PrimaryTextColor:         tcell.NewHexColor(0xD8DEE9),
	SecondaryTextColor:       tcell.NewHexColor(0x4C566A),
	InverseTextColor:         tcell.NewHexColor(0x2E3440),

	AccentColorName:  "#88c0d0",
	SecondaryColor:   "#4c566a",
	SuccessColorName: "#a3be8c",
	WarningColorName: "#ebcb8b",
	ErrorColorName:   "#bf616a",

	FieldFocusedBg:        tcell.NewHexColor(0x434C5E),
	FieldUnfocusedBg:      tcell.NewHexColor(0x3B4252),
	ProgressFillColor:     tcell.NewHexColor(0xA3BE8C),
	ProgressEmptyColor:    tcell.NewHexColor(0x4C566A),
	OutputBackgroundColor: tcell.NewHexColor(0x3B4252),
	OutputTextColor:       tcell.NewHexColor(0xE5E9F0),
}

// ThemeNames lists the available themes in display order.
var ThemeNames = []string{"default", "high_contrast", "dracula", "nord"}

var availableThemes = map[string]*Theme{
	"default":       &ThemeDefault,
	"high_contrast": &ThemeHighContrast,
	"dracula":       &ThemeDracula,
	"nord":          &ThemeNord,
}

var (
	currentTheme = &ThemeDefault
	themeMu      syncutil.RWMutex
)

func CurrentTheme() *Theme {
	themeMu.RLock()
	defer themeMu.RUnlock()
	return currentTheme
}

// SetCurrentTheme switches to the named theme and applies it to tview's
// global styles. Returns false if the name is unknown.
func SetCurrentTheme(name string) bool {
	theme, ok := availableThemes[name]
	if !ok {
		return false
	}
	themeMu.Lock()
	currentTheme = theme
	themeMu.Unlock()
	applyTheme(theme)
	return true
}

func applyTheme(theme *Theme) {
	tview.Styles.PrimitiveBackgroundColor = theme.PrimitiveBackgroundColor
	tview.Styles.ContrastBackgroundColor = theme.ContrastBackgroundColor
	tview.Styles.BorderColor = theme.BorderColor
	tview.Styles.TitleColor = theme.BorderColor
	tview.Styles.PrimaryTextColor = theme.PrimaryTextColor
	tview.Styles.SecondaryTextColor = theme.SecondaryTextColor
	tview.Styles.InverseTextColor = theme.InverseTextColor
}
