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

// Package tui is the terminal front-end: a searchable catalog, a details
// page per package and a live view of running operations.
package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/LoadoutProject/loadout/pkg/catalog"
	"github.com/LoadoutProject/loadout/pkg/config"
	"github.com/LoadoutProject/loadout/pkg/operation"
	"github.com/LoadoutProject/loadout/pkg/pkgmgr"
	"github.com/rivo/tview"
	"github.com/rs/zerolog/log"
)

const (
	// refreshTimeout bounds one ProbeAll pass over the catalog.
	refreshTimeout = 30 * time.Second

	noticeRefreshed = "Package status updated"
)

type Deps struct {
	Config    *config.Instance
	Catalog   *catalog.Catalog
	Prober    *pkgmgr.Prober
	Runner    *pkgmgr.Runner
	Refresher *pkgmgr.Refresher
	// Optional, defaults to operation.DefaultSpawner.
	Spawner operation.Spawner
}

// UI owns the tview application and all pages. Methods other than
// RefreshInstalled must run on the UI goroutine.
type UI struct {
	app         *tview.Application
	pages       *tview.Pages
	catalogPage *CatalogPage
	current     *operation.Session
	view        *ViewState
	deps        Deps
}

// Scheduler runs closures on the tview event loop.
func Scheduler(app *tview.Application) operation.Scheduler {
	return operation.SchedulerFunc(func(fn func()) {
		app.QueueUpdateDraw(fn)
	})
}

func validateDeps(deps Deps) error {
	switch {
	case deps.Catalog == nil:
		return errors.New("catalog is required")
	case deps.Prober == nil:
		return errors.New("prober is required")
	case deps.Runner == nil:
		return errors.New("runner is required")
	}
	return nil
}

// NewUI builds all pages on app. The theme and mouse settings come from
// the config, when set.
func NewUI(app *tview.Application, deps Deps) (*UI, error) {
	if err := validateDeps(deps); err != nil {
		return nil, err
	}
	if deps.Spawner == nil {
		deps.Spawner = operation.DefaultSpawner()
	}

	if deps.Config != nil {
		if !SetCurrentTheme(deps.Config.TUITheme()) {
			log.Warn().Str("theme", deps.Config.TUITheme()).Msg("unknown theme, using default")
			SetCurrentTheme(ThemeDefault.Name)
		}
		app.EnableMouse(deps.Config.TUIMouse())
	} else {
		SetCurrentTheme(ThemeDefault.Name)
	}

	u := &UI{
		app:   app,
		pages: tview.NewPages(),
		view:  NewViewState(),
		deps:  deps,
	}
	u.catalogPage = NewCatalogPage(app, deps.Catalog, u.view, u.showDetails, u.refreshWithNotice, u.quit)
	u.pages.AddPage(PageCatalog, u.catalogPage.Primitive(), true, true)
	app.SetRoot(u.pages, true)
	app.SetFocus(u.catalogPage.Table())
	return u, nil
}

// BuildMain creates the application ready to Run.
func BuildMain(deps Deps) (*UI, error) {
	u, err := NewUI(tview.NewApplication(), deps)
	if err != nil {
		return nil, err
	}
	u.RefreshInstalled()
	return u, nil
}

func (u *UI) App() *tview.Application {
	return u.app
}

func (u *UI) Pages() *tview.Pages {
	return u.pages
}

func (u *UI) CatalogPage() *CatalogPage {
	return u.catalogPage
}

// Current is the most recently started session, if any.
func (u *UI) Current() *operation.Session {
	return u.current
}

func (u *UI) Run() error {
	if err := u.app.Run(); err != nil {
		return fmt.Errorf("tui exited: %w", err)
	}
	return nil
}

// RefreshInstalled probes every catalog package in the background and
// updates the catalog markers. Safe to call from any goroutine.
func (u *UI) RefreshInstalled() {
	u.refreshInstalled(nil)
}

// refreshWithNotice is the manual refresh bound to the catalog page.
func (u *UI) refreshWithNotice() {
	u.refreshInstalled(func() {
		u.catalogPage.Notify(noticeRefreshed)
	})
}

// refreshInstalled probes in the background. done, if set, runs on the UI
// goroutine after the markers are updated.
func (u *UI) refreshInstalled(done func()) {
	ids := u.deps.Catalog.IDs()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		installed := u.deps.Prober.ProbeAll(ctx, ids)
		u.app.QueueUpdateDraw(func() {
			u.catalogPage.SetInstalled(installed)
			if done != nil {
				done()
			}
		})
	}()
}

func (u *UI) quit() {
	if u.current != nil && u.current.State() == operation.Running {
		return
	}
	u.app.Stop()
}

func (u *UI) backToCatalog() {
	u.pages.SwitchToPage(PageCatalog)
	u.pages.RemovePage(PageDetails)
	u.pages.RemovePage(PageOperation)
	u.app.SetFocus(u.catalogPage.Table())
}

func (u *UI) showDetails(pkg catalog.Package) {
	details := NewDetailsPage(u.app, pkg, u.deps.Runner, u.startOperation, u.backToCatalog)
	u.pages.AddAndSwitchToPage(PageDetails, details.Primitive(), true)
	u.app.SetFocus(details.Buttons())
	details.Probe(u.deps.Prober, Scheduler(u.app).Queue)
}

// startOperation opens the operation page and starts a session for req.
func (u *UI) startOperation(req pkgmgr.Request) {
	var sess *operation.Session
	page := NewOperationPage(u.app, req,
		func() {
			if sess != nil {
				sess.Cancel()
			}
		},
		u.backToCatalog,
	)

	var refresher operation.Refresher
	if u.deps.Refresher != nil {
		refresher = u.deps.Refresher
	}

	var err error
	sess, err = operation.New(req, operation.Options{
		Commander: u.deps.Runner,
		Scheduler: Scheduler(u.app),
		Spawner:   u.deps.Spawner,
		Observer:  refreshingObserver{page: page, ui: u},
		Sink:      page.Sink(),
		Refresher: refresher,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to create operation")
		u.showError(err.Error())
		return
	}

	u.pages.AddAndSwitchToPage(PageOperation, page.Primitive(), true)
	u.pages.RemovePage(PageDetails)
	u.app.SetFocus(page.Buttons())

	if err := sess.Start(); err != nil {
		log.Error().Err(err).Msg("failed to start operation")
		u.showError(err.Error())
		return
	}
	u.current = sess
	page.StartPulse()
}

func (u *UI) showError(msg string) {
	modal := tview.NewModal().
		SetText(msg).
		AddButtons([]string{"OK"}).
		SetDoneFunc(func(int, string) {
			u.pages.RemovePage("error")
			u.backToCatalog()
		})
	modal.SetTitle(" Error ").SetBorder(true)
	u.pages.AddPage("error", modal, true, true)
	u.app.SetFocus(modal)
}

// refreshingObserver updates the operation page, then re-probes the
// catalog so its markers match the new system state.
type refreshingObserver struct {
	page *OperationPage
	ui   *UI
}

func (o refreshingObserver) OperationFinished(success bool, output string) {
	o.page.OperationFinished(success, output)
	o.ui.RefreshInstalled()
}

func (o refreshingObserver) OperationAborted() {
	o.page.OperationAborted()
	o.ui.RefreshInstalled()
}
