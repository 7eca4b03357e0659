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

// Package catalog holds the curated list of packages Loadout can manage.
package catalog

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/cases"
)

//go:embed catalog.toml
var defaultCatalog []byte

type Package struct {
	Name        string `toml:"name" validate:"required"`
	Description string `toml:"description" validate:"required"`
	ID          string `toml:"id" validate:"required"`
	Icon        string `toml:"icon"`
}

type Category struct {
	Icon     string    `toml:"icon"`
	Title    string    `toml:"title" validate:"required"`
	Packages []Package `toml:"package" validate:"min=1,dive"`
}

type definitions struct {
	Categories []Category `toml:"category" validate:"min=1,dive"`
}

// Catalog is immutable after construction and safe for concurrent use.
type Catalog struct {
	byID       map[string]Package
	categories []Category
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Default returns the catalog built into the binary.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Parse decodes and validates TOML catalog definitions. Package ids must
// be unique across the whole catalog.
func Parse(data []byte) (*Catalog, error) {
	var defs definitions
	if err := toml.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := validate.Struct(defs); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}

	byID := make(map[string]Package)
	for _, cat := range defs.Categories {
		for _, p := range cat.Packages {
			if strings.ContainsAny(p.ID, " \t\n") {
				return nil, fmt.Errorf("invalid catalog: package id %q contains whitespace", p.ID)
			}
			if _, ok := byID[p.ID]; ok {
				return nil, fmt.Errorf("invalid catalog: duplicate package id %q", p.ID)
			}
			byID[p.ID] = p
		}
	}

	return &Catalog{categories: defs.Categories, byID: byID}, nil
}

// Categories returns a copy of all categories in catalog order.
func (c *Catalog) Categories() []Category {
	return cloneCategories(c.categories)
}

// Packages returns every package in catalog order.
func (c *Catalog) Packages() []Package {
	var pkgs []Package
	for _, cat := range c.categories {
		pkgs = append(pkgs, cat.Packages...)
	}
	return pkgs
}

// IDs returns every package id in catalog order.
func (c *Catalog) IDs() []string {
	pkgs := c.Packages()
	ids := make([]string, 0, len(pkgs))
	for _, p := range pkgs {
		ids = append(ids, p.ID)
	}
	return ids
}

func (c *Catalog) Lookup(id string) (Package, bool) {
	p, ok := c.byID[id]
	return p, ok
}

// Search filters the catalog by a case-insensitive substring of a package
// name, package description or category title. A category whose title
// matches is kept whole; otherwise only matching packages are kept and
// categories left empty are dropped. A blank query returns everything.
func (c *Catalog) Search(query string) []Category {
	q := fold(strings.TrimSpace(query))
	if q == "" {
		return c.Categories()
	}

	var results []Category
	for _, cat := range c.categories {
		if strings.Contains(fold(cat.Title), q) {
			results = append(results, cloneCategory(cat))
			continue
		}

		var matches []Package
		for _, p := range cat.Packages {
			if p.Matches(q) {
				matches = append(matches, p)
			}
		}
		if len(matches) > 0 {
			results = append(results, Category{Icon: cat.Icon, Title: cat.Title, Packages: matches})
		}
	}
	return results
}

// Matches reports whether query, ignoring case, is a substring of the
// package name or description.
func (p Package) Matches(query string) bool {
	q := fold(query)
	return strings.Contains(fold(p.Name), q) || strings.Contains(fold(p.Description), q)
}

// fold applies Unicode case folding. A Caser is stateful, so each call
// gets its own.
func fold(s string) string {
	return cases.Fold().String(s)
}

func cloneCategory(cat Category) Category {
	cat.Packages = append([]Package(nil), cat.Packages...)
	return cat
}

func cloneCategories(cats []Category) []Category {
	out := make([]Category, len(cats))
	for i, cat := range cats {
		out[i] = cloneCategory(cat)
	}
	return out
}
