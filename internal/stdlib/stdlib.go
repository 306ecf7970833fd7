// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2026 The Gopa Authors

// Package stdlib embeds the bundled Gopa packages. They load through the
// same `use` path as installed packages but need no registry entry and
// no extra capabilities.
package stdlib

import _ "embed"

//go:embed math.gopa
var mathSource string

//go:embed colors.gopa
var colorsSource string

//go:embed time.gopa
var timeSource string

var packages = map[string]string{
	"math":   mathSource,
	"colors": colorsSource,
	"time":   timeSource,
}

// Lookup returns the source of a bundled package.
func Lookup(name string) (string, bool) {
	src, ok := packages[name]
	return src, ok
}

// Names lists the bundled packages.
func Names() []string {
	return []string{"colors", "math", "time"}
}
