// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2026 The Gopa Authors

// Package registry persists installed Gopa packages.
package registry

// Package is one installed package version: its manifest and the source
// text of its entry file.
type Package struct {
	Name     string
	Version  string
	Manifest string
	Source   string
}

// Store is the interface for package persistence.
type Store interface {
	// Get retrieves a package by name. Returns nil if not installed.
	Get(name string) (*Package, error)
	// Put stores a package, overwriting any installed version.
	Put(pkg *Package) error
	// List returns installed package names in sorted order.
	List() ([]string, error)
	// Delete removes a package by name.
	Delete(name string) error
	// Close releases resources.
	Close() error
}
