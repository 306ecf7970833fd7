// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2026 The Gopa Authors

// Package packages loads Gopa packages: the bundled standard library,
// installed packages from a registry store, and local installs from a
// gopa.toml directory.
package packages

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/npillmayer/schuko/tracing"

	"github.com/gopa-lang/gopa/internal/eval"
	"github.com/gopa-lang/gopa/internal/object"
	"github.com/gopa-lang/gopa/internal/parser"
	"github.com/gopa-lang/gopa/internal/perm"
	"github.com/gopa-lang/gopa/internal/registry"
	"github.com/gopa-lang/gopa/internal/stdlib"
)

// tracer traces with key 'gopa.packages'.
func tracer() tracing.Trace {
	return tracing.Select("gopa.packages")
}

// Manifest mirrors gopa.toml.
type Manifest struct {
	Name        string   `toml:"name"`
	Version     string   `toml:"version"`
	Entry       string   `toml:"entry"`
	Exports     []string `toml:"exports"`
	Permissions []string `toml:"permissions"`
}

// Manager resolves `use` and `install`. It implements eval.PackageLoader.
type Manager struct {
	store  registry.Store
	perms  perm.Set
	out    io.Writer
	loaded map[string]object.Value
}

// NewManager creates a package manager. Packages execute under the same
// permission set as the host script; a manifest can declare requirements
// but never widen the sandbox. out receives anything a package's
// top-level code prints.
func NewManager(store registry.Store, perms perm.Set, out io.Writer) *Manager {
	if out == nil {
		out = io.Discard
	}
	return &Manager{
		store:  store,
		perms:  perms,
		out:    out,
		loaded: make(map[string]object.Value),
	}
}

// Use loads a package and returns its namespace object. Loading twice
// returns the same namespace; package top-level code runs once.
func (m *Manager) Use(name string) (object.Value, error) {
	if ns, ok := m.loaded[name]; ok {
		return ns, nil
	}

	if src, ok := stdlib.Lookup(name); ok {
		ns, err := m.load(name, src, nil)
		if err != nil {
			return object.Nothing, err
		}
		m.loaded[name] = ns
		return ns, nil
	}

	pkg, err := m.store.Get(name)
	if err != nil {
		return object.Nothing, err
	}
	if pkg == nil {
		return object.Nothing, fmt.Errorf("package %q is not installed", name)
	}

	var mf Manifest
	if err := toml.Unmarshal([]byte(pkg.Manifest), &mf); err != nil {
		return object.Nothing, fmt.Errorf("bad manifest for %q: %v", name, err)
	}
	// Fail closed: required capabilities are checked before any package
	// code runs, and a manifest can only name grants the sandbox holds.
	for _, p := range mf.Permissions {
		required := perm.Capability(p)
		if p == "python" {
			required = perm.PythonFFI
		}
		if !m.perms.Has(required) {
			return object.Nothing, fmt.Errorf("package %q requires the %s permission", name, required)
		}
	}

	ns, err := m.load(name, pkg.Source, mf.Exports)
	if err != nil {
		return object.Nothing, err
	}
	tracer().Infof("loaded package %s %s", mf.Name, mf.Version)
	m.loaded[name] = ns
	return ns, nil
}

// load runs package source in a fresh interpreter and collects its
// top-level bindings into a namespace object. A nil export list exports
// everything.
func (m *Manager) load(name, src string, exports []string) (object.Value, error) {
	prog, err := parser.ParseSource(src)
	if err != nil {
		return object.Nothing, fmt.Errorf("package %q: %v", name, err)
	}
	interp := eval.New(eval.Config{Perms: m.perms, Out: m.out})
	if err := interp.Run(prog, false); err != nil {
		return object.Nothing, fmt.Errorf("package %q: %v", name, err)
	}

	globals := interp.Globals()
	ns := object.NewObject()
	if exports == nil {
		for _, bound := range globals.Names() {
			v, _ := globals.Get(bound)
			ns.Map.Set(bound, v)
		}
		return ns, nil
	}
	for _, want := range exports {
		v, ok := globals.Get(want)
		if !ok {
			return object.Nothing, fmt.Errorf("package %q exports %q but never defines it", name, want)
		}
		ns.Map.Set(want, v)
	}
	return ns, nil
}

// Install copies a local package directory into the registry. The
// argument must be a path (./pkg, ../pkg or absolute) containing a
// gopa.toml; bare names would need a remote registry, which is not
// configured here.
func (m *Manager) Install(name string) error {
	if !strings.HasPrefix(name, "./") && !strings.HasPrefix(name, "../") && !filepath.IsAbs(name) {
		return fmt.Errorf("no remote registry configured; install from a local path like ./%s", name)
	}

	manifestPath := filepath.Join(name, "gopa.toml")
	manifestText, err := os.ReadFile(manifestPath)
	if err != nil {
		return fmt.Errorf("manifest not found: %s", manifestPath)
	}
	var mf Manifest
	if err := toml.Unmarshal(manifestText, &mf); err != nil {
		return fmt.Errorf("bad manifest %s: %v", manifestPath, err)
	}
	if mf.Name == "" {
		mf.Name = filepath.Base(name)
	}
	if mf.Version == "" {
		mf.Version = "1.0.0"
	}
	entry := mf.Entry
	if entry == "" {
		entry = "main.gopa"
	}
	source, err := os.ReadFile(filepath.Join(name, entry))
	if err != nil {
		return fmt.Errorf("entry file not found: %s", filepath.Join(name, entry))
	}

	if err := m.store.Put(&registry.Package{
		Name:     mf.Name,
		Version:  mf.Version,
		Manifest: string(manifestText),
		Source:   string(source),
	}); err != nil {
		return err
	}
	tracer().Infof("installed package %s %s from %s", mf.Name, mf.Version, name)
	return nil
}
