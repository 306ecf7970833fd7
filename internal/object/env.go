// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2026 The Gopa Authors

package object

import "sort"

// Env is a lexical scope: a name table with a pointer to the enclosing
// scope. Closures capture the *Env itself, so a mutation through one
// reference is visible through every other.
type Env struct {
	vars   map[string]Value
	parent *Env
}

// NewEnv creates a scope. Parent is nil for the top level.
func NewEnv(parent *Env) *Env {
	return &Env{vars: make(map[string]Value), parent: parent}
}

// Define binds a name in this scope, shadowing any outer binding. This is
// the `is` statement.
func (e *Env) Define(name string, v Value) {
	e.vars[name] = v
}

// Assign rebinds an existing name, walking outward through enclosing
// scopes. It reports false when the name is bound nowhere; `becomes`
// never creates a binding.
func (e *Env) Assign(name string, v Value) bool {
	for s := e; s != nil; s = s.parent {
		if _, ok := s.vars[name]; ok {
			s.vars[name] = v
			return true
		}
	}
	return false
}

// Get resolves a name, innermost scope first.
func (e *Env) Get(name string) (Value, bool) {
	for s := e; s != nil; s = s.parent {
		if v, ok := s.vars[name]; ok {
			return v, true
		}
	}
	return Nothing, false
}

// Names lists the bindings of this scope only, sorted. Package loading
// uses it to collect a module's top-level definitions.
func (e *Env) Names() []string {
	names := make([]string, 0, len(e.vars))
	for name := range e.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
