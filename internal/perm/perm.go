// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2026 The Gopa Authors

// Package perm implements the capability sandbox. Scripts run with no
// capabilities beyond package loading unless the host grants them; every
// gated operation checks its own capability and fails closed.
package perm

import "strings"

// Capability names one gated facility.
type Capability string

const (
	Network   Capability = "network"
	Files     Capability = "files"
	Graphics  Capability = "graphics"
	Sound     Capability = "sound"
	Packages  Capability = "packages"
	PythonFFI Capability = "python_ffi"
	Server    Capability = "server"
	Timers    Capability = "timers"
	Cron      Capability = "cron"
)

// All lists every capability, in the order flags and manifests document
// them.
var All = []Capability{
	Network, Files, Graphics, Sound, Packages, PythonFFI, Server, Timers, Cron,
}

// Denied is the failure of a capability check. It names the capability so
// callers can tell the user exactly which grant is missing.
type Denied struct {
	Capability Capability
}

func (d *Denied) Error() string {
	return "permission denied: " + string(d.Capability) +
		" (grant it with --perm=" + string(d.Capability) + ")"
}

// Set is an immutable grant set.
type Set struct {
	granted map[Capability]bool
}

// Parse builds a grant set from a comma-separated flag value such as
// "network,files". Unknown names are ignored rather than granted;
// "python" is accepted as an alias for python_ffi. Package loading is
// granted by default so `use` works out of the box.
func Parse(s string) Set {
	granted := map[Capability]bool{Packages: true}
	if strings.TrimSpace(s) != "" {
		granted[Packages] = false
		for _, part := range strings.Split(s, ",") {
			name := strings.ToLower(strings.TrimSpace(part))
			if name == "python" {
				name = string(PythonFFI)
			}
			for _, c := range All {
				if name == string(c) {
					granted[c] = true
				}
			}
		}
	}
	return Set{granted: granted}
}

// None returns the default grant set, equal to Parse("").
func None() Set { return Parse("") }

// AllSet returns a set with every capability granted, for embedders and
// tests.
func AllSet() Set {
	granted := make(map[Capability]bool, len(All))
	for _, c := range All {
		granted[c] = true
	}
	return Set{granted: granted}
}

// Grant returns a copy of the set with the given capabilities added.
func (s Set) Grant(caps ...Capability) Set {
	granted := make(map[Capability]bool, len(s.granted)+len(caps))
	for c, ok := range s.granted {
		granted[c] = ok
	}
	for _, c := range caps {
		granted[c] = true
	}
	return Set{granted: granted}
}

// Has reports whether a capability is granted.
func (s Set) Has(c Capability) bool { return s.granted[c] }

// Check fails with *Denied when the capability is not granted.
func (s Set) Check(c Capability) error {
	if !s.granted[c] {
		return &Denied{Capability: c}
	}
	return nil
}

// List returns the granted capabilities in canonical order.
func (s Set) List() []Capability {
	var out []Capability
	for _, c := range All {
		if s.granted[c] {
			out = append(out, c)
		}
	}
	return out
}
