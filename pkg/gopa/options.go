// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2026 The Gopa Authors

// Package gopa provides the public API for the Gopa interpreter.
package gopa

import (
	"fmt"
	"io"
	"time"

	"github.com/gopa-lang/gopa/internal/perm"
	"github.com/gopa-lang/gopa/internal/registry"
	"github.com/gopa-lang/gopa/internal/sched"
)

// Option configures a Runtime.
type Option func(*Runtime)

// WithPermissions grants capabilities from a comma-separated list, the
// same syntax the CLI's --perm flag takes. Without this option only the
// packages capability is granted.
func WithPermissions(caps string) Option {
	return func(r *Runtime) {
		r.perms = perm.Parse(caps)
	}
}

// WithAllPermissions grants every capability. Meant for trusted scripts
// and tests.
func WithAllPermissions() Option {
	return func(r *Runtime) {
		r.perms = perm.AllSet()
	}
}

// WithOutput sets the io.Writer scripts print to.
func WithOutput(w io.Writer) Option {
	return func(r *Runtime) {
		r.out = w
	}
}

// WithInput sets the io.Reader `ask` statements read from.
func WithInput(rd io.Reader) Option {
	return func(r *Runtime) {
		r.in = rd
	}
}

// WithVirtualClock runs timers, cron jobs and waits on a virtual clock
// starting at the given instant. Scheduled work fires instantly in
// registration-time order instead of sleeping.
func WithVirtualClock(start time.Time) Option {
	return func(r *Runtime) {
		r.clock = sched.NewVirtualClock(start)
	}
}

// WithSeed fixes the random number generator for reproducible runs.
func WithSeed(seed int64) Option {
	return func(r *Runtime) {
		r.seed = seed
	}
}

// WithSQLiteRegistry configures SQLite package persistence at the given
// path. An unopenable path fails the runtime: the first Run or Eval
// returns the open error rather than silently degrading to the
// in-memory registry.
func WithSQLiteRegistry(path string) Option {
	return func(r *Runtime) {
		s, err := registry.NewSQLite(path)
		if err != nil {
			r.err = fmt.Errorf("open package registry %s: %w", path, err)
			return
		}
		r.store = s
	}
}

// WithMemoryRegistry configures an in-memory package registry (for
// testing).
func WithMemoryRegistry() Option {
	return func(r *Runtime) {
		r.store = registry.NewMemory()
	}
}

// WithForever keeps the scheduler running after the queue drains, for
// server scripts.
func WithForever() Option {
	return func(r *Runtime) {
		r.forever = true
	}
}
