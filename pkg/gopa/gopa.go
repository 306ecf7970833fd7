// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2026 The Gopa Authors

package gopa

import (
	"io"
	"os"

	"github.com/gopa-lang/gopa/internal/eval"
	"github.com/gopa-lang/gopa/internal/object"
	"github.com/gopa-lang/gopa/internal/packages"
	"github.com/gopa-lang/gopa/internal/parser"
	"github.com/gopa-lang/gopa/internal/perm"
	"github.com/gopa-lang/gopa/internal/registry"
	"github.com/gopa-lang/gopa/internal/sched"
)

// Runtime is an embedded Gopa interpreter. One Runtime runs one script
// (or a REPL session's worth of snippets) under one permission set.
type Runtime struct {
	perms   perm.Set
	out     io.Writer
	in      io.Reader
	clock   sched.Clock
	seed    int64
	store   registry.Store
	forever bool
	err     error

	interp *eval.Interp
}

// New creates a runtime with the given options.
func New(opts ...Option) *Runtime {
	r := &Runtime{
		perms: perm.Parse(""),
		out:   os.Stdout,
		in:    os.Stdin,
		clock: sched.RealClock{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.store == nil {
		r.store = registry.NewMemory()
	}

	r.interp = eval.New(eval.Config{
		Perms:  r.perms,
		Out:    r.out,
		In:     r.in,
		Sched:  sched.New(r.clock),
		Seed:   r.seed,
		Loader: packages.NewManager(r.store, r.perms, r.out),
	})
	return r
}

// Run lexes, parses and executes source, then drives the scheduler until
// it is idle (or forever, with WithForever). Lex and parse errors come
// back before any statement runs.
func (r *Runtime) Run(source string) error {
	if r.err != nil {
		return r.err
	}
	prog, err := parser.ParseSource(source)
	if err != nil {
		return err
	}
	return r.interp.Run(prog, r.forever)
}

// Eval is Run under a name that reads better in a REPL loop: each
// snippet executes against the session's persistent globals.
func (r *Runtime) Eval(source string) error {
	return r.Run(source)
}

// RunFile reads and runs a script file.
func (r *Runtime) RunFile(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return r.Run(string(src))
}

// Get reads a top-level variable after a run, for embedders inspecting
// results.
func (r *Runtime) Get(name string) (object.Value, bool) {
	return r.interp.Globals().Get(name)
}

// Scheduler exposes the event loop, mainly so tests can dispatch
// requests against server blocks without a real listener.
func (r *Runtime) Scheduler() *sched.Scheduler {
	return r.interp.Scheduler()
}

// Close releases the package registry.
func (r *Runtime) Close() error {
	return r.store.Close()
}
