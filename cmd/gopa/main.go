// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2026 The Gopa Authors

// Command gopa runs Gopa scripts.
package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/docopt/docopt-go"
	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"

	"github.com/gopa-lang/gopa/internal/lexer"
	"github.com/gopa-lang/gopa/internal/parser"
	"github.com/gopa-lang/gopa/pkg/gopa"
)

const version = "gopa 0.1.0"

const usage = `Gopa, a friendly scripting language.

Usage:
  gopa run <file> [--perm=<caps>] [--db=<path>] [--seed=<n>] [--forever] [--debug]
  gopa test [<dir>] [--debug]
  gopa repl [--perm=<caps>] [--db=<path>] [--debug]
  gopa -h | --help
  gopa --version

Options:
  --perm=<caps>  Capabilities to grant, comma separated. One or more of
                 network, files, graphics, sound, packages, python,
                 server, timers, cron; "all" grants everything. Scripts
                 run with package loading only when the flag is absent.
  --db=<path>    Persist installed packages in a SQLite file instead of
                 in memory.
  --seed=<n>     Fix the random seed for reproducible runs.
  --forever      Keep the scheduler alive after the script finishes, for
                 scripts that only serve timers or HTTP routes.
  --debug        Turn on debug tracing.
  -h, --help     Show this help.
  --version      Print the version.
`

// cliOptions is what docopt binds the command line to.
type cliOptions struct {
	Run     bool   `docopt:"run"`
	Test    bool   `docopt:"test"`
	Repl    bool   `docopt:"repl"`
	File    string `docopt:"<file>"`
	Dir     string `docopt:"<dir>"`
	Perm    string `docopt:"--perm"`
	DB      string `docopt:"--db"`
	Seed    string `docopt:"--seed"`
	Forever bool   `docopt:"--forever"`
	Debug   bool   `docopt:"--debug"`
	Help    bool   `docopt:"--help"`
	Version bool   `docopt:"--version"`
}

func main() {
	parsed, err := docopt.ParseArgs(usage, os.Args[1:], version)
	if err != nil {
		// docopt exits on usage errors itself; this is a binding bug.
		panic(err)
	}
	var opts cliOptions
	if err := parsed.Bind(&opts); err != nil {
		panic(err)
	}

	if opts.Debug {
		enableDebugTracing()
	}

	switch {
	case opts.Run:
		os.Exit(runFile(opts))
	case opts.Test:
		os.Exit(runTests(opts.Dir))
	case opts.Repl:
		os.Exit(runREPL(opts))
	}
}

func runFile(opts cliOptions) int {
	src, err := os.ReadFile(opts.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gopa: %v\n", err)
		return 1
	}

	rt := gopa.New(runtimeOptions(opts)...)
	defer rt.Close()

	if err := rt.Run(string(src)); err != nil {
		reportError(opts.File, string(src), err)
		return 1
	}
	return 0
}

// runtimeOptions translates CLI flags into facade options shared by the
// run and repl commands.
func runtimeOptions(opts cliOptions) []gopa.Option {
	var ro []gopa.Option
	if strings.TrimSpace(opts.Perm) == "all" {
		ro = append(ro, gopa.WithAllPermissions())
	} else if opts.Perm != "" {
		ro = append(ro, gopa.WithPermissions(opts.Perm))
	}
	if opts.DB != "" {
		ro = append(ro, gopa.WithSQLiteRegistry(opts.DB))
	}
	if opts.Seed != "" {
		if n, err := strconv.ParseInt(opts.Seed, 10, 64); err == nil {
			ro = append(ro, gopa.WithSeed(n))
		} else {
			fmt.Fprintf(os.Stderr, "gopa: ignoring bad --seed=%q\n", opts.Seed)
		}
	}
	if opts.Forever {
		ro = append(ro, gopa.WithForever())
	}
	return ro
}

// reportError prints an error to stderr. Lex and parse errors get a
// caret snippet pointing at the offending column; everything else is a
// one-liner (runtime errors already carry their line number).
func reportError(path, src string, err error) {
	var lexErr *lexer.Error
	var parseErr *parser.Error

	line, col := 0, 0
	switch {
	case errors.As(err, &lexErr):
		line, col = lexErr.Line, lexErr.Col
	case errors.As(err, &parseErr):
		line, col = parseErr.Line, parseErr.Col
	}

	if path != "" {
		fmt.Fprintf(os.Stderr, "gopa: %s: %v\n", path, err)
	} else {
		fmt.Fprintf(os.Stderr, "gopa: %v\n", err)
	}
	if snippet := caretSnippet(src, line, col); snippet != "" {
		fmt.Fprint(os.Stderr, snippet)
	}
}

// caretSnippet renders the offending source line with a caret under the
// reported column. Returns "" when the position does not land in src.
func caretSnippet(src string, line, col int) string {
	if line < 1 || col < 1 {
		return ""
	}
	lines := strings.Split(src, "\n")
	if line > len(lines) {
		return ""
	}
	text := strings.TrimRight(lines[line-1], "\r")
	if col > len(text)+1 {
		col = len(text) + 1
	}
	var b strings.Builder
	fmt.Fprintf(&b, "  %s\n", text)
	fmt.Fprintf(&b, "  %s^\n", strings.Repeat(" ", col-1))
	return b.String()
}

// enableDebugTracing routes the interpreter's tracers to the standard
// log at debug level.
func enableDebugTracing() {
	gtrace.CoreTracer = gologadapter.New()
	for _, key := range []string{"gopa.eval", "gopa.sched", "gopa.packages"} {
		tracing.Select(key).SetTraceLevel(tracing.LevelDebug)
	}
}

// virtualEpoch is the clock start for `gopa test` runs, so scripts that
// print timestamps produce stable output.
var virtualEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
