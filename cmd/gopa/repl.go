package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"golang.org/x/term"

	"github.com/gopa-lang/gopa/internal/parser"
	"github.com/gopa-lang/gopa/pkg/gopa"
)

const (
	historyFile = ".gopa_history"
	promptMain  = "gopa> "
	promptCont  = "  ... "
)

func runREPL(opts cliOptions) int {
	rt := gopa.New(runtimeOptions(opts)...)
	defer rt.Close()

	fmt.Println(version + " (Ctrl+D to exit)")

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return runBasicREPL(rt)
	}
	return runLineREPL(rt)
}

// runLineREPL is the interactive loop: line editing, history, and
// multi-line buffering until every open block has its `end`.
func runLineREPL(rt *gopa.Runtime) int {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	for {
		code, ok := readSnippet(ln)
		if !ok {
			fmt.Println()
			break
		}
		if strings.TrimSpace(code) == "" {
			continue
		}

		if err := rt.Eval(code); err != nil {
			reportError("", code, err)
		}
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
	}

	if f, err := os.Create(histPath); err == nil {
		_, _ = ln.WriteHistory(f)
		_ = f.Close()
	}
	return 0
}

// readSnippet accumulates lines until the parser accepts the buffer as a
// complete program. A blank line forces the buffer through, so a stuck
// snippet surfaces its error instead of prompting forever. Returns false
// on EOF.
func readSnippet(ln *liner.State) (string, bool) {
	var b strings.Builder

	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			// Ctrl+C abandons the current snippet.
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		if b.Len() > 0 && strings.TrimSpace(line) == "" {
			return b.String(), true
		}
		if !needsMoreInput(b.String()) {
			return b.String(), true
		}
	}
}

// needsMoreInput reports whether src ends inside an open block, which is
// the only parse failure a continuation line can fix.
func needsMoreInput(src string) bool {
	_, err := parser.ParseSource(src)
	var parseErr *parser.Error
	return errors.As(err, &parseErr) && parseErr.Incomplete()
}

// runBasicREPL handles piped input: read everything, run it once.
func runBasicREPL(rt *gopa.Runtime) int {
	src, err := io.ReadAll(bufio.NewReader(os.Stdin))
	if err != nil {
		fmt.Fprintf(os.Stderr, "gopa: %v\n", err)
		return 1
	}
	if err := rt.Run(string(src)); err != nil {
		reportError("", string(src), err)
		return 1
	}
	return 0
}
