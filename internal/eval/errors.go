// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2026 The Gopa Authors

package eval

import (
	"errors"
	"fmt"
)

// errStopSignal carries `stop` across a function-call boundary, where
// the flow channel cannot reach. It is translated back before anyone
// observes it as a failure.
var errStopSignal = errors.New("stop")

// ErrKind classifies runtime errors so tests and embedders can assert on
// the failure class rather than on message text.
type ErrKind int

const (
	ErrType ErrKind = iota
	ErrDivisionByZero
	ErrIndexOutOfRange
	ErrUndefinedVariable
	ErrUndefinedFunction
	ErrNetwork
	ErrFile
	ErrInterop
	ErrValue
)

var errKindNames = map[ErrKind]string{
	ErrType:              "type error",
	ErrDivisionByZero:    "division by zero",
	ErrIndexOutOfRange:   "index out of range",
	ErrUndefinedVariable: "undefined variable",
	ErrUndefinedFunction: "undefined function",
	ErrNetwork:           "network error",
	ErrFile:              "file error",
	ErrInterop:           "interop error",
	ErrValue:             "value error",
}

func (k ErrKind) String() string { return errKindNames[k] }

// Error is a runtime error with the source line of the failing node. A
// runtime error aborts the current unit (script run or scheduled firing)
// but not the scheduler.
type Error struct {
	Kind ErrKind
	Line int
	Msg  string
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s at line %d: %s", e.Kind, e.Line, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func errf(kind ErrKind, line int, format string, args ...any) *Error {
	return &Error{Kind: kind, Line: line, Msg: fmt.Sprintf(format, args...)}
}
