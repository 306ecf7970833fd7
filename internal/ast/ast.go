// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2026 The Gopa Authors

// Package ast defines the syntax tree produced by the parser. Nodes are
// immutable after parsing and safe to share across closures and scheduled
// events.
package ast

// Node is any syntax tree node. Line is the 1-based source line of the
// token that opened the node.
type Node interface {
	Line() int
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmt()
}

// Expr is an expression node.
type Expr interface {
	Node
	expr()
}

type Pos struct {
	Ln int
}

func (p Pos) Line() int { return p.Ln }

// At constructs the embedded position record for a node.
func At(line int) Pos { return Pos{Ln: line} }

// Program is the root of a parsed source unit.
type Program struct {
	Stmts []Stmt
}

func (p *Program) Line() int {
	if len(p.Stmts) > 0 {
		return p.Stmts[0].Line()
	}
	return 1
}

// ---- Expressions ----

type NumberLit struct {
	Pos
	Value float64
}

type StringLit struct {
	Pos
	Value string
}

type BoolLit struct {
	Pos
	Value bool
}

type NothingLit struct {
	Pos
}

type Ident struct {
	Pos
	Name string
}

type ListLit struct {
	Pos
	Elems []Expr
}

// Entry is one key/value pair of a dictionary literal or request body.
type Entry struct {
	Key   string
	Value Expr
}

type DictLit struct {
	Pos
	Entries []Entry
}

// ObjectLit is an `object ... end` literal. Objects are records: fields
// are fixed at creation and accessed with dot syntax.
type ObjectLit struct {
	Pos
	Fields []Entry
}

type Property struct {
	Pos
	Target Expr
	Name   string
}

type Index struct {
	Pos
	Target Expr
	Key    Expr
}

// Call invokes a user function or builtin by name.
type Call struct {
	Pos
	Name string
	Args []Expr
}

// BinOp identifies a binary operator.
type BinOp int

const (
	OpPlus BinOp = iota
	OpMinus
	OpTimes
	OpDividedBy
	OpEquals
	OpNotEquals
	OpGreater
	OpLess
	OpAtLeast
	OpAtMost
	OpAnd
	OpOr
)

var binOpNames = map[BinOp]string{
	OpPlus: "plus", OpMinus: "minus", OpTimes: "times",
	OpDividedBy: "divided by", OpEquals: "equals",
	OpNotEquals: "does not equal", OpGreater: "is greater than",
	OpLess: "is less than", OpAtLeast: "is at least",
	OpAtMost: "is at most", OpAnd: "and", OpOr: "or",
}

func (op BinOp) String() string { return binOpNames[op] }

type Binary struct {
	Pos
	Op    BinOp
	Left  Expr
	Right Expr
}

// Unary is `not x` or unary minus.
type Unary struct {
	Pos
	Op      string // "not" or "minus"
	Operand Expr
}

// Find is `find v in container`, a membership test.
type Find struct {
	Pos
	Needle   Expr
	Haystack Expr
}

// Filter is `filter list where cond`. Cond sees each element as `item`.
type Filter struct {
	Pos
	List Expr
	Cond Expr
}

// Map is `map list using expr`. Expr sees each element as `item`.
type Map struct {
	Pos
	List      Expr
	Transform Expr
}

// ListOp is `sort`, `reverse`, or `shuffle` applied to a list. All three
// return a new list and leave the operand untouched.
type ListOp struct {
	Pos
	Op   string // "sort", "reverse", "shuffle"
	List Expr
}

type Split struct {
	Pos
	Str Expr
	Sep string
}

type Join struct {
	Pos
	List Expr
	Sep  string
}

type Replace struct {
	Pos
	Old string
	New string
	In  Expr
}

// HTTPGet is `get "url" [using k is v ...]`. Params become the query
// string. Requires the network capability at evaluation time.
type HTTPGet struct {
	Pos
	URL    string
	Params []Entry
}

// HTTPPost is `add to "url" using k is v ...`, a form/JSON POST.
type HTTPPost struct {
	Pos
	URL  string
	Body []Entry
}

type ReadFile struct {
	Pos
	Path string
}

type CreateCanvas struct {
	Pos
	Width  Expr
	Height Expr
}

// PythonCall is `python call "module.attr" with args`. Resolved against
// the host interop registry, never a real Python runtime.
type PythonCall struct {
	Pos
	Target string
	Args   []Expr
}

func (*NumberLit) expr()    {}
func (*StringLit) expr()    {}
func (*BoolLit) expr()      {}
func (*NothingLit) expr()   {}
func (*Ident) expr()        {}
func (*ListLit) expr()      {}
func (*DictLit) expr()      {}
func (*ObjectLit) expr()    {}
func (*Property) expr()     {}
func (*Index) expr()        {}
func (*Call) expr()         {}
func (*Binary) expr()       {}
func (*Unary) expr()        {}
func (*Find) expr()         {}
func (*Filter) expr()       {}
func (*Map) expr()          {}
func (*ListOp) expr()       {}
func (*Split) expr()        {}
func (*Join) expr()         {}
func (*Replace) expr()      {}
func (*HTTPGet) expr()      {}
func (*HTTPPost) expr()     {}
func (*ReadFile) expr()     {}
func (*CreateCanvas) expr() {}
func (*PythonCall) expr()   {}

// ---- Statements ----

// Assign is `target is value`: defines or shadows in the current scope.
type Assign struct {
	Pos
	Target Expr // *Ident, *Property or *Index
	Value  Expr
}

// Mutate is `target becomes value`: rebinds an existing name, walking
// enclosing scopes, and fails when the name is unbound.
type Mutate struct {
	Pos
	Target Expr
	Value  Expr
}

// Adjust is `target increase/decrease by amount`.
type Adjust struct {
	Pos
	Target   Expr
	Amount   Expr
	Decrease bool
}

// Say prints its parts joined by concatenation. The `and` between parts
// is positional concatenation, not the logical operator.
type Say struct {
	Pos
	Parts []Expr
}

type Print struct {
	Pos
	Value Expr
}

type ClearScreen struct {
	Pos
}

type ShowTable struct {
	Pos
	Headers []string
	Rows    Expr
}

// AskMode selects how an `ask` answer is converted.
type AskMode int

const (
	AskText AskMode = iota
	AskNumber
	AskYesNo
)

type Ask struct {
	Pos
	Prompt string
	Mode   AskMode
	Target string
}

type If struct {
	Pos
	Cond Expr
	Then []Stmt
	Else []Stmt
}

type RepeatTimes struct {
	Pos
	Count Expr
	Body  []Stmt
}

type RepeatForever struct {
	Pos
	Body []Stmt
}

// RepeatUntil tests the condition before each iteration.
type RepeatUntil struct {
	Pos
	Cond Expr
	Body []Stmt
}

// DoUntil runs the body at least once, testing afterwards.
type DoUntil struct {
	Pos
	Body []Stmt
	Cond Expr
}

type Break struct{ Pos }
type Continue struct{ Pos }

// Stop terminates the whole program, unwinding every loop and call.
type Stop struct{ Pos }

// StopJob is `stop job "name"`: cancels a named scheduled job. A no-op
// when no such job exists.
type StopJob struct {
	Pos
	Name string
}

type FuncDef struct {
	Pos
	Name   string
	Params []string
	Body   []Stmt
}

type Return struct {
	Pos
	Value Expr // nil for a bare return
}

// MatchArm is one `when` clause. High is nil for equality arms and set
// for inclusive ranges (`when 1 to 5`).
type MatchArm struct {
	Low  Expr
	High Expr
	Body []Stmt
}

type Match struct {
	Pos
	Subject Expr
	Arms    []MatchArm
	Default []Stmt
}

// AddTo is `add value to list`, an in-place append.
type AddTo struct {
	Pos
	Value Expr
	List  Expr
}

// Remove is `remove value from list` or `remove at index from list`.
// Exactly one of Value and Index is set.
type Remove struct {
	Pos
	Value Expr
	Index Expr
	List  Expr
}

type WriteFile struct {
	Pos
	Value Expr
	Path  string
}

type DrawCircle struct {
	Pos
	X, Y  Expr
	Size  Expr
	Color string
}

type DrawRect struct {
	Pos
	X1, Y1 Expr
	X2, Y2 Expr
	Color  string
}

type DrawLine struct {
	Pos
	X1, Y1 Expr
	X2, Y2 Expr
	Color  string
}

type DrawText struct {
	Pos
	Text  Expr
	X, Y  Expr
	Size  Expr
	Color string
}

// WhenMouseClicks registers a click handler on a canvas.
type WhenMouseClicks struct {
	Pos
	Canvas Expr
	Body   []Stmt
}

type PlaySound struct {
	Pos
	Name string
}

// Wait suspends the script for the given number of seconds.
type Wait struct {
	Pos
	Seconds Expr
}

// After schedules a one-shot body.
type After struct {
	Pos
	Seconds Expr
	Body    []Stmt
}

// Every schedules a fixed-interval body. Name is non-empty for
// `job "name" every ...` and makes the event cancellable.
type Every struct {
	Pos
	Name    string
	Seconds Expr
	Body    []Stmt
}

// Cron schedules a body on a cron expression, either five-field standard
// syntax or a friendly form like "every day at 9:00".
type Cron struct {
	Pos
	Schedule string
	Body     []Stmt
}

// Route is one `when get|add "/path"` handler inside a server block.
type Route struct {
	Method string // "GET" or "POST"
	Path   string
	Body   []Stmt
}

type Server struct {
	Pos
	Port   Expr
	Routes []Route
}

// Use imports a package and binds its exports under the package name.
type Use struct {
	Pos
	Name string
}

// UsePython exposes an allowlisted host interop module.
type UsePython struct {
	Pos
	Module string
}

// Install fetches a package into the local registry.
type Install struct {
	Pos
	Name string
}

// ExprStmt is a bare expression in statement position, usually a call.
type ExprStmt struct {
	Pos
	Value Expr
}

func (*Assign) stmt()          {}
func (*Mutate) stmt()          {}
func (*Adjust) stmt()          {}
func (*Say) stmt()             {}
func (*Print) stmt()           {}
func (*ClearScreen) stmt()     {}
func (*ShowTable) stmt()       {}
func (*Ask) stmt()             {}
func (*If) stmt()              {}
func (*RepeatTimes) stmt()     {}
func (*RepeatForever) stmt()   {}
func (*RepeatUntil) stmt()     {}
func (*DoUntil) stmt()         {}
func (*Break) stmt()           {}
func (*Continue) stmt()        {}
func (*Stop) stmt()            {}
func (*StopJob) stmt()         {}
func (*FuncDef) stmt()         {}
func (*Return) stmt()          {}
func (*Match) stmt()           {}
func (*AddTo) stmt()           {}
func (*Remove) stmt()          {}
func (*WriteFile) stmt()       {}
func (*DrawCircle) stmt()      {}
func (*DrawRect) stmt()        {}
func (*DrawLine) stmt()        {}
func (*DrawText) stmt()        {}
func (*WhenMouseClicks) stmt() {}
func (*PlaySound) stmt()       {}
func (*Wait) stmt()            {}
func (*After) stmt()           {}
func (*Every) stmt()           {}
func (*Cron) stmt()            {}
func (*Server) stmt()          {}
func (*Use) stmt()             {}
func (*UsePython) stmt()       {}
func (*Install) stmt()         {}
func (*ExprStmt) stmt()        {}
