// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2026 The Gopa Authors

// Package parser turns a token stream into a syntax tree. One parsing
// function per production; a single error aborts the unit and no partial
// tree is returned.
package parser

import (
	"fmt"
	"math"

	"github.com/gopa-lang/gopa/internal/ast"
	"github.com/gopa-lang/gopa/internal/lexer"
	"github.com/gopa-lang/gopa/internal/token"
)

// Error is a syntax error with a 1-based source position.
type Error struct {
	Line int
	Col  int
	Msg  string

	atEOF bool
}

func (e *Error) Error() string {
	return fmt.Sprintf("parse error at %d:%d: %s", e.Line, e.Col, e.Msg)
}

// Incomplete reports whether the error came from running out of input
// inside an open construct, as opposed to a malformed statement. A REPL
// uses it to keep reading lines instead of reporting the error.
func (e *Error) Incomplete() bool { return e.atEOF }

// Parser consumes tokens produced by the lexer.
type Parser struct {
	toks []token.Token
	pos  int
}

// New creates a parser over a token stream. The stream must be terminated
// by an EOF token, as the lexer guarantees.
func New(toks []token.Token) *Parser {
	return &Parser{toks: toks}
}

// ParseSource lexes and parses a source unit in one step.
func ParseSource(src string) (*ast.Program, error) {
	toks, err := lexer.New(src).Tokenize()
	if err != nil {
		return nil, err
	}
	return New(toks).Parse()
}

// Parse consumes the whole stream and returns the program. Productions
// report errors by panicking with *Error; the panic is recovered here so
// every parsing function stays a plain value producer.
func (p *Parser) Parse() (prog *ast.Program, err error) {
	defer func() {
		if r := recover(); r != nil {
			if perr, ok := r.(*Error); ok {
				prog, err = nil, perr
				return
			}
			panic(r)
		}
	}()

	prog = &ast.Program{}
	p.skipNewlines()
	for !p.at(token.EOF) {
		prog.Stmts = append(prog.Stmts, p.parseStatement())
		p.skipNewlines()
	}
	return prog, nil
}

func (p *Parser) cur() token.Token { return p.toks[p.pos] }

func (p *Parser) at(kinds ...token.Kind) bool {
	k := p.cur().Kind
	for _, want := range kinds {
		if k == want {
			return true
		}
	}
	return false
}

func (p *Parser) advance() token.Token {
	t := p.cur()
	if t.Kind != token.EOF {
		p.pos++
	}
	return t
}

func (p *Parser) expect(k token.Kind) token.Token {
	if p.cur().Kind != k {
		p.fail("expected %s, got %s", k, p.cur().Kind)
	}
	return p.advance()
}

func (p *Parser) expectString() string {
	return p.expect(token.STRING).Literal.(string)
}

func (p *Parser) expectIdent() string {
	return p.expect(token.IDENT).Literal.(string)
}

func (p *Parser) fail(format string, args ...any) {
	t := p.cur()
	panic(&Error{
		Line:  t.Line,
		Col:   t.Col,
		Msg:   fmt.Sprintf(format, args...),
		atEOF: t.Kind == token.EOF,
	})
}

func (p *Parser) skipNewlines() {
	for p.at(token.NEWLINE) {
		p.advance()
	}
}

// parseBlock reads statements until one of the terminators, without
// consuming the terminator. Hitting EOF first is an unmatched block: the
// error names the construct and its opening line.
func (p *Parser) parseBlock(construct string, openLine int, until ...token.Kind) []ast.Stmt {
	var body []ast.Stmt
	p.skipNewlines()
	for !p.at(until...) {
		if p.at(token.EOF) {
			p.fail("missing 'end' to close %s opened at line %d", construct, openLine)
		}
		body = append(body, p.parseStatement())
		p.skipNewlines()
	}
	return body
}

// parseBody is parseBlock plus the closing `end`.
func (p *Parser) parseBody(construct string, openLine int) []ast.Stmt {
	body := p.parseBlock(construct, openLine, token.END)
	p.expect(token.END)
	return body
}

// ---- Statements ----

func (p *Parser) parseStatement() ast.Stmt {
	p.skipNewlines()
	t := p.cur()

	switch t.Kind {
	case token.SAY:
		return p.parseSay()
	case token.PRINT:
		p.advance()
		return &ast.Print{Pos: ast.At(t.Line), Value: p.parseExpression()}
	case token.CLEAR:
		p.advance()
		p.expect(token.SCREEN)
		return &ast.ClearScreen{Pos: ast.At(t.Line)}
	case token.SHOW:
		return p.parseShowTable()
	case token.ASK:
		return p.parseAsk()
	case token.IF:
		return p.parseIf()
	case token.REPEAT:
		return p.parseRepeat()
	case token.DO:
		return p.parseDoUntil()
	case token.BREAK:
		p.advance()
		return &ast.Break{Pos: ast.At(t.Line)}
	case token.CONTINUE:
		p.advance()
		return &ast.Continue{Pos: ast.At(t.Line)}
	case token.STOP:
		p.advance()
		if p.at(token.JOB) {
			p.advance()
			return &ast.StopJob{Pos: ast.At(t.Line), Name: p.expectString()}
		}
		return &ast.Stop{Pos: ast.At(t.Line)}
	case token.DEFINE:
		return p.parseFuncDef()
	case token.RETURN:
		return p.parseReturn()
	case token.MATCH:
		return p.parseMatch()
	case token.ADD:
		p.advance()
		value := p.parseExpression()
		p.expect(token.TO)
		return &ast.AddTo{Pos: ast.At(t.Line), Value: value, List: p.parseExpression()}
	case token.REMOVE:
		return p.parseRemove()
	case token.SORT, token.REVERSE, token.SHUFFLE, token.FIND, token.FILTER,
		token.MAP, token.SPLIT, token.JOIN, token.REPLACE, token.GET,
		token.READ, token.CREATE, token.PYTHON:
		return &ast.ExprStmt{Pos: ast.At(t.Line), Value: p.parseExpression()}
	case token.WRITE:
		p.advance()
		value := p.parseExpression()
		p.expect(token.TO)
		p.expect(token.FILE)
		return &ast.WriteFile{Pos: ast.At(t.Line), Value: value, Path: p.expectString()}
	case token.DRAW:
		return p.parseDraw()
	case token.WHEN:
		return p.parseWhenMouse()
	case token.PLAY:
		p.advance()
		p.expect(token.SOUND)
		return &ast.PlaySound{Pos: ast.At(t.Line), Name: p.expectString()}
	case token.WAIT:
		p.advance()
		seconds := p.parseExpression()
		p.expect(token.SECONDS)
		return &ast.Wait{Pos: ast.At(t.Line), Seconds: seconds}
	case token.AFTER:
		return p.parseAfter()
	case token.EVERY:
		return p.parseEvery()
	case token.JOB:
		return p.parseJob()
	case token.CRON:
		return p.parseCron()
	case token.SERVER:
		return p.parseServer()
	case token.USE:
		return p.parseUse()
	case token.INSTALL:
		p.advance()
		return &ast.Install{Pos: ast.At(t.Line), Name: p.expectString()}
	case token.IDENT:
		return p.parseAssignmentOrCall()
	}
	p.fail("unexpected %s at start of statement", t.Kind)
	return nil
}

// parseSay reads `say part [and part]...`. Parts are parsed below the
// logical operators, so an `and` at this level always concatenates.
func (p *Parser) parseSay() ast.Stmt {
	t := p.expect(token.SAY)
	parts := []ast.Expr{p.parseNot()}
	for p.at(token.AND) {
		p.advance()
		parts = append(parts, p.parseNot())
	}
	return &ast.Say{Pos: ast.At(t.Line), Parts: parts}
}

func (p *Parser) parseShowTable() ast.Stmt {
	t := p.expect(token.SHOW)
	p.expect(token.TABLE)
	p.expect(token.WITH)
	p.expect(token.HEADERS)
	p.expect(token.LBRACKET)

	var headers []string
	if p.at(token.STRING) {
		headers = append(headers, p.expectString())
		for p.at(token.COMMA) {
			p.advance()
			headers = append(headers, p.expectString())
		}
	}
	p.expect(token.RBRACKET)
	p.expect(token.AND)
	p.expect(token.DATA)
	p.expect(token.ROWS)
	return &ast.ShowTable{Pos: ast.At(t.Line), Headers: headers, Rows: p.parseExpression()}
}

func (p *Parser) parseAsk() ast.Stmt {
	t := p.expect(token.ASK)
	mode := ast.AskText
	switch {
	case p.at(token.FOR):
		p.advance()
		if p.at(token.NUMBER_TYPE) {
			p.advance()
			mode = ast.AskNumber
		}
	case p.at(token.YES):
		p.advance()
		p.expect(token.OR)
		p.expect(token.NO)
		mode = ast.AskYesNo
	}
	prompt := p.expectString()
	p.expect(token.IS)
	return &ast.Ask{Pos: ast.At(t.Line), Prompt: prompt, Mode: mode, Target: p.expectIdent()}
}

func (p *Parser) parseIf() ast.Stmt {
	t := p.expect(token.IF)
	cond := p.parseExpression()
	p.expect(token.THEN)

	then := p.parseBlock("if", t.Line, token.OTHERWISE, token.END)
	var els []ast.Stmt
	if p.at(token.OTHERWISE) {
		p.advance()
		els = p.parseBlock("if", t.Line, token.END)
	}
	p.expect(token.END)
	return &ast.If{Pos: ast.At(t.Line), Cond: cond, Then: then, Else: els}
}

func (p *Parser) parseRepeat() ast.Stmt {
	t := p.expect(token.REPEAT)

	switch {
	case p.at(token.FOREVER):
		p.advance()
		return &ast.RepeatForever{Pos: ast.At(t.Line), Body: p.parseBody("repeat forever", t.Line)}
	case p.at(token.UNTIL):
		p.advance()
		cond := p.parseExpression()
		return &ast.RepeatUntil{Pos: ast.At(t.Line), Cond: cond, Body: p.parseBody("repeat until", t.Line)}
	default:
		count := p.parseExpression()
		// The lexer splits "times" contextually; accept either kind here
		// so identifier counts work too.
		if !p.at(token.TIMES, token.TIMES_OP) {
			p.fail("expected 'times' after repeat count, got %s", p.cur().Kind)
		}
		p.advance()
		return &ast.RepeatTimes{Pos: ast.At(t.Line), Count: count, Body: p.parseBody("repeat", t.Line)}
	}
}

func (p *Parser) parseDoUntil() ast.Stmt {
	t := p.expect(token.DO)
	body := p.parseBlock("do", t.Line, token.UNTIL)
	p.expect(token.UNTIL)
	return &ast.DoUntil{Pos: ast.At(t.Line), Body: body, Cond: p.parseExpression()}
}

func (p *Parser) parseFuncDef() ast.Stmt {
	t := p.expect(token.DEFINE)
	name := p.expectIdent()
	p.expect(token.WITH)

	var params []string
	for p.at(token.IDENT) {
		params = append(params, p.expectIdent())
	}
	return &ast.FuncDef{Pos: ast.At(t.Line), Name: name, Params: params,
		Body: p.parseBody("define "+name, t.Line)}
}

func (p *Parser) parseReturn() ast.Stmt {
	t := p.expect(token.RETURN)
	if p.at(token.NEWLINE, token.END, token.EOF) {
		return &ast.Return{Pos: ast.At(t.Line)}
	}
	return &ast.Return{Pos: ast.At(t.Line), Value: p.parseExpression()}
}

func (p *Parser) parseMatch() ast.Stmt {
	t := p.expect(token.MATCH)
	subject := p.parseExpression()
	p.skipNewlines()

	m := &ast.Match{Pos: ast.At(t.Line), Subject: subject}
	for !p.at(token.END) {
		if p.at(token.EOF) {
			p.fail("missing 'end' to close match opened at line %d", t.Line)
		}
		if p.at(token.OTHERWISE) {
			p.advance()
			m.Default = p.parseBlock("match", t.Line, token.END)
			break
		}
		p.expect(token.WHEN)
		arm := ast.MatchArm{Low: p.parseExpression()}
		if p.at(token.TO) {
			p.advance()
			arm.High = p.parseExpression()
		}
		arm.Body = p.parseBlock("match", t.Line, token.WHEN, token.OTHERWISE, token.END)
		m.Arms = append(m.Arms, arm)
	}
	p.expect(token.END)
	return m
}

func (p *Parser) parseRemove() ast.Stmt {
	t := p.expect(token.REMOVE)
	if p.at(token.AT) {
		p.advance()
		index := p.parseExpression()
		p.expect(token.FROM)
		return &ast.Remove{Pos: ast.At(t.Line), Index: index, List: p.parseExpression()}
	}
	value := p.parseExpression()
	p.expect(token.FROM)
	return &ast.Remove{Pos: ast.At(t.Line), Value: value, List: p.parseExpression()}
}

func (p *Parser) parseDraw() ast.Stmt {
	t := p.expect(token.DRAW)
	switch {
	case p.at(token.CIRCLE):
		p.advance()
		p.expect(token.AT)
		x := p.parseExpression()
		p.expect(token.COMMA)
		y := p.parseExpression()
		p.expect(token.WITH)
		p.expect(token.SIZE)
		// Below the logical operators: the following "and" introduces
		// the color clause.
		size := p.parseNot()
		p.expect(token.AND)
		p.expect(token.COLOR)
		return &ast.DrawCircle{Pos: ast.At(t.Line), X: x, Y: y, Size: size, Color: p.expectString()}
	case p.at(token.RECTANGLE):
		p.advance()
		x1, y1, x2, y2 := p.parseFromTo()
		p.expect(token.WITH)
		p.expect(token.COLOR)
		return &ast.DrawRect{Pos: ast.At(t.Line), X1: x1, Y1: y1, X2: x2, Y2: y2, Color: p.expectString()}
	case p.at(token.LINE):
		p.advance()
		x1, y1, x2, y2 := p.parseFromTo()
		p.expect(token.WITH)
		p.expect(token.COLOR)
		return &ast.DrawLine{Pos: ast.At(t.Line), X1: x1, Y1: y1, X2: x2, Y2: y2, Color: p.expectString()}
	case p.at(token.TEXT):
		p.advance()
		text := p.parseExpression()
		p.expect(token.AT)
		x := p.parseExpression()
		p.expect(token.COMMA)
		y := p.parseExpression()
		p.expect(token.WITH)
		p.expect(token.SIZE)
		size := p.parseNot()
		p.expect(token.AND)
		p.expect(token.COLOR)
		return &ast.DrawText{Pos: ast.At(t.Line), Text: text, X: x, Y: y, Size: size, Color: p.expectString()}
	}
	p.fail("expected circle, rectangle, line or text after draw")
	return nil
}

func (p *Parser) parseFromTo() (x1, y1, x2, y2 ast.Expr) {
	p.expect(token.FROM)
	x1 = p.parseExpression()
	p.expect(token.COMMA)
	y1 = p.parseExpression()
	p.expect(token.TO)
	x2 = p.parseExpression()
	p.expect(token.COMMA)
	y2 = p.parseExpression()
	return
}

func (p *Parser) parseWhenMouse() ast.Stmt {
	t := p.expect(token.WHEN)
	p.expect(token.MOUSE)
	p.expect(token.CLICKS)
	p.expect(token.ON)
	canvas := p.parseExpression()
	return &ast.WhenMouseClicks{Pos: ast.At(t.Line), Canvas: canvas,
		Body: p.parseBody("when mouse clicks", t.Line)}
}

func (p *Parser) parseAfter() ast.Stmt {
	t := p.expect(token.AFTER)
	seconds := p.parseExpression()
	p.expect(token.SECONDS)
	p.expect(token.DO)
	return &ast.After{Pos: ast.At(t.Line), Seconds: seconds, Body: p.parseBody("after", t.Line)}
}

func (p *Parser) parseEvery() ast.Stmt {
	t := p.expect(token.EVERY)
	seconds := p.parseExpression()
	p.expect(token.SECONDS)
	p.expect(token.DO)
	return &ast.Every{Pos: ast.At(t.Line), Seconds: seconds, Body: p.parseBody("every", t.Line)}
}

func (p *Parser) parseJob() ast.Stmt {
	t := p.expect(token.JOB)
	name := p.expectString()
	p.expect(token.EVERY)
	seconds := p.parseExpression()
	p.expect(token.SECONDS)
	p.expect(token.DO)
	return &ast.Every{Pos: ast.At(t.Line), Name: name, Seconds: seconds,
		Body: p.parseBody("job "+name, t.Line)}
}

func (p *Parser) parseCron() ast.Stmt {
	t := p.expect(token.CRON)
	schedule := p.expectString()
	return &ast.Cron{Pos: ast.At(t.Line), Schedule: schedule, Body: p.parseBody("cron", t.Line)}
}

func (p *Parser) parseServer() ast.Stmt {
	t := p.expect(token.SERVER)
	p.expect(token.ON)
	p.expect(token.PORT)
	srv := &ast.Server{Pos: ast.At(t.Line), Port: p.parseExpression()}
	p.skipNewlines()

	for !p.at(token.END) {
		if p.at(token.EOF) {
			p.fail("missing 'end' to close server opened at line %d", t.Line)
		}
		p.expect(token.WHEN)
		method := "GET"
		switch {
		case p.at(token.GET):
			p.advance()
		case p.at(token.ADD):
			p.advance()
			method = "POST"
		}
		path := p.expectString()
		body := p.parseBlock("server", t.Line, token.WHEN, token.END)
		srv.Routes = append(srv.Routes, ast.Route{Method: method, Path: path, Body: body})
	}
	p.expect(token.END)
	return srv
}

func (p *Parser) parseUse() ast.Stmt {
	t := p.expect(token.USE)
	if p.at(token.PYTHON) {
		p.advance()
		return &ast.UsePython{Pos: ast.At(t.Line), Module: p.expectString()}
	}
	return &ast.Use{Pos: ast.At(t.Line), Name: p.expectString()}
}

// parseAssignmentOrCall handles statements that open with an identifier:
// `x is v`, `x becomes v`, `x increase by v`, dotted and indexed targets,
// and bare calls `greet "world"`.
func (p *Parser) parseAssignmentOrCall() ast.Stmt {
	t := p.cur()
	name := p.expectIdent()
	var target ast.Expr = &ast.Ident{Pos: ast.At(t.Line), Name: name}

	for {
		if p.at(token.DOT) {
			p.advance()
			target = &ast.Property{Pos: ast.At(t.Line), Target: target, Name: p.expectIdent()}
		} else if p.at(token.LBRACKET) {
			p.advance()
			key := p.parseExpression()
			p.expect(token.RBRACKET)
			target = &ast.Index{Pos: ast.At(t.Line), Target: target, Key: key}
		} else {
			break
		}
	}

	switch {
	case p.at(token.IS):
		p.advance()
		return &ast.Assign{Pos: ast.At(t.Line), Target: target, Value: p.parseAssignValue()}
	case p.at(token.BECOMES):
		p.advance()
		return &ast.Mutate{Pos: ast.At(t.Line), Target: target, Value: p.parseAssignValue()}
	case p.at(token.INCREASE):
		p.advance()
		p.expect(token.BY)
		return &ast.Adjust{Pos: ast.At(t.Line), Target: target, Amount: p.parseExpression()}
	case p.at(token.DECREASE):
		p.advance()
		p.expect(token.BY)
		return &ast.Adjust{Pos: ast.At(t.Line), Target: target, Amount: p.parseExpression(), Decrease: true}
	}

	if _, ok := target.(*ast.Ident); !ok {
		p.fail("expected 'is' or 'becomes' after %s", name)
	}
	return &ast.ExprStmt{Pos: ast.At(t.Line), Value: p.parseCallArgs(t.Line, name)}
}

// parseAssignValue parses the right side of `is`/`becomes`, which admits
// the block-shaped literals and the POST form on top of plain expressions.
func (p *Parser) parseAssignValue() ast.Expr {
	switch {
	case p.at(token.ADD):
		return p.parsePost()
	case p.at(token.DICTIONARY):
		return p.parseDictLit()
	case p.at(token.OBJECT):
		return p.parseObjectLit()
	}
	return p.parseExpression()
}

// parsePost parses `add to "url" [using k is v ...]`, inline or block.
func (p *Parser) parsePost() ast.Expr {
	t := p.expect(token.ADD)
	p.expect(token.TO)
	url := p.expectString()
	return &ast.HTTPPost{Pos: ast.At(t.Line), URL: url, Body: p.parseUsingParams(t.Line)}
}

// parseUsingParams parses an optional `using` parameter list, either
// inline (`using k is v k2 is v2`) or as a block terminated by `end`.
func (p *Parser) parseUsingParams(openLine int) []ast.Entry {
	if !p.at(token.USING) {
		return nil
	}
	p.advance()

	var params []ast.Entry
	if p.at(token.IDENT) {
		for p.at(token.IDENT) {
			key := p.expectIdent()
			p.expect(token.IS)
			params = append(params, ast.Entry{Key: key, Value: p.parseExpression()})
		}
		return params
	}

	p.skipNewlines()
	for !p.at(token.END) {
		if p.at(token.EOF) {
			p.fail("missing 'end' to close using block opened at line %d", openLine)
		}
		key := p.expectIdent()
		p.expect(token.IS)
		params = append(params, ast.Entry{Key: key, Value: p.parseExpression()})
		p.skipNewlines()
	}
	p.expect(token.END)
	return params
}

// ---- Expressions ----

func (p *Parser) parseExpression() ast.Expr {
	return p.parseOr()
}

func (p *Parser) parseOr() ast.Expr {
	left := p.parseAnd()
	for p.at(token.OR) {
		t := p.advance()
		left = &ast.Binary{Pos: ast.At(t.Line), Op: ast.OpOr, Left: left, Right: p.parseAnd()}
	}
	return left
}

func (p *Parser) parseAnd() ast.Expr {
	left := p.parseNot()
	for p.at(token.AND) {
		t := p.advance()
		left = &ast.Binary{Pos: ast.At(t.Line), Op: ast.OpAnd, Left: left, Right: p.parseNot()}
	}
	return left
}

func (p *Parser) parseNot() ast.Expr {
	if p.at(token.NOT) {
		t := p.advance()
		return &ast.Unary{Pos: ast.At(t.Line), Op: "not", Operand: p.parseComparison()}
	}
	return p.parseComparison()
}

var comparisonOps = map[token.Kind]ast.BinOp{
	token.EQUALS:          ast.OpEquals,
	token.DOES_NOT_EQUAL:  ast.OpNotEquals,
	token.IS_GREATER_THAN: ast.OpGreater,
	token.IS_LESS_THAN:    ast.OpLess,
	token.IS_AT_LEAST:     ast.OpAtLeast,
	token.IS_AT_MOST:      ast.OpAtMost,
}

func (p *Parser) parseComparison() ast.Expr {
	left := p.parseArithmetic()
	if op, ok := comparisonOps[p.cur().Kind]; ok {
		t := p.advance()
		return &ast.Binary{Pos: ast.At(t.Line), Op: op, Left: left, Right: p.parseArithmetic()}
	}
	return left
}

func (p *Parser) parseArithmetic() ast.Expr {
	left := p.parseTerm()
	for p.at(token.PLUS, token.MINUS) {
		t := p.advance()
		op := ast.OpPlus
		if t.Kind == token.MINUS {
			op = ast.OpMinus
		}
		left = &ast.Binary{Pos: ast.At(t.Line), Op: op, Left: left, Right: p.parseTerm()}
	}
	return left
}

func (p *Parser) parseTerm() ast.Expr {
	left := p.parseFactor()
	for p.at(token.TIMES_OP, token.TIMES, token.DIVIDED_BY) {
		// "times" multiplies only when an operand follows; otherwise it
		// closes a repeat count and belongs to parseRepeat.
		if p.cur().Kind != token.DIVIDED_BY && !canStartExpr(p.toks[p.pos+1].Kind) {
			return left
		}
		t := p.advance()
		op := ast.OpTimes
		if t.Kind == token.DIVIDED_BY {
			op = ast.OpDividedBy
		}
		left = &ast.Binary{Pos: ast.At(t.Line), Op: op, Left: left, Right: p.parseFactor()}
	}
	return left
}

// canStartExpr reports whether a token kind can begin a factor.
func canStartExpr(k token.Kind) bool {
	switch k {
	case token.NUMBER, token.STRING, token.IDENT, token.TRUE, token.FALSE,
		token.YES, token.NO, token.NOTHING, token.PI, token.NOT, token.MINUS,
		token.LBRACKET, token.DICTIONARY, token.OBJECT, token.FIND,
		token.FILTER, token.MAP, token.SORT, token.REVERSE, token.SHUFFLE,
		token.SPLIT, token.JOIN, token.REPLACE, token.GET, token.READ,
		token.CREATE, token.PYTHON:
		return true
	}
	return false
}

// argStarters are the tokens that can begin a call argument when a bare
// identifier turns out to be a call. MINUS is deliberately absent:
// `total minus tax` is subtraction, not a call with a negated argument.
var argStarters = []token.Kind{
	token.NUMBER, token.STRING, token.IDENT, token.TRUE, token.FALSE,
	token.YES, token.NO, token.NOTHING, token.PI, token.NOT, token.LBRACKET,
}

func (p *Parser) parseFactor() ast.Expr {
	t := p.cur()
	switch t.Kind {
	case token.NUMBER:
		p.advance()
		return &ast.NumberLit{Pos: ast.At(t.Line), Value: t.Literal.(float64)}
	case token.STRING:
		p.advance()
		return &ast.StringLit{Pos: ast.At(t.Line), Value: t.Literal.(string)}
	case token.TRUE, token.YES:
		p.advance()
		return &ast.BoolLit{Pos: ast.At(t.Line), Value: true}
	case token.FALSE, token.NO:
		p.advance()
		return &ast.BoolLit{Pos: ast.At(t.Line), Value: false}
	case token.NOTHING:
		p.advance()
		return &ast.NothingLit{Pos: ast.At(t.Line)}
	case token.PI:
		p.advance()
		return &ast.NumberLit{Pos: ast.At(t.Line), Value: math.Pi}
	case token.MINUS:
		p.advance()
		return &ast.Unary{Pos: ast.At(t.Line), Op: "minus", Operand: p.parseFactor()}
	case token.IDENT:
		return p.parseIdentExpr()
	case token.LBRACKET:
		return p.parseListLit()
	case token.DICTIONARY:
		return p.parseDictLit()
	case token.OBJECT:
		return p.parseObjectLit()
	case token.FIND:
		p.advance()
		needle := p.parseExpression()
		p.expect(token.IN)
		return &ast.Find{Pos: ast.At(t.Line), Needle: needle, Haystack: p.parseExpression()}
	case token.FILTER:
		p.advance()
		list := p.parseExpression()
		p.expect(token.WHERE)
		return &ast.Filter{Pos: ast.At(t.Line), List: list, Cond: p.parseExpression()}
	case token.MAP:
		p.advance()
		list := p.parseExpression()
		p.expect(token.USING)
		return &ast.Map{Pos: ast.At(t.Line), List: list, Transform: p.parseExpression()}
	case token.SORT, token.REVERSE, token.SHUFFLE:
		p.advance()
		return &ast.ListOp{Pos: ast.At(t.Line), Op: t.Lexeme, List: p.parseExpression()}
	case token.SPLIT:
		p.advance()
		str := p.parseExpression()
		p.expect(token.BY)
		return &ast.Split{Pos: ast.At(t.Line), Str: str, Sep: p.expectString()}
	case token.JOIN:
		p.advance()
		list := p.parseExpression()
		p.expect(token.WITH)
		return &ast.Join{Pos: ast.At(t.Line), List: list, Sep: p.expectString()}
	case token.REPLACE:
		p.advance()
		old := p.expectString()
		p.expect(token.WITH)
		nw := p.expectString()
		p.expect(token.IN)
		return &ast.Replace{Pos: ast.At(t.Line), Old: old, New: nw, In: p.parseExpression()}
	case token.GET:
		p.advance()
		url := p.expectString()
		return &ast.HTTPGet{Pos: ast.At(t.Line), URL: url, Params: p.parseUsingParams(t.Line)}
	case token.READ:
		p.advance()
		p.expect(token.FILE)
		return &ast.ReadFile{Pos: ast.At(t.Line), Path: p.expectString()}
	case token.CREATE:
		p.advance()
		p.expect(token.CANVAS)
		width := p.parseExpression()
		p.expect(token.BY)
		return &ast.CreateCanvas{Pos: ast.At(t.Line), Width: width, Height: p.parseExpression()}
	case token.PYTHON:
		p.advance()
		p.expect(token.CALL)
		targetName := p.expectString()
		p.expect(token.WITH)
		call := &ast.PythonCall{Pos: ast.At(t.Line), Target: targetName}
		call.Args = append(call.Args, p.parseExpression())
		for p.at(token.COMMA) {
			p.advance()
			call.Args = append(call.Args, p.parseExpression())
		}
		return call
	}
	p.fail("unexpected %s in expression", t.Kind)
	return nil
}

// parseIdentExpr reads an identifier and its accessor tail, or a call when
// an argument token follows directly.
func (p *Parser) parseIdentExpr() ast.Expr {
	t := p.cur()
	name := p.expectIdent()
	var expr ast.Expr = &ast.Ident{Pos: ast.At(t.Line), Name: name}

	if p.at(argStarters...) {
		return p.parseCallArgs(t.Line, name)
	}

	for {
		if p.at(token.DOT) {
			p.advance()
			expr = &ast.Property{Pos: ast.At(t.Line), Target: expr, Name: p.expectIdent()}
		} else if p.at(token.LBRACKET) {
			p.advance()
			key := p.parseExpression()
			p.expect(token.RBRACKET)
			expr = &ast.Index{Pos: ast.At(t.Line), Target: expr, Key: key}
		} else if p.at(token.AT) {
			p.advance()
			expr = &ast.Index{Pos: ast.At(t.Line), Target: expr, Key: p.parseExpression()}
		} else {
			return expr
		}
	}
}

func (p *Parser) parseCallArgs(line int, name string) ast.Expr {
	call := &ast.Call{Pos: ast.At(line), Name: name}
	for p.at(argStarters...) {
		call.Args = append(call.Args, p.parseExpression())
	}
	return call
}

func (p *Parser) parseListLit() ast.Expr {
	t := p.expect(token.LBRACKET)
	lit := &ast.ListLit{Pos: ast.At(t.Line)}
	if !p.at(token.RBRACKET) {
		lit.Elems = append(lit.Elems, p.parseExpression())
		for p.at(token.COMMA) {
			p.advance()
			lit.Elems = append(lit.Elems, p.parseExpression())
		}
	}
	p.expect(token.RBRACKET)
	return lit
}

func (p *Parser) parseDictLit() ast.Expr {
	t := p.expect(token.DICTIONARY)
	lit := &ast.DictLit{Pos: ast.At(t.Line)}
	p.skipNewlines()
	for !p.at(token.END) {
		if p.at(token.EOF) {
			p.fail("missing 'end' to close dictionary opened at line %d", t.Line)
		}
		key := p.expectString()
		p.expect(token.IS)
		lit.Entries = append(lit.Entries, ast.Entry{Key: key, Value: p.parseExpression()})
		p.skipNewlines()
	}
	p.expect(token.END)
	return lit
}

func (p *Parser) parseObjectLit() ast.Expr {
	t := p.expect(token.OBJECT)
	lit := &ast.ObjectLit{Pos: ast.At(t.Line)}
	p.skipNewlines()
	for !p.at(token.END) {
		if p.at(token.EOF) {
			p.fail("missing 'end' to close object opened at line %d", t.Line)
		}
		name := p.expectIdent()
		p.expect(token.IS)
		lit.Fields = append(lit.Fields, ast.Entry{Key: name, Value: p.parseExpression()})
		p.skipNewlines()
	}
	p.expect(token.END)
	return lit
}
