// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2026 The Gopa Authors

// Package lexer tokenizes Gopa's English-like source text.
//
// Gopa operators are sentences ("is greater than", "divided by"), so the
// lexer reads word-by-word with save/restore backtracking instead of a
// table-driven DFA. The word "times" is contextual: it closes a repeat
// count ("repeat 3 times") and multiplies everywhere else; the decision is
// made from the previously emitted token.
package lexer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gopa-lang/gopa/internal/token"
)

// Error is a lexical error with a 1-based source position.
type Error struct {
	Line int
	Col  int
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("lex error at %d:%d: %s", e.Line, e.Col, e.Msg)
}

// Lexer scans Gopa source into tokens. One Error aborts the whole unit;
// no recovery is attempted.
type Lexer struct {
	src    string
	pos    int
	line   int
	col    int
	tokens []token.Token
}

// New creates a lexer for the given source text.
func New(src string) *Lexer {
	return &Lexer{src: src, line: 1, col: 1}
}

// Tokenize scans the entire source and returns the token sequence,
// terminated by an EOF token. Characters are never silently dropped: any
// symbol outside the language fails with an *Error.
func (l *Lexer) Tokenize() ([]token.Token, error) {
	for l.pos < len(l.src) {
		l.skipSpaces()
		ch, ok := l.peek()
		if !ok {
			break
		}

		switch {
		case ch == '#':
			l.skipComment()
		case ch == '\n':
			l.emit(token.NEWLINE, "", nil)
			l.advance()
		case isDigit(ch):
			if err := l.scanNumber(); err != nil {
				return nil, err
			}
		case ch == '"' || ch == '\'':
			if err := l.scanString(); err != nil {
				return nil, err
			}
		case ch == '.':
			l.emit(token.DOT, ".", nil)
			l.advance()
		case ch == '[':
			l.emit(token.LBRACKET, "[", nil)
			l.advance()
		case ch == ']':
			l.emit(token.RBRACKET, "]", nil)
			l.advance()
		case ch == ',':
			l.emit(token.COMMA, ",", nil)
			l.advance()
		case isAlpha(ch):
			l.scanWord()
		default:
			return nil, &Error{Line: l.line, Col: l.col,
				Msg: fmt.Sprintf("unrecognized symbol %q", string(ch))}
		}
	}
	l.tokens = append(l.tokens, token.Token{Kind: token.EOF, Line: l.line, Col: l.col})
	return l.tokens, nil
}

type mark struct {
	pos, line, col int
}

func (l *Lexer) save() mark     { return mark{l.pos, l.line, l.col} }
func (l *Lexer) restore(m mark) { l.pos, l.line, l.col = m.pos, m.line, m.col }

func (l *Lexer) peek() (byte, bool) {
	if l.pos >= len(l.src) {
		return 0, false
	}
	return l.src[l.pos], true
}

func (l *Lexer) advance() {
	if l.pos < len(l.src) {
		if l.src[l.pos] == '\n' {
			l.line++
			l.col = 1
		} else {
			l.col++
		}
		l.pos++
	}
}

func (l *Lexer) skipSpaces() {
	for {
		ch, ok := l.peek()
		if !ok || (ch != ' ' && ch != '\t' && ch != '\r') {
			return
		}
		l.advance()
	}
}

func (l *Lexer) skipComment() {
	for {
		ch, ok := l.peek()
		if !ok || ch == '\n' {
			return
		}
		l.advance()
	}
}

func (l *Lexer) emit(k token.Kind, lexeme string, lit any) {
	l.emitAt(k, lexeme, lit, l.line, l.col)
}

func (l *Lexer) emitAt(k token.Kind, lexeme string, lit any, line, col int) {
	l.tokens = append(l.tokens, token.Token{
		Kind: k, Lexeme: lexeme, Literal: lit, Line: line, Col: col,
	})
}

func (l *Lexer) prevKind() (token.Kind, bool) {
	if len(l.tokens) == 0 {
		return token.EOF, false
	}
	return l.tokens[len(l.tokens)-1].Kind, true
}

func (l *Lexer) scanNumber() error {
	startLine, startCol := l.line, l.col
	start := l.pos
	hasDot := false
	for {
		ch, ok := l.peek()
		if !ok {
			break
		}
		if ch == '.' {
			if hasDot {
				break
			}
			// A trailing dot is property access, not a decimal point.
			if l.pos+1 >= len(l.src) || !isDigit(l.src[l.pos+1]) {
				break
			}
			hasDot = true
		} else if !isDigit(ch) {
			break
		}
		l.advance()
	}
	text := l.src[start:l.pos]
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return &Error{Line: startLine, Col: startCol, Msg: fmt.Sprintf("bad number %q", text)}
	}
	l.emitAt(token.NUMBER, text, v, startLine, startCol)
	return nil
}

func (l *Lexer) scanString() error {
	startLine, startCol := l.line, l.col
	quote, _ := l.peek()
	l.advance()

	var b strings.Builder
	for {
		ch, ok := l.peek()
		if !ok || ch == '\n' {
			return &Error{Line: startLine, Col: startCol, Msg: "unterminated string"}
		}
		if ch == quote {
			l.advance()
			l.emitAt(token.STRING, b.String(), b.String(), startLine, startCol)
			return nil
		}
		if ch == '\\' {
			l.advance()
			esc, ok := l.peek()
			if !ok {
				return &Error{Line: startLine, Col: startCol, Msg: "unterminated string"}
			}
			switch esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '\\':
				b.WriteByte('\\')
			default:
				if esc == quote {
					b.WriteByte(quote)
				} else {
					b.WriteByte(esc)
				}
			}
			l.advance()
			continue
		}
		b.WriteByte(ch)
		l.advance()
	}
}

// scanWord reads an identifier and resolves keyword sentences.
func (l *Lexer) scanWord() {
	startLine, startCol := l.line, l.col
	start := l.pos
	for {
		ch, ok := l.peek()
		if !ok || !isAlphaNum(ch) {
			break
		}
		l.advance()
	}
	word := l.src[start:l.pos]

	switch word {
	case "times":
		// "repeat 3 times" closes the count; "a times b" multiplies.
		// The split is heuristic, so the parser accepts either kind in
		// both positions.
		if prev, ok := l.prevKind(); ok && (prev == token.NUMBER || prev == token.REPEAT) {
			l.emitAt(token.TIMES, word, nil, startLine, startCol)
			return
		}
		l.emitAt(token.TIMES_OP, word, nil, startLine, startCol)
		return
	case "does":
		if l.matchWords("not", "equal") {
			l.emitAt(token.DOES_NOT_EQUAL, "does not equal", nil, startLine, startCol)
			return
		}
	case "is":
		if l.matchWords("greater", "than") {
			l.emitAt(token.IS_GREATER_THAN, "is greater than", nil, startLine, startCol)
			return
		}
		if l.matchWords("less", "than") {
			l.emitAt(token.IS_LESS_THAN, "is less than", nil, startLine, startCol)
			return
		}
		if l.matchWords("at", "least") {
			l.emitAt(token.IS_AT_LEAST, "is at least", nil, startLine, startCol)
			return
		}
		if l.matchWords("at", "most") {
			l.emitAt(token.IS_AT_MOST, "is at most", nil, startLine, startCol)
			return
		}
	case "divided":
		if l.matchWords("by") {
			l.emitAt(token.DIVIDED_BY, "divided by", nil, startLine, startCol)
			return
		}
	}

	if kind, ok := token.Keywords[word]; ok {
		l.emitAt(kind, word, nil, startLine, startCol)
		return
	}
	l.emitAt(token.IDENT, word, word, startLine, startCol)
}

// matchWords consumes the given words (separated by spaces) if they follow
// immediately; otherwise the position is restored and false returned.
func (l *Lexer) matchWords(words ...string) bool {
	m := l.save()
	for _, want := range words {
		for {
			ch, ok := l.peek()
			if !ok || ch != ' ' {
				break
			}
			l.advance()
		}
		start := l.pos
		for {
			ch, ok := l.peek()
			if !ok || !isAlphaNum(ch) {
				break
			}
			l.advance()
		}
		if l.src[start:l.pos] != want {
			l.restore(m)
			return false
		}
	}
	return true
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
func isAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '_'
}
func isAlphaNum(b byte) bool { return isAlpha(b) || isDigit(b) }
