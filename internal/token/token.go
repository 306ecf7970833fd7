// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2026 The Gopa Authors

// Package token defines the Gopa token inventory and keyword table.
package token

import "fmt"

// Kind identifies a token class.
type Kind int

const (
	EOF Kind = iota
	NEWLINE

	// Literals and identifiers
	NUMBER
	STRING
	IDENT

	// Punctuation
	DOT
	LBRACKET
	RBRACKET
	COMMA

	// Multi-word and contextual operators
	TIMES_OP        // "times" in expression position
	DIVIDED_BY      // "divided by"
	DOES_NOT_EQUAL  // "does not equal"
	IS_GREATER_THAN // "is greater than"
	IS_LESS_THAN    // "is less than"
	IS_AT_LEAST     // "is at least"
	IS_AT_MOST      // "is at most"

	// Keywords
	IS
	BECOMES
	SAY
	PRINT
	CLEAR
	SHOW
	ASK
	FOR
	IF
	THEN
	OTHERWISE
	REPEAT
	FOREVER
	TIMES // "times" closing a repeat count
	UNTIL
	DO
	BREAK
	CONTINUE
	STOP
	DEFINE
	WITH
	RETURN
	END
	WHEN
	MATCH
	TO
	ADD
	REMOVE
	FROM
	AT
	SORT
	REVERSE
	SHUFFLE
	FIND
	IN
	FILTER
	WHERE
	MAP
	USING
	DICTIONARY
	OBJECT
	SPLIT
	BY
	JOIN
	REPLACE
	GET
	WRITE
	READ
	FILE
	CREATE
	CANVAS
	DRAW
	CIRCLE
	RECTANGLE
	LINE
	TEXT
	COLOR
	SIZE
	MOUSE
	CLICKS
	ON
	WAIT
	SECONDS
	AFTER
	EVERY
	AND
	OR
	NOT
	PLUS
	MINUS
	INCREASE
	DECREASE
	YES
	NO
	NUMBER_TYPE
	SCREEN
	TABLE
	HEADERS
	DATA
	ROWS
	USE
	INSTALL
	PYTHON
	CALL
	SERVER
	PORT
	JOB
	CRON
	PLAY
	SOUND
	TRUE
	FALSE
	NOTHING
	PI
	EQUALS
)

// Token is one lexical unit. Literal holds the parsed value for NUMBER
// (float64) and STRING (string) tokens and the word itself for IDENT.
// Keyword matching is case sensitive, so "If" is an identifier.
type Token struct {
	Kind    Kind
	Lexeme  string
	Literal any
	Line    int // 1-based
	Col     int // 1-based
}

func (t Token) String() string {
	if t.Lexeme != "" {
		return fmt.Sprintf("%s(%q)@%d:%d", t.Kind, t.Lexeme, t.Line, t.Col)
	}
	return fmt.Sprintf("%s@%d:%d", t.Kind, t.Line, t.Col)
}

// Keywords maps a lowercased word to its keyword kind. Words not present
// here lex as IDENT. "times" is absent on purpose: the lexer decides
// between TIMES and TIMES_OP from context.
var Keywords = map[string]Kind{
	"is":         IS,
	"becomes":    BECOMES,
	"say":        SAY,
	"print":      PRINT,
	"clear":      CLEAR,
	"show":       SHOW,
	"ask":        ASK,
	"for":        FOR,
	"if":         IF,
	"then":       THEN,
	"otherwise":  OTHERWISE,
	"repeat":     REPEAT,
	"forever":    FOREVER,
	"until":      UNTIL,
	"do":         DO,
	"break":      BREAK,
	"continue":   CONTINUE,
	"stop":       STOP,
	"define":     DEFINE,
	"with":       WITH,
	"return":     RETURN,
	"end":        END,
	"when":       WHEN,
	"match":      MATCH,
	"to":         TO,
	"add":        ADD,
	"remove":     REMOVE,
	"from":       FROM,
	"at":         AT,
	"sort":       SORT,
	"reverse":    REVERSE,
	"shuffle":    SHUFFLE,
	"find":       FIND,
	"in":         IN,
	"filter":     FILTER,
	"where":      WHERE,
	"map":        MAP,
	"using":      USING,
	"dictionary": DICTIONARY,
	"object":     OBJECT,
	"split":      SPLIT,
	"by":         BY,
	"join":       JOIN,
	"replace":    REPLACE,
	"get":        GET,
	"write":      WRITE,
	"read":       READ,
	"file":       FILE,
	"create":     CREATE,
	"canvas":     CANVAS,
	"draw":       DRAW,
	"circle":     CIRCLE,
	"rectangle":  RECTANGLE,
	"line":       LINE,
	"text":       TEXT,
	"color":      COLOR,
	"size":       SIZE,
	"mouse":      MOUSE,
	"clicks":     CLICKS,
	"on":         ON,
	"wait":       WAIT,
	"seconds":    SECONDS,
	"after":      AFTER,
	"every":      EVERY,
	"and":        AND,
	"or":         OR,
	"not":        NOT,
	"plus":       PLUS,
	"minus":      MINUS,
	"increase":   INCREASE,
	"decrease":   DECREASE,
	"yes":        YES,
	"no":         NO,
	"number":     NUMBER_TYPE,
	"screen":     SCREEN,
	"table":      TABLE,
	"headers":    HEADERS,
	"data":       DATA,
	"rows":       ROWS,
	"use":        USE,
	"install":    INSTALL,
	"python":     PYTHON,
	"call":       CALL,
	"server":     SERVER,
	"port":       PORT,
	"job":        JOB,
	"cron":       CRON,
	"play":       PLAY,
	"sound":      SOUND,
	"true":       TRUE,
	"false":      FALSE,
	"nothing":    NOTHING,
	"pi":         PI,
	"equals":     EQUALS,
}

var kindNames = map[Kind]string{
	EOF: "EOF", NEWLINE: "NEWLINE", NUMBER: "NUMBER", STRING: "STRING",
	IDENT: "IDENT", DOT: "DOT", LBRACKET: "LBRACKET", RBRACKET: "RBRACKET",
	COMMA: "COMMA", TIMES_OP: "TIMES_OP", DIVIDED_BY: "DIVIDED_BY",
	DOES_NOT_EQUAL: "DOES_NOT_EQUAL", IS_GREATER_THAN: "IS_GREATER_THAN",
	IS_LESS_THAN: "IS_LESS_THAN", IS_AT_LEAST: "IS_AT_LEAST",
	IS_AT_MOST: "IS_AT_MOST", TIMES: "TIMES",
}

// String returns the token kind name, deriving keyword names from the
// keyword table so the two can never drift apart.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	for word, kw := range Keywords {
		if kw == k {
			return "KW_" + word
		}
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}
