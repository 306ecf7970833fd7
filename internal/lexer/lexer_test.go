package lexer

import (
	"errors"
	"testing"

	"github.com/gopa-lang/gopa/internal/token"
)

func kinds(t *testing.T, src string) []token.Kind {
	t.Helper()
	toks, err := New(src).Tokenize()
	if err != nil {
		t.Fatalf("Tokenize(%q): %v", src, err)
	}
	out := make([]token.Kind, len(toks))
	for i, tk := range toks {
		out[i] = tk.Kind
	}
	return out
}

func expectKinds(t *testing.T, src string, want ...token.Kind) {
	t.Helper()
	got := kinds(t, src)
	if len(got) != len(want) {
		t.Fatalf("%q: got %d tokens %v, want %d %v", src, len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("%q: token %d = %s, want %s (full: %v)", src, i, got[i], want[i], got)
		}
	}
}

func TestAssignment(t *testing.T) {
	expectKinds(t, `x is 4`, token.IDENT, token.IS, token.NUMBER, token.EOF)
}

func TestMultiWordOperators(t *testing.T) {
	cases := []struct {
		src  string
		want token.Kind
	}{
		{`a is greater than b`, token.IS_GREATER_THAN},
		{`a is less than b`, token.IS_LESS_THAN},
		{`a is at least b`, token.IS_AT_LEAST},
		{`a is at most b`, token.IS_AT_MOST},
		{`a does not equal b`, token.DOES_NOT_EQUAL},
		{`a divided by b`, token.DIVIDED_BY},
	}
	for _, c := range cases {
		expectKinds(t, c.src, token.IDENT, c.want, token.IDENT, token.EOF)
	}
}

// "is greater" without "than" must fall back to plain IS plus identifiers.
func TestMultiWordBacktracking(t *testing.T) {
	expectKinds(t, `a is greater`, token.IDENT, token.IS, token.IDENT, token.EOF)
	expectKinds(t, `a does not`, token.IDENT, token.IDENT, token.NOT, token.EOF)
	expectKinds(t, `a divided x`, token.IDENT, token.IDENT, token.IDENT, token.EOF)
}

func TestContextualTimes(t *testing.T) {
	// After a repeat count "times" closes the loop header.
	expectKinds(t, "repeat 3 times", token.REPEAT, token.NUMBER, token.TIMES, token.EOF)
	// In expression position it multiplies.
	expectKinds(t, "x is a times b",
		token.IDENT, token.IS, token.IDENT, token.TIMES_OP, token.IDENT, token.EOF)
}

func TestNumbers(t *testing.T) {
	toks, err := New("x is 3.25").Tokenize()
	if err != nil {
		t.Fatal(err)
	}
	if toks[2].Kind != token.NUMBER || toks[2].Literal.(float64) != 3.25 {
		t.Fatalf("got %v", toks[2])
	}
}

func TestStrings(t *testing.T) {
	cases := []struct {
		src, want string
	}{
		{`say "hello"`, "hello"},
		{`say 'hello'`, "hello"},
		{`say "a\nb"`, "a\nb"},
		{`say "a\tb"`, "a\tb"},
		{`say "a\\b"`, `a\b`},
		{`say "quote \" inside"`, `quote " inside`},
	}
	for _, c := range cases {
		toks, err := New(c.src).Tokenize()
		if err != nil {
			t.Fatalf("%q: %v", c.src, err)
		}
		if toks[1].Kind != token.STRING || toks[1].Literal.(string) != c.want {
			t.Fatalf("%q: got %v, want literal %q", c.src, toks[1], c.want)
		}
	}
}

func TestCommentsAndNewlines(t *testing.T) {
	src := "x is 1 # set x\nsay x\n"
	expectKinds(t, src,
		token.IDENT, token.IS, token.NUMBER, token.NEWLINE,
		token.SAY, token.IDENT, token.NEWLINE, token.EOF)
}

func TestPositions(t *testing.T) {
	toks, err := New("x is 1\nsay x").Tokenize()
	if err != nil {
		t.Fatal(err)
	}
	say := toks[4]
	if say.Kind != token.SAY || say.Line != 2 || say.Col != 1 {
		t.Fatalf("say token = %v, want SAY@2:1", say)
	}
	x := toks[5]
	if x.Line != 2 || x.Col != 5 {
		t.Fatalf("x token = %v, want IDENT@2:5", x)
	}
}

func TestCaseSensitiveKeywords(t *testing.T) {
	// "If" is an identifier, only lowercase "if" is the keyword.
	expectKinds(t, "If", token.IDENT, token.EOF)
	expectKinds(t, "if", token.IF, token.EOF)
}

func TestUnterminatedString(t *testing.T) {
	_, err := New(`say "oops`).Tokenize()
	var lerr *Error
	if !errors.As(err, &lerr) {
		t.Fatalf("got %v, want *Error", err)
	}
	if lerr.Line != 1 || lerr.Col != 5 {
		t.Fatalf("error at %d:%d, want 1:5", lerr.Line, lerr.Col)
	}
}

func TestUnrecognizedSymbol(t *testing.T) {
	_, err := New("x is $").Tokenize()
	var lerr *Error
	if !errors.As(err, &lerr) {
		t.Fatalf("got %v, want *Error", err)
	}
}

// Lexing the same source twice yields structurally identical streams.
func TestDeterministic(t *testing.T) {
	src := "repeat 3 times\n  say \"hi\"\nend\n"
	a, err := New(src).Tokenize()
	if err != nil {
		t.Fatal(err)
	}
	b, err := New(src).Tokenize()
	if err != nil {
		t.Fatal(err)
	}
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("token %d differs: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestListPunctuation(t *testing.T) {
	expectKinds(t, `nums is [1, 2, 3]`,
		token.IDENT, token.IS, token.LBRACKET,
		token.NUMBER, token.COMMA, token.NUMBER, token.COMMA, token.NUMBER,
		token.RBRACKET, token.EOF)
}

func TestPropertyDot(t *testing.T) {
	expectKinds(t, `say player.score`,
		token.SAY, token.IDENT, token.DOT, token.IDENT, token.EOF)
}
