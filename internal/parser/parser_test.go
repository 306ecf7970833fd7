package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/gopa-lang/gopa/internal/ast"
)

func mustParse(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := ParseSource(src)
	if err != nil {
		t.Fatalf("ParseSource(%q): %v", src, err)
	}
	return prog
}

func parseOne(t *testing.T, src string) ast.Stmt {
	t.Helper()
	prog := mustParse(t, src)
	if len(prog.Stmts) != 1 {
		t.Fatalf("%q: got %d statements, want 1", src, len(prog.Stmts))
	}
	return prog.Stmts[0]
}

func TestAssignAndMutate(t *testing.T) {
	stmt := parseOne(t, "x is 4")
	as, ok := stmt.(*ast.Assign)
	if !ok {
		t.Fatalf("got %T, want *ast.Assign", stmt)
	}
	if as.Target.(*ast.Ident).Name != "x" {
		t.Fatalf("target = %v", as.Target)
	}
	if as.Value.(*ast.NumberLit).Value != 4 {
		t.Fatalf("value = %v", as.Value)
	}

	if _, ok := parseOne(t, "x becomes 5").(*ast.Mutate); !ok {
		t.Fatal("becomes should parse as mutation")
	}
}

func TestPropertyAndIndexTargets(t *testing.T) {
	as := parseOne(t, `player.score is 10`).(*ast.Assign)
	if _, ok := as.Target.(*ast.Property); !ok {
		t.Fatalf("target = %T, want *ast.Property", as.Target)
	}

	mu := parseOne(t, `items[0] becomes "x"`).(*ast.Mutate)
	if _, ok := mu.Target.(*ast.Index); !ok {
		t.Fatalf("target = %T, want *ast.Index", mu.Target)
	}
}

func TestAdjust(t *testing.T) {
	inc := parseOne(t, "score increase by 5").(*ast.Adjust)
	if inc.Decrease {
		t.Fatal("increase parsed as decrease")
	}
	dec := parseOne(t, "score decrease by 1").(*ast.Adjust)
	if !dec.Decrease {
		t.Fatal("decrease parsed as increase")
	}
}

// The and in a say statement concatenates; in an if condition it is the
// logical operator. Disambiguation is by position, not token kind.
func TestSayAndIsConcatenation(t *testing.T) {
	say := parseOne(t, `say "total " and x`).(*ast.Say)
	if len(say.Parts) != 2 {
		t.Fatalf("got %d parts, want 2", len(say.Parts))
	}

	iff := parseOne(t, "if a and b then\nend").(*ast.If)
	bin, ok := iff.Cond.(*ast.Binary)
	if !ok || bin.Op != ast.OpAnd {
		t.Fatalf("condition = %#v, want logical and", iff.Cond)
	}
}

func TestPrecedence(t *testing.T) {
	// plus binds looser than times: 1 plus 2 times 3 = 1 plus (2 times 3)
	as := parseOne(t, "x is 1 plus 2 times 3").(*ast.Assign)
	top := as.Value.(*ast.Binary)
	if top.Op != ast.OpPlus {
		t.Fatalf("top op = %v, want plus", top.Op)
	}
	right := top.Right.(*ast.Binary)
	if right.Op != ast.OpTimes {
		t.Fatalf("right op = %v, want times", right.Op)
	}
}

func TestComparisons(t *testing.T) {
	cases := []struct {
		src string
		op  ast.BinOp
	}{
		{"x is a equals b", ast.OpEquals},
		{"x is a does not equal b", ast.OpNotEquals},
		{"x is a is greater than b", ast.OpGreater},
		{"x is a is less than b", ast.OpLess},
		{"x is a is at least b", ast.OpAtLeast},
		{"x is a is at most b", ast.OpAtMost},
	}
	for _, c := range cases {
		as := parseOne(t, c.src).(*ast.Assign)
		bin, ok := as.Value.(*ast.Binary)
		if !ok || bin.Op != c.op {
			t.Fatalf("%q: value = %#v, want op %v", c.src, as.Value, c.op)
		}
	}
}

func TestRepeatVariants(t *testing.T) {
	rt := parseOne(t, "repeat 3 times\nsay x\nend").(*ast.RepeatTimes)
	if rt.Count.(*ast.NumberLit).Value != 3 {
		t.Fatalf("count = %v", rt.Count)
	}
	if len(rt.Body) != 1 {
		t.Fatalf("body = %d statements", len(rt.Body))
	}

	// Identifier counts work even though "times" lexes as the operator.
	ri := parseOne(t, "repeat n times\nsay x\nend").(*ast.RepeatTimes)
	if ri.Count.(*ast.Ident).Name != "n" {
		t.Fatalf("count = %#v", ri.Count)
	}

	if _, ok := parseOne(t, "repeat forever\nend").(*ast.RepeatForever); !ok {
		t.Fatal("repeat forever")
	}
	ru := parseOne(t, "repeat until x equals 3\nend").(*ast.RepeatUntil)
	if ru.Cond == nil {
		t.Fatal("repeat until lost its condition")
	}
}

func TestDoUntil(t *testing.T) {
	du := parseOne(t, "do\nx becomes x plus 1\nuntil x equals 3").(*ast.DoUntil)
	if len(du.Body) != 1 || du.Cond == nil {
		t.Fatalf("do-until = %#v", du)
	}
}

func TestTimesExpression(t *testing.T) {
	as := parseOne(t, "x is a times b").(*ast.Assign)
	bin := as.Value.(*ast.Binary)
	if bin.Op != ast.OpTimes {
		t.Fatalf("op = %v, want times", bin.Op)
	}
}

func TestIfOtherwise(t *testing.T) {
	iff := parseOne(t, "if x then\nsay 1\notherwise\nsay 2\nend").(*ast.If)
	if len(iff.Then) != 1 || len(iff.Else) != 1 {
		t.Fatalf("then=%d else=%d", len(iff.Then), len(iff.Else))
	}
}

func TestFunctionDefAndCall(t *testing.T) {
	def := parseOne(t, "define greet with name\nsay name\nend").(*ast.FuncDef)
	if def.Name != "greet" || len(def.Params) != 1 || def.Params[0] != "name" {
		t.Fatalf("def = %#v", def)
	}

	call := parseOne(t, `greet "world"`).(*ast.ExprStmt).Value.(*ast.Call)
	if call.Name != "greet" || len(call.Args) != 1 {
		t.Fatalf("call = %#v", call)
	}
}

func TestMatchRangesAndDefault(t *testing.T) {
	src := `match score
when 1 to 5
say "low"
when 10
say "ten"
otherwise
say "other"
end`
	m := parseOne(t, src).(*ast.Match)
	if len(m.Arms) != 2 {
		t.Fatalf("got %d arms", len(m.Arms))
	}
	if m.Arms[0].High == nil {
		t.Fatal("range arm lost its upper bound")
	}
	if m.Arms[1].High != nil {
		t.Fatal("equality arm grew an upper bound")
	}
	if len(m.Default) != 1 {
		t.Fatalf("default = %d statements", len(m.Default))
	}
}

func TestListStatements(t *testing.T) {
	add := parseOne(t, "add 4 to nums").(*ast.AddTo)
	if add.Value.(*ast.NumberLit).Value != 4 {
		t.Fatalf("add = %#v", add)
	}

	rm := parseOne(t, "remove at 0 from nums").(*ast.Remove)
	if rm.Index == nil || rm.Value != nil {
		t.Fatalf("remove at = %#v", rm)
	}
	rv := parseOne(t, "remove 4 from nums").(*ast.Remove)
	if rv.Value == nil || rv.Index != nil {
		t.Fatalf("remove value = %#v", rv)
	}
}

func TestListPipelineExpressions(t *testing.T) {
	as := parseOne(t, "evens is filter nums where item is greater than 2").(*ast.Assign)
	if _, ok := as.Value.(*ast.Filter); !ok {
		t.Fatalf("value = %T", as.Value)
	}

	as = parseOne(t, "doubled is map nums using item times 2").(*ast.Assign)
	if _, ok := as.Value.(*ast.Map); !ok {
		t.Fatalf("value = %T", as.Value)
	}

	as = parseOne(t, "ordered is sort nums").(*ast.Assign)
	lo, ok := as.Value.(*ast.ListOp)
	if !ok || lo.Op != "sort" {
		t.Fatalf("value = %#v", as.Value)
	}
}

func TestDictAndObjectLiterals(t *testing.T) {
	src := "d is dictionary\n\"a\" is 1\n\"b\" is 2\nend"
	as := parseOne(t, src).(*ast.Assign)
	dict := as.Value.(*ast.DictLit)
	if len(dict.Entries) != 2 || dict.Entries[0].Key != "a" {
		t.Fatalf("dict = %#v", dict)
	}

	src = "o is object\nname is \"amy\"\nscore is 3\nend"
	obj := parseOne(t, src).(*ast.Assign).Value.(*ast.ObjectLit)
	if len(obj.Fields) != 2 || obj.Fields[0].Key != "name" {
		t.Fatalf("object = %#v", obj)
	}
}

func TestSchedulerStatements(t *testing.T) {
	af := parseOne(t, "after 5 seconds do\nsay \"hi\"\nend").(*ast.After)
	if af.Seconds.(*ast.NumberLit).Value != 5 {
		t.Fatalf("after = %#v", af)
	}

	ev := parseOne(t, "every 2 seconds do\nsay \"tick\"\nend").(*ast.Every)
	if ev.Name != "" {
		t.Fatalf("anonymous every got a name %q", ev.Name)
	}

	job := parseOne(t, `job "poll" every 30 seconds do
say "poll"
end`).(*ast.Every)
	if job.Name != "poll" {
		t.Fatalf("job name = %q", job.Name)
	}

	sj := parseOne(t, `stop job "poll"`).(*ast.StopJob)
	if sj.Name != "poll" {
		t.Fatalf("stop job = %#v", sj)
	}

	cr := parseOne(t, "cron \"0 9 * * *\"\nsay \"morning\"\nend").(*ast.Cron)
	if cr.Schedule != "0 9 * * *" {
		t.Fatalf("cron = %#v", cr)
	}
}

func TestServerBlock(t *testing.T) {
	src := `server on port 8080
when get "/hello"
say "hi"
when add "/items"
say "posted"
end`
	srv := parseOne(t, src).(*ast.Server)
	if len(srv.Routes) != 2 {
		t.Fatalf("got %d routes", len(srv.Routes))
	}
	if srv.Routes[0].Method != "GET" || srv.Routes[0].Path != "/hello" {
		t.Fatalf("route 0 = %#v", srv.Routes[0])
	}
	if srv.Routes[1].Method != "POST" {
		t.Fatalf("route 1 = %#v", srv.Routes[1])
	}
}

func TestUseAndInstall(t *testing.T) {
	use := parseOne(t, `use "mathx"`).(*ast.Use)
	if use.Name != "mathx" {
		t.Fatalf("use = %#v", use)
	}
	py := parseOne(t, `use python "math"`).(*ast.UsePython)
	if py.Module != "math" {
		t.Fatalf("use python = %#v", py)
	}
	inst := parseOne(t, `install "mathx"`).(*ast.Install)
	if inst.Name != "mathx" {
		t.Fatalf("install = %#v", inst)
	}
}

func TestHTTPForms(t *testing.T) {
	get := parseOne(t, `r is get "https://api.test/v1" using q is "go" limit is 3`).(*ast.Assign).Value.(*ast.HTTPGet)
	if get.URL != "https://api.test/v1" || len(get.Params) != 2 {
		t.Fatalf("get = %#v", get)
	}

	post := parseOne(t, `r is add to "https://api.test/v1" using name is "amy"`).(*ast.Assign).Value.(*ast.HTTPPost)
	if post.URL != "https://api.test/v1" || len(post.Body) != 1 {
		t.Fatalf("post = %#v", post)
	}
}

// Routes share the server block's single end; a per-route end closes
// the whole block and leaves the extra end dangling.
func TestServerRouteHasNoOwnEnd(t *testing.T) {
	_, err := ParseSource("server on port 8080\nwhen get \"/ping\"\nsay \"hi\"\nend\nend")
	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("got %v, want *Error", err)
	}
	if perr.Line != 5 {
		t.Fatalf("error at line %d, want 5 (the dangling end)", perr.Line)
	}
}

func TestUnmatchedBlockError(t *testing.T) {
	_, err := ParseSource("repeat 3 times\nsay x")
	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("got %v, want *Error", err)
	}
	if !strings.Contains(perr.Msg, "repeat") || !strings.Contains(perr.Msg, "line 1") {
		t.Fatalf("error should name the construct and opening line, got %q", perr.Msg)
	}
}

func TestUnmatchedIfNamesOpeningLine(t *testing.T) {
	_, err := ParseSource("say 1\nif x then\nsay 2")
	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("got %v, want *Error", err)
	}
	if !strings.Contains(perr.Msg, "if") || !strings.Contains(perr.Msg, "line 2") {
		t.Fatalf("got %q", perr.Msg)
	}
}

func TestNoPartialTree(t *testing.T) {
	prog, err := ParseSource("x is 1\nif y then\n")
	if err == nil {
		t.Fatal("want error")
	}
	if prog != nil {
		t.Fatal("a failed parse must not return a partial tree")
	}
}

func TestWriteAndReadFile(t *testing.T) {
	wf := parseOne(t, `write report to file "out.txt"`).(*ast.WriteFile)
	if wf.Path != "out.txt" {
		t.Fatalf("write = %#v", wf)
	}
	rf := parseOne(t, `content is read file "in.txt"`).(*ast.Assign).Value.(*ast.ReadFile)
	if rf.Path != "in.txt" {
		t.Fatalf("read = %#v", rf)
	}
}

func TestDrawStatements(t *testing.T) {
	dc := parseOne(t, `draw circle at 10, 20 with size 5 and color "red"`).(*ast.DrawCircle)
	if dc.Color != "red" {
		t.Fatalf("circle = %#v", dc)
	}
	dl := parseOne(t, `draw line from 0, 0 to 10, 10 with color "blue"`).(*ast.DrawLine)
	if dl.Color != "blue" {
		t.Fatalf("line = %#v", dl)
	}
}

func TestStringExpressions(t *testing.T) {
	sp := parseOne(t, `parts is split name by ","`).(*ast.Assign).Value.(*ast.Split)
	if sp.Sep != "," {
		t.Fatalf("split = %#v", sp)
	}
	jn := parseOne(t, `joined is join parts with "-"`).(*ast.Assign).Value.(*ast.Join)
	if jn.Sep != "-" {
		t.Fatalf("join = %#v", jn)
	}
	rp := parseOne(t, `fixed is replace "a" with "b" in word`).(*ast.Assign).Value.(*ast.Replace)
	if rp.Old != "a" || rp.New != "b" {
		t.Fatalf("replace = %#v", rp)
	}
}
