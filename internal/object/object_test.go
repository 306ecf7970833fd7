package object

import "testing"

func TestTruthiness(t *testing.T) {
	falsy := []Value{
		Nothing,
		Boolean(false),
		Number(0),
		String(""),
		NewList(),
		NewDict(),
	}
	for _, v := range falsy {
		if v.Truthy() {
			t.Errorf("%s %s should be falsy", v.Kind, v)
		}
	}

	truthy := []Value{
		Boolean(true),
		Number(-1),
		Number(0.5),
		String("0"),
		NewList(Number(0)),
		NewObject(),
	}
	for _, v := range truthy {
		if !v.Truthy() {
			t.Errorf("%s %s should be truthy", v.Kind, v)
		}
	}
}

func TestNumberFormatting(t *testing.T) {
	cases := []struct {
		n    float64
		want string
	}{
		{6, "6"},
		{-3, "-3"},
		{0, "0"},
		{2.5, "2.5"},
		{0.1, "0.1"},
		{1000000, "1000000"},
	}
	for _, c := range cases {
		if got := Number(c.n).String(); got != c.want {
			t.Errorf("Number(%v).String() = %q, want %q", c.n, got, c.want)
		}
	}
}

func TestDictInsertionOrder(t *testing.T) {
	d := NewDict()
	d.Map.Set("zebra", Number(1))
	d.Map.Set("apple", Number(2))
	d.Map.Set("mango", Number(3))

	keys := d.Map.Keys()
	want := []string{"zebra", "apple", "mango"}
	for i, k := range want {
		if keys[i] != k {
			t.Fatalf("keys = %v, want %v", keys, want)
		}
	}
	if d.String() != "{zebra: 1, apple: 2, mango: 3}" {
		t.Fatalf("String() = %q", d.String())
	}
}

func TestEqual(t *testing.T) {
	if !Equal(Number(3), Number(3)) {
		t.Fatal("3 equals 3")
	}
	if Equal(Number(3), String("3")) {
		t.Fatal("3 should not equal \"3\"")
	}
	if !Equal(NewList(Number(1), Number(2)), NewList(Number(1), Number(2))) {
		t.Fatal("lists compare elementwise")
	}
	if Equal(NewList(Number(1)), NewList(Number(2))) {
		t.Fatal("different lists compare unequal")
	}

	a, b := NewDict(), NewDict()
	a.Map.Set("k", Number(1))
	b.Map.Set("k", Number(1))
	if !Equal(a, b) {
		t.Fatal("dicts compare by content")
	}
	if Equal(a, NewObject()) {
		t.Fatal("dict and object are distinct kinds")
	}
}

func TestEnvDefineShadows(t *testing.T) {
	outer := NewEnv(nil)
	outer.Define("x", Number(1))

	inner := NewEnv(outer)
	inner.Define("x", Number(2))

	if v, _ := inner.Get("x"); v.Num != 2 {
		t.Fatalf("inner x = %v, want 2", v)
	}
	if v, _ := outer.Get("x"); v.Num != 1 {
		t.Fatalf("outer x = %v, want 1", v)
	}
}

func TestEnvAssignWalksOut(t *testing.T) {
	outer := NewEnv(nil)
	outer.Define("count", Number(0))

	inner := NewEnv(outer)
	if !inner.Assign("count", Number(5)) {
		t.Fatal("assign should find the outer binding")
	}
	if v, _ := outer.Get("count"); v.Num != 5 {
		t.Fatalf("outer count = %v, want 5", v)
	}

	if inner.Assign("missing", Number(1)) {
		t.Fatal("assign must not create bindings")
	}
	if _, ok := inner.Get("missing"); ok {
		t.Fatal("missing leaked into the scope")
	}
}

// Two bindings to the same list see each other's mutations.
func TestListSharing(t *testing.T) {
	l := NewList(Number(1))
	alias := l
	alias.List.Elems = append(alias.List.Elems, Number(2))
	if len(l.List.Elems) != 2 {
		t.Fatal("list mutation should be visible through every binding")
	}
}
