// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2026 The Gopa Authors

// Package object defines runtime values and scopes.
//
// Value is a flat tagged union. Lists and the two map-shaped kinds are
// held by pointer so that in-place mutation (add/remove, index and
// property assignment) is visible through every binding, while the
// pipeline operations (filter, map, sort, reverse, shuffle) build new
// values and leave their operands alone.
package object

import (
	"strconv"
	"strings"

	"github.com/emirpasic/gods/maps/linkedhashmap"

	"github.com/gopa-lang/gopa/internal/ast"
)

// Kind discriminates the value union.
type Kind int

const (
	KindNothing Kind = iota
	KindNumber
	KindString
	KindBoolean
	KindList
	KindDict
	KindObject
	KindFunction
	KindNative
	KindCanvas
)

var kindNames = map[Kind]string{
	KindNothing: "nothing", KindNumber: "number", KindString: "string",
	KindBoolean: "boolean", KindList: "list", KindDict: "dictionary",
	KindObject: "object", KindFunction: "function", KindNative: "function",
	KindCanvas: "canvas",
}

func (k Kind) String() string { return kindNames[k] }

// TypeName is the user-facing name of a value's type, used in TypeError
// messages.
func (v Value) TypeName() string { return v.Kind.String() }

// Value is one runtime value. Only the field selected by Kind is
// meaningful. Dict and Object share the Map representation; they differ
// in kind, literal syntax and string form.
type Value struct {
	Kind   Kind
	Num    float64
	Str    string
	Bool   bool
	List   *List
	Map    *Map
	Fn     *Function
	Native *Native
	Canvas *Canvas
}

// Nothing is the absent value.
var Nothing = Value{Kind: KindNothing}

func Number(n float64) Value  { return Value{Kind: KindNumber, Num: n} }
func String(s string) Value   { return Value{Kind: KindString, Str: s} }
func Boolean(b bool) Value    { return Value{Kind: KindBoolean, Bool: b} }
func NewList(elems ...Value) Value {
	return Value{Kind: KindList, List: &List{Elems: elems}}
}
func NewDict() Value   { return Value{Kind: KindDict, Map: newMap()} }
func NewObject() Value { return Value{Kind: KindObject, Map: newMap()} }

// List is a mutable, shared sequence.
type List struct {
	Elems []Value
}

// Map is an insertion-ordered string-keyed map.
type Map struct {
	m *linkedhashmap.Map
}

func newMap() *Map { return &Map{m: linkedhashmap.New()} }

func (m *Map) Get(key string) (Value, bool) {
	v, ok := m.m.Get(key)
	if !ok {
		return Nothing, false
	}
	return v.(Value), true
}

func (m *Map) Set(key string, v Value) { m.m.Put(key, v) }
func (m *Map) Delete(key string)       { m.m.Remove(key) }
func (m *Map) Len() int                { return m.m.Size() }

func (m *Map) Keys() []string {
	raw := m.m.Keys()
	keys := make([]string, len(raw))
	for i, k := range raw {
		keys[i] = k.(string)
	}
	return keys
}

// Values returns the values in insertion order.
func (m *Map) Values() []Value {
	keys := m.Keys()
	vals := make([]Value, len(keys))
	for i, k := range keys {
		vals[i], _ = m.Get(k)
	}
	return vals
}

// Function is a user-defined function: a closure over the environment it
// was defined in.
type Function struct {
	Name   string
	Params []string
	Body   []ast.Stmt
	Env    *Env
}

// Native is a host function. Capability is empty for the capability-free
// builtins and names the required permission otherwise.
type Native struct {
	Name       string
	Capability string
	Fn         func(args []Value) (Value, error)
}

// Canvas is a drawing surface handle. Rendering is delegated to the host;
// the runtime only tracks identity and dimensions.
type Canvas struct {
	ID            int
	Width, Height int
}

// Truthy reports the boolean reading of a value: nothing, false, zero and
// the empty string/list/dictionary are falsy, everything else truthy.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindNothing:
		return false
	case KindBoolean:
		return v.Bool
	case KindNumber:
		return v.Num != 0
	case KindString:
		return v.Str != ""
	case KindList:
		return len(v.List.Elems) > 0
	case KindDict:
		return v.Map.Len() > 0
	}
	return true
}

// Equal compares structurally: lists elementwise, dictionaries and
// objects by keys and values in order, functions by identity.
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNothing:
		return true
	case KindNumber:
		return a.Num == b.Num
	case KindString:
		return a.Str == b.Str
	case KindBoolean:
		return a.Bool == b.Bool
	case KindList:
		if len(a.List.Elems) != len(b.List.Elems) {
			return false
		}
		for i := range a.List.Elems {
			if !Equal(a.List.Elems[i], b.List.Elems[i]) {
				return false
			}
		}
		return true
	case KindDict, KindObject:
		ak, bk := a.Map.Keys(), b.Map.Keys()
		if len(ak) != len(bk) {
			return false
		}
		for i, k := range ak {
			if k != bk[i] {
				return false
			}
			av, _ := a.Map.Get(k)
			bv, _ := b.Map.Get(k)
			if !Equal(av, bv) {
				return false
			}
		}
		return true
	case KindFunction:
		return a.Fn == b.Fn
	case KindNative:
		return a.Native == b.Native
	case KindCanvas:
		return a.Canvas == b.Canvas
	}
	return false
}

// FormatNumber renders a number the way scripts expect: integral values
// print without a decimal point, so 4 plus 2 says "6".
func FormatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// String renders a value for say/print.
func (v Value) String() string {
	switch v.Kind {
	case KindNothing:
		return "nothing"
	case KindNumber:
		return FormatNumber(v.Num)
	case KindString:
		return v.Str
	case KindBoolean:
		if v.Bool {
			return "true"
		}
		return "false"
	case KindList:
		var b strings.Builder
		b.WriteByte('[')
		for i, e := range v.List.Elems {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(e.String())
		}
		b.WriteByte(']')
		return b.String()
	case KindDict, KindObject:
		var b strings.Builder
		b.WriteByte('{')
		for i, k := range v.Map.Keys() {
			if i > 0 {
				b.WriteString(", ")
			}
			val, _ := v.Map.Get(k)
			b.WriteString(k)
			b.WriteString(": ")
			b.WriteString(val.String())
		}
		b.WriteByte('}')
		return b.String()
	case KindFunction:
		return "<function " + v.Fn.Name + ">"
	case KindNative:
		return "<function " + v.Native.Name + ">"
	case KindCanvas:
		return "<canvas " + strconv.Itoa(v.Canvas.Width) + "x" + strconv.Itoa(v.Canvas.Height) + ">"
	}
	return ""
}
