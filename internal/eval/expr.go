// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2026 The Gopa Authors

package eval

import (
	"sort"
	"strings"

	"github.com/gopa-lang/gopa/internal/ast"
	"github.com/gopa-lang/gopa/internal/object"
)

// sortValues orders numerically when every element is a number,
// lexically on the printed form otherwise.
func sortValues(elems []object.Value) {
	numeric := true
	for _, e := range elems {
		if e.Kind != object.KindNumber {
			numeric = false
			break
		}
	}
	sort.SliceStable(elems, func(i, j int) bool {
		if numeric {
			return elems[i].Num < elems[j].Num
		}
		return elems[i].String() < elems[j].String()
	})
}

func (in *Interp) evalExpr(env *object.Env, e ast.Expr) (object.Value, error) {
	switch x := e.(type) {
	case *ast.NumberLit:
		return object.Number(x.Value), nil
	case *ast.StringLit:
		return object.String(x.Value), nil
	case *ast.BoolLit:
		return object.Boolean(x.Value), nil
	case *ast.NothingLit:
		return object.Nothing, nil

	case *ast.Ident:
		v, ok := env.Get(x.Name)
		if !ok {
			// A bare builtin name is a zero-argument call, so
			// `x is random` works.
			if fn, isBuiltin := builtins[x.Name]; isBuiltin {
				return fn(in, x.Line(), nil)
			}
			return object.Nothing, errf(ErrUndefinedVariable, x.Line(), "%q is not defined", x.Name)
		}
		return v, nil

	case *ast.ListLit:
		elems := make([]object.Value, 0, len(x.Elems))
		for _, el := range x.Elems {
			v, err := in.evalExpr(env, el)
			if err != nil {
				return object.Nothing, err
			}
			elems = append(elems, v)
		}
		return object.NewList(elems...), nil

	case *ast.DictLit:
		d := object.NewDict()
		for _, ent := range x.Entries {
			v, err := in.evalExpr(env, ent.Value)
			if err != nil {
				return object.Nothing, err
			}
			d.Map.Set(ent.Key, v)
		}
		return d, nil

	case *ast.ObjectLit:
		o := object.NewObject()
		for _, f := range x.Fields {
			v, err := in.evalExpr(env, f.Value)
			if err != nil {
				return object.Nothing, err
			}
			o.Map.Set(f.Key, v)
		}
		return o, nil

	case *ast.Property:
		return in.evalProperty(env, x)

	case *ast.Index:
		return in.evalIndex(env, x)

	case *ast.Call:
		args := make([]object.Value, 0, len(x.Args))
		for _, a := range x.Args {
			v, err := in.evalExpr(env, a)
			if err != nil {
				return object.Nothing, err
			}
			args = append(args, v)
		}
		return in.callFunction(env, x.Name, args, x.Line())

	case *ast.Binary:
		return in.evalBinary(env, x)

	case *ast.Unary:
		v, err := in.evalExpr(env, x.Operand)
		if err != nil {
			return object.Nothing, err
		}
		if x.Op == "not" {
			return object.Boolean(!v.Truthy()), nil
		}
		if v.Kind != object.KindNumber {
			return object.Nothing, errf(ErrType, x.Line(), "cannot negate %s", v.TypeName())
		}
		return object.Number(-v.Num), nil

	case *ast.Find:
		return in.evalFind(env, x)

	case *ast.Filter:
		return in.evalFilter(env, x)

	case *ast.Map:
		return in.evalMap(env, x)

	case *ast.ListOp:
		return in.evalListOp(env, x)

	case *ast.Split:
		v, err := in.evalExpr(env, x.Str)
		if err != nil {
			return object.Nothing, err
		}
		if v.Kind != object.KindString {
			return object.Nothing, errf(ErrType, x.Line(), "split needs a string, got %s", v.TypeName())
		}
		parts := strings.Split(v.Str, x.Sep)
		elems := make([]object.Value, len(parts))
		for i, p := range parts {
			elems[i] = object.String(p)
		}
		return object.NewList(elems...), nil

	case *ast.Join:
		v, err := in.evalExpr(env, x.List)
		if err != nil {
			return object.Nothing, err
		}
		if v.Kind != object.KindList {
			return object.Nothing, errf(ErrType, x.Line(), "join needs a list, got %s", v.TypeName())
		}
		parts := make([]string, len(v.List.Elems))
		for i, el := range v.List.Elems {
			parts[i] = el.String()
		}
		return object.String(strings.Join(parts, x.Sep)), nil

	case *ast.Replace:
		v, err := in.evalExpr(env, x.In)
		if err != nil {
			return object.Nothing, err
		}
		if v.Kind != object.KindString {
			return object.Nothing, errf(ErrType, x.Line(), "replace needs a string, got %s", v.TypeName())
		}
		return object.String(strings.ReplaceAll(v.Str, x.Old, x.New)), nil

	case *ast.HTTPGet:
		return in.httpGet(env, x)

	case *ast.HTTPPost:
		return in.httpPost(env, x)

	case *ast.ReadFile:
		return in.readFile(x.Line(), x.Path)

	case *ast.CreateCanvas:
		return in.createCanvas(env, x)

	case *ast.PythonCall:
		return in.pythonCall(env, x)

	default:
		return object.Nothing, errf(ErrValue, e.Line(), "unhandled expression %T", e)
	}
}

func (in *Interp) evalProperty(env *object.Env, x *ast.Property) (object.Value, error) {
	obj, err := in.evalExpr(env, x.Target)
	if err != nil {
		return object.Nothing, err
	}
	switch obj.Kind {
	case object.KindDict, object.KindObject:
		// Missing keys read as nothing.
		v, _ := obj.Map.Get(x.Name)
		return v, nil
	case object.KindCanvas:
		switch x.Name {
		case "width":
			return object.Number(float64(obj.Canvas.Width)), nil
		case "height":
			return object.Number(float64(obj.Canvas.Height)), nil
		}
		return object.Nothing, nil
	default:
		return object.Nothing, nil
	}
}

func (in *Interp) evalIndex(env *object.Env, x *ast.Index) (object.Value, error) {
	obj, err := in.evalExpr(env, x.Target)
	if err != nil {
		return object.Nothing, err
	}
	key, err := in.evalExpr(env, x.Key)
	if err != nil {
		return object.Nothing, err
	}
	switch obj.Kind {
	case object.KindList:
		if key.Kind != object.KindNumber {
			return object.Nothing, nil
		}
		i := int(key.Num)
		// Reads past either end yield nothing; writes are checked.
		if i < 0 || i >= len(obj.List.Elems) {
			return object.Nothing, nil
		}
		return obj.List.Elems[i], nil
	case object.KindDict, object.KindObject:
		v, _ := obj.Map.Get(key.String())
		return v, nil
	default:
		return object.Nothing, nil
	}
}

func (in *Interp) evalBinary(env *object.Env, x *ast.Binary) (object.Value, error) {
	// and/or short-circuit and yield an operand, not a boolean.
	if x.Op == ast.OpAnd || x.Op == ast.OpOr {
		left, err := in.evalExpr(env, x.Left)
		if err != nil {
			return object.Nothing, err
		}
		if x.Op == ast.OpAnd {
			if !left.Truthy() {
				return left, nil
			}
		} else if left.Truthy() {
			return left, nil
		}
		return in.evalExpr(env, x.Right)
	}

	left, err := in.evalExpr(env, x.Left)
	if err != nil {
		return object.Nothing, err
	}
	right, err := in.evalExpr(env, x.Right)
	if err != nil {
		return object.Nothing, err
	}

	switch x.Op {
	case ast.OpEquals:
		return object.Boolean(object.Equal(left, right)), nil
	case ast.OpNotEquals:
		return object.Boolean(!object.Equal(left, right)), nil
	}

	bothNumbers := left.Kind == object.KindNumber && right.Kind == object.KindNumber
	bothStrings := left.Kind == object.KindString && right.Kind == object.KindString

	switch x.Op {
	case ast.OpPlus:
		switch {
		case bothNumbers:
			return object.Number(left.Num + right.Num), nil
		case bothStrings:
			return object.String(left.Str + right.Str), nil
		case left.Kind == object.KindList && right.Kind == object.KindList:
			elems := make([]object.Value, 0, len(left.List.Elems)+len(right.List.Elems))
			elems = append(elems, left.List.Elems...)
			elems = append(elems, right.List.Elems...)
			return object.NewList(elems...), nil
		}
		return object.Nothing, errf(ErrType, x.Line(), "cannot add %s and %s", left.TypeName(), right.TypeName())

	case ast.OpMinus:
		if bothNumbers {
			return object.Number(left.Num - right.Num), nil
		}
		return object.Nothing, errf(ErrType, x.Line(), "cannot subtract %s from %s", right.TypeName(), left.TypeName())

	case ast.OpTimes:
		if bothNumbers {
			return object.Number(left.Num * right.Num), nil
		}
		if left.Kind == object.KindString && right.Kind == object.KindNumber {
			n := int(right.Num)
			if n < 0 {
				n = 0
			}
			return object.String(strings.Repeat(left.Str, n)), nil
		}
		return object.Nothing, errf(ErrType, x.Line(), "cannot multiply %s by %s", left.TypeName(), right.TypeName())

	case ast.OpDividedBy:
		if !bothNumbers {
			return object.Nothing, errf(ErrType, x.Line(), "cannot divide %s by %s", left.TypeName(), right.TypeName())
		}
		if right.Num == 0 {
			return object.Nothing, errf(ErrDivisionByZero, x.Line(), "cannot divide %s by zero", object.FormatNumber(left.Num))
		}
		return object.Number(left.Num / right.Num), nil

	case ast.OpGreater, ast.OpLess, ast.OpAtLeast, ast.OpAtMost:
		var cmp int
		switch {
		case bothNumbers:
			switch {
			case left.Num < right.Num:
				cmp = -1
			case left.Num > right.Num:
				cmp = 1
			}
		case bothStrings:
			cmp = strings.Compare(left.Str, right.Str)
		default:
			return object.Nothing, errf(ErrType, x.Line(), "cannot compare %s with %s", left.TypeName(), right.TypeName())
		}
		switch x.Op {
		case ast.OpGreater:
			return object.Boolean(cmp > 0), nil
		case ast.OpLess:
			return object.Boolean(cmp < 0), nil
		case ast.OpAtLeast:
			return object.Boolean(cmp >= 0), nil
		default:
			return object.Boolean(cmp <= 0), nil
		}
	}
	return object.Nothing, errf(ErrValue, x.Line(), "unhandled operator %s", x.Op)
}

func (in *Interp) evalFind(env *object.Env, x *ast.Find) (object.Value, error) {
	needle, err := in.evalExpr(env, x.Needle)
	if err != nil {
		return object.Nothing, err
	}
	haystack, err := in.evalExpr(env, x.Haystack)
	if err != nil {
		return object.Nothing, err
	}
	switch haystack.Kind {
	case object.KindList:
		for _, el := range haystack.List.Elems {
			if object.Equal(el, needle) {
				return object.Boolean(true), nil
			}
		}
		return object.Boolean(false), nil
	case object.KindString:
		if needle.Kind != object.KindString {
			return object.Boolean(false), nil
		}
		return object.Boolean(strings.Contains(haystack.Str, needle.Str)), nil
	case object.KindDict, object.KindObject:
		_, ok := haystack.Map.Get(needle.String())
		return object.Boolean(ok), nil
	default:
		return object.Nothing, errf(ErrType, x.Line(), "cannot search in %s", haystack.TypeName())
	}
}

func (in *Interp) evalFilter(env *object.Env, x *ast.Filter) (object.Value, error) {
	list, err := in.evalExpr(env, x.List)
	if err != nil {
		return object.Nothing, err
	}
	if list.Kind != object.KindList {
		return object.Nothing, errf(ErrType, x.Line(), "filter needs a list, got %s", list.TypeName())
	}
	var kept []object.Value
	scope := object.NewEnv(env)
	for _, el := range list.List.Elems {
		scope.Define("item", el)
		cond, err := in.evalExpr(scope, x.Cond)
		if err != nil {
			return object.Nothing, err
		}
		if cond.Truthy() {
			kept = append(kept, el)
		}
	}
	return object.NewList(kept...), nil
}

func (in *Interp) evalMap(env *object.Env, x *ast.Map) (object.Value, error) {
	list, err := in.evalExpr(env, x.List)
	if err != nil {
		return object.Nothing, err
	}
	if list.Kind != object.KindList {
		return object.Nothing, errf(ErrType, x.Line(), "map needs a list, got %s", list.TypeName())
	}
	out := make([]object.Value, 0, len(list.List.Elems))
	scope := object.NewEnv(env)
	for _, el := range list.List.Elems {
		scope.Define("item", el)
		v, err := in.evalExpr(scope, x.Transform)
		if err != nil {
			return object.Nothing, err
		}
		out = append(out, v)
	}
	return object.NewList(out...), nil
}

// evalListOp implements sort/reverse/shuffle. All three return a fresh
// list; the operand is never mutated.
func (in *Interp) evalListOp(env *object.Env, x *ast.ListOp) (object.Value, error) {
	list, err := in.evalExpr(env, x.List)
	if err != nil {
		return object.Nothing, err
	}
	if list.Kind != object.KindList {
		return object.Nothing, errf(ErrType, x.Line(), "%s needs a list, got %s", x.Op, list.TypeName())
	}
	elems := make([]object.Value, len(list.List.Elems))
	copy(elems, list.List.Elems)

	switch x.Op {
	case "sort":
		sortValues(elems)
	case "reverse":
		for i, j := 0, len(elems)-1; i < j; i, j = i+1, j-1 {
			elems[i], elems[j] = elems[j], elems[i]
		}
	case "shuffle":
		in.rng.Shuffle(len(elems), func(i, j int) {
			elems[i], elems[j] = elems[j], elems[i]
		})
	}
	return object.NewList(elems...), nil
}
