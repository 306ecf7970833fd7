package eval

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/gopa-lang/gopa/internal/ast"
	"github.com/gopa-lang/gopa/internal/object"
	"github.com/gopa-lang/gopa/internal/perm"
)

// Host interop. `use python "math"` and `python call "math.sqrt"` are
// resolved against a fixed allowlist of modules implemented natively;
// no foreign runtime is ever involved.

var interopAllowlist = map[string]func(in *Interp) object.Value{
	"math":     interopMath,
	"random":   interopRandom,
	"datetime": interopDatetime,
	"re":       interopRe,
}

func (in *Interp) execUsePython(env *object.Env, s *ast.UsePython) error {
	if err := in.perms.Check(perm.PythonFFI); err != nil {
		return err
	}
	build, ok := interopAllowlist[s.Module]
	if !ok {
		return errf(ErrInterop, s.Line(), "module %q is not in the interop allowlist", s.Module)
	}
	// The binding name is the last dotted segment.
	alias := s.Module
	if i := strings.LastIndex(alias, "."); i >= 0 {
		alias = alias[i+1:]
	}
	env.Define(alias, build(in))
	return nil
}

func (in *Interp) pythonCall(env *object.Env, x *ast.PythonCall) (object.Value, error) {
	if err := in.perms.Check(perm.PythonFFI); err != nil {
		return object.Nothing, err
	}
	modName, attr, ok := strings.Cut(x.Target, ".")
	if !ok {
		return object.Nothing, errf(ErrInterop, x.Line(), "python call needs a 'module.attr' target, got %q", x.Target)
	}
	build, allowed := interopAllowlist[modName]
	if !allowed {
		return object.Nothing, errf(ErrInterop, x.Line(), "module %q is not in the interop allowlist", modName)
	}
	mod := build(in)
	member, found := mod.Map.Get(attr)
	if !found {
		return object.Nothing, errf(ErrInterop, x.Line(), "%s has no attribute %q", modName, attr)
	}
	if member.Kind != object.KindNative {
		// Constants like math.pi can be "called" with no arguments.
		if len(x.Args) == 0 {
			return member, nil
		}
		return object.Nothing, errf(ErrInterop, x.Line(), "%s is not callable", x.Target)
	}
	args := make([]object.Value, 0, len(x.Args))
	for _, a := range x.Args {
		v, err := in.evalExpr(env, a)
		if err != nil {
			return object.Nothing, err
		}
		args = append(args, v)
	}
	return in.callValue(member, args, x.Line())
}

func native(name string, fn func(args []object.Value) (object.Value, error)) object.Value {
	return object.Value{Kind: object.KindNative, Native: &object.Native{Name: name, Fn: fn}}
}

func nativeNum1(name string, f func(float64) float64) object.Value {
	return native(name, func(args []object.Value) (object.Value, error) {
		if len(args) < 1 || args[0].Kind != object.KindNumber {
			return object.Nothing, fmt.Errorf("%s needs a number", name)
		}
		return object.Number(f(args[0].Num)), nil
	})
}

func interopMath(in *Interp) object.Value {
	m := object.NewObject()
	m.Map.Set("pi", object.Number(math.Pi))
	m.Map.Set("e", object.Number(math.E))
	m.Map.Set("sqrt", nativeNum1("math.sqrt", math.Sqrt))
	m.Map.Set("floor", nativeNum1("math.floor", math.Floor))
	m.Map.Set("ceil", nativeNum1("math.ceil", math.Ceil))
	m.Map.Set("sin", nativeNum1("math.sin", math.Sin))
	m.Map.Set("cos", nativeNum1("math.cos", math.Cos))
	m.Map.Set("tan", nativeNum1("math.tan", math.Tan))
	m.Map.Set("log", nativeNum1("math.log", math.Log))
	m.Map.Set("fabs", nativeNum1("math.fabs", math.Abs))
	m.Map.Set("pow", native("math.pow", func(args []object.Value) (object.Value, error) {
		if len(args) < 2 || args[0].Kind != object.KindNumber || args[1].Kind != object.KindNumber {
			return object.Nothing, fmt.Errorf("math.pow needs two numbers")
		}
		return object.Number(math.Pow(args[0].Num, args[1].Num)), nil
	}))
	return m
}

func interopRandom(in *Interp) object.Value {
	m := object.NewObject()
	m.Map.Set("random", native("random.random", func(args []object.Value) (object.Value, error) {
		return object.Number(in.rng.Float64()), nil
	}))
	m.Map.Set("randint", native("random.randint", func(args []object.Value) (object.Value, error) {
		if len(args) < 2 || args[0].Kind != object.KindNumber || args[1].Kind != object.KindNumber {
			return object.Nothing, fmt.Errorf("random.randint needs two numbers")
		}
		a, b := int(args[0].Num), int(args[1].Num)
		if b < a {
			return object.Nothing, fmt.Errorf("random.randint range %d..%d is empty", a, b)
		}
		return object.Number(float64(a + in.rng.Intn(b-a+1))), nil
	}))
	m.Map.Set("choice", native("random.choice", func(args []object.Value) (object.Value, error) {
		if len(args) < 1 || args[0].Kind != object.KindList || len(args[0].List.Elems) == 0 {
			return object.Nothing, fmt.Errorf("random.choice needs a non-empty list")
		}
		elems := args[0].List.Elems
		return elems[in.rng.Intn(len(elems))], nil
	}))
	return m
}

func interopDatetime(in *Interp) object.Value {
	m := object.NewObject()
	m.Map.Set("now", native("datetime.now", func(args []object.Value) (object.Value, error) {
		return object.String(in.sched.Clock().Now().Format(time.DateTime)), nil
	}))
	m.Map.Set("today", native("datetime.today", func(args []object.Value) (object.Value, error) {
		return object.String(in.sched.Clock().Now().Format(time.DateOnly)), nil
	}))
	return m
}

func interopRe(in *Interp) object.Value {
	twoStrings := func(name string, args []object.Value) (string, string, error) {
		if len(args) < 2 || args[0].Kind != object.KindString || args[1].Kind != object.KindString {
			return "", "", fmt.Errorf("%s needs a pattern and a string", name)
		}
		return args[0].Str, args[1].Str, nil
	}
	m := object.NewObject()
	m.Map.Set("match", native("re.match", func(args []object.Value) (object.Value, error) {
		pat, s, err := twoStrings("re.match", args)
		if err != nil {
			return object.Nothing, err
		}
		re, err := regexp.Compile(pat)
		if err != nil {
			return object.Nothing, fmt.Errorf("bad pattern %q: %v", pat, err)
		}
		return object.Boolean(re.MatchString(s)), nil
	}))
	m.Map.Set("findall", native("re.findall", func(args []object.Value) (object.Value, error) {
		pat, s, err := twoStrings("re.findall", args)
		if err != nil {
			return object.Nothing, err
		}
		re, err := regexp.Compile(pat)
		if err != nil {
			return object.Nothing, fmt.Errorf("bad pattern %q: %v", pat, err)
		}
		var elems []object.Value
		for _, match := range re.FindAllString(s, -1) {
			elems = append(elems, object.String(match))
		}
		return object.NewList(elems...), nil
	}))
	m.Map.Set("sub", native("re.sub", func(args []object.Value) (object.Value, error) {
		if len(args) < 3 || args[0].Kind != object.KindString || args[1].Kind != object.KindString || args[2].Kind != object.KindString {
			return object.Nothing, fmt.Errorf("re.sub needs a pattern, a replacement and a string")
		}
		re, err := regexp.Compile(args[0].Str)
		if err != nil {
			return object.Nothing, fmt.Errorf("bad pattern %q: %v", args[0].Str, err)
		}
		return object.String(re.ReplaceAllString(args[2].Str, args[1].Str)), nil
	}))
	return m
}
