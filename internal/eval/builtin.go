// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2026 The Gopa Authors

package eval

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gopa-lang/gopa/internal/object"
)

// builtinFn is the signature of every named builtin. Builtins shadow
// user functions of the same name.
type builtinFn func(in *Interp, line int, args []object.Value) (object.Value, error)

var builtins map[string]builtinFn

func init() {
	builtins = map[string]builtinFn{
		"random":      biRandom,
		"random_int":  biRandomInt,
		"floor":       numeric1("floor", math.Floor),
		"ceil":        numeric1("ceil", math.Ceil),
		"round":       numeric1("round", math.Round),
		"abs":         numeric1("abs", math.Abs),
		"sqrt":        numeric1("sqrt", math.Sqrt),
		"sin":         numeric1("sin", math.Sin),
		"cos":         numeric1("cos", math.Cos),
		"tan":         numeric1("tan", math.Tan),
		"log":         numeric1("log", math.Log),
		"pow":         biPow,
		"max":         biMax,
		"min":         biMin,
		"sum":         biSum,
		"len":         biLen,
		"range":       biRange,
		"type_of":     biTypeOf,
		"to_string":   biToString,
		"to_number":   biToNumber,
		"uppercase":   stringly("uppercase", strings.ToUpper),
		"lowercase":   stringly("lowercase", strings.ToLower),
		"trim":        stringly("trim", strings.TrimSpace),
		"print_table": biPrintTable,
		"keys":        biKeys,
		"values":      biValues,
		"now":         biNow,
		"today":       biToday,
	}
}

func arg(args []object.Value, i int) object.Value {
	if i < len(args) {
		return args[i]
	}
	return object.Nothing
}

func wantNumber(name string, line int, v object.Value) (float64, error) {
	if v.Kind != object.KindNumber {
		return 0, errf(ErrType, line, "%s needs a number, got %s", name, v.TypeName())
	}
	return v.Num, nil
}

func wantList(name string, line int, v object.Value) (*object.List, error) {
	if v.Kind != object.KindList {
		return nil, errf(ErrType, line, "%s needs a list, got %s", name, v.TypeName())
	}
	return v.List, nil
}

func numeric1(name string, f func(float64) float64) builtinFn {
	return func(in *Interp, line int, args []object.Value) (object.Value, error) {
		n, err := wantNumber(name, line, arg(args, 0))
		if err != nil {
			return object.Nothing, err
		}
		return object.Number(f(n)), nil
	}
}

func stringly(name string, f func(string) string) builtinFn {
	return func(in *Interp, line int, args []object.Value) (object.Value, error) {
		v := arg(args, 0)
		if v.Kind != object.KindString {
			return object.Nothing, errf(ErrType, line, "%s needs a string, got %s", name, v.TypeName())
		}
		return object.String(f(v.Str)), nil
	}
}

func biRandom(in *Interp, line int, args []object.Value) (object.Value, error) {
	return object.Number(in.rng.Float64()), nil
}

func biRandomInt(in *Interp, line int, args []object.Value) (object.Value, error) {
	lo, err := wantNumber("random_int", line, arg(args, 0))
	if err != nil {
		return object.Nothing, err
	}
	hi, err := wantNumber("random_int", line, arg(args, 1))
	if err != nil {
		return object.Nothing, err
	}
	a, b := int(lo), int(hi)
	if b < a {
		return object.Nothing, errf(ErrValue, line, "random_int range %d..%d is empty", a, b)
	}
	return object.Number(float64(a + in.rng.Intn(b-a+1))), nil
}

func biPow(in *Interp, line int, args []object.Value) (object.Value, error) {
	base, err := wantNumber("pow", line, arg(args, 0))
	if err != nil {
		return object.Nothing, err
	}
	exp, err := wantNumber("pow", line, arg(args, 1))
	if err != nil {
		return object.Nothing, err
	}
	return object.Number(math.Pow(base, exp)), nil
}

func biMax(in *Interp, line int, args []object.Value) (object.Value, error) {
	return extreme("max", line, arg(args, 0), func(a, b float64) bool { return a > b })
}

func biMin(in *Interp, line int, args []object.Value) (object.Value, error) {
	return extreme("min", line, arg(args, 0), func(a, b float64) bool { return a < b })
}

func extreme(name string, line int, v object.Value, better func(a, b float64) bool) (object.Value, error) {
	list, err := wantList(name, line, v)
	if err != nil {
		return object.Nothing, err
	}
	// Empty lists have no extreme.
	if len(list.Elems) == 0 {
		return object.Nothing, nil
	}
	best := list.Elems[0]
	for _, el := range list.Elems[1:] {
		if el.Kind != object.KindNumber || best.Kind != object.KindNumber {
			return object.Nothing, errf(ErrType, line, "%s needs a list of numbers", name)
		}
		if better(el.Num, best.Num) {
			best = el
		}
	}
	return best, nil
}

func biSum(in *Interp, line int, args []object.Value) (object.Value, error) {
	list, err := wantList("sum", line, arg(args, 0))
	if err != nil {
		return object.Nothing, err
	}
	total := 0.0
	for _, el := range list.Elems {
		if el.Kind != object.KindNumber {
			return object.Nothing, errf(ErrType, line, "sum needs a list of numbers, found %s", el.TypeName())
		}
		total += el.Num
	}
	return object.Number(total), nil
}

func biLen(in *Interp, line int, args []object.Value) (object.Value, error) {
	v := arg(args, 0)
	switch v.Kind {
	case object.KindString:
		return object.Number(float64(len([]rune(v.Str)))), nil
	case object.KindList:
		return object.Number(float64(len(v.List.Elems))), nil
	case object.KindDict, object.KindObject:
		return object.Number(float64(v.Map.Len())), nil
	default:
		return object.Nothing, errf(ErrType, line, "cannot get length of %s", v.TypeName())
	}
}

// biRange returns the integers from start up to but not including end.
func biRange(in *Interp, line int, args []object.Value) (object.Value, error) {
	start, err := wantNumber("range", line, arg(args, 0))
	if err != nil {
		return object.Nothing, err
	}
	end, err := wantNumber("range", line, arg(args, 1))
	if err != nil {
		return object.Nothing, err
	}
	var elems []object.Value
	for i := int(start); i < int(end); i++ {
		elems = append(elems, object.Number(float64(i)))
	}
	return object.NewList(elems...), nil
}

func biTypeOf(in *Interp, line int, args []object.Value) (object.Value, error) {
	return object.String(arg(args, 0).TypeName()), nil
}

func biToString(in *Interp, line int, args []object.Value) (object.Value, error) {
	v := arg(args, 0)
	if v.Kind == object.KindNothing {
		return object.String(""), nil
	}
	return object.String(v.String()), nil
}

func biToNumber(in *Interp, line int, args []object.Value) (object.Value, error) {
	v := arg(args, 0)
	switch v.Kind {
	case object.KindNumber:
		return v, nil
	case object.KindString:
		n, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return object.Number(0), nil
		}
		return object.Number(n), nil
	case object.KindBoolean:
		if v.Bool {
			return object.Number(1), nil
		}
		return object.Number(0), nil
	default:
		return object.Number(0), nil
	}
}

// biPrintTable formats headers and rows into the same layout `show
// table` prints, and returns it as a string instead of printing.
func biPrintTable(in *Interp, line int, args []object.Value) (object.Value, error) {
	hv, err := wantList("print_table", line, arg(args, 0))
	if err != nil {
		return object.Nothing, err
	}
	rv, err := wantList("print_table", line, arg(args, 1))
	if err != nil {
		return object.Nothing, err
	}
	headers := make([]string, len(hv.Elems))
	for i, h := range hv.Elems {
		headers[i] = h.String()
	}
	var rows [][]string
	for _, row := range rv.Elems {
		if row.Kind != object.KindList {
			return object.Nothing, errf(ErrType, line, "print_table row must be a list, got %s", row.TypeName())
		}
		var r []string
		for _, c := range row.List.Elems {
			r = append(r, c.String())
		}
		rows = append(rows, r)
	}
	return object.String(formatTable(headers, rows)), nil
}

func biKeys(in *Interp, line int, args []object.Value) (object.Value, error) {
	v := arg(args, 0)
	if v.Kind != object.KindDict && v.Kind != object.KindObject {
		return object.Nothing, errf(ErrType, line, "keys needs a dictionary or object, got %s", v.TypeName())
	}
	var elems []object.Value
	for _, k := range v.Map.Keys() {
		elems = append(elems, object.String(k))
	}
	return object.NewList(elems...), nil
}

func biValues(in *Interp, line int, args []object.Value) (object.Value, error) {
	v := arg(args, 0)
	if v.Kind != object.KindDict && v.Kind != object.KindObject {
		return object.Nothing, errf(ErrType, line, "values needs a dictionary or object, got %s", v.TypeName())
	}
	return object.NewList(v.Map.Values()...), nil
}

// biNow returns seconds since the Unix epoch on the scheduler's clock,
// so virtual-clock runs see virtual time.
func biNow(in *Interp, line int, args []object.Value) (object.Value, error) {
	return object.Number(float64(in.sched.Clock().Now().Unix())), nil
}

func biToday(in *Interp, line int, args []object.Value) (object.Value, error) {
	return object.String(in.sched.Clock().Now().Format(time.DateOnly)), nil
}

// formatTable renders aligned columns joined by " | " with a dash rule
// under the header. Empty row sets render as nothing at all.
func formatTable(headers []string, rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	pad := func(s string, w int) string {
		if len(s) >= w {
			return s
		}
		return s + strings.Repeat(" ", w-len(s))
	}

	var lines []string
	cols := make([]string, len(headers))
	for i, h := range headers {
		cols[i] = pad(h, widths[i])
	}
	header := strings.Join(cols, " | ")
	lines = append(lines, header, strings.Repeat("-", len(header)))

	for _, row := range rows {
		for i := range headers {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			cols[i] = pad(cell, widths[i])
		}
		lines = append(lines, strings.Join(cols, " | "))
	}
	return strings.Join(lines, "\n")
}
