// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2026 The Gopa Authors

package eval

import (
	"bufio"
	"errors"
	"io"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gopa-lang/gopa/internal/ast"
	"github.com/gopa-lang/gopa/internal/object"
	"github.com/gopa-lang/gopa/internal/perm"
	"github.com/gopa-lang/gopa/internal/sched"
)

// PackageLoader resolves `use` and `install` statements. The interpreter
// holds the interface only; the packages package provides the registry-
// backed implementation.
type PackageLoader interface {
	// Use loads a package and returns its namespace object.
	Use(name string) (object.Value, error)
	// Install fetches a package into the local registry.
	Install(name string) error
}

// Config carries everything an Interp needs. Zero fields get sensible
// defaults: stdout, stdin, a real-clock scheduler, a time-based RNG seed.
type Config struct {
	Perms  perm.Set
	Out    io.Writer
	In     io.Reader
	Sched  *sched.Scheduler
	Loader PackageLoader
	// Seed fixes the RNG for reproducible runs. Zero means seed from
	// the wall clock.
	Seed       int64
	HTTPClient *http.Client
}

// Interp is a tree-walking interpreter for one program. It is not safe
// for concurrent use; scheduled callbacks and server handlers all run on
// the scheduler's loop goroutine.
type Interp struct {
	perms   perm.Set
	out     io.Writer
	in      *bufio.Scanner
	rng     *rand.Rand
	globals *object.Env
	sched   *sched.Scheduler
	loader  PackageLoader
	httpc   *http.Client

	canvasSeq int
	clicks    []clickHandler

	// ret carries the value of the innermost pending `return`.
	ret object.Value
}

func New(cfg Config) *Interp {
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.In == nil {
		cfg.In = os.Stdin
	}
	if cfg.Sched == nil {
		cfg.Sched = sched.New(sched.RealClock{})
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Interp{
		perms:   cfg.Perms,
		out:     cfg.Out,
		in:      bufio.NewScanner(cfg.In),
		rng:     rand.New(rand.NewSource(cfg.Seed)),
		globals: object.NewEnv(nil),
		sched:   cfg.Sched,
		loader:  cfg.Loader,
		httpc:   cfg.HTTPClient,
	}
}

// Globals exposes the top-level scope, mainly for embedders that want to
// predefine values or inspect results after a run.
func (in *Interp) Globals() *object.Env { return in.globals }

// Scheduler returns the event loop driving timers, cron jobs and server
// blocks.
func (in *Interp) Scheduler() *sched.Scheduler { return in.sched }

// flow is the control-flow channel, kept apart from errors so that
// break/continue/return/stop are never mistaken for failures.
type flow int

const (
	flowNone flow = iota
	flowReturn
	flowBreak
	flowContinue
	flowStop
)

// Run executes the program's top-level statements, then drives the
// scheduler until it is idle (or forever, for server programs). A `stop`
// anywhere ends the run cleanly.
func (in *Interp) Run(prog *ast.Program, forever bool) error {
	tracer().Debugf("running %d top-level statements", len(prog.Stmts))
	fl, err := in.execBlock(in.globals, prog.Stmts)
	if err != nil {
		if errors.Is(err, errStopSignal) {
			return nil
		}
		return err
	}
	if fl == flowStop {
		return nil
	}
	return in.sched.Run(forever)
}

func (in *Interp) execBlock(env *object.Env, stmts []ast.Stmt) (flow, error) {
	for _, st := range stmts {
		fl, err := in.execStmt(env, st)
		if err != nil || fl != flowNone {
			return fl, err
		}
	}
	return flowNone, nil
}

func (in *Interp) execStmt(env *object.Env, st ast.Stmt) (flow, error) {
	switch s := st.(type) {
	case *ast.Assign:
		v, err := in.evalExpr(env, s.Value)
		if err != nil {
			return flowNone, err
		}
		return flowNone, in.define(env, s.Target, v)

	case *ast.Mutate:
		v, err := in.evalExpr(env, s.Value)
		if err != nil {
			return flowNone, err
		}
		return flowNone, in.rebind(env, s.Target, v)

	case *ast.Adjust:
		cur, err := in.readTarget(env, s.Target)
		if err != nil {
			return flowNone, err
		}
		amt, err := in.evalExpr(env, s.Amount)
		if err != nil {
			return flowNone, err
		}
		if cur.Kind != object.KindNumber || amt.Kind != object.KindNumber {
			return flowNone, errf(ErrType, s.Line(), "increase/decrease needs numbers, got %s and %s", cur.TypeName(), amt.TypeName())
		}
		n := cur.Num + amt.Num
		if s.Decrease {
			n = cur.Num - amt.Num
		}
		return flowNone, in.rebind(env, s.Target, object.Number(n))

	case *ast.Say:
		var b strings.Builder
		for _, part := range s.Parts {
			v, err := in.evalExpr(env, part)
			if err != nil {
				return flowNone, err
			}
			b.WriteString(v.String())
		}
		in.println(b.String())
		return flowNone, nil

	case *ast.Print:
		v, err := in.evalExpr(env, s.Value)
		if err != nil {
			return flowNone, err
		}
		in.println(v.String())
		return flowNone, nil

	case *ast.ClearScreen:
		io.WriteString(in.out, "\033[2J\033[H")
		return flowNone, nil

	case *ast.ShowTable:
		return flowNone, in.execShowTable(env, s)

	case *ast.Ask:
		return flowNone, in.execAsk(env, s)

	case *ast.If:
		cond, err := in.evalExpr(env, s.Cond)
		if err != nil {
			return flowNone, err
		}
		if cond.Truthy() {
			return in.execBlock(object.NewEnv(env), s.Then)
		}
		return in.execBlock(object.NewEnv(env), s.Else)

	case *ast.RepeatTimes:
		count, err := in.evalExpr(env, s.Count)
		if err != nil {
			return flowNone, err
		}
		if count.Kind != object.KindNumber {
			return flowNone, errf(ErrType, s.Line(), "repeat count must be a number, got %s", count.TypeName())
		}
		n := int(count.Num)
		for i := 0; i < n; i++ {
			fl, err := in.execBlock(object.NewEnv(env), s.Body)
			if err != nil {
				return flowNone, err
			}
			if fl == flowBreak {
				break
			}
			if fl == flowReturn || fl == flowStop {
				return fl, nil
			}
		}
		return flowNone, nil

	case *ast.RepeatForever:
		for {
			fl, err := in.execBlock(object.NewEnv(env), s.Body)
			if err != nil {
				return flowNone, err
			}
			if fl == flowBreak {
				return flowNone, nil
			}
			if fl == flowReturn || fl == flowStop {
				return fl, nil
			}
		}

	case *ast.RepeatUntil:
		for {
			cond, err := in.evalExpr(env, s.Cond)
			if err != nil {
				return flowNone, err
			}
			if cond.Truthy() {
				return flowNone, nil
			}
			fl, err := in.execBlock(object.NewEnv(env), s.Body)
			if err != nil {
				return flowNone, err
			}
			if fl == flowBreak {
				return flowNone, nil
			}
			if fl == flowReturn || fl == flowStop {
				return fl, nil
			}
		}

	case *ast.DoUntil:
		for {
			fl, err := in.execBlock(object.NewEnv(env), s.Body)
			if err != nil {
				return flowNone, err
			}
			if fl == flowBreak {
				return flowNone, nil
			}
			if fl == flowReturn || fl == flowStop {
				return fl, nil
			}
			cond, err := in.evalExpr(env, s.Cond)
			if err != nil {
				return flowNone, err
			}
			if cond.Truthy() {
				return flowNone, nil
			}
		}

	case *ast.Break:
		return flowBreak, nil
	case *ast.Continue:
		return flowContinue, nil
	case *ast.Stop:
		return flowStop, nil

	case *ast.StopJob:
		in.sched.CancelJob(s.Name)
		return flowNone, nil

	case *ast.FuncDef:
		fn := &object.Function{Name: s.Name, Params: s.Params, Body: s.Body, Env: env}
		env.Define(s.Name, object.Value{Kind: object.KindFunction, Fn: fn})
		return flowNone, nil

	case *ast.Return:
		in.ret = object.Nothing
		if s.Value != nil {
			v, err := in.evalExpr(env, s.Value)
			if err != nil {
				return flowNone, err
			}
			in.ret = v
		}
		return flowReturn, nil

	case *ast.Match:
		return in.execMatch(env, s)

	case *ast.AddTo:
		v, err := in.evalExpr(env, s.Value)
		if err != nil {
			return flowNone, err
		}
		list, err := in.evalExpr(env, s.List)
		if err != nil {
			return flowNone, err
		}
		if list.Kind != object.KindList {
			return flowNone, errf(ErrType, s.Line(), "add needs a list, got %s", list.TypeName())
		}
		list.List.Elems = append(list.List.Elems, v)
		return flowNone, nil

	case *ast.Remove:
		return flowNone, in.execRemove(env, s)

	case *ast.WriteFile:
		v, err := in.evalExpr(env, s.Value)
		if err != nil {
			return flowNone, err
		}
		return flowNone, in.writeFile(s.Line(), s.Path, v)

	case *ast.DrawCircle, *ast.DrawRect, *ast.DrawLine, *ast.DrawText:
		return flowNone, in.execDraw(env, st)

	case *ast.WhenMouseClicks:
		return flowNone, in.registerClick(env, s)

	case *ast.PlaySound:
		if err := in.perms.Check(perm.Sound); err != nil {
			return flowNone, err
		}
		in.println("[sound] playing " + s.Name)
		return flowNone, nil

	case *ast.Wait:
		if err := in.perms.Check(perm.Timers); err != nil {
			return flowNone, err
		}
		secs, err := in.seconds(env, s.Seconds, s.Line())
		if err != nil {
			return flowNone, err
		}
		in.sched.Wait(secs)
		return flowNone, nil

	case *ast.After:
		if err := in.perms.Check(perm.Timers); err != nil {
			return flowNone, err
		}
		secs, err := in.seconds(env, s.Seconds, s.Line())
		if err != nil {
			return flowNone, err
		}
		in.sched.After(secs, in.task(env, s.Body))
		return flowNone, nil

	case *ast.Every:
		if err := in.perms.Check(perm.Timers); err != nil {
			return flowNone, err
		}
		secs, err := in.seconds(env, s.Seconds, s.Line())
		if err != nil {
			return flowNone, err
		}
		in.sched.Every(s.Name, secs, in.task(env, s.Body))
		return flowNone, nil

	case *ast.Cron:
		if err := in.perms.Check(perm.Cron); err != nil {
			return flowNone, err
		}
		if err := in.sched.Cron(s.Schedule, in.task(env, s.Body)); err != nil {
			return flowNone, errf(ErrValue, s.Line(), "%v", err)
		}
		return flowNone, nil

	case *ast.Server:
		return flowNone, in.execServer(env, s)

	case *ast.Use:
		return flowNone, in.execUse(env, s)

	case *ast.UsePython:
		return flowNone, in.execUsePython(env, s)

	case *ast.Install:
		if err := in.perms.Check(perm.Packages); err != nil {
			return flowNone, err
		}
		if in.loader == nil {
			return flowNone, errf(ErrValue, s.Line(), "no package loader configured")
		}
		if err := in.loader.Install(s.Name); err != nil {
			return flowNone, errf(ErrValue, s.Line(), "install %s: %v", s.Name, err)
		}
		return flowNone, nil

	case *ast.ExprStmt:
		_, err := in.evalExpr(env, s.Value)
		return flowNone, err

	default:
		return flowNone, errf(ErrValue, st.Line(), "unhandled statement %T", st)
	}
}

// task wraps a statement block as a scheduler callback. Runtime errors
// become task errors (logged, loop continues); `stop` becomes ErrStop.
func (in *Interp) task(env *object.Env, body []ast.Stmt) sched.Task {
	return func() error {
		fl, err := in.execBlock(object.NewEnv(env), body)
		if err != nil {
			if errors.Is(err, errStopSignal) {
				return sched.ErrStop
			}
			return err
		}
		if fl == flowStop {
			return sched.ErrStop
		}
		return nil
	}
}

func (in *Interp) seconds(env *object.Env, e ast.Expr, line int) (float64, error) {
	v, err := in.evalExpr(env, e)
	if err != nil {
		return 0, err
	}
	if v.Kind != object.KindNumber {
		return 0, errf(ErrType, line, "duration must be a number, got %s", v.TypeName())
	}
	return v.Num, nil
}

func (in *Interp) execMatch(env *object.Env, s *ast.Match) (flow, error) {
	subject, err := in.evalExpr(env, s.Subject)
	if err != nil {
		return flowNone, err
	}
	for _, arm := range s.Arms {
		low, err := in.evalExpr(env, arm.Low)
		if err != nil {
			return flowNone, err
		}
		matched := false
		if subject.Kind == object.KindNumber && low.Kind == object.KindNumber {
			// Numeric arms are inclusive ranges; a plain `when 3`
			// is the degenerate range 3..3.
			high := low
			if arm.High != nil {
				high, err = in.evalExpr(env, arm.High)
				if err != nil {
					return flowNone, err
				}
				if high.Kind != object.KindNumber {
					return flowNone, errf(ErrType, s.Line(), "range bound must be a number, got %s", high.TypeName())
				}
			}
			matched = subject.Num >= low.Num && subject.Num <= high.Num
		} else {
			matched = object.Equal(subject, low)
		}
		if matched {
			return in.execBlock(object.NewEnv(env), arm.Body)
		}
	}
	if s.Default != nil {
		return in.execBlock(object.NewEnv(env), s.Default)
	}
	// No arm matched and no otherwise: a no-op, not an error.
	return flowNone, nil
}

func (in *Interp) execRemove(env *object.Env, s *ast.Remove) error {
	list, err := in.evalExpr(env, s.List)
	if err != nil {
		return err
	}
	if list.Kind != object.KindList {
		return errf(ErrType, s.Line(), "remove needs a list, got %s", list.TypeName())
	}
	elems := list.List.Elems
	if s.Index != nil {
		idx, err := in.evalExpr(env, s.Index)
		if err != nil {
			return err
		}
		if idx.Kind != object.KindNumber {
			return errf(ErrType, s.Line(), "remove index must be a number, got %s", idx.TypeName())
		}
		i := int(idx.Num)
		// Out-of-range removals are silently skipped.
		if i >= 0 && i < len(elems) {
			list.List.Elems = append(elems[:i], elems[i+1:]...)
		}
		return nil
	}
	v, err := in.evalExpr(env, s.Value)
	if err != nil {
		return err
	}
	for i, e := range elems {
		if object.Equal(e, v) {
			list.List.Elems = append(elems[:i], elems[i+1:]...)
			return nil
		}
	}
	return nil
}

func (in *Interp) execShowTable(env *object.Env, s *ast.ShowTable) error {
	rows, err := in.evalExpr(env, s.Rows)
	if err != nil {
		return err
	}
	if rows.Kind != object.KindList {
		return errf(ErrType, s.Line(), "show table expects a list of rows, got %s", rows.TypeName())
	}
	var cells [][]string
	for _, row := range rows.List.Elems {
		if row.Kind != object.KindList {
			return errf(ErrType, s.Line(), "table row must be a list, got %s", row.TypeName())
		}
		var r []string
		for _, c := range row.List.Elems {
			r = append(r, c.String())
		}
		cells = append(cells, r)
	}
	if table := formatTable(s.Headers, cells); table != "" {
		in.println(table)
	}
	return nil
}

func (in *Interp) execAsk(env *object.Env, s *ast.Ask) error {
	io.WriteString(in.out, s.Prompt+" ")
	line := ""
	if in.in.Scan() {
		line = in.in.Text()
	}
	var v object.Value
	switch s.Mode {
	case ast.AskNumber:
		n, err := strconv.ParseFloat(strings.TrimSpace(line), 64)
		if err != nil {
			n = 0
		}
		v = object.Number(n)
	case ast.AskYesNo:
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "yes", "y", "true", "1":
			v = object.Boolean(true)
		default:
			v = object.Boolean(false)
		}
	default:
		v = object.String(line)
	}
	env.Define(s.Target, v)
	return nil
}

func (in *Interp) execUse(env *object.Env, s *ast.Use) error {
	if err := in.perms.Check(perm.Packages); err != nil {
		return err
	}
	if in.loader == nil {
		return errf(ErrValue, s.Line(), "no package loader configured")
	}
	ns, err := in.loader.Use(s.Name)
	if err != nil {
		return errf(ErrValue, s.Line(), "use %s: %v", s.Name, err)
	}
	env.Define(s.Name, ns)
	return nil
}

// callFunction resolves and invokes a callable: builtins first, then
// user functions, then natives bound in the environment. Missing call
// arguments bind as nothing.
func (in *Interp) callFunction(env *object.Env, name string, args []object.Value, line int) (object.Value, error) {
	if fn, ok := builtins[name]; ok {
		return fn(in, line, args)
	}
	v, ok := env.Get(name)
	if !ok {
		return object.Nothing, errf(ErrUndefinedFunction, line, "nothing called %q is defined", name)
	}
	return in.callValue(v, args, line)
}

func (in *Interp) callValue(v object.Value, args []object.Value, line int) (object.Value, error) {
	switch v.Kind {
	case object.KindFunction:
		return in.callUserFunc(v.Fn, args)
	case object.KindNative:
		if v.Native.Capability != "" {
			if err := in.perms.Check(perm.Capability(v.Native.Capability)); err != nil {
				return object.Nothing, err
			}
		}
		out, err := v.Native.Fn(args)
		if err != nil {
			return object.Nothing, errf(ErrInterop, line, "%s: %v", v.Native.Name, err)
		}
		return out, nil
	default:
		return object.Nothing, errf(ErrType, line, "%s is not callable", v.TypeName())
	}
}

func (in *Interp) callUserFunc(fn *object.Function, args []object.Value) (object.Value, error) {
	// The call scope chains off the function's defining environment,
	// not the caller's: closures capture by reference.
	scope := object.NewEnv(fn.Env)
	for i, p := range fn.Params {
		if i < len(args) {
			scope.Define(p, args[i])
		} else {
			scope.Define(p, object.Nothing)
		}
	}
	fl, err := in.execBlock(scope, fn.Body)
	if err != nil {
		return object.Nothing, err
	}
	if fl == flowReturn {
		ret := in.ret
		in.ret = object.Nothing
		return ret, nil
	}
	if fl == flowStop {
		// Re-raise past the call boundary; Run and task handle it.
		return object.Nothing, errStopSignal
	}
	return object.Nothing, nil
}

func (in *Interp) println(s string) {
	io.WriteString(in.out, s+"\n")
}

// ---- assignment targets ----

// define implements `is`: identifiers bind in the current scope,
// shadowing any outer binding; container targets write through.
func (in *Interp) define(env *object.Env, target ast.Expr, v object.Value) error {
	if id, ok := target.(*ast.Ident); ok {
		env.Define(id.Name, v)
		return nil
	}
	return in.writeContainer(env, target, v)
}

// rebind implements `becomes`: identifiers must already be bound
// somewhere on the scope chain.
func (in *Interp) rebind(env *object.Env, target ast.Expr, v object.Value) error {
	if id, ok := target.(*ast.Ident); ok {
		if !env.Assign(id.Name, v) {
			return errf(ErrUndefinedVariable, target.Line(), "%q is not defined; use 'is' to create it", id.Name)
		}
		return nil
	}
	return in.writeContainer(env, target, v)
}

func (in *Interp) writeContainer(env *object.Env, target ast.Expr, v object.Value) error {
	switch t := target.(type) {
	case *ast.Property:
		obj, err := in.evalExpr(env, t.Target)
		if err != nil {
			return err
		}
		if obj.Kind != object.KindDict && obj.Kind != object.KindObject {
			return errf(ErrType, t.Line(), "cannot set %q on %s", t.Name, obj.TypeName())
		}
		obj.Map.Set(t.Name, v)
		return nil
	case *ast.Index:
		obj, err := in.evalExpr(env, t.Target)
		if err != nil {
			return err
		}
		key, err := in.evalExpr(env, t.Key)
		if err != nil {
			return err
		}
		switch obj.Kind {
		case object.KindList:
			if key.Kind != object.KindNumber {
				return errf(ErrType, t.Line(), "list index must be a number, got %s", key.TypeName())
			}
			i := int(key.Num)
			if i < 0 || i >= len(obj.List.Elems) {
				return errf(ErrIndexOutOfRange, t.Line(), "index %d is out of range for a list of %d", i, len(obj.List.Elems))
			}
			obj.List.Elems[i] = v
			return nil
		case object.KindDict, object.KindObject:
			obj.Map.Set(key.String(), v)
			return nil
		default:
			return errf(ErrType, t.Line(), "cannot index into %s", obj.TypeName())
		}
	default:
		return errf(ErrType, target.Line(), "invalid assignment target")
	}
}

// readTarget fetches the current value of an assignment target, for
// increase/decrease.
func (in *Interp) readTarget(env *object.Env, target ast.Expr) (object.Value, error) {
	if id, ok := target.(*ast.Ident); ok {
		v, ok := env.Get(id.Name)
		if !ok {
			return object.Nothing, errf(ErrUndefinedVariable, target.Line(), "%q is not defined", id.Name)
		}
		return v, nil
	}
	return in.evalExpr(env, target)
}
