package eval

import (
	"fmt"

	"github.com/gopa-lang/gopa/internal/ast"
	"github.com/gopa-lang/gopa/internal/object"
	"github.com/gopa-lang/gopa/internal/perm"
)

// Drawing emits one line per command. A rendering backend consumes
// these; the engine itself never reads them back.

type clickHandler struct {
	canvas *object.Canvas
	env    *object.Env
	body   []ast.Stmt
}

func (in *Interp) createCanvas(env *object.Env, x *ast.CreateCanvas) (object.Value, error) {
	if err := in.perms.Check(perm.Graphics); err != nil {
		return object.Nothing, err
	}
	w, err := in.intOperand(env, x.Width, x.Line(), "canvas width")
	if err != nil {
		return object.Nothing, err
	}
	h, err := in.intOperand(env, x.Height, x.Line(), "canvas height")
	if err != nil {
		return object.Nothing, err
	}
	in.canvasSeq++
	c := &object.Canvas{ID: in.canvasSeq, Width: w, Height: h}
	in.println(fmt.Sprintf("[canvas] created %dx%d", w, h))
	return object.Value{Kind: object.KindCanvas, Canvas: c}, nil
}

func (in *Interp) execDraw(env *object.Env, st ast.Stmt) error {
	if err := in.perms.Check(perm.Graphics); err != nil {
		return err
	}
	switch s := st.(type) {
	case *ast.DrawCircle:
		x, y, err := in.intPair(env, s.X, s.Y, s.Line())
		if err != nil {
			return err
		}
		size, err := in.intOperand(env, s.Size, s.Line(), "size")
		if err != nil {
			return err
		}
		in.println(fmt.Sprintf("[canvas] circle x=%d y=%d size=%d color=%s", x, y, size, s.Color))
	case *ast.DrawRect:
		x1, y1, err := in.intPair(env, s.X1, s.Y1, s.Line())
		if err != nil {
			return err
		}
		x2, y2, err := in.intPair(env, s.X2, s.Y2, s.Line())
		if err != nil {
			return err
		}
		in.println(fmt.Sprintf("[canvas] rectangle from %d,%d to %d,%d color=%s", x1, y1, x2, y2, s.Color))
	case *ast.DrawLine:
		x1, y1, err := in.intPair(env, s.X1, s.Y1, s.Line())
		if err != nil {
			return err
		}
		x2, y2, err := in.intPair(env, s.X2, s.Y2, s.Line())
		if err != nil {
			return err
		}
		in.println(fmt.Sprintf("[canvas] line from %d,%d to %d,%d color=%s", x1, y1, x2, y2, s.Color))
	case *ast.DrawText:
		text, err := in.evalExpr(env, s.Text)
		if err != nil {
			return err
		}
		x, y, err := in.intPair(env, s.X, s.Y, s.Line())
		if err != nil {
			return err
		}
		size, err := in.intOperand(env, s.Size, s.Line(), "size")
		if err != nil {
			return err
		}
		in.println(fmt.Sprintf("[canvas] text '%s' at %d,%d size=%d color=%s", text.String(), x, y, size, s.Color))
	}
	return nil
}

func (in *Interp) registerClick(env *object.Env, s *ast.WhenMouseClicks) error {
	if err := in.perms.Check(perm.Graphics); err != nil {
		return err
	}
	canvas, err := in.evalExpr(env, s.Canvas)
	if err != nil {
		return err
	}
	if canvas.Kind != object.KindCanvas {
		return errf(ErrType, s.Line(), "mouse handler needs a canvas, got %s", canvas.TypeName())
	}
	in.clicks = append(in.clicks, clickHandler{canvas: canvas.Canvas, env: env, body: s.Body})
	in.println("[event] registered mouse click handler")
	return nil
}

// SimulateClick fires every registered click handler with `mouse` bound
// to an object holding the coordinates. Handler errors abort that
// handler only.
func (in *Interp) SimulateClick(x, y int) {
	for _, h := range in.clicks {
		scope := object.NewEnv(h.env)
		mouse := object.NewObject()
		mouse.Map.Set("x", object.Number(float64(x)))
		mouse.Map.Set("y", object.Number(float64(y)))
		scope.Define("mouse", mouse)
		in.execBlock(scope, h.body)
	}
}

func (in *Interp) intPair(env *object.Env, xe, ye ast.Expr, line int) (int, int, error) {
	x, err := in.intOperand(env, xe, line, "coordinate")
	if err != nil {
		return 0, 0, err
	}
	y, err := in.intOperand(env, ye, line, "coordinate")
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

func (in *Interp) intOperand(env *object.Env, e ast.Expr, line int, what string) (int, error) {
	v, err := in.evalExpr(env, e)
	if err != nil {
		return 0, err
	}
	if v.Kind != object.KindNumber {
		return 0, errf(ErrType, line, "%s must be a number, got %s", what, v.TypeName())
	}
	return int(v.Num), nil
}
