// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2026 The Gopa Authors

package eval

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/gopa-lang/gopa/internal/ast"
	"github.com/gopa-lang/gopa/internal/object"
	"github.com/gopa-lang/gopa/internal/perm"
	"github.com/gopa-lang/gopa/internal/sched"
)

// execServer registers a server block's routes with the scheduler.
// Handlers run on the scheduler's loop goroutine, interleaved with
// timers and cron firings, so scripts stay single-threaded.
func (in *Interp) execServer(env *object.Env, s *ast.Server) error {
	if err := in.perms.Check(perm.Server); err != nil {
		return err
	}
	portV, err := in.evalExpr(env, s.Port)
	if err != nil {
		return err
	}
	if portV.Kind != object.KindNumber {
		return errf(ErrType, s.Line(), "server port must be a number, got %s", portV.TypeName())
	}

	routes := make([]sched.Route, 0, len(s.Routes))
	for _, r := range s.Routes {
		r := r
		routes = append(routes, sched.Route{
			Method: r.Method,
			Path:   r.Path,
			Handle: func(req sched.Request) (sched.Response, error) {
				return in.handleRequest(env, r.Body, req)
			},
		})
	}
	if err := in.sched.Serve(int(portV.Num), routes); err != nil {
		return errf(ErrNetwork, s.Line(), "cannot start server on port %d: %v", int(portV.Num), err)
	}
	in.println(fmt.Sprintf("[server] started on port %d", int(portV.Num)))
	return nil
}

// handleRequest runs one route body with `request` bound to the inbound
// request. A `return` value becomes the response body: dictionaries and
// lists serialize as JSON, everything else as text. Runtime errors abort
// the handler with a 500 and never reach the scheduler; `stop` is a
// control signal, not an error, and surfaces as sched.ErrStop so the
// loop shuts down the same way it does for timer and cron tasks.
func (in *Interp) handleRequest(env *object.Env, body []ast.Stmt, req sched.Request) (sched.Response, error) {
	scope := object.NewEnv(env)

	query := object.NewDict()
	for _, k := range sortedStringMapKeys(req.Query) {
		query.Map.Set(k, object.String(req.Query[k]))
	}
	headers := object.NewDict()
	for _, k := range sortedStringMapKeys(req.Headers) {
		headers.Map.Set(k, object.String(req.Headers[k]))
	}
	reqObj := object.NewObject()
	reqObj.Map.Set("path", object.String(req.Path))
	reqObj.Map.Set("query", query)
	reqObj.Map.Set("headers", headers)
	reqObj.Map.Set("body", object.String(req.Body))
	scope.Define("request", reqObj)

	fl, err := in.execBlock(scope, body)
	if err != nil {
		if errors.Is(err, errStopSignal) {
			return sched.Response{}, sched.ErrStop
		}
		return sched.Response{Status: 500, ContentType: "text/plain", Body: err.Error()}, nil
	}
	if fl == flowStop {
		return sched.Response{}, sched.ErrStop
	}
	if fl != flowReturn {
		return sched.Response{Status: 200, ContentType: "text/plain"}, nil
	}
	ret := in.ret
	in.ret = object.Nothing

	switch ret.Kind {
	case object.KindDict, object.KindObject, object.KindList:
		data, err := json.Marshal(toAny(ret))
		if err != nil {
			return sched.Response{Status: 500, ContentType: "text/plain", Body: err.Error()}, nil
		}
		return sched.Response{Status: 200, ContentType: "application/json", Body: string(data)}, nil
	default:
		return sched.Response{Status: 200, ContentType: "text/plain", Body: ret.String()}, nil
	}
}

func sortedStringMapKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
