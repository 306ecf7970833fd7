// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2026 The Gopa Authors

package sched

import (
	"fmt"
	"io"
	"net"
	"net/http"
)

// Request is one incoming HTTP request, flattened for script use.
type Request struct {
	Path    string
	Query   map[string]string
	Headers map[string]string
	Body    string
}

// Response is what a route handler produced.
type Response struct {
	Status      int
	ContentType string
	Body        string
}

// Route binds a method and path to a handler. The handler runs on the
// scheduler loop like any other event, and like a Task it returns
// ErrStop when the script executed `stop`; runtime failures inside the
// handler are its own business and come back as a Response.
type Route struct {
	Method string
	Path   string
	Handle func(Request) (Response, error)
}

type server struct {
	port   int
	routes []Route
}

type pendingRequest struct {
	handle func() error
	done   chan error
}

// Serve registers a script server. On a real clock it starts listening
// immediately; requests are handed to the loop goroutine, so handlers
// run interleaved with timer firings, never concurrently with them. On a
// virtual clock nothing listens; tests drive routes with Dispatch.
func (s *Scheduler) Serve(port int, routes []Route) error {
	srv := &server{port: port, routes: routes}
	s.servers = append(s.servers, srv)

	if _, virtual := s.clock.(*VirtualClock); virtual {
		return nil
	}

	ln, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", port))
	if err != nil {
		return err
	}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route, ok := srv.match(r.Method, r.URL.Path)
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		req := flatten(r)
		var resp Response
		pending := &pendingRequest{
			handle: func() error {
				var err error
				resp, err = route.Handle(req)
				return err
			},
			done: make(chan error, 1),
		}
		s.reqCh <- pending
		if err := <-pending.done; err != nil {
			// The handler stopped the script; the loop is exiting.
			w.WriteHeader(http.StatusOK)
			return
		}
		if resp.ContentType != "" {
			w.Header().Set("Content-Type", resp.ContentType)
		}
		w.WriteHeader(resp.Status)
		io.WriteString(w, resp.Body)
	})
	go http.Serve(ln, handler)
	tracer().Infof("server listening on port %d", port)
	return nil
}

// Dispatch routes a request directly, bypassing the network. It is how
// virtual-clock tests exercise server blocks. The error is ErrStop when
// the handler stopped the script.
func (s *Scheduler) Dispatch(method, path string, req Request) (Response, bool, error) {
	for _, srv := range s.servers {
		if route, ok := srv.match(method, path); ok {
			if req.Path == "" {
				req.Path = path
			}
			resp, err := route.Handle(req)
			return resp, true, err
		}
	}
	return Response{Status: http.StatusNotFound}, false, nil
}

func (srv *server) match(method, path string) (Route, bool) {
	for _, r := range srv.routes {
		if r.Method == method && r.Path == path {
			return r, true
		}
	}
	return Route{}, false
}

func flatten(r *http.Request) Request {
	query := make(map[string]string)
	for k, vs := range r.URL.Query() {
		if len(vs) > 0 {
			query[k] = vs[0]
		}
	}
	headers := make(map[string]string)
	for k, vs := range r.Header {
		if len(vs) > 0 {
			headers[k] = vs[0]
		}
	}
	var body string
	if r.Body != nil {
		b, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err == nil {
			body = string(b)
		}
	}
	return Request{Path: r.URL.Path, Query: query, Headers: headers, Body: body}
}
