// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package dispatch implements the request state machine:
// Received -> Preprocessed -> Routed -> Handling -> Responded/Emitted,
// with Forwarding and Failing side transitions. It owns the one piece
// of mutable per-request transport state (method override, real-IP
// override) that has to happen before routing, and the one piece that
// has to happen after every candidate is exhausted (catcher lookup).
package dispatch

import (
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/rivaas-dev/corehttp/catcher"
	"github.com/rivaas-dev/corehttp/fairing"
	"github.com/rivaas-dev/corehttp/middleware/recovery"
	"github.com/rivaas-dev/corehttp/reqctx"
	"github.com/rivaas-dev/corehttp/route"
	"github.com/rivaas-dev/corehttp/router"
	"github.com/rivaas-dev/corehttp/uri"
)

// Outcome is what a HandlerFunc reports back to the dispatcher.
type Outcome int

const (
	// Responded means the handler already wrote (or will write via the
	// returned body) the full response.
	Responded Outcome = iota
	// Forward means the handler declines this request without
	// failing it; the dispatcher tries the next candidate.
	Forward
	// Fail means the handler hit an unrecoverable error for this
	// request; the dispatcher moves into the Failing path.
	Fail
)

// Result is returned by a HandlerFunc.
type Result struct {
	Outcome Outcome
	Err     error
}

// Respond returns a Responded result.
func Respond() Result { return Result{Outcome: Responded} }

// ForwardResult returns a Forward result.
func ForwardResult() Result { return Result{Outcome: Forward} }

// FailResult returns a Fail result carrying err.
func FailResult(err error) Result { return Result{Outcome: Fail, Err: err} }

// HandlerFunc is the shape every registered route handler has. It
// receives the exchange already routed (path/query parameters bound)
// and is responsible for calling whatever extract.* functions its
// route needs, forwarding past declines itself before any observable
// side effect.
type HandlerFunc func(e *reqctx.Exchange) Result

// Dispatcher wires a Router, a handler table, a Table of catchers, and
// a fairing.Registry into one http.Handler, grounded on app/server.go's
// runServer orchestration pattern applied to a single request rather
// than the whole server lifecycle.
type Dispatcher struct {
	Router   *router.Router
	Catchers *catcher.Table
	Fairings *fairing.Registry
	Logger   *slog.Logger

	// Recovery, if set, is consulted by recoverPanic instead of the
	// built-in bare log-and-500 behavior (middleware/recovery ledger
	// entry: stack trace capture, OTel span tagging, custom handlers).
	Recovery *recovery.Policy

	handlers map[route.HandlerID]HandlerFunc
}

// New builds a Dispatcher. logger may be nil, in which case
// slog.Default() is used.
func New(r *router.Router, catchers *catcher.Table, fairings *fairing.Registry, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		Router:   r,
		Catchers: catchers,
		Fairings: fairings,
		Logger:   logger,
		handlers: map[route.HandlerID]HandlerFunc{},
	}
}

// RegisterHandler binds id (as returned by Router.Add) to fn.
func (d *Dispatcher) RegisterHandler(id route.HandlerID, fn HandlerFunc) {
	d.handlers[id] = fn
}

// ServeHTTP implements http.Handler, driving one request through the
// full Received -> Preprocessed -> Routed -> Handling ->
// Responded/Emitted state machine.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e := reqctx.Acquire(w, r)
	defer reqctx.Release(e)

	defer d.recoverPanic(e)

	applyMethodOverride(r)
	applyRealIPOverride(r)

	if err := d.Fairings.RunRequest(r.Context(), e); err != nil {
		d.fail(e, err)
		return
	}

	query, _ := uri.ParseQuery(r.URL.RawQuery)
	candidates := d.Router.Select(r.Method, r.URL.Path, query, r.Header.Get("Content-Type"), r.Header.Get("Accept"))

	if len(candidates) == 0 {
		d.fail(e, errNotFound{path: r.URL.Path})
		return
	}

	for _, c := range candidates {
		bindParams(e, c)
		e.SetRoutePattern(c.Descriptor.Pattern().Raw)

		h, ok := d.handlers[c.Descriptor.Handler()]
		if !ok {
			continue
		}

		res := h(e)
		switch res.Outcome {
		case Responded:
			d.Fairings.RunResponse(r.Context(), e, e)
			return
		case Fail:
			d.fail(e, res.Err)
			return
		case Forward:
			continue
		}
	}

	d.fail(e, errNotFound{path: r.URL.Path})
}

func bindParams(e *reqctx.Exchange, c router.Candidate) {
	i := 0
	for name, value := range c.Params {
		e.SetParam(i, name, value)
		i++
	}
}

type errNotFound struct{ path string }

func (e errNotFound) Error() string   { return "dispatch: no route matched " + e.path }
func (e errNotFound) HTTPStatus() int { return http.StatusNotFound }

// fail runs the catcher table for err, writes the resulting Problem
// Details body, and then runs the Response fairings. The catcher table
// itself resolves the longest
// registered base that prefixes the request path (spec.md §4.4 step 7);
// the dispatcher just supplies the full path, not a pre-truncated base.
func (d *Dispatcher) fail(e *reqctx.Exchange, err error) {
	handler := d.Catchers.Lookup(e.Path(), statusHint(err))
	p := handler(e.Path(), err)
	writeProblem(e, p)
	d.Fairings.RunResponse(e.Request().Context(), e, e)
}

func statusHint(err error) int {
	type httpStatuser interface{ HTTPStatus() int }
	if s, ok := err.(httpStatuser); ok {
		return s.HTTPStatus()
	}
	return 0
}

// recoverPanic converts a panic inside handler execution into a 500. If
// d.Recovery is set, its Policy.Handle supplies the stack trace capture,
// OTel span tagging, and logging; otherwise a bare log line is used.
func (d *Dispatcher) recoverPanic(e *reqctx.Exchange) {
	if r := recover(); r != nil {
		if d.Recovery != nil {
			d.fail(e, d.Recovery.Handle(e.Request().Context(), r))
			return
		}
		d.Logger.Error("dispatch: handler panic", "panic", r, "path", e.Path())
		d.fail(e, errHandlerPanic{value: r})
	}
}

type errHandlerPanic struct{ value any }

func (e errHandlerPanic) Error() string   { return "dispatch: handler panic" }
func (e errHandlerPanic) HTTPStatus() int { return http.StatusInternalServerError }

// applyMethodOverride rewrites r.Method from a "_method" form field on
// a POST request, applied at most once and only for POST, grounded on
// the common Rails/Rocket convention of tunneling verbs unsupported by
// HTML forms through a hidden field.
func applyMethodOverride(r *http.Request) {
	if r.Method != http.MethodPost {
		return
	}
	if err := r.ParseForm(); err != nil {
		return
	}
	override := r.PostForm.Get("_method")
	if override == "" {
		return
	}
	r.Method = strings.ToUpper(override)
}

// applyRealIPOverride rewrites r.RemoteAddr's host from the X-Real-IP
// header, preserving the original port, grounded on
// router/proxies.go's ClientIP header-consultation algorithm
// (simplified here to a single trusted header rather than a full
// trusted-proxy CIDR chain, since that policy layer belongs in a
// fairing, not the dispatcher itself).
func applyRealIPOverride(r *http.Request) {
	realIP := r.Header.Get("X-Real-IP")
	if realIP == "" {
		return
	}
	_, port, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		r.RemoteAddr = realIP
		return
	}
	r.RemoteAddr = net.JoinHostPort(realIP, port)
}
