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

// Package reqctx implements the per-request exchange view: an
// immutable-from-the-handler's-perspective snapshot of the inbound
// request plus the matched route's dynamic parameters, a
// request-scoped scratch store for extractor results, and the
// primitives needed to write a response. Unlike router.Context,
// reqctx.Exchange carries no chain-execution or rendering concerns —
// those live in dispatch — only the data a fairing or extractor needs
// to see.
package reqctx

import (
	"net/http"
	"sync"
)

const fixedParams = 8

// Exchange is bound to exactly one HTTP request and must not be
// retained past the handler that receives it; like router.Context,
// Exchange values are pooled and reused across requests.
type Exchange struct {
	request  *http.Request
	response http.ResponseWriter

	paramKeys   [fixedParams]string
	paramValues [fixedParams]string
	paramCount  int
	paramOverflow map[string]string

	routePattern string
	scratch      map[string]any

	statusWritten bool
	status        int
}

var pool = sync.Pool{New: func() any { return &Exchange{} }}

// Acquire returns an Exchange from the pool, initialized for r/w.
func Acquire(w http.ResponseWriter, r *http.Request) *Exchange {
	e := pool.Get().(*Exchange)
	e.request = r
	e.response = w
	e.status = http.StatusOK
	return e
}

// Release clears e and returns it to the pool. Callers must not use e
// after calling Release.
func Release(e *Exchange) {
	e.reset()
	pool.Put(e)
}

func (e *Exchange) reset() {
	e.request = nil
	e.response = nil
	for i := 0; i < e.paramCount && i < fixedParams; i++ {
		e.paramKeys[i] = ""
		e.paramValues[i] = ""
	}
	e.paramCount = 0
	if e.paramOverflow != nil {
		clear(e.paramOverflow)
	}
	e.routePattern = ""
	if e.scratch != nil {
		clear(e.scratch)
	}
	e.statusWritten = false
	e.status = 0
}

// Request returns the underlying *http.Request.
func (e *Exchange) Request() *http.Request { return e.request }

// ResponseWriter returns the underlying http.ResponseWriter.
func (e *Exchange) ResponseWriter() http.ResponseWriter { return e.response }

// Method returns the request method, after any _method override has
// been applied by dispatch.
func (e *Exchange) Method() string { return e.request.Method }

// Path returns the request's URL path.
func (e *Exchange) Path() string { return e.request.URL.Path }

// Header returns the first value of the named request header.
func (e *Exchange) Header(key string) string { return e.request.Header.Get(key) }

// SetHeader sets a response header. Safe to call until the status line
// has been written.
func (e *Exchange) SetHeader(key, value string) { e.response.Header().Set(key, value) }

// Status returns the status code that will be (or was) written.
func (e *Exchange) Status() int { return e.status }

// SetStatus records the status code that Status reports. It does not
// write the status line; only WriteHeader does.
func (e *Exchange) SetStatus(code int) { e.status = code }

// WriteHeader writes the status line exactly once; subsequent calls
// are no-ops, mirroring http.ResponseWriter's own idempotency guard but
// making it observable via Written.
func (e *Exchange) WriteHeader(code int) {
	if e.statusWritten {
		return
	}
	e.status = code
	e.statusWritten = true
	e.response.WriteHeader(code)
}

// Written reports whether the status line has already been sent.
func (e *Exchange) Written() bool { return e.statusWritten }

// Cookie returns the named cookie's value, or an error if absent.
func (e *Exchange) Cookie(name string) (string, error) {
	c, err := e.request.Cookie(name)
	if err != nil {
		return "", err
	}
	return c.Value, nil
}

// RoutePattern returns the raw pattern of the route that matched this
// exchange, or "" before routing has occurred.
func (e *Exchange) RoutePattern() string { return e.routePattern }

// SetRoutePattern is called by dispatch for each candidate route it tries.
func (e *Exchange) SetRoutePattern(pattern string) { e.routePattern = pattern }

// Param returns the value bound to a path parameter name, using the
// fixed-size array for the first eight parameters and an overflow map
// beyond that, the same way router.Context.Param does.
func (e *Exchange) Param(name string) (string, bool) {
	for i := 0; i < e.paramCount && i < fixedParams; i++ {
		if e.paramKeys[i] == name {
			return e.paramValues[i], true
		}
	}
	if e.paramOverflow != nil {
		v, ok := e.paramOverflow[name]
		return v, ok
	}
	return "", false
}

// SetParam binds name to value at the given ordinal position. Used by
// dispatch while populating an Exchange from a matched candidate.
func (e *Exchange) SetParam(index int, name, value string) {
	if index < fixedParams {
		e.paramKeys[index] = name
		e.paramValues[index] = value
		if index >= e.paramCount {
			e.paramCount = index + 1
		}
		return
	}
	if e.paramOverflow == nil {
		e.paramOverflow = make(map[string]string, 2)
	}
	e.paramOverflow[name] = value
	e.paramCount = index + 1
}

// Scratch returns the request-scoped key/value store that extractors
// and fairings use to pass data between dispatch phases, e.g. a data
// extractor caching the raw body bytes so a later phase can decode
// them again without re-reading the stream.
func (e *Exchange) Scratch() map[string]any {
	if e.scratch == nil {
		e.scratch = make(map[string]any, 4)
	}
	return e.scratch
}

// ScratchGet is a typed convenience wrapper over Scratch for read
// access without requiring the caller to hold a nil-map check.
func (e *Exchange) ScratchGet(key string) (any, bool) {
	if e.scratch == nil {
		return nil, false
	}
	v, ok := e.scratch[key]
	return v, ok
}
