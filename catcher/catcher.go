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

// Package catcher implements the error-to-response catcher table: a
// {base, code} keyed registry of handlers that convert a failing-path
// error into a response, falling back to a default RFC 9457 Problem
// Details catcher when nothing more specific is registered.
package catcher

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// ErrorType is implemented by errors that know their own HTTP status,
// adapted from errors/formatter.go's ErrorType.
type ErrorType interface {
	error
	HTTPStatus() int
}

// ErrorDetails is implemented by errors that carry structured detail,
// adapted from errors/formatter.go's ErrorDetails.
type ErrorDetails interface {
	error
	Details() any
}

// ErrorCoder is implemented by errors that carry a machine-readable
// code, adapted from errors/formatter.go's ErrorCode (renamed to avoid
// colliding with this package's own Code type).
type ErrorCoder interface {
	error
	Code() string
}

// Handler converts an error encountered for a request at path into a
// Problem Detail response. Scoping to a subtree via {base, code} keys
// happens in Table.Lookup, which picks the Handler; the Handler itself
// receives only the request path and the error.
type Handler func(path string, err error) Problem

// Problem is the RFC 9457 Problem Details response body, adapted from
// errors/rfc9457.go's ProblemDetail, plus the Status/ContentType
// envelope fields from errors/formatter.go's Response.
type Problem struct {
	Status      int
	ContentType string
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Detail      string    `json:"detail,omitempty"`
	Instance    string    `json:"instance,omitempty"`
	Extensions  map[string]any `json:"-"`
}

// MarshalJSON merges Extensions inline, exactly as
// errors/rfc9457.go's ProblemDetail.MarshalJSON does.
func (p Problem) MarshalJSON() ([]byte, error) {
	m := map[string]any{
		"type":   p.Type,
		"title":  p.Title,
		"status": p.Status,
	}
	if p.Detail != "" {
		m["detail"] = p.Detail
	}
	if p.Instance != "" {
		m["instance"] = p.Instance
	}
	for k, v := range p.Extensions {
		if k != "type" && k != "title" && k != "status" && k != "detail" && k != "instance" {
			m[k] = v
		}
	}
	return json.Marshal(m)
}

// key identifies one catcher registration: a mount base path and an
// HTTP status code. code 0 registers a base-wide catch-all.
type key struct {
	base string
	code int
}

// Table is the {base, code} keyed catcher registry.
type Table struct {
	handlers     map[key]Handler
	errIDGen     func() string
	baseURL      string
	disableErrID bool
}

// Option configures a Table at construction.
type Option func(*Table)

// WithBaseURL sets the URL prefix prepended to problem type slugs.
func WithBaseURL(base string) Option {
	return func(t *Table) { t.baseURL = base }
}

// WithErrorIDGenerator overrides how error correlation ids are minted.
func WithErrorIDGenerator(gen func() string) Option {
	return func(t *Table) { t.errIDGen = gen }
}

// WithoutErrorID disables the error_id extension field entirely.
func WithoutErrorID() Option {
	return func(t *Table) { t.disableErrID = true }
}

// New builds a Table with no registered catchers; Lookup always falls
// back to Default until catchers are registered.
func New(opts ...Option) *Table {
	t := &Table{handlers: map[key]Handler{}, errIDGen: newErrorID}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Register binds a handler for a specific (base, code) pair. code 0
// registers a catch-all for every status under base.
func (t *Table) Register(base string, code int, h Handler) {
	t.handlers[key{base: base, code: code}] = h
}

// Lookup finds the most specific registered handler for a request path
// and status code: among every registered base that is a prefix of
// path, the longest one wins (spec.md §4.4 step 7, "the catcher whose
// base is the longest prefix of the request path"); within that
// longest-prefix search, an exact code match is preferred over a
// base-wide (code 0) catch-all, and if nothing registered matches at
// all, Default is used.
func (t *Table) Lookup(path string, code int) Handler {
	if h, ok := t.longestPrefixMatch(path, code); ok {
		return h
	}
	if h, ok := t.longestPrefixMatch(path, 0); ok {
		return h
	}
	return t.Default
}

// longestPrefixMatch scans every registered base for the given code,
// returning the handler registered at the longest base that prefixes
// path.
func (t *Table) longestPrefixMatch(path string, code int) (Handler, bool) {
	bestLen := -1
	var best Handler
	found := false
	for k, h := range t.handlers {
		if k.code != code {
			continue
		}
		if !isBasePrefix(k.base, path) {
			continue
		}
		if len(k.base) > bestLen {
			bestLen = len(k.base)
			best = h
			found = true
		}
	}
	return best, found
}

// isBasePrefix reports whether base is a path-segment-aligned prefix
// of path: base itself is always normalized without a trailing slash
// (mount.go's convention), except the root base "/" which matches
// every path.
func isBasePrefix(base, path string) bool {
	if base == "/" {
		return true
	}
	if path == base {
		return true
	}
	return strings.HasPrefix(path, base+"/")
}

// Default is the RFC 9457 Problem Details catcher used when no more
// specific catcher is registered, adapted directly from
// errors/rfc9457.go's RFC9457.Format.
func (t *Table) Default(path string, err error) Problem {
	status := http.StatusInternalServerError
	var typed ErrorType
	if errors.As(err, &typed) {
		status = typed.HTTPStatus()
	}

	problemType := "about:blank"
	var coded ErrorCoder
	if errors.As(err, &coded) {
		problemType = t.baseURL + "/" + coded.Code()
	}

	ext := map[string]any{}
	if !t.disableErrID {
		ext["error_id"] = t.errIDGen()
	}
	var detailed ErrorDetails
	if errors.As(err, &detailed) {
		ext["errors"] = detailed.Details()
	}
	if coded != nil {
		ext["code"] = coded.Code()
	}

	return Problem{
		Status:      status,
		ContentType: "application/problem+json; charset=utf-8",
		Type:        problemType,
		Title:       http.StatusText(status),
		Detail:      err.Error(),
		Instance:    path,
		Extensions:  ext,
	}
}

// newErrorID mints a correlation id using google/uuid, in place of a
// crypto/rand-plus-hex scheme (errors/rfc9457.go's generateErrorID),
// since this module's dependency stack already carries google/uuid for
// the same purpose elsewhere (middleware/requestid).
func newErrorID() string {
	return "err-" + uuid.NewString()
}
