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

// Package fairing implements the unified fairing lifecycle: a
// kind-indexed registry of hooks that run at attach time, ignition
// time, around every request, and at shutdown.
package fairing

import (
	"context"
	"fmt"
	"sync"
)

// Kind identifies which lifecycle point a Fairing participates in. A
// single Fairing value may satisfy more than one Kind by implementing
// more than one of the optional interfaces below; Kind is used only to
// classify which method the registry actually calls.
type Kind int

const (
	// Attach fairings run once, synchronously, in registration order,
	// while the application is being assembled. An Attach fairing may
	// itself register further fairings.
	Attach Kind = iota
	// Ignite fairings run once, after Attach, with the frozen router
	// and managed state available; used for prelaunch validation.
	Ignite
	// Request fairings run for every inbound request, before routing.
	Request
	// Response fairings run for every outgoing response, in reverse
	// registration order (LIFO), the same ordering used for shutdown
	// hooks applied to the response path.
	Response
	// Shutdown fairings run once, in reverse registration order (LIFO),
	// during graceful shutdown.
	Shutdown
)

func (k Kind) String() string {
	switch k {
	case Attach:
		return "attach"
	case Ignite:
		return "ignite"
	case Request:
		return "request"
	case Response:
		return "response"
	case Shutdown:
		return "shutdown"
	default:
		return fmt.Sprintf("fairing.Kind(%d)", int(k))
	}
}

// Fairing is the minimal interface every registered fairing satisfies.
// Name is used purely for diagnostics (AttachFailure, logging).
type Fairing interface {
	Name() string
}

// Attacher is implemented by fairings that participate in the Attach
// kind.
type Attacher interface {
	Fairing
	Attach(ctx context.Context, r *Registry) error
}

// Igniter is implemented by fairings that participate in the Ignite
// kind.
type Igniter interface {
	Fairing
	Ignite(ctx context.Context) error
}

// RequestFairing is implemented by fairings that participate in the
// Request kind. It returns an error to short-circuit dispatch into the
// dispatcher's failing path.
type RequestFairing interface {
	Fairing
	Request(ctx context.Context, req RequestView) error
}

// ResponseFairing is implemented by fairings that participate in the
// Response kind, able to inspect and mutate the outgoing response view.
type ResponseFairing interface {
	Fairing
	Response(ctx context.Context, req RequestView, resp ResponseView)
}

// ShutdownFairing is implemented by fairings that participate in the
// Shutdown kind.
type ShutdownFairing interface {
	Fairing
	Shutdown(ctx context.Context)
}

// RequestView and ResponseView are the narrow views a fairing is given
// into the in-flight exchange. They are defined here, rather than
// imported from reqctx, to keep fairing free of a dependency on the
// request-context package; dispatch adapts its concrete types to these
// interfaces.
type RequestView interface {
	Method() string
	Path() string
	Header(key string) string
}

// ResponseView lets a Response fairing inspect and adjust headers and
// the status code before the body is emitted.
type ResponseView interface {
	Status() int
	SetStatus(code int)
	SetHeader(key, value string)
}

// AttachFailure records one Attach fairing's failure, grounded on
// app/errors.go's ValidationError aggregation: prelaunch failures are
// collected in full rather than reported fail-fast, so operators see
// every problem in one pass.
type AttachFailure struct {
	Name string
	Err  error
}

func (f AttachFailure) Error() string {
	return fmt.Sprintf("fairing %q failed to attach: %v", f.Name, f.Err)
}

// Registry holds the five ordered fairing slices, generalizing
// app/lifecycle.go's Hooks{onStart, onReady, onShutdown, onStop,
// onRoute} into one kind-indexed collection with a uniform Fairing
// interface instead of five ad hoc function-slice fields.
type Registry struct {
	mu       sync.Mutex
	attach   []Attacher
	ignite   []Igniter
	request  []RequestFairing
	response []ResponseFairing
	shutdown []ShutdownFairing
	frozen   bool
}

// NewRegistry returns an empty, unfrozen fairing registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds fairing to every kind-specific slice it implements. A
// fairing that implements none of the optional interfaces is rejected:
// a fairing with nothing to do is almost certainly a mistake.
func (r *Registry) Register(f Fairing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		panic("fairing: cannot register after the registry is frozen")
	}

	registered := false
	if a, ok := f.(Attacher); ok {
		r.attach = append(r.attach, a)
		registered = true
	}
	if i, ok := f.(Igniter); ok {
		r.ignite = append(r.ignite, i)
		registered = true
	}
	if rq, ok := f.(RequestFairing); ok {
		r.request = append(r.request, rq)
		registered = true
	}
	if rs, ok := f.(ResponseFairing); ok {
		r.response = append(r.response, rs)
		registered = true
	}
	if s, ok := f.(ShutdownFairing); ok {
		r.shutdown = append(r.shutdown, s)
		registered = true
	}
	if !registered {
		return fmt.Errorf("fairing: %q implements no fairing kind", f.Name())
	}
	return nil
}

// Freeze forbids further registration. Called once ignition begins.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// RunAttach runs every Attach fairing in registration order, collecting
// every failure rather than stopping at the first. Attach fairings may
// call Register on r themselves; RunAttach walks the slice by index so
// late registrations are observed, snapshotting each hook slice under
// lock per call but allowing growth mid-walk.
func (r *Registry) RunAttach(ctx context.Context) []AttachFailure {
	var failures []AttachFailure
	for i := 0; ; i++ {
		r.mu.Lock()
		if i >= len(r.attach) {
			r.mu.Unlock()
			break
		}
		f := r.attach[i]
		r.mu.Unlock()

		if err := f.Attach(ctx, r); err != nil {
			failures = append(failures, AttachFailure{Name: f.Name(), Err: err})
		}
	}
	return failures
}

// RunIgnite runs every Ignite fairing in registration order, stopping
// at the first error: ignition failures are fatal prelaunch conditions
// (see ignite.LaunchError), unlike Attach's collect-all behavior.
func (r *Registry) RunIgnite(ctx context.Context) error {
	r.mu.Lock()
	ignite := make([]Igniter, len(r.ignite))
	copy(ignite, r.ignite)
	r.mu.Unlock()

	for _, f := range ignite {
		if err := f.Ignite(ctx); err != nil {
			return fmt.Errorf("fairing %q failed to ignite: %w", f.Name(), err)
		}
	}
	return nil
}

// RunRequest runs every Request fairing in registration order, stopping
// at the first error: a Request fairing failure moves dispatch into its
// failing path with that error.
func (r *Registry) RunRequest(ctx context.Context, req RequestView) error {
	r.mu.Lock()
	request := make([]RequestFairing, len(r.request))
	copy(request, r.request)
	r.mu.Unlock()

	for _, f := range request {
		if err := f.Request(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

// RunResponse runs every Response fairing in reverse registration order
// (LIFO), matching app/lifecycle.go's executeShutdownHooks ordering
// applied to the response path.
func (r *Registry) RunResponse(ctx context.Context, req RequestView, resp ResponseView) {
	r.mu.Lock()
	response := make([]ResponseFairing, len(r.response))
	copy(response, r.response)
	r.mu.Unlock()

	for i := len(response) - 1; i >= 0; i-- {
		response[i].Response(ctx, req, resp)
	}
}

// RunShutdown runs every Shutdown fairing in reverse registration order
// (LIFO), directly adapted from app/lifecycle.go's executeShutdownHooks.
func (r *Registry) RunShutdown(ctx context.Context) {
	r.mu.Lock()
	shutdown := make([]ShutdownFairing, len(r.shutdown))
	copy(shutdown, r.shutdown)
	r.mu.Unlock()

	for i := len(shutdown) - 1; i >= 0; i-- {
		shutdown[i].Shutdown(ctx)
	}
}
