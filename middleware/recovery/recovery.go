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

// Package recovery provides the panic-handling policy the dispatcher
// consults when a handler panics mid-request.
package recovery

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Policy configures how a recovered panic is logged, traced, and turned
// into an error for the dispatcher's catcher path.
type Policy struct {
	stackTrace       bool
	stackSize        int
	disableStackAll  bool
	logger           *slog.Logger
	onPanic          func(ctx context.Context, value any, stack []byte)
}

// Option configures a Policy.
type Option func(*Policy)

// New builds a recovery Policy from opts.
func New(opts ...Option) *Policy {
	p := &Policy{
		stackTrace:      true,
		stackSize:       4 << 10,
		disableStackAll: true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PanicError wraps the recovered value so the catcher table can report
// a 500 without needing to know about panics specifically.
type PanicError struct {
	Value any
}

func (e PanicError) Error() string   { return fmt.Sprintf("recovery: handler panic: %v", e.Value) }
func (e PanicError) HTTPStatus() int { return http.StatusInternalServerError }

// Handle captures a stack trace (if enabled), marks the active
// OpenTelemetry span as errored with exception.escaped=true, logs the
// panic, and returns the error the dispatcher feeds into its catcher
// lookup.
func (p *Policy) Handle(ctx context.Context, value any) error {
	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		span.SetStatus(codes.Error, "panic recovered")
		span.SetAttributes(
			attribute.Bool("exception.escaped", true),
			attribute.String("exception.type", fmt.Sprintf("%T", value)),
			attribute.String("exception.message", fmt.Sprintf("%v", value)),
		)
		if err, ok := value.(error); ok {
			span.RecordError(err)
		}
	}

	var stack []byte
	if p.stackTrace {
		full := debug.Stack()
		if p.disableStackAll && len(full) > p.stackSize {
			stack = full[:p.stackSize]
		} else {
			stack = full
		}
	}

	if p.onPanic != nil {
		p.onPanic(ctx, value, stack)
	} else if p.logger != nil {
		p.logger.Error("recovery: panic recovered", "panic", value, "stack", string(stack))
	}

	return PanicError{Value: value}
}
