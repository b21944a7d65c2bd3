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

// Package tracing implements a fairing that opens one OpenTelemetry
// server span per inbound request, propagating any incoming trace
// context and closing the span once the response status is known.
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/rivaas-dev/corehttp/fairing"
)

// Option configures a Tracer.
type Option func(*tracerConfig)

type tracerConfig struct {
	serviceName    string
	serviceVersion string
	provider       trace.TracerProvider
	propagator     propagation.TextMapPropagator
}

func defaultTracerConfig() *tracerConfig {
	return &tracerConfig{
		serviceName:    "corehttp-service",
		serviceVersion: "0.0.0",
		propagator:     propagation.TraceContext{},
	}
}

// WithServiceName sets the service.name span attribute.
func WithServiceName(name string) Option {
	return func(c *tracerConfig) { c.serviceName = name }
}

// WithServiceVersion sets the service.version span attribute.
func WithServiceVersion(version string) Option {
	return func(c *tracerConfig) { c.serviceVersion = version }
}

// WithTracerProvider supplies a preconfigured trace.TracerProvider
// (e.g. one wired to an OTLP exporter by the caller), bypassing the
// default in-process sdktrace.TracerProvider. The Tracer does not
// own the lifecycle of a provider supplied this way: Shutdown is a
// no-op in that case.
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(c *tracerConfig) { c.provider = provider }
}

// WithPropagator overrides the default W3C traceparent propagator.
func WithPropagator(p propagation.TextMapPropagator) Option {
	return func(c *tracerConfig) { c.propagator = p }
}

// Tracer is a fairing.RequestFairing, fairing.ResponseFairing and
// fairing.ShutdownFairing that opens a server span per request,
// adapted from tracing/tracing.go's Tracer and
// tracing/middleware.go's startMiddlewareSpan, collapsed onto the
// fairing lifecycle instead of an http.Handler chain. Sampling-rate
// knobs, span hooks, and the OTLP/stdout provider switch are dropped:
// this module's go.mod carries no trace exporter, so the default
// provider is a local
// sdktrace.NewTracerProvider with no processor attached (spans are
// created and correctly propagated but not exported) unless the
// caller supplies one via WithTracerProvider.
type Tracer struct {
	tracer     trace.Tracer
	provider   *sdktrace.TracerProvider // non-nil only when owned by this Tracer
	managed    bool
	propagator propagation.TextMapPropagator

	serviceNameAttr    attribute.KeyValue
	serviceVersionAttr attribute.KeyValue
}

// New builds a Tracer.
func New(opts ...Option) *Tracer {
	cfg := defaultTracerConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	t := &Tracer{
		propagator:         cfg.propagator,
		serviceNameAttr:    attribute.String("service.name", cfg.serviceName),
		serviceVersionAttr: attribute.String("service.version", cfg.serviceVersion),
	}

	if cfg.provider != nil {
		t.tracer = cfg.provider.Tracer("github.com/rivaas-dev/corehttp/middleware/tracing")
		return t
	}

	provider := sdktrace.NewTracerProvider()
	t.provider = provider
	t.managed = true
	t.tracer = provider.Tracer("github.com/rivaas-dev/corehttp/middleware/tracing")
	return t
}

// Name implements fairing.Fairing.
func (t *Tracer) Name() string { return "tracing" }

const scratchKey = "tracing.span"

type scratchStore interface {
	Scratch() map[string]any
}

// carrier adapts fairing.RequestView's single-header-at-a-time Header
// method to propagation.TextMapCarrier's Get/Set/Keys shape, since
// fairing.RequestView deliberately exposes no full header map (see the
// fairing ledger entry on RequestView's narrowness).
type carrier struct{ req fairing.RequestView }

func (c carrier) Get(key string) string       { return c.req.Header(key) }
func (c carrier) Set(string, string)          {}
func (c carrier) Keys() []string              { return nil }

// Request implements fairing.RequestFairing: it extracts any upstream
// trace context from headers, starts a server span, and stashes it in
// the exchange's scratch store for Response to finish.
func (t *Tracer) Request(ctx context.Context, req fairing.RequestView) error {
	extractCtx := t.propagator.Extract(ctx, carrier{req: req})

	spanName := fmt.Sprintf("%s %s", req.Method(), req.Path())
	_, span := t.tracer.Start(extractCtx, spanName, trace.WithSpanKind(trace.SpanKindServer))
	span.SetAttributes(
		t.serviceNameAttr,
		t.serviceVersionAttr,
		attribute.String("http.method", req.Method()),
		attribute.String("http.route", req.Path()),
	)

	if ss, ok := req.(scratchStore); ok {
		ss.Scratch()[scratchKey] = span
	} else {
		span.End()
	}
	return nil
}

// Response implements fairing.ResponseFairing: it records the final
// status code and ends the span opened by Request.
func (t *Tracer) Response(_ context.Context, req fairing.RequestView, resp fairing.ResponseView) {
	ss, ok := req.(scratchStore)
	if !ok {
		return
	}
	span, ok := ss.Scratch()[scratchKey].(trace.Span)
	if !ok {
		return
	}
	defer span.End()

	status := resp.Status()
	span.SetAttributes(attribute.Int("http.status_code", status))
	if status >= 500 {
		span.SetStatus(codes.Error, fmt.Sprintf("http %d", status))
	} else {
		span.SetStatus(codes.Ok, "")
	}
}

// Shutdown implements fairing.ShutdownFairing. It only shuts down a
// provider this Tracer created itself; a caller-supplied provider
// (WithTracerProvider) is left for the caller to manage.
func (t *Tracer) Shutdown(ctx context.Context) {
	if t.managed && t.provider != nil {
		_ = t.provider.Shutdown(ctx)
	}
}
