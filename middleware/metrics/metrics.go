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

// Package metrics implements a fairing that records HTTP request
// counts, durations, and in-flight gauges through OpenTelemetry
// metrics, exported via a Prometheus registry.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/rivaas-dev/corehttp/fairing"
)

// DefaultDurationBuckets are histogram boundaries for request duration
// in seconds, following OpenTelemetry's semantic-convention guidance
// for HTTP server latency.
var DefaultDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// Option configures a Recorder.
type Option func(*recorderConfig)

type recorderConfig struct {
	serviceName     string
	serviceVersion  string
	durationBuckets []float64
}

func defaultRecorderConfig() *recorderConfig {
	return &recorderConfig{
		serviceName:     "corehttp-service",
		serviceVersion:  "0.0.0",
		durationBuckets: DefaultDurationBuckets,
	}
}

// WithServiceName sets the service.name attribute stamped on every
// instrument.
func WithServiceName(name string) Option {
	return func(c *recorderConfig) { c.serviceName = name }
}

// WithServiceVersion sets the service.version attribute.
func WithServiceVersion(version string) Option {
	return func(c *recorderConfig) { c.serviceVersion = version }
}

// WithDurationBuckets overrides DefaultDurationBuckets.
func WithDurationBuckets(buckets ...float64) Option {
	return func(c *recorderConfig) { c.durationBuckets = buckets }
}

// Recorder is a fairing.RequestFairing, fairing.ResponseFairing and
// fairing.ShutdownFairing that records HTTP server metrics for every
// request that reaches dispatch, adapted from metrics/metrics.go's
// Recorder and metrics/middleware.go's Middleware, collapsed onto this
// module's fairing lifecycle instead of an http.Handler chain and
// narrowed to the single Prometheus provider this module's go.mod
// actually pulls in (no OTLP/stdout provider switch, no custom-metric
// registration API, no per-header recording).
type Recorder struct {
	provider *sdkmetric.MeterProvider
	handler  http.Handler

	requestDuration metric.Float64Histogram
	requestCount    metric.Int64Counter
	activeRequests  metric.Int64UpDownCounter

	serviceNameAttr    attribute.KeyValue
	serviceVersionAttr attribute.KeyValue
}

// New builds a Recorder backed by a dedicated Prometheus registry, not
// the global one, so multiple Recorders can coexist in one process
// without fighting over promclient's default registry.
func New(opts ...Option) (*Recorder, error) {
	cfg := defaultRecorderConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	registry := promclient.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("metrics: create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	meter := provider.Meter("github.com/rivaas-dev/corehttp/middleware/metrics")

	requestDuration, err := meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Duration of inbound HTTP requests."),
		metric.WithExplicitBucketBoundaries(cfg.durationBuckets...),
	)
	if err != nil {
		return nil, fmt.Errorf("metrics: create duration histogram: %w", err)
	}

	requestCount, err := meter.Int64Counter(
		"http.server.request.count",
		metric.WithDescription("Count of inbound HTTP requests."),
	)
	if err != nil {
		return nil, fmt.Errorf("metrics: create request counter: %w", err)
	}

	activeRequests, err := meter.Int64UpDownCounter(
		"http.server.active_requests",
		metric.WithDescription("Number of in-flight HTTP requests."),
	)
	if err != nil {
		return nil, fmt.Errorf("metrics: create active-requests gauge: %w", err)
	}

	return &Recorder{
		provider:           provider,
		handler:            promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:    requestDuration,
		requestCount:       requestCount,
		activeRequests:     activeRequests,
		serviceNameAttr:    attribute.String("service.name", cfg.serviceName),
		serviceVersionAttr: attribute.String("service.version", cfg.serviceVersion),
	}, nil
}

// Handler returns the Prometheus scrape endpoint handler, meant to be
// mounted at a path like /metrics outside the dispatcher (scraping
// itself should not flow through the fairing pipeline it measures).
func (r *Recorder) Handler() http.Handler { return r.handler }

// Name implements fairing.Fairing.
func (r *Recorder) Name() string { return "metrics" }

const scratchKey = "metrics.start"

type scratchStore interface {
	Scratch() map[string]any
}

// Request implements fairing.RequestFairing: it stamps the exchange
// with a start time and increments the in-flight gauge. It never
// fails the request.
func (r *Recorder) Request(ctx context.Context, req fairing.RequestView) error {
	r.activeRequests.Add(ctx, 1, metric.WithAttributes(r.serviceNameAttr, r.serviceVersionAttr))
	if ss, ok := req.(scratchStore); ok {
		ss.Scratch()[scratchKey] = time.Now()
	}
	return nil
}

// Response implements fairing.ResponseFairing: it records the request
// duration and outcome now that the status code is known, and
// decrements the in-flight gauge.
func (r *Recorder) Response(ctx context.Context, req fairing.RequestView, resp fairing.ResponseView) {
	r.activeRequests.Add(ctx, -1, metric.WithAttributes(r.serviceNameAttr, r.serviceVersionAttr))

	attrs := []attribute.KeyValue{
		r.serviceNameAttr,
		r.serviceVersionAttr,
		attribute.String("http.method", req.Method()),
		attribute.String("http.route", req.Path()),
		attribute.Int("http.status_code", resp.Status()),
	}
	set := metric.WithAttributes(attrs...)
	r.requestCount.Add(ctx, 1, set)

	ss, ok := req.(scratchStore)
	if !ok {
		return
	}
	started, ok := ss.Scratch()[scratchKey].(time.Time)
	if !ok {
		return
	}
	r.requestDuration.Record(ctx, time.Since(started).Seconds(), set)
}

// Shutdown implements fairing.ShutdownFairing, flushing and closing the
// underlying meter provider.
func (r *Recorder) Shutdown(ctx context.Context) {
	_ = r.provider.Shutdown(ctx)
}
