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

package tracing_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/rivaas-dev/corehttp/middleware/tracing"
	"github.com/rivaas-dev/corehttp/reqctx"
)

func TestTracerStartsAndEndsSpanAroundRequest(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	tr := tracing.New(tracing.WithTracerProvider(provider), tracing.WithServiceName("svc"))

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/widgets/1", nil)
	e := reqctx.Acquire(w, r)
	defer reqctx.Release(e)

	require.NoError(t, tr.Request(context.Background(), e))
	e.SetStatus(200)
	tr.Response(context.Background(), e, e)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /widgets/1", spans[0].Name)
}

func TestTracerMarksErrorStatusOn5xx(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	tr := tracing.New(tracing.WithTracerProvider(provider))

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/boom", nil)
	e := reqctx.Acquire(w, r)
	defer reqctx.Release(e)

	require.NoError(t, tr.Request(context.Background(), e))
	e.SetStatus(500)
	tr.Response(context.Background(), e, e)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, int(1), int(spans[0].Status.Code)) // codes.Error
}

func TestUnownedTracerProviderIsNotShutdownByTracer(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer provider.Shutdown(context.Background())

	tr := tracing.New(tracing.WithTracerProvider(provider))
	tr.Shutdown(context.Background())

	// provider still usable: caller, not Tracer, owns its lifecycle.
	_, span := provider.Tracer("t").Start(context.Background(), "still-alive")
	span.End()
	assert.NotEmpty(t, exporter.GetSpans())
}
