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

package dispatch_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rivaas-dev/corehttp/catcher"
	"github.com/rivaas-dev/corehttp/dispatch"
	"github.com/rivaas-dev/corehttp/fairing"
	"github.com/rivaas-dev/corehttp/middleware/recovery"
	"github.com/rivaas-dev/corehttp/reqctx"
	"github.com/rivaas-dev/corehttp/route"
	"github.com/rivaas-dev/corehttp/router"
)

func newDispatcher(t *testing.T) (*dispatch.Dispatcher, *router.Router) {
	t.Helper()
	r := router.New()
	fairings := fairing.NewRegistry()
	catchers := catcher.New()
	return dispatch.New(r, catchers, fairings, nil), r
}

func TestDispatchRespondsFromMatchedHandler(t *testing.T) {
	t.Parallel()
	d, r := newDispatcher(t)
	desc, err := r.Add("GET", "/hello/<name>", route.UnsetRank, route.FormatPredicate{}, 1, nil)
	require.NoError(t, err)
	require.Empty(t, r.Freeze())

	d.RegisterHandler(desc.Handler(), func(e *reqctx.Exchange) dispatch.Result {
		name, _ := e.Param("name")
		e.WriteHeader(200)
		_, _ = e.ResponseWriter().Write([]byte("hi " + name))
		return dispatch.Respond()
	})

	req := httptest.NewRequest("GET", "/hello/world", nil)
	rec := httptest.NewRecorder()
	d.ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "hi world", rec.Body.String())
}

func TestDispatchForwardTriesNextCandidate(t *testing.T) {
	t.Parallel()
	d, r := newDispatcher(t)
	first, err := r.Add("GET", "/items/<id>", 0, route.FormatPredicate{}, 1, nil)
	require.NoError(t, err)
	second, err := r.Add("GET", "/items/<id>", 1, route.FormatPredicate{}, 2, nil)
	require.NoError(t, err)
	// different ranks never collide, and Select still returns both
	// ordered by rank, exercising the forward-to-next-candidate path.
	require.Empty(t, r.Freeze())

	d.RegisterHandler(first.Handler(), func(e *reqctx.Exchange) dispatch.Result {
		return dispatch.ForwardResult()
	})
	d.RegisterHandler(second.Handler(), func(e *reqctx.Exchange) dispatch.Result {
		e.WriteHeader(200)
		return dispatch.Respond()
	})

	req := httptest.NewRequest("GET", "/items/42", nil)
	rec := httptest.NewRecorder()
	d.ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)
}

func TestDispatchUnmatchedRouteProducesProblem(t *testing.T) {
	t.Parallel()
	d, _ := newDispatcher(t)

	req := httptest.NewRequest("GET", "/nope", nil)
	rec := httptest.NewRecorder()
	d.ServeHTTP(rec, req)

	assert.Equal(t, 404, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/problem+json")
}

func TestDispatchRecoversPanicAs500(t *testing.T) {
	t.Parallel()
	d, r := newDispatcher(t)
	desc, err := r.Add("GET", "/boom", route.UnsetRank, route.FormatPredicate{}, 1, nil)
	require.NoError(t, err)
	require.Empty(t, r.Freeze())

	d.RegisterHandler(desc.Handler(), func(e *reqctx.Exchange) dispatch.Result {
		panic("kaboom")
	})

	req := httptest.NewRequest("GET", "/boom", nil)
	rec := httptest.NewRecorder()
	d.ServeHTTP(rec, req)

	assert.Equal(t, 500, rec.Code)
}

func TestDispatchMethodOverrideAffectsRouting(t *testing.T) {
	t.Parallel()
	d, r := newDispatcher(t)
	desc, err := r.Add("DELETE", "/widgets/<id>", route.UnsetRank, route.FormatPredicate{}, 1, nil)
	require.NoError(t, err)
	require.Empty(t, r.Freeze())

	var called bool
	d.RegisterHandler(desc.Handler(), func(e *reqctx.Exchange) dispatch.Result {
		called = true
		e.WriteHeader(204)
		return dispatch.Respond()
	})

	body := strings.NewReader("_method=DELETE")
	req := httptest.NewRequest("POST", "/widgets/1", body)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	d.ServeHTTP(rec, req)

	assert.True(t, called)
	assert.Equal(t, 204, rec.Code)
}

func TestDispatchRealIPOverridePreservesPort(t *testing.T) {
	t.Parallel()
	d, r := newDispatcher(t)
	desc, err := r.Add("GET", "/whoami", route.UnsetRank, route.FormatPredicate{}, 1, nil)
	require.NoError(t, err)
	require.Empty(t, r.Freeze())

	var seenAddr string
	d.RegisterHandler(desc.Handler(), func(e *reqctx.Exchange) dispatch.Result {
		seenAddr = e.Request().RemoteAddr
		e.WriteHeader(200)
		return dispatch.Respond()
	})

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.RemoteAddr = "10.0.0.1:54321"
	req.Header.Set("X-Real-IP", "203.0.113.7")
	rec := httptest.NewRecorder()
	d.ServeHTTP(rec, req)

	assert.Equal(t, "203.0.113.7:54321", seenAddr)
}

func TestServeRangeServesPartialContent(t *testing.T) {
	t.Parallel()
	content := []byte("0123456789")

	req := httptest.NewRequest("GET", "/file", nil)
	req.Header.Set("Range", "bytes=2-5")
	rec := httptest.NewRecorder()
	e := reqctx.Acquire(rec, req)
	defer reqctx.Release(e)

	res := dispatch.ServeRange(e, "text/plain", content)
	assert.Equal(t, dispatch.Responded, res.Outcome)
	assert.Equal(t, 206, rec.Code)
	assert.Equal(t, "2345", rec.Body.String())
	assert.Equal(t, "bytes 2-5/10", rec.Header().Get("Content-Range"))
}

func TestServeRangeMalformedFails(t *testing.T) {
	t.Parallel()
	content := []byte("0123456789")

	req := httptest.NewRequest("GET", "/file", nil)
	req.Header.Set("Range", "bytes=100-200")
	rec := httptest.NewRecorder()
	e := reqctx.Acquire(rec, req)
	defer reqctx.Release(e)

	res := dispatch.ServeRange(e, "text/plain", content)
	assert.Equal(t, dispatch.Fail, res.Outcome)
	require.Error(t, res.Err)
}

func TestServeRangeNoHeaderServesWhole(t *testing.T) {
	t.Parallel()
	content := []byte("hello world")

	req := httptest.NewRequest("GET", "/file", nil)
	rec := httptest.NewRecorder()
	e := reqctx.Acquire(rec, req)
	defer reqctx.Release(e)

	res := dispatch.ServeRange(e, "text/plain", content)
	assert.Equal(t, dispatch.Responded, res.Outcome)
	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "hello world", rec.Body.String())
	assert.Equal(t, "bytes", rec.Header().Get("Accept-Ranges"))
}

func TestDispatchDelegatesPanicToRecoveryPolicy(t *testing.T) {
	t.Parallel()
	d, r := newDispatcher(t)
	var captured any
	d.Recovery = recovery.New(recovery.WithPanicHandler(func(_ context.Context, value any, _ []byte) {
		captured = value
	}))

	desc, err := r.Add("GET", "/boom", route.UnsetRank, route.FormatPredicate{}, 1, nil)
	require.NoError(t, err)
	require.Empty(t, r.Freeze())

	d.RegisterHandler(desc.Handler(), func(e *reqctx.Exchange) dispatch.Result {
		panic("kaboom")
	})

	req := httptest.NewRequest("GET", "/boom", nil)
	rec := httptest.NewRecorder()
	d.ServeHTTP(rec, req)

	assert.Equal(t, 500, rec.Code)
	assert.Equal(t, "kaboom", captured)
}
