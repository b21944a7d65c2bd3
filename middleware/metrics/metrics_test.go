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

package metrics_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rivaas-dev/corehttp/middleware/metrics"
	"github.com/rivaas-dev/corehttp/reqctx"
)

func TestRecorderExposesCountAfterRequestResponse(t *testing.T) {
	t.Parallel()

	rec, err := metrics.New(metrics.WithServiceName("svc"))
	require.NoError(t, err)
	t.Cleanup(func() { rec.Shutdown(context.Background()) })

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/widgets", nil)
	e := reqctx.Acquire(w, r)
	defer reqctx.Release(e)

	require.NoError(t, rec.Request(context.Background(), e))
	e.SetStatus(200)
	rec.Response(context.Background(), e, e)

	scrape := httptest.NewRecorder()
	rec.Handler().ServeHTTP(scrape, httptest.NewRequest("GET", "/metrics", nil))
	body := scrape.Body.String()
	assert.Contains(t, body, "http_server_request_count_total")
	assert.True(t, strings.Contains(body, `route="/widgets"`) || strings.Contains(body, "http_route"))
}

func TestRecorderTracksActiveRequestsAcrossRequestAndResponse(t *testing.T) {
	t.Parallel()

	rec, err := metrics.New()
	require.NoError(t, err)
	t.Cleanup(func() { rec.Shutdown(context.Background()) })

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/x", nil)
	e := reqctx.Acquire(w, r)
	defer reqctx.Release(e)

	require.NoError(t, rec.Request(context.Background(), e))
	e.SetStatus(204)
	rec.Response(context.Background(), e, e)

	scrape := httptest.NewRecorder()
	rec.Handler().ServeHTTP(scrape, httptest.NewRequest("GET", "/metrics", nil))
	assert.Contains(t, scrape.Body.String(), "http_server_active_requests")
}
