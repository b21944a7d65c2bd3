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

package reqctx_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rivaas-dev/corehttp/reqctx"
)

func TestParamFixedAndOverflow(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest("GET", "/a/b", nil)
	w := httptest.NewRecorder()
	e := reqctx.Acquire(w, r)
	defer reqctx.Release(e)

	for i := 0; i < 10; i++ {
		e.SetParam(i, "p"+string(rune('a'+i)), "v"+string(rune('a'+i)))
	}

	v, ok := e.Param("pa")
	require.True(t, ok)
	assert.Equal(t, "va", v)

	v, ok = e.Param("pj") // index 9, beyond the fixed 8 slots
	require.True(t, ok)
	assert.Equal(t, "vj", v)

	_, ok = e.Param("missing")
	assert.False(t, ok)
}

func TestWriteHeaderIdempotent(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	e := reqctx.Acquire(w, r)
	defer reqctx.Release(e)

	e.WriteHeader(201)
	e.WriteHeader(500)

	assert.Equal(t, 201, w.Code)
	assert.True(t, e.Written())
}

func TestScratchRoundTrip(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	e := reqctx.Acquire(w, r)
	defer reqctx.Release(e)

	e.Scratch()["body"] = []byte("hello")
	v, ok := e.ScratchGet("body")
	require.True(t, ok)
	assert.Equal(t, []byte("hello"), v)
}

func TestReleaseClearsState(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest("GET", "/x", nil)
	w := httptest.NewRecorder()
	e := reqctx.Acquire(w, r)
	e.SetParam(0, "id", "1")
	e.SetRoutePattern("/x/<id>")
	reqctx.Release(e)

	r2 := httptest.NewRequest("GET", "/y", nil)
	w2 := httptest.NewRecorder()
	e2 := reqctx.Acquire(w2, r2)
	defer reqctx.Release(e2)

	assert.Equal(t, "", e2.RoutePattern())
	_, ok := e2.Param("id")
	assert.False(t, ok)
}
