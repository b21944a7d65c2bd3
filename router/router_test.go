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

package router_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rivaas-dev/corehttp/route"
	"github.com/rivaas-dev/corehttp/router"
)

func TestStaticBeatsDynamic(t *testing.T) {
	t.Parallel()
	r := router.New()
	_, err := r.Add("GET", "/hello", route.UnsetRank, route.FormatPredicate{}, 1, nil)
	require.NoError(t, err)
	_, err = r.Add("GET", "/<name>", route.UnsetRank, route.FormatPredicate{}, 2, nil)
	require.NoError(t, err)
	require.Empty(t, r.Freeze())

	cands := r.Select("GET", "/hello", nil, "", "")
	require.NotEmpty(t, cands)
	assert.EqualValues(t, 1, cands[0].Descriptor.Handler())

	cands = r.Select("GET", "/world", nil, "", "")
	require.NotEmpty(t, cands)
	assert.EqualValues(t, 2, cands[0].Descriptor.Handler())
	assert.Equal(t, "world", cands[0].Params["name"])
}

func TestExplicitRankOrdering(t *testing.T) {
	t.Parallel()
	r := router.New()
	_, err := r.Add("GET", "/a/b", 0, route.FormatPredicate{}, 1, nil)
	require.NoError(t, err)
	_, err = r.Add("GET", "/a/<b>", 1, route.FormatPredicate{}, 2, nil)
	require.NoError(t, err)
	require.Empty(t, r.Freeze())

	cands := r.Select("GET", "/a/b", map[string][]string{"v": {"1"}}, "", "")
	require.NotEmpty(t, cands)
	assert.EqualValues(t, 1, cands[0].Descriptor.Handler())
}

func TestBothMultiDynamicMatchInRankOrder(t *testing.T) {
	t.Parallel()
	r := router.New()
	_, err := r.Add("GET", "/a/<b..>", 1, route.FormatPredicate{}, 1, nil)
	require.NoError(t, err)
	_, err = r.Add("GET", "/a/b/<c..>", 2, route.FormatPredicate{}, 2, nil)
	require.NoError(t, err)
	require.Empty(t, r.Freeze())

	cands := r.Select("GET", "/a/b/c/d/e/f", nil, "", "")
	require.Len(t, cands, 2)
	assert.EqualValues(t, 1, cands[0].Descriptor.Handler())
	assert.EqualValues(t, 2, cands[1].Descriptor.Handler())
}

func TestMountComposition(t *testing.T) {
	t.Parallel()

	direct := router.New()
	_, err := direct.Add("GET", "/hello/world", route.UnsetRank, route.FormatPredicate{}, 9, nil)
	require.NoError(t, err)

	sub := router.New()
	_, err = sub.Add("GET", "/world", route.UnsetRank, route.FormatPredicate{}, 9, nil)
	require.NoError(t, err)

	mounted := router.New()
	require.NoError(t, mounted.Mount("/hello", sub))

	require.Empty(t, direct.Freeze())
	require.Empty(t, mounted.Freeze())

	d := direct.Select("GET", "/hello/world", nil, "", "")
	m := mounted.Select("GET", "/hello/world", nil, "", "")
	require.Len(t, d, 1)
	require.Len(t, m, 1)
	assert.Equal(t, d[0].Descriptor.Handler(), m[0].Descriptor.Handler())

	assert.Empty(t, mounted.Select("GET", "/hello/world/anything", nil, "", ""))
}

func TestFreezeReportsEqualRankCollisionOnly(t *testing.T) {
	t.Parallel()
	r := router.New()
	_, err := r.Add("GET", "/items/<id>", 0, route.FormatPredicate{}, 1, nil)
	require.NoError(t, err)
	_, err = r.Add("GET", "/items/<id>", 1, route.FormatPredicate{}, 2, nil)
	require.NoError(t, err)
	assert.Empty(t, r.Freeze(), "different ranks never collide regardless of overlap")

	r2 := router.New()
	_, err = r2.Add("GET", "/items/<a>", 0, route.FormatPredicate{}, 1, nil)
	require.NoError(t, err)
	_, err = r2.Add("GET", "/items/<b>", 0, route.FormatPredicate{}, 2, nil)
	require.NoError(t, err)
	assert.Len(t, r2.Freeze(), 1, "same rank and colliding path is reported")
}

func TestAddPanicsAfterFreeze(t *testing.T) {
	t.Parallel()
	r := router.New()
	r.Freeze()
	assert.Panics(t, func() {
		_, _ = r.Add("GET", "/x", route.UnsetRank, route.FormatPredicate{}, 1, nil)
	})
}

func TestHeadFallsBackToGet(t *testing.T) {
	t.Parallel()
	r := router.New()
	_, err := r.Add("GET", "/resource", route.UnsetRank, route.FormatPredicate{}, 1, nil)
	require.NoError(t, err)
	require.Empty(t, r.Freeze())

	cands := r.Select("HEAD", "/resource", nil, "", "")
	require.NotEmpty(t, cands)
	assert.EqualValues(t, 1, cands[0].Descriptor.Handler())
	assert.Equal(t, "GET", cands[0].Descriptor.Method())
}

func TestFormatFiltersCandidates(t *testing.T) {
	t.Parallel()
	r := router.New()
	_, err := r.Add("POST", "/items", route.UnsetRank, route.FormatPredicate{Consumes: "application/json"}, 1, nil)
	require.NoError(t, err)
	require.Empty(t, r.Freeze())

	cands := r.Select("POST", "/items", nil, "application/json", "")
	assert.Len(t, cands, 1)

	cands = r.Select("POST", "/items", nil, "text/plain", "")
	assert.Empty(t, cands)
}
