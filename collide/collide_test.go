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

package collide_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rivaas-dev/corehttp/collide"
	"github.com/rivaas-dev/corehttp/route"
)

func mustDescriptor(t *testing.T, method, pattern string, format route.FormatPredicate) *route.Descriptor {
	t.Helper()
	p, err := route.ParsePattern(pattern)
	require.NoError(t, err)
	d, err := route.New(method, p, route.UnsetRank, format, 0, nil)
	require.NoError(t, err)
	return d
}

func TestFullSymmetricAndReflexive(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		a, b   string
		expect bool
	}{
		{"static equal", "/hello", "/hello", true},
		{"static vs dynamic", "/hello", "/<name>", true},
		{"different static", "/hello", "/world", false},
		{"multi absorbs tail", "/a/<b..>", "/a/b/c", true},
		{"multi vs multi", "/a/<b..>", "/a/b/<c..>", true},
		{"length mismatch no multi", "/a/b", "/a/b/c", false},
		{"root only", "/", "/", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			a := mustDescriptor(t, "GET", tc.a, route.FormatPredicate{})
			b := mustDescriptor(t, "GET", tc.b, route.FormatPredicate{})

			require.Equal(t, tc.expect, collide.Full(a, b), "A,B")
			require.Equal(t, collide.Full(a, b), collide.Full(b, a), "symmetry")
			require.True(t, collide.Full(a, a), "reflexive A,A")
			require.True(t, collide.Full(b, b), "reflexive B,B")
		})
	}
}

func TestFullDifferentMethodNeverCollides(t *testing.T) {
	t.Parallel()
	a := mustDescriptor(t, "GET", "/a", route.FormatPredicate{})
	b := mustDescriptor(t, "POST", "/a", route.FormatPredicate{})
	require.False(t, collide.Full(a, b))
	require.False(t, collide.Full(b, a))
}

func TestFormatCollision(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		a, b   route.FormatPredicate
		expect bool
	}{
		{"both absent", route.FormatPredicate{}, route.FormatPredicate{}, true},
		{"equal", route.FormatPredicate{Consumes: "application/json"}, route.FormatPredicate{Consumes: "application/json"}, true},
		{"supertype", route.FormatPredicate{Produces: "text/*"}, route.FormatPredicate{Produces: "text/html"}, true},
		{"disjoint", route.FormatPredicate{Consumes: "application/json"}, route.FormatPredicate{Consumes: "text/html"}, false},
		{"one axis absent other collides", route.FormatPredicate{Produces: "text/html"}, route.FormatPredicate{}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.expect, collide.Format(tc.a, tc.b))
			require.Equal(t, collide.Format(tc.a, tc.b), collide.Format(tc.b, tc.a))
		})
	}
}

func TestQueryCollision(t *testing.T) {
	t.Parallel()
	a := mustDescriptor(t, "GET", "/a?x=1", route.FormatPredicate{})
	b := mustDescriptor(t, "GET", "/a?x=2", route.FormatPredicate{})
	require.False(t, collide.Query(a.Pattern(), b.Pattern()))

	c := mustDescriptor(t, "GET", "/a?x=1", route.FormatPredicate{})
	d := mustDescriptor(t, "GET", "/a?<y..>", route.FormatPredicate{})
	require.True(t, collide.Query(c.Pattern(), d.Pattern()))
}
