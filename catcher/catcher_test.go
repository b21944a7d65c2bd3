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

package catcher_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rivaas-dev/corehttp/catcher"
)

type notFoundErr struct{}

func (notFoundErr) Error() string { return "not found" }
func (notFoundErr) HTTPStatus() int { return http.StatusNotFound }

func TestDefaultCatcherUsesErrorTypeStatus(t *testing.T) {
	t.Parallel()
	table := catcher.New()
	p := table.Default("/missing", notFoundErr{})
	assert.Equal(t, http.StatusNotFound, p.Status)
	assert.Equal(t, "application/problem+json; charset=utf-8", p.ContentType)
}

func TestDefaultCatcherFallsBackTo500(t *testing.T) {
	t.Parallel()
	table := catcher.New()
	p := table.Default("/boom", errors.New("unexpected"))
	assert.Equal(t, http.StatusInternalServerError, p.Status)
}

func TestLookupPrefersSpecificCodeOverBaseWildcard(t *testing.T) {
	t.Parallel()
	table := catcher.New()

	var usedWide, usedSpecific bool
	table.Register("/api", 0, func(string, error) catcher.Problem {
		usedWide = true
		return catcher.Problem{Status: 500}
	})
	table.Register("/api", 404, func(string, error) catcher.Problem {
		usedSpecific = true
		return catcher.Problem{Status: 404}
	})

	h := table.Lookup("/api", 404)
	h("/api/x", errors.New("x"))
	assert.True(t, usedSpecific)
	assert.False(t, usedWide)
}

func TestLookupFallsBackToDefaultWhenUnregistered(t *testing.T) {
	t.Parallel()
	table := catcher.New()
	h := table.Lookup("/unregistered", 500)
	p := h("/unregistered/x", errors.New("x"))
	assert.Equal(t, http.StatusInternalServerError, p.Status)
}

func TestProblemMarshalsExtensionsInline(t *testing.T) {
	t.Parallel()
	p := catcher.Problem{
		Status: 400,
		Type:   "about:blank",
		Title:  "Bad Request",
		Extensions: map[string]any{
			"error_id": "err-1",
		},
	}
	b, err := json.Marshal(p)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "err-1", m["error_id"])
	assert.Equal(t, float64(400), m["status"])
}
