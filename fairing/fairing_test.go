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

package fairing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rivaas-dev/corehttp/fairing"
)

type recordingView struct {
	status  int
	headers map[string]string
}

func (v *recordingView) Status() int { return v.status }
func (v *recordingView) SetStatus(code int) { v.status = code }
func (v *recordingView) SetHeader(k, val string) {
	if v.headers == nil {
		v.headers = map[string]string{}
	}
	v.headers[k] = val
}

type nopRequest struct{}

func (nopRequest) Method() string       { return "GET" }
func (nopRequest) Path() string         { return "/" }
func (nopRequest) Header(string) string { return "" }

type namedFairing struct {
	name     string
	onAttach func(context.Context, *fairing.Registry) error
}

func (f *namedFairing) Name() string { return f.name }
func (f *namedFairing) Attach(ctx context.Context, r *fairing.Registry) error {
	return f.onAttach(ctx, r)
}

func TestRegisterRejectsFairingWithNoKind(t *testing.T) {
	t.Parallel()
	r := fairing.NewRegistry()
	err := r.Register(namedOnly{"nothing"})
	require.Error(t, err)
}

type namedOnly struct{ name string }

func (n namedOnly) Name() string { return n.name }

func TestRunAttachCollectsAllFailures(t *testing.T) {
	t.Parallel()
	r := fairing.NewRegistry()

	failA := &namedFairing{name: "a", onAttach: func(context.Context, *fairing.Registry) error {
		return errors.New("boom a")
	}}
	failB := &namedFairing{name: "b", onAttach: func(context.Context, *fairing.Registry) error {
		return errors.New("boom b")
	}}
	ok := &namedFairing{name: "c", onAttach: func(context.Context, *fairing.Registry) error {
		return nil
	}}

	require.NoError(t, r.Register(failA))
	require.NoError(t, r.Register(failB))
	require.NoError(t, r.Register(ok))

	failures := r.RunAttach(context.Background())
	require.Len(t, failures, 2)
	assert.Equal(t, "a", failures[0].Name)
	assert.Equal(t, "b", failures[1].Name)
}

func TestAttachFairingCanRegisterFurtherFairings(t *testing.T) {
	t.Parallel()
	r := fairing.NewRegistry()

	var secondRan bool
	second := &namedFairing{name: "second", onAttach: func(context.Context, *fairing.Registry) error {
		secondRan = true
		return nil
	}}
	first := &namedFairing{name: "first", onAttach: func(_ context.Context, reg *fairing.Registry) error {
		return reg.Register(second)
	}}

	require.NoError(t, r.Register(first))
	failures := r.RunAttach(context.Background())
	require.Empty(t, failures)
	assert.True(t, secondRan)
}

type responseFairing struct {
	name  string
	order *[]string
}

func (f responseFairing) Name() string { return f.name }
func (f responseFairing) Response(_ context.Context, _ fairing.RequestView, _ fairing.ResponseView) {
	*f.order = append(*f.order, f.name)
}

func TestRunResponseIsLIFO(t *testing.T) {
	t.Parallel()
	r := fairing.NewRegistry()
	var order []string

	require.NoError(t, r.Register(responseFairing{name: "one", order: &order}))
	require.NoError(t, r.Register(responseFairing{name: "two", order: &order}))
	require.NoError(t, r.Register(responseFairing{name: "three", order: &order}))

	r.RunResponse(context.Background(), nopRequest{}, &recordingView{})
	assert.Equal(t, []string{"three", "two", "one"}, order)
}

type shutdownFairing struct {
	name  string
	order *[]string
}

func (f shutdownFairing) Name() string            { return f.name }
func (f shutdownFairing) Shutdown(context.Context) { *f.order = append(*f.order, f.name) }

func TestRunShutdownIsLIFO(t *testing.T) {
	t.Parallel()
	r := fairing.NewRegistry()
	var order []string

	require.NoError(t, r.Register(shutdownFairing{name: "one", order: &order}))
	require.NoError(t, r.Register(shutdownFairing{name: "two", order: &order}))

	r.RunShutdown(context.Background())
	assert.Equal(t, []string{"two", "one"}, order)
}

func TestRegisterPanicsAfterFreeze(t *testing.T) {
	t.Parallel()
	r := fairing.NewRegistry()
	r.Freeze()

	assert.Panics(t, func() {
		_ = r.Register(shutdownFairing{name: "late", order: &[]string{}})
	})
}

func TestRunIgniteStopsAtFirstError(t *testing.T) {
	t.Parallel()
	r := fairing.NewRegistry()

	var ranSecond bool
	first := igniteFairing{name: "first", err: errors.New("nope")}
	second := igniteFairing{name: "second", onIgnite: func() { ranSecond = true }}

	require.NoError(t, r.Register(first))
	require.NoError(t, r.Register(second))

	err := r.RunIgnite(context.Background())
	require.Error(t, err)
	assert.False(t, ranSecond)
}

type igniteFairing struct {
	name     string
	err      error
	onIgnite func()
}

func (f igniteFairing) Name() string { return f.name }
func (f igniteFairing) Ignite(context.Context) error {
	if f.onIgnite != nil {
		f.onIgnite()
	}
	return f.err
}
