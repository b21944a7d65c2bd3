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

package recovery_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rivaas-dev/corehttp/middleware/recovery"
)

func TestHandleReturnsPanicErrorWithHTTPStatus(t *testing.T) {
	p := recovery.New()
	err := p.Handle(context.Background(), "boom")
	require.Error(t, err)

	var statuser interface{ HTTPStatus() int }
	require.ErrorAs(t, err, &statuser)
	assert.Equal(t, http.StatusInternalServerError, statuser.HTTPStatus())
	assert.Contains(t, err.Error(), "boom")
}

func TestHandleInvokesCustomPanicHandler(t *testing.T) {
	var captured any
	p := recovery.New(recovery.WithPanicHandler(func(_ context.Context, value any, _ []byte) {
		captured = value
	}))

	_ = p.Handle(context.Background(), "custom")
	assert.Equal(t, "custom", captured)
}

func TestHandleRespectsStackSizeLimit(t *testing.T) {
	var stackLen int
	p := recovery.New(
		recovery.WithStackSize(16),
		recovery.WithDisableStackAll(true),
		recovery.WithPanicHandler(func(_ context.Context, _ any, stack []byte) {
			stackLen = len(stack)
		}),
	)

	_ = p.Handle(context.Background(), "boom")
	assert.LessOrEqual(t, stackLen, 16)
}

func TestHandleSkipsStackWhenDisabled(t *testing.T) {
	var stackLen int
	called := false
	p := recovery.New(
		recovery.WithStackTrace(false),
		recovery.WithPanicHandler(func(_ context.Context, _ any, stack []byte) {
			called = true
			stackLen = len(stack)
		}),
	)

	_ = p.Handle(context.Background(), "boom")
	assert.True(t, called)
	assert.Zero(t, stackLen)
}
