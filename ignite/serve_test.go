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

package ignite_test

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rivaas-dev/corehttp/config"
	"github.com/rivaas-dev/corehttp/fairing"
	"github.com/rivaas-dev/corehttp/ignite"
)

type shutdownSpy struct{ ran atomic.Bool }

func (s *shutdownSpy) Name() string { return "spy" }
func (s *shutdownSpy) Shutdown(_ context.Context) {
	s.ran.Store(true)
}

func TestServeShutsDownGracefullyOnContextCancel(t *testing.T) {
	t.Parallel()

	reg := fairing.NewRegistry()
	spy := &shutdownSpy{}
	require.NoError(t, reg.Register(spy))

	cfg := &config.AppConfig{
		Address:         "127.0.0.1",
		Port:            0,
		ShutdownTimeout: 2 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	assembled := &ignite.AssembledApp{Fairings: reg}

	done := make(chan error, 1)
	go func() {
		done <- ignite.Serve(ctx, handler, assembled, cfg, nil)
	}()

	// Give the listener goroutine a moment to start, then trigger shutdown.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not return after context cancellation")
	}

	assert.True(t, spy.ran.Load())
}
