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

package ignite

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/semaphore"

	"github.com/rivaas-dev/corehttp/config"
)

// serveOptions configures a Serve call.
type serveOptions struct {
	h2c bool
}

// ServeOption configures Serve.
type ServeOption func(*serveOptions)

// WithH2C enables HTTP/2 cleartext (h2c) support, for use in
// development or behind a trusted proxy that terminates TLS,
// grounded on router/router.go's WithH2C/enableH2C.
func WithH2C(enabled bool) ServeOption {
	return func(o *serveOptions) { o.h2c = enabled }
}

// gatedHandler bounds the number of requests dispatched concurrently
// using a weighted semaphore, so a configured worker count bounds
// dispatch parallelism over a goroutine-per-request net/http listener
// rather than an OS-thread pool.
type gatedHandler struct {
	next http.Handler
	sem  *semaphore.Weighted
}

func (g *gatedHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := g.sem.Acquire(r.Context(), 1); err != nil {
		http.Error(w, "server busy", http.StatusServiceUnavailable)
		return
	}
	defer g.sem.Release(1)
	g.next.ServeHTTP(w, r)
}

// buildHandler wraps handler with worker gating (if cfg.Workers > 0)
// and h2c (if requested), in that order so gating applies uniformly
// regardless of protocol.
func buildHandler(handler http.Handler, cfg *config.AppConfig, opts serveOptions) http.Handler {
	h := handler
	if cfg.Workers > 0 {
		h = &gatedHandler{next: h, sem: semaphore.NewWeighted(int64(cfg.Workers))}
	}
	if opts.h2c {
		h = h2c.NewHandler(h, &http2.Server{})
	}
	return h
}

func buildServer(handler http.Handler, cfg *config.AppConfig, opts serveOptions) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Address, cfg.Port),
		Handler:      buildHandler(handler, cfg, opts),
		ReadTimeout:  cfg.Limits.ReadTimeout,
		WriteTimeout: cfg.Limits.WriteTimeout,
		IdleTimeout:  cfg.Limits.IdleTimeout,
	}
}

// Serve runs handler behind an *http.Server built from cfg, blocking
// until ctx is canceled, then runs Shutdown fairings (LIFO) and shuts
// the server down, draining in-flight requests, within
// cfg.ShutdownTimeout.
// It is adapted from app/server.go's runServer: the caller is expected
// to derive ctx from signal.NotifyContext so OS signals trigger
// graceful shutdown.
//
// If cfg.TLS.Enabled, the server listens with TLS using the configured
// cert/key pair; otherwise it serves plain HTTP, optionally upgraded to
// h2c via WithH2C.
func Serve(ctx context.Context, handler http.Handler, assembled *AssembledApp, cfg *config.AppConfig, logger *slog.Logger, opts ...ServeOption) error {
	var o serveOptions
	for _, opt := range opts {
		opt(&o)
	}

	server := buildServer(handler, cfg, o)

	serverErr := make(chan error, 1)
	go func() {
		var err error
		if cfg.TLS.Enabled {
			err = server.ListenAndServeTLS(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			serverErr <- fmt.Errorf("server failed: %w", err)
			return
		}
		serverErr <- nil
	}()

	if logger != nil {
		logger.Info("server starting", "address", server.Addr, "tls", cfg.TLS.Enabled)
	}

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		if logger != nil {
			logger.Info("server shutting down", "reason", ctx.Err())
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if assembled != nil && assembled.Fairings != nil {
		assembled.Fairings.RunShutdown(shutdownCtx)
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	if logger != nil {
		logger.Info("server exited")
	}
	return nil
}
