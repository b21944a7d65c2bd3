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

// Package main demonstrates the full stack wired together: routes,
// managed state, fairings, a catcher table, a dispatcher, config
// loaded from the environment, structured startup logging, and
// ignite's prelaunch checks and graceful serving, analogous to
// router/examples/03-complete-rest-api in scope but built on this
// module's dispatch model instead of a middleware chain.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"reflect"
	"sync"
	"syscall"

	"github.com/rivaas-dev/corehttp/catcher"
	"github.com/rivaas-dev/corehttp/config"
	"github.com/rivaas-dev/corehttp/corelog"
	"github.com/rivaas-dev/corehttp/dispatch"
	"github.com/rivaas-dev/corehttp/extract"
	"github.com/rivaas-dev/corehttp/fairing"
	"github.com/rivaas-dev/corehttp/ignite"
	"github.com/rivaas-dev/corehttp/middleware/metrics"
	"github.com/rivaas-dev/corehttp/middleware/recovery"
	"github.com/rivaas-dev/corehttp/middleware/requestid"
	"github.com/rivaas-dev/corehttp/middleware/tracing"
	"github.com/rivaas-dev/corehttp/reqctx"
	"github.com/rivaas-dev/corehttp/route"
	"github.com/rivaas-dev/corehttp/router"
	"github.com/rivaas-dev/corehttp/state"
)

// Widget is the example domain type this server manages, kept
// deliberately tiny: the point of this program is to show every
// package wired together, not to model a realistic domain.
type Widget struct {
	ID   int    `json:"id" validate:"required"`
	Name string `json:"name" validate:"required"`
}

// widgetStore is the in-memory backing store for Widget. Handlers
// receive it as the registerHandlers argument rather than through a
// package-level global; it is also mounted into the managed state
// container so the prelaunch state lint can check the declared
// dependency on it.
type widgetStore struct {
	mu     sync.RWMutex
	byID   map[int]Widget
	nextID int
}

func newWidgetStore() *widgetStore {
	return &widgetStore{byID: map[int]Widget{}, nextID: 1}
}

func (s *widgetStore) list() []Widget {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Widget, 0, len(s.byID))
	for _, w := range s.byID {
		out = append(out, w)
	}
	return out
}

func (s *widgetStore) get(id int) (Widget, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.byID[id]
	return w, ok
}

func (s *widgetStore) create(name string) Widget {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := Widget{ID: s.nextID, Name: name}
	s.byID[w.ID] = w
	s.nextID++
	return w
}

// errWidgetNotFound is returned by handlers for an unknown widget id; it
// implements catcher.ErrorType so the dispatcher's Failing path maps
// it to a 404 without a bespoke catcher registration.
type errWidgetNotFound struct{ id int }

func (e errWidgetNotFound) Error() string   { return fmt.Sprintf("widget %d not found", e.id) }
func (e errWidgetNotFound) HTTPStatus() int { return http.StatusNotFound }

// Handler ids resolved through the dispatcher's handler table
// (route.HandlerID), avoiding a descriptor/handler ownership cycle.
const (
	handlerListWidgets route.HandlerID = iota + 1
	handlerGetWidget
	handlerCreateWidget
	handlerHealthz
)

func main() {
	logger, err := corelog.New(
		corelog.WithConsoleHandler(),
		corelog.WithServiceName("exampleserver"),
		corelog.WithLevel(corelog.LevelInfo),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, "corelog: "+err.Error())
		os.Exit(1)
	}

	cfg := &config.AppConfig{}
	loader := config.MustNew(
		config.WithBinding(cfg),
		config.WithEnv("EXAMPLESERVER"),
	)
	if err := loader.Load(context.Background()); err != nil {
		logger.Error("config: failed to load", "error", err)
		os.Exit(1)
	}

	environment := os.Getenv("EXAMPLESERVER_ENVIRONMENT")
	if environment == "" {
		environment = "development"
	}

	r := router.New()
	store := newWidgetStore()
	states := state.New()
	if err := state.Add(states, store); err != nil {
		logger.Error("state: failed to mount widget store", "error", err)
		os.Exit(1)
	}

	mustAdd := func(method, pattern string, handler route.HandlerID) {
		if _, err := r.Add(method, pattern, route.UnsetRank, route.FormatPredicate{}, handler, nil); err != nil {
			logger.Error("router: failed to register route", "method", method, "pattern", pattern, "error", err)
			os.Exit(1)
		}
	}
	mustAdd(http.MethodGet, "/widgets", handlerListWidgets)
	mustAdd(http.MethodGet, "/widgets/<id>", handlerGetWidget)
	mustAdd(http.MethodPost, "/widgets", handlerCreateWidget)
	mustAdd(http.MethodGet, "/healthz", handlerHealthz)

	fairings := fairing.NewRegistry()
	if err := fairings.Register(requestid.New()); err != nil {
		logger.Error("fairing: failed to register requestid", "error", err)
		os.Exit(1)
	}

	metricsRecorder, err := metrics.New(
		metrics.WithServiceName("exampleserver"),
		metrics.WithServiceVersion("0.1.0"),
	)
	if err != nil {
		logger.Error("metrics: failed to initialize", "error", err)
		os.Exit(1)
	}
	if err := fairings.Register(metricsRecorder); err != nil {
		logger.Error("fairing: failed to register metrics", "error", err)
		os.Exit(1)
	}

	tracer := tracing.New(
		tracing.WithServiceName("exampleserver"),
		tracing.WithServiceVersion("0.1.0"),
	)
	if err := fairings.Register(tracer); err != nil {
		logger.Error("fairing: failed to register tracing", "error", err)
		os.Exit(1)
	}

	recoveryPolicy := recovery.New(recovery.WithLogger(logger.Logger()))

	// No catchers need an explicit Register call: every error this
	// server returns (errWidgetNotFound, extract's Failure errors)
	// already flows through catcher.Table.Default's RFC 9457 mapping,
	// which Lookup falls back to automatically.
	catchers := catcher.New()

	d := dispatch.New(r, catchers, fairings, logger.Logger())
	d.Recovery = recoveryPolicy
	registerHandlers(d, store)

	deps := []state.Dependency{{HandlerName: "widgets", Type: reflect.TypeOf(store)}}

	assembled, err := ignite.Assemble(context.Background(), r, fairings, states, deps, cfg, environment, logger.Logger())
	if err != nil {
		logger.Error("ignite: prelaunch checks failed", "error", err)
		os.Exit(1)
	}

	mux := http.NewServeMux()
	mux.Handle("/", d)
	mux.Handle("/metrics", metricsRecorder.Handler())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := ignite.Serve(ctx, mux, assembled, cfg, logger.Logger()); err != nil {
		logger.Error("server: exited with error", "error", err)
		os.Exit(1)
	}
}

func registerHandlers(d *dispatch.Dispatcher, store *widgetStore) {
	d.RegisterHandler(handlerHealthz, func(e *reqctx.Exchange) dispatch.Result {
		writeJSON(e, http.StatusOK, map[string]string{"status": "ok"})
		return dispatch.Respond()
	})

	d.RegisterHandler(handlerListWidgets, func(e *reqctx.Exchange) dispatch.Result {
		writeJSON(e, http.StatusOK, store.list())
		return dispatch.Respond()
	})

	d.RegisterHandler(handlerGetWidget, func(e *reqctx.Exchange) dispatch.Result {
		raw, ok := e.Param("id")
		if !ok {
			return dispatch.ForwardResult()
		}
		out := extract.Int().ExtractPath(e, raw)
		if out.Status == extract.Forward {
			return dispatch.ForwardResult()
		}
		w, ok := store.get(out.Value)
		if !ok {
			return dispatch.FailResult(errWidgetNotFound{id: out.Value})
		}
		writeJSON(e, http.StatusOK, w)
		return dispatch.Respond()
	})

	d.RegisterHandler(handlerCreateWidget, func(e *reqctx.Exchange) dispatch.Result {
		out := extract.JSON[Widget]().ExtractData(e)
		switch out.Status {
		case extract.Failure:
			return dispatch.FailResult(out.Err)
		case extract.Forward:
			return dispatch.ForwardResult()
		}
		created := store.create(out.Value.Name)
		writeJSON(e, http.StatusCreated, created)
		return dispatch.Respond()
	})
}

func writeJSON(e *reqctx.Exchange, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		e.WriteHeader(http.StatusInternalServerError)
		return
	}
	e.SetHeader("Content-Type", "application/json; charset=utf-8")
	e.WriteHeader(status)
	_, _ = e.ResponseWriter().Write(data)
}
