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

// Package requestid implements a Request fairing that assigns or
// accepts a correlation id for every inbound request, making it
// available to later fairings and handlers via the exchange's scratch
// store.
package requestid

import (
	"context"

	"github.com/google/uuid"

	"github.com/rivaas-dev/corehttp/fairing"
)

// scratchKey is the key the request id is stored under in an exchange's
// scratch map (reqctx.Exchange.Scratch).
const scratchKey = "requestid.id"

// config holds the middleware's configuration.
type config struct {
	headerName    string
	generator     func() string
	allowClientID bool
}

// Option configures a Middleware.
type Option func(*config)

func defaultConfig() *config {
	return &config{
		headerName:    "X-Request-ID",
		generator:     generateUUID,
		allowClientID: true,
	}
}

func generateUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Middleware is a fairing.RequestFairing that stamps every request with
// a correlation id, adapted from
// router/middleware/requestid/requestid.go's config/New.
type Middleware struct {
	cfg *config
}

// New builds a Middleware from opts.
func New(opts ...Option) *Middleware {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &Middleware{cfg: cfg}
}

// Name implements fairing.Fairing.
func (m *Middleware) Name() string { return "requestid" }

// headerWriter and scratchStore are the richer capabilities a concrete
// fairing.RequestView may offer beyond the narrow interface itself,
// mirrored on dispatch.statusHint's optional-interface type assertion
// against errors.
type headerWriter interface {
	SetHeader(key, value string)
}

type scratchStore interface {
	Scratch() map[string]any
}

// Request implements fairing.RequestFairing: it reads an existing id
// from the configured header if client ids are allowed, otherwise
// generates one, writes it back to the response header, and stashes it
// in the exchange's scratch store for later retrieval via Get.
func (m *Middleware) Request(_ context.Context, req fairing.RequestView) error {
	var id string
	if m.cfg.allowClientID {
		id = req.Header(m.cfg.headerName)
	}
	if id == "" {
		id = m.cfg.generator()
	}

	if hw, ok := req.(headerWriter); ok {
		hw.SetHeader(m.cfg.headerName, id)
	}
	if ss, ok := req.(scratchStore); ok {
		ss.Scratch()[scratchKey] = id
	}
	return nil
}

// Get retrieves the request id stashed by Request, or "" if none was
// set (e.g. the fairing wasn't registered, or req doesn't implement
// scratchStore).
func Get(req fairing.RequestView) string {
	ss, ok := req.(scratchStore)
	if !ok {
		return ""
	}
	id, _ := ss.Scratch()[scratchKey].(string)
	return id
}
