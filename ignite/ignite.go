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

// Package ignite implements application assembly and ignition:
// freezing the router, running Attach and Ignite fairings, checking
// managed-state dependencies, and validating the secret key, all
// collected into a single aggregate error before the server is ever
// allowed to start serving. Serving and graceful shutdown live in
// serve.go, adapted from app/server.go's runServer.
package ignite

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rivaas-dev/corehttp/config"
	"github.com/rivaas-dev/corehttp/fairing"
	"github.com/rivaas-dev/corehttp/router"
	"github.com/rivaas-dev/corehttp/state"
)

// minSecretKeyBytes is the minimum decoded length a supplied secret_key
// must have: a 256-bit minimum.
const minSecretKeyBytes = 32

// developmentEnvironments lists the environment names exempt from the
// secret-key requirement, mirroring a "debug" profile exemption.
var developmentEnvironments = map[string]bool{
	"debug":       true,
	"development": true,
	"dev":         true,
}

// InsecureConfiguration reports a prelaunch configuration unsafe to run
// with, currently limited to a missing or undersized secret_key outside
// a development environment.
type InsecureConfiguration struct {
	Reason string
}

func (e *InsecureConfiguration) Error() string {
	return fmt.Sprintf("insecure configuration: %s", e.Reason)
}

// LaunchError aggregates every prelaunch failure Assemble discovers:
// route collisions, Attach fairing failures, an insecure secret key, and
// unmounted managed-state dependencies. It is collected in full rather
// than failing on the first error, adapted from app/errors.go's
// ValidationError.
type LaunchError struct {
	Errs []error
}

// Add appends err to the aggregate if it is non-nil.
func (e *LaunchError) Add(err error) {
	if err != nil {
		e.Errs = append(e.Errs, err)
	}
}

// HasErrors reports whether any failure was collected.
func (e *LaunchError) HasErrors() bool {
	return len(e.Errs) > 0
}

// ToError returns nil if no failure was collected, else e.
func (e *LaunchError) ToError() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}

func (e *LaunchError) Error() string {
	if len(e.Errs) == 1 {
		return e.Errs[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "ignite: %d prelaunch failures:", len(e.Errs))
	for i, err := range e.Errs {
		fmt.Fprintf(&b, "\n  %d. %s", i+1, err)
	}
	return b.String()
}

// Unwrap exposes the collected failures to errors.Is/errors.As.
func (e *LaunchError) Unwrap() []error {
	return e.Errs
}

// AssembledApp is the result of a successful Assemble call: a router
// whose collision check passed, a frozen fairing registry whose Attach
// and Ignite fairings have already run, a frozen state container, and
// the validated (or freshly generated) secret key material.
type AssembledApp struct {
	Router    *router.Router
	Fairings  *fairing.Registry
	State     *state.Container
	SecretKey []byte
}

// Assemble runs every prelaunch check this module requires and returns
// an *AssembledApp only if all of them pass. environment selects
// whether a missing secret_key is fatal (anything but a development
// environment name) or merely generates an ephemeral key with a
// warning, mirroring the debug-profile exemption above.
//
// Assemble takes ownership of freezing r, fairings, and states; callers
// must not call their own Freeze beforehand.
func Assemble(
	ctx context.Context,
	r *router.Router,
	fairings *fairing.Registry,
	states *state.Container,
	deps []state.Dependency,
	cfg *config.AppConfig,
	environment string,
	logger *slog.Logger,
) (*AssembledApp, error) {
	launch := &LaunchError{}

	for _, c := range r.Freeze() {
		launch.Add(c)
	}

	for _, f := range fairings.RunAttach(ctx) {
		launch.Add(f)
	}
	fairings.Freeze()

	states.Freeze()
	launch.Add(state.Check(states, deps, cfg.State.Mode()))
	if cfg.State.Mode() == state.ModeWarn && logger != nil {
		for _, f := range state.Lint(states, deps) {
			logger.Warn("state: " + f.String())
		}
	}

	secretKey, err := validateSecretKey(cfg.SecretKey, environment, logger)
	launch.Add(err)

	if launch.HasErrors() {
		return nil, launch
	}

	if err := fairings.RunIgnite(ctx); err != nil {
		return nil, &LaunchError{Errs: []error{err}}
	}

	return &AssembledApp{
		Router:    r,
		Fairings:  fairings,
		State:     states,
		SecretKey: secretKey,
	}, nil
}

// validateSecretKey enforces the minimum secret key strength check.
// A configured key must base64-decode to at least 256 bits. An absent
// key is tolerated only in a development environment, where an
// ephemeral key is minted for the process lifetime and a warning is
// logged; everywhere else it is fatal.
func validateSecretKey(encoded, environment string, logger *slog.Logger) ([]byte, error) {
	if encoded == "" {
		if developmentEnvironments[strings.ToLower(environment)] {
			key := make([]byte, minSecretKeyBytes)
			if _, err := rand.Read(key); err != nil {
				return nil, fmt.Errorf("ignite: failed to generate ephemeral secret key: %w", err)
			}
			if logger != nil {
				logger.Warn("secret_key not configured; generated an ephemeral key for this process",
					"environment", environment)
			}
			return key, nil
		}
		return nil, &InsecureConfiguration{
			Reason: fmt.Sprintf("secret_key is required outside a development environment (got %q)", environment),
		}
	}

	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, &InsecureConfiguration{Reason: "secret_key must be valid base64: " + err.Error()}
	}
	if len(key) < minSecretKeyBytes {
		return nil, &InsecureConfiguration{
			Reason: fmt.Sprintf("secret_key must decode to at least %d bytes, got %d", minSecretKeyBytes, len(key)),
		}
	}
	return key, nil
}
