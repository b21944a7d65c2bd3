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

package state

import (
	"fmt"
	"reflect"
)

// Mode controls how Lint reacts to a missing mount, configurable via
// the `state.lint_mode` configuration key.
type Mode string

const (
	// ModeOff skips the lint entirely.
	ModeOff Mode = "off"
	// ModeWarn runs the lint without treating findings as fatal: Check
	// returns nil, and ignite.Assemble logs each finding as a warning.
	ModeWarn Mode = "warn"
	// ModeEnforce runs the lint and treats any finding as a fatal
	// prelaunch error.
	ModeEnforce Mode = "enforce"
)

// Dependency names one handler's declared requirement on a managed-state
// type, as emitted by the descriptor-producing codegen surface, which
// must emit the full declared dynamic parameter set.
type Dependency struct {
	HandlerName string
	Type        reflect.Type
}

// Finding reports one handler whose declared dependency is not mounted.
type Finding struct {
	HandlerName string
	Type        reflect.Type
}

func (f Finding) String() string {
	return fmt.Sprintf("handler %q depends on unmounted state %s", f.HandlerName, f.Type)
}

// Lint checks that every declared dependency is satisfied by c. It
// never mutates c and is safe to call before or after Freeze.
func Lint(c *Container, deps []Dependency) []Finding {
	var findings []Finding
	for _, d := range deps {
		if !c.Has(d.Type) {
			findings = append(findings, Finding{HandlerName: d.HandlerName, Type: d.Type})
		}
	}
	return findings
}

// LintError aggregates Lint findings into a single error, for ModeEnforce.
type LintError struct {
	Findings []Finding
}

func (e *LintError) Error() string {
	if len(e.Findings) == 1 {
		return "state: " + e.Findings[0].String()
	}
	msg := fmt.Sprintf("state: %d unmounted dependencies:", len(e.Findings))
	for _, f := range e.Findings {
		msg += "\n  - " + f.String()
	}
	return msg
}

// Check runs Lint under the given Mode, returning an error only when
// Mode is ModeEnforce and findings exist. Callers that want ModeWarn
// findings for logging should call Lint directly instead.
func Check(c *Container, deps []Dependency, mode Mode) error {
	if mode == ModeOff {
		return nil
	}
	findings := Lint(c, deps)
	if len(findings) == 0 {
		return nil
	}
	if mode == ModeEnforce {
		return &LintError{Findings: findings}
	}
	return nil
}
