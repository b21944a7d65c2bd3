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

package config

import (
	"fmt"
	"time"

	"github.com/rivaas-dev/corehttp/state"
)

// Limits bounds request processing, under the limits.* namespace.
type Limits struct {
	MaxBodyBytes  int64         `config:"max_body_bytes" default:"10485760"`
	ReadTimeout   time.Duration `config:"read_timeout" default:"30s"`
	WriteTimeout  time.Duration `config:"write_timeout" default:"30s"`
	IdleTimeout   time.Duration `config:"idle_timeout" default:"120s"`
}

// TLS configures the optional TLS listener, under the tls.* namespace.
type TLS struct {
	Enabled  bool   `config:"enabled"`
	CertFile string `config:"cert_file"`
	KeyFile  string `config:"key_file"`
}

// AppConfig is the recognized top-level configuration shape: address,
// port, workers, keep_alive, log_level, ctrlc, limits.*, tls.*,
// secret_key, and state.lint_mode, bound via go-viper/mapstructure/v2
// the same way config/config.go binds its own caller-supplied structs.
type AppConfig struct {
	Address    string        `config:"address" default:"0.0.0.0"`
	Port       int           `config:"port" default:"8080"`
	Workers    int           `config:"workers" default:"0"`
	KeepAlive  bool          `config:"keep_alive" default:"true"`
	LogLevel   string        `config:"log_level" default:"info"`
	CtrlC      bool          `config:"ctrlc" default:"true"`
	SecretKey  string        `config:"secret_key"`
	ShutdownTimeout time.Duration `config:"shutdown_timeout" default:"10s"`

	Limits Limits `config:"limits"`
	TLS    TLS    `config:"tls"`
	State  StateConfig `config:"state"`
}

// StateConfig configures the managed-state static lint, consumed by
// state.Check via StateConfig.Mode.
type StateConfig struct {
	LintMode string `config:"lint_mode" default:"warn"`
}

// Mode converts the validated LintMode string into a state.Mode.
func (s StateConfig) Mode() state.Mode { return state.Mode(s.LintMode) }

// Validate implements Validator, checked by Config.Load's
// bindAndValidate before the live values are swapped in.
func (a *AppConfig) Validate() error {
	if a.Port < 0 || a.Port > 65535 {
		return fmt.Errorf("config: port %d out of range", a.Port)
	}
	if a.Workers < 0 {
		return fmt.Errorf("config: workers cannot be negative")
	}
	if a.TLS.Enabled && (a.TLS.CertFile == "" || a.TLS.KeyFile == "") {
		return fmt.Errorf("config: tls.enabled requires cert_file and key_file")
	}
	switch a.State.LintMode {
	case "off", "warn", "enforce":
	default:
		return fmt.Errorf("config: state.lint_mode must be one of off, warn, enforce; got %q", a.State.LintMode)
	}
	return nil
}
