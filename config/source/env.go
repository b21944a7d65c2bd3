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

package source

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rivaas-dev/corehttp/config/codec"
)

// OSEnvVar loads configuration from environment variables sharing a
// common prefix, turning APP_SERVER_PORT (prefix "APP_") into the key
// server.port.
type OSEnvVar struct {
	prefix  string
	decoder codec.Decoder
}

// NewOSEnvVar returns an OSEnvVar source scoped to prefix.
func NewOSEnvVar(prefix string) *OSEnvVar {
	return &OSEnvVar{prefix: prefix, decoder: codec.EnvVarCodec{}}
}

func (e *OSEnvVar) Load(context.Context) (map[string]any, error) {
	var matched []string
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, e.prefix) {
			matched = append(matched, strings.TrimPrefix(kv, e.prefix))
		}
	}

	out := map[string]any{}
	if err := e.decoder.Decode([]byte(strings.Join(matched, "\n")), &out); err != nil {
		return nil, fmt.Errorf("config: decode environment: %w", err)
	}
	return out, nil
}
