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

package codec

import (
	"bytes"
	"fmt"
	"strings"
)

// TypeEnvVar identifies the environment-variable codec: NAME=value
// pairs, one per line, with underscores splitting nesting levels.
const TypeEnvVar Type = "env_var"

func init() {
	RegisterDecoder(TypeEnvVar, EnvVarCodec{})
}

// EnvVarCodec decodes a block of KEY=value lines into a nested map,
// lower-casing each underscore-separated segment of the key.
type EnvVarCodec struct{}

func (EnvVarCodec) Encode(any) ([]byte, error) {
	return nil, fmt.Errorf("codec: environment variables are read-only")
}

func (EnvVarCodec) Decode(data []byte, v any) error {
	out := map[string]any{}

	for _, line := range bytes.Split(data, []byte("\n")) {
		pair := strings.SplitN(string(line), "=", 2)
		if len(pair) != 2 {
			continue
		}
		key := strings.TrimSpace(pair[0])
		if key == "" {
			continue
		}

		var parts []string
		for _, p := range strings.Split(strings.ToLower(key), "_") {
			if p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) == 0 {
			continue
		}

		cur := out
		for _, p := range parts[:len(parts)-1] {
			next, ok := cur[p].(map[string]any)
			if !ok {
				next = map[string]any{}
				cur[p] = next
			}
			cur = next
		}
		cur[parts[len(parts)-1]] = strings.TrimSpace(pair[1])
	}

	ptr, ok := v.(*map[string]any)
	if !ok {
		return fmt.Errorf("codec: EnvVarCodec.Decode expects *map[string]any, got %T", v)
	}
	*ptr = out
	return nil
}
