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

	"github.com/rivaas-dev/corehttp/config/codec"
)

// File loads configuration from a file path, or from an in-memory
// byte slice when constructed via NewFileContent.
type File struct {
	path    string
	data    []byte
	decoder codec.Decoder
}

// NewFile returns a File source that reads path on every Load.
func NewFile(path string, decoder codec.Decoder) *File {
	return &File{path: path, decoder: decoder}
}

// NewFileContent returns a File source that decodes data directly,
// useful for configuration embedded at build time.
func NewFileContent(data []byte, decoder codec.Decoder) *File {
	return &File{data: data, decoder: decoder}
}

func (f *File) Load(context.Context) (map[string]any, error) {
	data := f.data
	if f.path != "" {
		var err error
		data, err = os.ReadFile(f.path)
		if err != nil {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	out := map[string]any{}
	if err := f.decoder.Decode(data, &out); err != nil {
		return nil, fmt.Errorf("config: decode file: %w", err)
	}
	return out, nil
}
