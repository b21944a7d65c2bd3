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

import "fmt"

var (
	encoders = map[Type]Encoder{}
	decoders = map[Type]Decoder{}
)

// RegisterEncoder registers an encoder under name.
func RegisterEncoder(name Type, e Encoder) { encoders[name] = e }

// RegisterDecoder registers a decoder under name.
func RegisterDecoder(name Type, d Decoder) { decoders[name] = d }

// GetEncoder looks up a registered encoder.
func GetEncoder(name Type) (Encoder, error) {
	e, ok := encoders[name]
	if !ok {
		return nil, fmt.Errorf("codec: no encoder registered for %q", name)
	}
	return e, nil
}

// GetDecoder looks up a registered decoder.
func GetDecoder(name Type) (Decoder, error) {
	d, ok := decoders[name]
	if !ok {
		return nil, fmt.Errorf("codec: no decoder registered for %q", name)
	}
	return d, nil
}
