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

// Package codec provides pluggable encode/decode support for the
// configuration formats the loader accepts.
package codec

// Type identifies a registered codec.
type Type string

// Decoder converts encoded bytes into a Go value.
type Decoder interface {
	Decode(data []byte, v any) error
}

// Encoder converts a Go value into encoded bytes.
type Encoder interface {
	Encode(v any) ([]byte, error)
}
