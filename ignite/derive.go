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

package ignite

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// DeriveKey derives a purpose-scoped sub-key of length bytes from the
// application's secret key using HKDF-SHA256, so a single configured
// secret_key can back several independent uses (e.g. request-id HMACs,
// signed cookies) without reusing raw key material across purposes.
// info should be a short, stable, purpose-specific label.
func DeriveKey(secretKey []byte, info string, length int) ([]byte, error) {
	if len(secretKey) < minSecretKeyBytes {
		return nil, fmt.Errorf("ignite: secret key too short to derive from (%d bytes)", len(secretKey))
	}
	reader := hkdf.New(sha256.New, secretKey, nil, []byte(info))
	out := make([]byte, length)
	if _, err := io.ReadFull(reader, out); err != nil {
		return nil, fmt.Errorf("ignite: key derivation failed: %w", err)
	}
	return out, nil
}
