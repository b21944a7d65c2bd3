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

package extract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"

	"github.com/rivaas-dev/corehttp/reqctx"
)

// ErrUnsupportedContentType reports a body whose Content-Type the JSON
// data extractor does not handle, adapted from
// binding.ErrUnsupportedContentType.
var ErrUnsupportedContentType = errors.New("extract: unsupported content type")

var sharedValidate = validator.New(validator.WithRequiredStructEnabled())

// JSON builds a replayable DataExtractor that decodes and validates a
// JSON request body into T, grounded on app/context.go's cached
// rawBody + validation pipeline but using go-playground/validator
// directly rather than a bespoke validation package, since this
// module pulls validator in as its own direct dependency.
func JSON[T any]() DataExtractor[T] {
	return BufferedDataFunc[T](func(e *reqctx.Exchange) Outcome[T] {
		var out T

		ct := e.Request().Header.Get("Content-Type")
		if ct != "" && !isJSONContentType(ct) {
			return Fail[T](fmt.Errorf("%w: %s", ErrUnsupportedContentType, ct))
		}

		body, err := cachedBody(e)
		if err != nil {
			return Fail[T](err)
		}
		if len(body) == 0 {
			return Fail[T](errors.New("extract: empty request body"))
		}

		dec := json.NewDecoder(bytes.NewReader(body))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&out); err != nil {
			return Fail[T](fmt.Errorf("extract: decode json: %w", err))
		}
		if err := sharedValidate.Struct(out); err != nil {
			return Fail[T](fmt.Errorf("extract: validate: %w", err))
		}
		return Ok(out)
	})
}

func isJSONContentType(ct string) bool {
	for i := 0; i < len(ct); i++ {
		if ct[i] == ';' {
			ct = ct[:i]
			break
		}
	}
	return ct == "application/json" || ct == "text/json"
}

// cachedBody reads the request body once and stashes it in the
// exchange's scratch store so a later extractor (or a retried
// collision candidate) can replay it without a second read, directly
// adapting app/context.go's bindingMetadata.rawBody cache.
func cachedBody(e *reqctx.Exchange) ([]byte, error) {
	const key = "extract.rawBody"
	if v, ok := e.ScratchGet(key); ok {
		return v.([]byte), nil
	}
	body, err := io.ReadAll(e.Request().Body)
	if err != nil {
		return nil, fmt.Errorf("extract: read body: %w", err)
	}
	e.Scratch()[key] = body
	return body, nil
}

