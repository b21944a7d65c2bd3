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

// Package extract implements the three extractor archetypes (path,
// query, data) as a uniform protocol producing a three-way Outcome, and
// resolves data-extractor replay safety with an explicit Replayable
// method.
package extract

import (
	"fmt"

	"github.com/rivaas-dev/corehttp/reqctx"
)

// Status classifies what an extractor decided.
type Status int

const (
	// Success means the extractor produced a usable value.
	Success Status = iota
	// Forward means this extractor declines the request without
	// failing it outright; the dispatcher should try the next
	// colliding descriptor instead of failing the request.
	Forward
	// Failure means the extractor encountered an error that should
	// fail the request (route into the Failing path), e.g. malformed
	// input that cannot simply be forwarded past.
	Failure
)

func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case Forward:
		return "forward"
	case Failure:
		return "failure"
	default:
		return fmt.Sprintf("extract.Status(%d)", int(s))
	}
}

// Outcome is the three-way sum type every extractor returns. Only one
// of Value or Err is meaningful, selected by Status.
type Outcome[T any] struct {
	Status Status
	Value  T
	Err    error
}

// Ok builds a Success outcome.
func Ok[T any](v T) Outcome[T] { return Outcome[T]{Status: Success, Value: v} }

// Fwd builds a Forward outcome.
func Fwd[T any]() Outcome[T] { return Outcome[T]{Status: Forward} }

// Fail builds a Failure outcome.
func Fail[T any](err error) Outcome[T] { return Outcome[T]{Status: Failure, Err: err} }

// PathExtractor pulls a single named dynamic path segment out of the
// matched route's parameters (route.SourcePath).
type PathExtractor[T any] interface {
	ExtractPath(e *reqctx.Exchange, raw string) Outcome[T]
}

// QueryExtractor pulls a query parameter (single or multi) out of the
// request URL (route.SourceQuery).
type QueryExtractor[T any] interface {
	ExtractQuery(e *reqctx.Exchange, raw []string) Outcome[T]
}

// DataExtractor reads and interprets the request body (route.SourceData).
// Replayable reports whether a second call to ExtractData after a
// Forward outcome is safe — i.e. whether the extractor buffers the
// body internally (replayable) or consumes a one-shot stream (not
// replayable). The dispatcher does not consult Replayable: a handler's
// Forward always moves dispatch on to the next candidate, whether or
// not the body has already been consumed.
type DataExtractor[T any] interface {
	ExtractData(e *reqctx.Exchange) Outcome[T]
	Replayable() bool
}

// PathFunc adapts a plain function to PathExtractor.
type PathFunc[T any] func(e *reqctx.Exchange, raw string) Outcome[T]

// ExtractPath implements PathExtractor.
func (f PathFunc[T]) ExtractPath(e *reqctx.Exchange, raw string) Outcome[T] { return f(e, raw) }

// QueryFunc adapts a plain function to QueryExtractor.
type QueryFunc[T any] func(e *reqctx.Exchange, raw []string) Outcome[T]

// ExtractQuery implements QueryExtractor.
func (f QueryFunc[T]) ExtractQuery(e *reqctx.Exchange, raw []string) Outcome[T] { return f(e, raw) }

// BufferedDataFunc adapts a plain function to a replayable DataExtractor,
// for the common case of extractors that read the whole body into
// memory (JSON, form, multipart) rather than streaming it, grounded on
// app/context.go's bindingMetadata.rawBody caching: once the body bytes
// are cached, re-running the decode step is always safe.
type BufferedDataFunc[T any] func(e *reqctx.Exchange) Outcome[T]

// ExtractData implements DataExtractor.
func (f BufferedDataFunc[T]) ExtractData(e *reqctx.Exchange) Outcome[T] { return f(e) }

// Replayable always returns true for BufferedDataFunc.
func (f BufferedDataFunc[T]) Replayable() bool { return true }

// StreamingDataFunc adapts a plain function to a non-replayable
// DataExtractor, for extractors that consume the body as a one-shot
// io.Reader (e.g. piping directly to a decoder without buffering) —
// move-semantics body consumption that this module's data extractors
// otherwise avoid by buffering, but which remains a legitimate
// extractor shape.
type StreamingDataFunc[T any] func(e *reqctx.Exchange) Outcome[T]

// ExtractData implements DataExtractor.
func (f StreamingDataFunc[T]) ExtractData(e *reqctx.Exchange) Outcome[T] { return f(e) }

// Replayable always returns false for StreamingDataFunc.
func (f StreamingDataFunc[T]) Replayable() bool { return false }
