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
	"github.com/spf13/cast"

	"github.com/rivaas-dev/corehttp/reqctx"
)

// Int builds a PathExtractor that coerces a single dynamic path
// segment to int, using spf13/cast for the same loose-but-explicit
// coercion the config package applies to environment overrides,
// rather than a bespoke strconv wrapper. A segment that doesn't parse
// Forwards rather than Fails, so a lower-preference descriptor (e.g. a
// string-typed catch-all) still gets a chance at the same request.
func Int() PathExtractor[int] {
	return PathFunc[int](func(_ *reqctx.Exchange, raw string) Outcome[int] {
		v, err := cast.ToIntE(raw)
		if err != nil {
			return Fwd[int]()
		}
		return Ok(v)
	})
}

// Int64 builds a PathExtractor that coerces a single dynamic path
// segment to int64. A segment that doesn't parse Forwards, matching
// Int.
func Int64() PathExtractor[int64] {
	return PathFunc[int64](func(_ *reqctx.Exchange, raw string) Outcome[int64] {
		v, err := cast.ToInt64E(raw)
		if err != nil {
			return Fwd[int64]()
		}
		return Ok(v)
	})
}

// String builds a PathExtractor that passes the raw segment through
// unchanged; it never fails and never forwards.
func String() PathExtractor[string] {
	return PathFunc[string](func(_ *reqctx.Exchange, raw string) Outcome[string] {
		return Ok(raw)
	})
}

// Bool builds a QueryExtractor that coerces the first value of a
// single-valued query parameter to bool. Absent values, and values
// that don't parse, both Forward so a descriptor with an optional or
// differently-typed flag can still match.
func Bool() QueryExtractor[bool] {
	return QueryFunc[bool](func(_ *reqctx.Exchange, raw []string) Outcome[bool] {
		if len(raw) == 0 {
			return Fwd[bool]()
		}
		v, err := cast.ToBoolE(raw[0])
		if err != nil {
			return Fwd[bool]()
		}
		return Ok(v)
	})
}

// StringSlice builds a QueryExtractor over a multi-valued query
// parameter (a Query-multi segment), passing every value through
// unchanged.
func StringSlice() QueryExtractor[[]string] {
	return QueryFunc[[]string](func(_ *reqctx.Exchange, raw []string) Outcome[[]string] {
		if len(raw) == 0 {
			return Fwd[[]string]()
		}
		out := make([]string, len(raw))
		copy(out, raw)
		return Ok(out)
	})
}
