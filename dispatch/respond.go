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

package dispatch

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rivaas-dev/corehttp/catcher"
	"github.com/rivaas-dev/corehttp/reqctx"
)

// writeProblem serializes p as the response body, setting the status
// line and Content-Type from the Problem itself.
func writeProblem(e *reqctx.Exchange, p catcher.Problem) {
	body, err := json.Marshal(p)
	if err != nil {
		e.SetHeader("Content-Type", "application/problem+json; charset=utf-8")
		e.WriteHeader(500)
		_, _ = e.ResponseWriter().Write([]byte(`{"title":"internal error","status":500}`))
		return
	}
	e.SetHeader("Content-Type", p.ContentType)
	e.WriteHeader(p.Status)
	_, _ = e.ResponseWriter().Write(body)
}

// byteRange is a single inclusive [start, end] range within a resource
// of the given total length.
type byteRange struct {
	start, end int64
}

// errMalformedRange is returned by parseRange when the Range header
// cannot be satisfied, and implements catcher.ErrorType so it maps
// straight to a 416 without any bespoke handling in the dispatcher.
type errMalformedRange struct{ header string }

func (e errMalformedRange) Error() string   { return fmt.Sprintf("dispatch: malformed Range header %q", e.header) }
func (e errMalformedRange) HTTPStatus() int { return 416 }

// ServeRange writes content (already loaded into memory by the caller)
// honoring a single-range "Range: bytes=start-end" request header. It
// supports exactly one byte-range-spec: a request for multiple ranges
// is treated as malformed; no multipart/byteranges response is built.
// A malformed or unsatisfiable Range header fails with
// errMalformedRange, which the catcher table turns into a 416; the
// Content-Range: bytes */len header is set before failing.
func ServeRange(e *reqctx.Exchange, contentType string, content []byte) Result {
	e.SetHeader("Accept-Ranges", "bytes")

	header := e.Header("Range")
	if header == "" {
		e.SetHeader("Content-Type", contentType)
		e.SetHeader("Content-Length", strconv.Itoa(len(content)))
		e.WriteHeader(200)
		_, _ = e.ResponseWriter().Write(content)
		return Respond()
	}

	r, err := parseRange(header, int64(len(content)))
	if err != nil {
		var malformed errMalformedRange
		if errors.As(err, &malformed) {
			e.SetHeader("Content-Range", fmt.Sprintf("bytes */%d", len(content)))
		}
		return FailResult(err)
	}

	e.SetHeader("Content-Type", contentType)
	e.SetHeader("Content-Range", fmt.Sprintf("bytes %d-%d/%d", r.start, r.end, len(content)))
	e.SetHeader("Content-Length", strconv.FormatInt(r.end-r.start+1, 10))
	e.WriteHeader(206)
	_, _ = e.ResponseWriter().Write(content[r.start : r.end+1])
	return Respond()
}

// parseRange parses a "bytes=start-end" header against a resource of
// size total, rejecting multi-range requests by serving the first
// range only is not attempted here: any comma in the spec is treated
// as malformed, since a correct single-range server has no safe
// partial interpretation of a multi-range ask.
func parseRange(header string, total int64) (byteRange, error) {
	const prefix = "bytes="
	if !strings.HasPrefix(header, prefix) {
		return byteRange{}, errMalformedRange{header: header}
	}
	spec := strings.TrimPrefix(header, prefix)
	if strings.Contains(spec, ",") {
		return byteRange{}, errMalformedRange{header: header}
	}

	parts := strings.SplitN(spec, "-", 2)
	if len(parts) != 2 {
		return byteRange{}, errMalformedRange{header: header}
	}

	var start, end int64
	var err error
	switch {
	case parts[0] == "" && parts[1] == "":
		return byteRange{}, errMalformedRange{header: header}
	case parts[0] == "":
		// suffix range: last N bytes
		n, perr := strconv.ParseInt(parts[1], 10, 64)
		if perr != nil || n <= 0 {
			return byteRange{}, errMalformedRange{header: header}
		}
		if n > total {
			n = total
		}
		start = total - n
		end = total - 1
	default:
		start, err = strconv.ParseInt(parts[0], 10, 64)
		if err != nil || start < 0 {
			return byteRange{}, errMalformedRange{header: header}
		}
		if parts[1] == "" {
			end = total - 1
		} else {
			end, err = strconv.ParseInt(parts[1], 10, 64)
			if err != nil || end < start {
				return byteRange{}, errMalformedRange{header: header}
			}
		}
	}

	if total == 0 || start >= total {
		return byteRange{}, errMalformedRange{header: header}
	}
	if end >= total {
		end = total - 1
	}
	return byteRange{start: start, end: end}, nil
}
