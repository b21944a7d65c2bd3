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

package router

import (
	"strconv"
	"strings"

	"github.com/rivaas-dev/corehttp/route"
)

// formatMatches reports whether a descriptor's format predicate is
// satisfied by the concrete request: Consumes (if set) must match the
// request Content-Type, and Produces (if set) must be acceptable per
// the request's Accept header, adapted from router.Context's
// Accepts/matchMediaType quality-and-specificity algorithm, simplified
// here to a yes/no test since a full descriptor either participates in
// this request or it doesn't — the "best match among many offers"
// ranking c.Accepts() performs has no analog once a single
// descriptor's single Produces value is the only offer under test.
func formatMatches(f route.FormatPredicate, contentType, accept string) bool {
	if f.Consumes != "" && contentType != "" {
		if !mediaTypeEqualOrSuper(f.Consumes, stripParams(contentType)) {
			return false
		}
	}
	if f.Produces != "" && accept != "" && accept != "*/*" {
		if !acceptsOffer(accept, f.Produces) {
			return false
		}
	}
	return true
}

func stripParams(mediaType string) string {
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = mediaType[:i]
	}
	return strings.TrimSpace(mediaType)
}

func mediaTypeEqualOrSuper(pattern, concrete string) bool {
	pattern = strings.ToLower(strings.TrimSpace(pattern))
	concrete = strings.ToLower(strings.TrimSpace(concrete))
	if pattern == concrete {
		return true
	}
	pType, pSub, ok := strings.Cut(pattern, "/")
	if !ok {
		return false
	}
	cType, _, ok := strings.Cut(concrete, "/")
	if !ok {
		return false
	}
	return pSub == "*" && pType == cType
}

// acceptsOffer reports whether offer (the descriptor's Produces value)
// satisfies the request's Accept header, directly adapting
// parseAccept/matchMediaType from router/accept.go but returning only
// whether any spec in the header matches with quality > 0, since
// Select needs a boolean filter rather than the best of many offers.
func acceptsOffer(acceptHeader, offer string) bool {
	offerType, offerSub, ok := strings.Cut(strings.ToLower(offer), "/")
	if !ok {
		return false
	}

	for _, part := range strings.Split(acceptHeader, ",") {
		spec, quality := parseAcceptSpec(part)
		if quality <= 0 {
			continue
		}
		specType, specSub, ok := strings.Cut(spec, "/")
		if !ok {
			continue
		}
		if specType == "*" && specSub == "*" {
			return true
		}
		if specType == offerType && specSub == "*" {
			return true
		}
		if specType == offerType && specSub == offerSub {
			return true
		}
	}
	return false
}

func parseAcceptSpec(part string) (mediaType string, quality float64) {
	quality = 1.0
	fields := strings.Split(part, ";")
	mediaType = strings.ToLower(strings.TrimSpace(fields[0]))
	for _, f := range fields[1:] {
		k, v, ok := strings.Cut(f, "=")
		if !ok {
			continue
		}
		if strings.TrimSpace(k) == "q" {
			if q, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				quality = q
			}
		}
	}
	return mediaType, quality
}
