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

// Package uri models the origin-form request-target this module
// matches against: a path of '/'-separated segments plus an optional
// query component, normalized the same way for both incoming requests
// and registered patterns so the two compare equal regardless of
// incidental slash repetition or trailing slashes.
package uri

import (
	"net/url"
	"strings"
)

// Normalize collapses consecutive slashes and strips a trailing slash,
// except at the root, matching the normalization router.Router.Select
// applies to incoming request paths and route.ParsePattern applies to
// registered patterns.
func Normalize(path string) string {
	segments := Split(path)
	if len(segments) == 0 {
		return "/"
	}
	return "/" + strings.Join(segments, "/")
}

// Split breaks a path into its non-empty segments, discarding leading,
// trailing, and repeated slashes.
func Split(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	parts := strings.Split(path, "/")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseQuery decodes a raw query string (without the leading '?') into
// its multi-valued form, used by dispatch to build the query map that
// router.Select tests a pattern's query requirements against.
func ParseQuery(raw string) (map[string][]string, error) {
	return url.ParseQuery(raw)
}

// Decompose splits a raw URI of the form "/a/b?x=1" into its path and
// query components, mirroring the split route.ParsePattern performs on
// pattern strings before parsing the path half.
func Decompose(raw string) (path, query string) {
	path, query, _ = strings.Cut(raw, "?")
	return path, query
}
