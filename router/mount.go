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
	"strings"

	"github.com/rivaas-dev/corehttp/route"
)

// Mount copies every descriptor registered on sub into r with prefix
// prepended to its raw pattern. Because Add re-parses the prefixed raw
// pattern string rather than splicing parsed Segment slices together,
// mounting "/a" then a route "/b" on sub is byte-for-byte the same
// registration as adding "/a/b" directly to r.
func (r *Router) Mount(prefix string, sub *Router) error {
	if sub == nil {
		return nil
	}
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" || prefix[0] != '/' {
		prefix = "/" + prefix
	}

	for _, d := range sub.descriptors {
		raw := d.Pattern().Raw
		merged := prefix + raw
		if raw == "" || raw == "/" {
			merged = prefix
		}
		if _, err := r.Add(d.Method(), merged, d.Rank(), d.Format(), d.Handler(), dataDeps(d)); err != nil {
			return err
		}
	}
	return nil
}

func dataDeps(d *route.Descriptor) []string {
	var names []string
	for name, src := range d.Index() {
		if src.Kind == route.SourceData {
			names = append(names, name)
		}
	}
	return names
}

// Group returns a *Router sharing no state with r, meant to be built up
// independently and merged in with Mount once complete: a "build a
// subrouter, then Mount it" shape with no inherited middleware chain,
// since middleware composition is a fairing.Registry concern
// (fairing.Request) in this design rather than a per-route
// handler-chain concept.
func Group() *Router {
	return New()
}
