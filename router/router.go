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

// Package router implements the route table: deferred registration of
// route descriptors behind a radix-tree fast path for O(segment) path
// lookup, an authoritative pairwise collision check run at Freeze, and
// request-time candidate selection ordered by rank then registration
// sequence.
package router

import (
	"fmt"
	"sync/atomic"

	"github.com/rivaas-dev/corehttp/collide"
	"github.com/rivaas-dev/corehttp/route"
	"github.com/rivaas-dev/corehttp/uri"
)

// Router holds the deferred route table. Routes may be added freely
// until Freeze is called; after that, Add panics and Select becomes
// safe for unsynchronized concurrent use, directly mirroring
// router/routes.go's frozen atomic.Bool discipline.
type Router struct {
	root        *node
	descriptors []*route.Descriptor
	seq         uint64
	frozen      atomic.Bool
}

// New returns an empty, unfrozen Router.
func New() *Router {
	return &Router{root: &node{}}
}

// Add parses pattern, builds a Descriptor, inserts it into the radix
// tree, and records it in registration order. The returned Descriptor
// carries the registration sequence number used to break ties between
// otherwise-equal candidates.
func (r *Router) Add(method, pattern string, rank int, format route.FormatPredicate, handler route.HandlerID, dataDeps []string) (*route.Descriptor, error) {
	if r.frozen.Load() {
		panic("router: cannot register routes after the router is frozen")
	}
	p, err := route.ParsePattern(pattern)
	if err != nil {
		return nil, err
	}
	d, err := route.New(method, p, rank, format, handler, dataDeps)
	if err != nil {
		return nil, err
	}
	d = d.WithSeq(r.seq)
	r.seq++

	insert(r.root, p.Path, d)
	r.descriptors = append(r.descriptors, d)
	return d, nil
}

// Collision reports one pair of descriptors that fully collide at an
// equal rank: such a pair is ambiguous at request time and is a
// prelaunch error, not a runtime tie-break.
type Collision struct {
	A, B *route.Descriptor
}

func (c Collision) Error() string {
	return fmt.Sprintf("router: %s %s and %s %s collide at rank %d",
		c.A.Method(), c.A.Pattern().Raw, c.B.Method(), c.B.Pattern().Raw, c.A.ResolvedRank())
}

// Freeze runs the authoritative O(n^2) collision check across every
// registered descriptor, scoped to pairs with equal ResolvedRank, and
// then marks the router immutable. All collisions found are
// returned together, matching app/errors.go's aggregate-don't-fail-fast
// posture for prelaunch diagnostics.
func (r *Router) Freeze() []Collision {
	var collisions []Collision
	for i := 0; i < len(r.descriptors); i++ {
		for j := i + 1; j < len(r.descriptors); j++ {
			a, b := r.descriptors[i], r.descriptors[j]
			if a.ResolvedRank() != b.ResolvedRank() {
				continue
			}
			if collide.Full(a, b) {
				collisions = append(collisions, Collision{A: a, B: b})
			}
		}
	}
	r.frozen.Store(true)
	return collisions
}

// Frozen reports whether Freeze has been called.
func (r *Router) Frozen() bool { return r.frozen.Load() }

// Candidate is one descriptor that matched a request's path, together
// with the path parameters bound while matching it.
type Candidate struct {
	Descriptor *route.Descriptor
	Params     map[string]string
}

// Select returns every candidate descriptor for method/path/contentType
// /accept, ordered by ResolvedRank ascending then registration sequence
// ascending, ready for dispatch to iterate until one's extractors
// all succeed. A HEAD request also matches GET descriptors, appended
// after every true HEAD match, so an explicit HEAD handler takes
// priority over the GET-minus-body fallback.
func (r *Router) Select(method, path string, query map[string][]string, contentType, accept string) []Candidate {
	segments := uri.Split(path)
	matches := collect(r.root, segments)

	var candidates []Candidate
	for _, m := range matches {
		for _, d := range m.node.descriptors {
			if d.Method() != method {
				continue
			}
			if !queryMatches(d.Pattern(), query) {
				continue
			}
			if !formatMatches(d.Format(), contentType, accept) {
				continue
			}
			params := make(map[string]string, len(m.params))
			for i, seg := range d.Pattern().Path {
				switch {
				case seg.Kind == route.SegSingle:
					params[seg.Name] = segments[i]
				case seg.Kind == route.SegMulti && i < len(segments):
					params[seg.Name] = joinTail(segments, i)
				case seg.Kind == route.SegMulti:
					params[seg.Name] = ""
				}
			}
			candidates = append(candidates, Candidate{Descriptor: d, Params: params})
		}
	}

	sortCandidates(candidates)

	if method == "HEAD" {
		getCandidates := r.Select("GET", path, query, contentType, accept)
		candidates = append(candidates, getCandidates...)
	}

	return candidates
}

func sortCandidates(c []Candidate) {
	for i := 1; i < len(c); i++ {
		for j := i; j > 0 && less(c[j], c[j-1]); j-- {
			c[j], c[j-1] = c[j-1], c[j]
		}
	}
}

func less(a, b Candidate) bool {
	ra, rb := a.Descriptor.ResolvedRank(), b.Descriptor.ResolvedRank()
	if ra != rb {
		return ra < rb
	}
	return a.Descriptor.Seq() < b.Descriptor.Seq()
}

// queryMatches reports whether the pattern's query requirements are
// satisfied by the request's concrete query values: every Query-static
// key/value pair must be present, and every Query-single name must
// have at least one value unless a Query-multi is present to absorb
// its absence.
func queryMatches(p *route.Pattern, query map[string][]string) bool {
	for _, seg := range p.Query {
		switch seg.Kind {
		case route.SegQueryStatic:
			values := query[seg.Key]
			found := false
			for _, v := range values {
				if v == seg.Value {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		case route.SegQuerySingle:
			if len(query[seg.Name]) == 0 {
				return false
			}
		}
	}
	return true
}
