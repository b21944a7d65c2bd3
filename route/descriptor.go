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

package route

import "fmt"

// FormatPredicate makes the Content-Type/Accept axes explicit: Consumes
// gates payload methods against the request Content-Type, Produces
// gates response selection against Accept. Either may be empty,
// meaning "no constraint on this axis".
type FormatPredicate struct {
	Consumes string
	Produces string
}

func (f FormatPredicate) IsZero() bool {
	return f.Consumes == "" && f.Produces == ""
}

// HandlerID is an opaque identifier resolved through a handler table,
// avoiding an ownership cycle between descriptors and the handler they
// name.
type HandlerID uint32

// Descriptor is an immutable route registration record. Once
// constructed by New, none of its exported accessors allow mutation;
// only the owning Router may append it to a bucket.
type Descriptor struct {
	method  string
	pattern *Pattern
	rank    int
	format  FormatPredicate
	handler HandlerID
	index   map[string]Source

	// seq is the registration sequence number, used as the router's
	// stable tie-break for equal ranks.
	seq uint64
}

// UnsetRank is the sentinel passed to New when the caller wants the
// router to choose a rank from pattern specificity by default. It is
// resolved to a concrete int by Descriptor.ResolvedRank once all
// path/format/query information is available, and is never itself a
// value a collision check compares.
const UnsetRank = int(^uint(0) >> 1) // math.MaxInt, reused as a sentinel

// New constructs an immutable Descriptor. dataDeps names parameters (or
// pseudo-names) that are satisfied by a data extractor rather than a
// captured path/query segment; they are recorded in the index with
// Source{Kind: SourceData} so static lint and introspection can see them.
func New(method string, pattern *Pattern, rank int, format FormatPredicate, handler HandlerID, dataDeps []string) (*Descriptor, error) {
	idx := map[string]Source{}
	for i, seg := range pattern.Path {
		switch seg.Kind {
		case SegSingle, SegMulti:
			idx[seg.Name] = Source{Kind: SourcePath, Path: i}
		}
	}
	for _, seg := range pattern.Query {
		switch seg.Kind {
		case SegQuerySingle, SegQueryMulti:
			if _, exists := idx[seg.Name]; exists {
				return nil, fmt.Errorf("route: parameter %q already bound to a path segment", seg.Name)
			}
			idx[seg.Name] = Source{Kind: SourceQuery}
		}
	}
	for _, name := range dataDeps {
		if _, exists := idx[name]; exists {
			return nil, fmt.Errorf("route: parameter %q already bound", name)
		}
		idx[name] = Source{Kind: SourceData}
	}

	return &Descriptor{
		method:  method,
		pattern: pattern,
		rank:    rank,
		format:  format,
		handler: handler,
		index:   idx,
	}, nil
}

func (d *Descriptor) Method() string             { return d.method }
func (d *Descriptor) Pattern() *Pattern           { return d.pattern }
func (d *Descriptor) Rank() int                   { return d.rank }
func (d *Descriptor) Format() FormatPredicate     { return d.format }
func (d *Descriptor) Handler() HandlerID          { return d.handler }
func (d *Descriptor) Index() map[string]Source    { return d.index }
func (d *Descriptor) Seq() uint64                 { return d.seq }
func (d *Descriptor) WithSeq(seq uint64) *Descriptor {
	cp := *d
	cp.seq = seq
	return &cp
}

// ResolvedRank returns the descriptor's effective rank: the explicit
// Rank if one was given, otherwise a specificity score (more Static
// segments => lower/preferred; Single-dynamic preferred over
// Multi-dynamic; an explicit format predicate preferred over none;
// declared query segments preferred over none when the pattern has
// any). The returned value is what the router sorts buckets by; it is
// intentionally coarse (not a total order by itself) — the router
// breaks remaining ties by registration sequence.
func (d *Descriptor) ResolvedRank() int {
	if d.rank != UnsetRank {
		return d.rank
	}
	score := 0
	score -= d.pattern.StaticSegmentCount() * 100
	if d.pattern.HasMulti() {
		score += 10
	}
	if !d.format.IsZero() {
		score -= 5
	}
	if len(d.pattern.Query) > 0 {
		score -= 1
	}
	return score
}

// HasExplicitRank reports whether Rank was given explicitly rather than
// left for specificity-based resolution.
func (d *Descriptor) HasExplicitRank() bool {
	return d.rank != UnsetRank
}
