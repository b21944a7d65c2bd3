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

// Package collide implements the pairwise collision relation over route
// descriptors: could a single request match both A and B?
package collide

import (
	"strings"

	"github.com/rivaas-dev/corehttp/route"
)

// Segments reports whether two same-position path segments collide:
// both Static and byte-equal, or either is Single-dynamic, or either is
// Multi-dynamic (absorbing any trailing segments on both sides).
func Segments(a, b route.Segment) bool {
	if a.Kind == route.SegMulti || b.Kind == route.SegMulti {
		return true
	}
	if a.Kind == route.SegSingle || b.Kind == route.SegSingle {
		return true
	}
	return a.Kind == route.SegStatic && b.Kind == route.SegStatic && a.Value == b.Value
}

// Path reports whether two patterns' paths collide: aligning segments,
// each paired position segment-collides, and tail absorption is
// consistent.
func Path(a, b *route.Pattern) bool {
	ap, bp := a.Path, b.Path
	i := 0
	for i < len(ap) && i < len(bp) {
		if ap[i].Kind == route.SegMulti || bp[i].Kind == route.SegMulti {
			// Remaining segments on both sides are absorbed by the
			// multi-dynamic; collision holds regardless of what follows.
			return true
		}
		if !Segments(ap[i], bp[i]) {
			return false
		}
		i++
	}
	// Equal length consumed with no multi-dynamic triggered above.
	if len(ap) == len(bp) {
		return true
	}
	// Unequal length: only a trailing Multi-dynamic on the longer side
	// can absorb the remainder.
	if i == len(ap) && i < len(bp) {
		return len(bp)-i == 1 && bp[i].Kind == route.SegMulti
	}
	if i == len(bp) && i < len(ap) {
		return len(ap)-i == 1 && ap[i].Kind == route.SegMulti
	}
	return false
}

// Query reports whether two patterns' query parts collide: for every
// Query-static present in both, keys must match; a Query-multi on
// either side absorbs the other's remaining dynamic keys, so
// Query-single names never themselves block collision — only
// conflicting Query-static values do. Two query-less patterns collide
// trivially.
func Query(a, b *route.Pattern) bool {
	if len(a.Query) == 0 && len(b.Query) == 0 {
		return true
	}

	aStatic := staticQuery(a.Query)
	bStatic := staticQuery(b.Query)

	for k, v := range aStatic {
		if bv, ok := bStatic[k]; ok && bv != v {
			return false
		}
	}
	return true
}

func staticQuery(segs []route.Segment) map[string]string {
	static := map[string]string{}
	for _, s := range segs {
		if s.Kind == route.SegQueryStatic {
			static[s.Key] = s.Value
		}
	}
	return static
}

// formatAxis reports whether two format predicates collide on one axis:
// both absent, equal, or one a super-type (e.g. "text/*" vs "text/html").
// Axis is either Consumes or Produces, made explicit rather than
// conflated.
func formatAxis(a, b string) bool {
	if a == "" || b == "" {
		return true
	}
	if a == b {
		return true
	}
	return isSuperType(a, b) || isSuperType(b, a)
}

// isSuperType reports whether sup is a wildcard super-type of sub, e.g.
// "text/*" is a super-type of "text/html", and "*/*" is a super-type of
// anything.
func isSuperType(sup, sub string) bool {
	if sup == "*/*" {
		return true
	}
	supType, supSub, ok := strings.Cut(sup, "/")
	if !ok {
		return false
	}
	subType, _, ok := strings.Cut(sub, "/")
	if !ok {
		return false
	}
	return supSub == "*" && supType == subType
}

// Format reports whether two descriptors' format predicates collide on
// both axes.
func Format(a, b route.FormatPredicate) bool {
	return formatAxis(a.Consumes, b.Consumes) && formatAxis(a.Produces, b.Produces)
}

// Full reports whether two descriptors fully collide: same method, and
// path collides, and query collides, and format collides. Full is
// symmetric and reflexive: Full(a,b) == Full(b,a), and Full(a,a) is
// always true for any normalized descriptor a.
func Full(a, b *route.Descriptor) bool {
	if a.Method() != b.Method() {
		return false
	}
	if !Path(a.Pattern(), b.Pattern()) {
		return false
	}
	if !Query(a.Pattern(), b.Pattern()) {
		return false
	}
	return Format(a.Format(), b.Format())
}
