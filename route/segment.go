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

// Package route defines the immutable route descriptor and the URI
// pattern grammar that descriptors are compiled from.
package route

import (
	"fmt"
	"strings"
)

// SegmentKind classifies a single path or query segment of a pattern.
type SegmentKind uint8

const (
	SegStatic SegmentKind = iota
	SegSingle
	SegMulti
	SegQueryStatic
	SegQuerySingle
	SegQueryMulti
)

// Segment is one element of a parsed URI pattern.
type Segment struct {
	Kind  SegmentKind
	Name  string // parameter name for dynamic kinds
	Value string // literal text for static kinds, or the value half of a query-static key=value
	Key   string // query key, for query-static
}

func (s Segment) String() string {
	switch s.Kind {
	case SegStatic:
		return s.Value
	case SegSingle:
		return "<" + s.Name + ">"
	case SegMulti:
		return "<" + s.Name + "..>"
	case SegQueryStatic:
		return s.Value
	case SegQuerySingle:
		return "<" + s.Name + ">"
	case SegQueryMulti:
		return "<" + s.Name + "..>"
	default:
		return "?"
	}
}

// Pattern is a parsed URI template: an ordered sequence of path segments
// followed by an unordered set of query segments.
type Pattern struct {
	Raw   string
	Path  []Segment
	Query []Segment
}

// SourceKind identifies where a named dynamic parameter's value comes from.
type SourceKind uint8

const (
	SourcePath SourceKind = iota
	SourceQuery
	SourceData
)

// Source locates the origin of a captured parameter: a specific path
// index, the query bag, or the request body (for extractors that declare
// a dependency rather than a captured name).
type Source struct {
	Kind SourceKind
	Path int // valid when Kind == SourcePath: index into Pattern.Path
}

// ParsePattern parses a URI pattern of the form "/a/<b>/c?<d>&e=f".
// Path segments are separated by '/'; an optional '?' introduces query
// segments separated by '&'. Consecutive slashes collapse and a trailing
// slash is ignored except at root, matching the normalization rule used
// for incoming request paths (see uri.Normalize).
func ParsePattern(raw string) (*Pattern, error) {
	pathPart, queryPart, _ := strings.Cut(raw, "?")

	p := &Pattern{Raw: raw}

	segs, err := splitPath(pathPart)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	for i, seg := range segs {
		if seg.Kind == SegMulti && i != len(segs)-1 {
			return nil, fmt.Errorf("route: multi-dynamic segment %q must be last on the path", seg.Name)
		}
		if seg.Kind == SegSingle || seg.Kind == SegMulti {
			if seen[seg.Name] {
				return nil, fmt.Errorf("route: duplicate parameter name %q", seg.Name)
			}
			seen[seg.Name] = true
		}
	}
	p.Path = segs

	if queryPart != "" {
		qsegs, err := splitQuery(queryPart, seen)
		if err != nil {
			return nil, err
		}
		p.Query = qsegs
	}

	return p, nil
}

func splitPath(pathPart string) ([]Segment, error) {
	pathPart = strings.Trim(pathPart, "/")
	if pathPart == "" {
		return nil, nil
	}
	var segs []Segment
	for _, part := range strings.Split(pathPart, "/") {
		if part == "" {
			continue // collapse consecutive slashes
		}
		seg, err := parseSegment(part)
		if err != nil {
			return nil, err
		}
		segs = append(segs, seg)
	}
	return segs, nil
}

func parseSegment(part string) (Segment, error) {
	if strings.HasPrefix(part, "<") && strings.HasSuffix(part, ">") {
		inner := part[1 : len(part)-1]
		if strings.HasSuffix(inner, "..") {
			name := strings.TrimSuffix(inner, "..")
			if name == "" {
				return Segment{}, fmt.Errorf("route: empty multi-dynamic parameter name")
			}
			return Segment{Kind: SegMulti, Name: name}, nil
		}
		if inner == "" {
			return Segment{}, fmt.Errorf("route: empty dynamic parameter name")
		}
		return Segment{Kind: SegSingle, Name: inner}, nil
	}
	return Segment{Kind: SegStatic, Value: part}, nil
}

func splitQuery(queryPart string, pathNames map[string]bool) ([]Segment, error) {
	var segs []Segment
	for _, part := range strings.Split(queryPart, "&") {
		if part == "" {
			continue
		}
		if strings.HasPrefix(part, "<") && strings.HasSuffix(part, ">") {
			inner := part[1 : len(part)-1]
			if strings.HasSuffix(inner, "..") {
				name := strings.TrimSuffix(inner, "..")
				segs = append(segs, Segment{Kind: SegQueryMulti, Name: name})
				continue
			}
			if pathNames[inner] {
				return nil, fmt.Errorf("route: duplicate parameter name %q", inner)
			}
			pathNames[inner] = true
			segs = append(segs, Segment{Kind: SegQuerySingle, Name: inner})
			continue
		}
		key, val, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("route: malformed query-static segment %q", part)
		}
		segs = append(segs, Segment{Kind: SegQueryStatic, Key: key, Value: val})
	}
	return segs, nil
}

// HasMulti reports whether the pattern's path ends with a multi-dynamic
// segment.
func (p *Pattern) HasMulti() bool {
	if len(p.Path) == 0 {
		return false
	}
	return p.Path[len(p.Path)-1].Kind == SegMulti
}

// StaticSegmentCount returns the number of Static path segments, used by
// the router's specificity tie-break.
func (p *Pattern) StaticSegmentCount() int {
	n := 0
	for _, s := range p.Path {
		if s.Kind == SegStatic {
			n++
		}
	}
	return n
}
