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

import "github.com/rivaas-dev/corehttp/route"

// node is one segment position in the path radix tree, adapted from
// router/radix.go's node type: per-segment edges traversed
// by linear scan (cheap for the small fan-out typical of real route
// trees, avoiding a map lookup in the hot path), plus a single param
// child and a single multi child. A node's descriptor bucket is a slice
// rather than a single handler chain, because more than one
// method/rank/format descriptor can terminate at the same path
// position: path collision is necessary but not sufficient for a full
// collision.
type node struct {
	edges       []edge
	param       *paramEdge
	multi       *multiEdge
	descriptors []*route.Descriptor
}

type edge struct {
	label string
	node  *node
}

type paramEdge struct {
	name string
	node *node
}

type multiEdge struct {
	name string
	node *node
}

func (n *node) child(label string) *node {
	for i := range n.edges {
		if n.edges[i].label == label {
			return n.edges[i].node
		}
	}
	return nil
}

func (n *node) childOrCreate(label string) *node {
	if c := n.child(label); c != nil {
		return c
	}
	c := &node{}
	n.edges = append(n.edges, edge{label: label, node: c})
	return c
}

func (n *node) paramChildOrCreate(name string) *node {
	if n.param == nil {
		n.param = &paramEdge{name: name, node: &node{}}
	}
	return n.param.node
}

func (n *node) multiChildOrCreate(name string) *node {
	if n.multi == nil {
		n.multi = &multiEdge{name: name, node: &node{}}
	}
	return n.multi.node
}

// insert walks/creates the path from n down to the terminal node for
// segs and appends d to that node's descriptor bucket.
func insert(n *node, segs []route.Segment, d *route.Descriptor) {
	cur := n
	for _, seg := range segs {
		switch seg.Kind {
		case route.SegStatic:
			cur = cur.childOrCreate(seg.Value)
		case route.SegSingle:
			cur = cur.paramChildOrCreate(seg.Name)
		case route.SegMulti:
			cur = cur.multiChildOrCreate(seg.Name)
		}
	}
	cur.descriptors = append(cur.descriptors, d)
}

// match is one matched terminal node together with the path parameters
// bound while reaching it.
type match struct {
	node   *node
	params map[string]string
}

// collect finds every terminal node reachable by some interpretation
// of segments (static exact match, single-dynamic binding, or
// multi-dynamic absorption), since more than one descriptor can match
// the same concrete request: two multi-dynamic routes can both match
// the same path.
func collect(root *node, segments []string) []match {
	var out []match
	var walk func(n *node, idx int, params map[string]string)
	walk = func(n *node, idx int, params map[string]string) {
		if idx == len(segments) {
			if len(n.descriptors) > 0 {
				out = append(out, match{node: n, params: params})
			}
			// A multi-dynamic child can also match zero trailing
			// segments (absorbing nothing).
			if n.multi != nil && len(n.multi.node.descriptors) > 0 {
				p := cloneParams(params)
				p[n.multi.name] = ""
				out = append(out, match{node: n.multi.node, params: p})
			}
			return
		}

		seg := segments[idx]

		if child := n.child(seg); child != nil {
			walk(child, idx+1, params)
		}
		if n.param != nil {
			p := cloneParams(params)
			p[n.param.name] = seg
			walk(n.param.node, idx+1, p)
		}
		if n.multi != nil {
			p := cloneParams(params)
			p[n.multi.name] = joinTail(segments, idx)
			if len(n.multi.node.descriptors) > 0 {
				out = append(out, match{node: n.multi.node, params: p})
			}
		}
	}
	walk(root, 0, map[string]string{})
	return out
}

func cloneParams(p map[string]string) map[string]string {
	out := make(map[string]string, len(p)+1)
	for k, v := range p {
		out[k] = v
	}
	return out
}

func joinTail(segments []string, from int) string {
	out := segments[from]
	for i := from + 1; i < len(segments); i++ {
		out += "/" + segments[i]
	}
	return out
}
