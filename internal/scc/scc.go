// Copyright 2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package scc contains an implementation of Tarjan's algorithm, which converts
// a directed graph over dense integer nodes into a DAG of strongly-connected
// components.
//
// The compiler uses this to reason about recursive message types: a set of
// mutually recursive messages always lands in one component.
package scc

import (
	"iter"
	"slices"

	"buf.build/go/minitable/internal/debug"
)

// Graph returns the outgoing edges of a node.
type Graph func(node int) iter.Seq[int]

// DAG is the component DAG of a graph with nodes 0..n-1.
type DAG struct {
	component  []int // Component index of each node.
	components []Component
}

// Component is a strongly connected component.
type Component struct {
	Members []int // Ascending.
	Deps    []int // Indices of components this one has edges into, ascending.
}

// Sort computes the strongly connected components of the graph with nodes
// 0..n-1. Components are returned in reverse topological order: every
// component appears after all the components it depends on.
func Sort(n int, graph Graph) *DAG {
	out := &DAG{component: make([]int, n)}
	s := &tarjan{
		graph: graph,
		dag:   out,
		meta:  make([]metadata, n),
	}
	for node := range n {
		if !s.meta[node].visited {
			s.rec(node)
		}
	}
	return out
}

// Components returns the components, dependencies first.
func (d *DAG) Components() []Component {
	return d.components
}

// Of returns the index of the component containing node.
func (d *DAG) Of(node int) int {
	return d.component[node]
}

// tarjan is the state needed to execute Tarjan's recursive SCC algorithm.
//
// See https://en.wikipedia.org/wiki/Tarjan%27s_strongly_connected_components_algorithm
type tarjan struct {
	graph Graph
	dag   *DAG

	index int
	stack []int
	meta  []metadata
}

type metadata struct {
	index, low       int
	visited, onStack bool
}

func (s *tarjan) rec(node int) {
	meta := &s.meta[node]
	*meta = metadata{index: s.index, low: s.index, visited: true, onStack: true}
	s.index++
	offset := len(s.stack)
	s.stack = append(s.stack, node)

	for dep := range s.graph(node) {
		m := &s.meta[dep]
		switch {
		case !m.visited:
			s.rec(dep)
			meta.low = min(meta.low, m.low)
		case m.onStack:
			meta.low = min(meta.low, m.index)
		}
	}

	if meta.index != meta.low {
		return
	}

	idx := len(s.dag.components)
	c := Component{Members: slices.Clone(s.stack[offset:])}
	s.stack = s.stack[:offset]
	for _, n := range c.Members {
		s.meta[n].onStack = false
		s.dag.component[n] = idx
	}
	for _, n := range c.Members {
		for dep := range s.graph(n) {
			if d := s.dag.component[dep]; d != idx && !slices.Contains(c.Deps, d) {
				c.Deps = append(c.Deps, d)
			}
		}
	}
	slices.Sort(c.Members)
	slices.Sort(c.Deps)
	debug.Log(nil, "scc", "%d: %v -> %v", idx, c.Members, c.Deps)

	s.dag.components = append(s.dag.components, c)
}
