// Package dag models references between warehouse tables. An edge runs from
// a referenced table to the table holding the foreign surrogate, so parents
// are the tables a table points at.
package dag

import (
	"fmt"
	"maps"
	"slices"
)

type set map[string]struct{}

func (s set) sorted() []string { return slices.Sorted(maps.Keys(s)) }

type node struct {
	parents  set // tables this one references
	children set // tables referencing this one
}

// Graph is a directed graph of table names.
type Graph struct {
	nodes map[string]*node
	edges int
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{nodes: make(map[string]*node)}
}

// AddNode adds a table. Adding an existing table is a no-op.
func (g *Graph) AddNode(id string) {
	if _, ok := g.nodes[id]; !ok {
		g.nodes[id] = &node{parents: set{}, children: set{}}
	}
}

// HasNode reports whether id is in the graph.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// AddEdge records that child references parent. Repeated edges count once.
func (g *Graph) AddEdge(parentID, childID string) error {
	parent, ok := g.nodes[parentID]
	if !ok {
		return fmt.Errorf("parent node %q does not exist", parentID)
	}
	child, ok := g.nodes[childID]
	if !ok {
		return fmt.Errorf("child node %q does not exist", childID)
	}
	if parentID == childID {
		return fmt.Errorf("self-loop detected: %s", parentID)
	}
	if _, dup := parent.children[childID]; dup {
		return nil
	}
	parent.children[childID] = struct{}{}
	child.parents[parentID] = struct{}{}
	g.edges++
	return nil
}

// Parents returns the tables id references, sorted.
func (g *Graph) Parents(id string) []string {
	if n, ok := g.nodes[id]; ok {
		return n.parents.sorted()
	}
	return nil
}

// Children returns the tables referencing id, sorted.
func (g *Graph) Children(id string) []string {
	if n, ok := g.nodes[id]; ok {
		return n.children.sorted()
	}
	return nil
}

// Nodes returns all table names, sorted.
func (g *Graph) Nodes() []string {
	return slices.Sorted(maps.Keys(g.nodes))
}

// NodeCount returns the number of tables.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of distinct references.
func (g *Graph) EdgeCount() int { return g.edges }

// HasCycle reports whether tables reference each other in a loop. The path
// starts and ends with the same table.
func (g *Graph) HasCycle() (bool, []string) {
	const (
		unseen = iota
		open
		done
	)
	state := make(map[string]int, len(g.nodes))
	var stack []string

	var visit func(id string) []string
	visit = func(id string) []string {
		state[id] = open
		stack = append(stack, id)
		for _, c := range g.nodes[id].children.sorted() {
			switch state[c] {
			case open:
				at := slices.Index(stack, c)
				return append(slices.Clone(stack[at:]), c)
			case unseen:
				if cycle := visit(c); cycle != nil {
					return cycle
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[id] = done
		return nil
	}

	for _, id := range g.Nodes() {
		if state[id] != unseen {
			continue
		}
		if cycle := visit(id); cycle != nil {
			return true, cycle
		}
	}
	return false, nil
}

// TopologicalSort orders tables so referenced tables come before the tables
// referencing them. Ties break alphabetically.
func (g *Graph) TopologicalSort() ([]string, error) {
	pending := make(map[string]int, len(g.nodes))
	var ready []string
	for id, n := range g.nodes {
		pending[id] = len(n.parents)
		if len(n.parents) == 0 {
			ready = append(ready, id)
		}
	}
	slices.Sort(ready)

	order := make([]string, 0, len(g.nodes))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)
		for _, c := range g.nodes[id].children.sorted() {
			if pending[c]--; pending[c] == 0 {
				ready = append(ready, c)
			}
		}
	}

	if len(order) != len(g.nodes) {
		_, cycle := g.HasCycle()
		return nil, fmt.Errorf("cycle detected: %v", cycle)
	}
	return order, nil
}

// Chains returns every path of two or more references that runs from a
// table referencing nothing to a table nothing references.
func (g *Graph) Chains() ([][]string, error) {
	if cyclic, cycle := g.HasCycle(); cyclic {
		return nil, fmt.Errorf("cycle detected: %v", cycle)
	}

	var chains [][]string
	var walk func(path []string)
	walk = func(path []string) {
		children := g.nodes[path[len(path)-1]].children
		if len(children) == 0 {
			if len(path) > 2 {
				chains = append(chains, slices.Clone(path))
			}
			return
		}
		for _, c := range children.sorted() {
			walk(append(path, c))
		}
	}
	for _, id := range g.Nodes() {
		if len(g.nodes[id].parents) == 0 {
			walk([]string{id})
		}
	}
	return chains, nil
}
