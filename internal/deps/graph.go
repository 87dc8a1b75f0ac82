// Package deps holds the field dependency graph: which field each field
// depends on, cycle detection, and a stable evaluation order.
package deps

import "fmt"

// Graph maps every field id to the id it depends on (if any). Node order is
// the document order in which ids were added.
type Graph struct {
	order     []string
	index     map[string]int
	dependsOn map[string]string
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		index:     make(map[string]int),
		dependsOn: make(map[string]string),
	}
}

// AddNode registers a field id. Adding an id twice is a no-op.
func (g *Graph) AddNode(id string) {
	if _, exists := g.index[id]; exists {
		return
	}
	g.index[id] = len(g.order)
	g.order = append(g.order, id)
}

// AddEdge records that field `from` depends on field `to`. Both ids must
// already be nodes of the graph.
func (g *Graph) AddEdge(from, to string) error {
	if _, ok := g.index[from]; !ok {
		return fmt.Errorf("deps: unknown field %q", from)
	}
	if _, ok := g.index[to]; !ok {
		return fmt.Errorf("deps: unknown dependency %q of field %q", to, from)
	}
	g.dependsOn[from] = to
	return nil
}

// DependsOn returns the id `id` depends on.
func (g *Graph) DependsOn(id string) (string, bool) {
	to, ok := g.dependsOn[id]
	return to, ok
}

// FindCycle walks the nodes in document order with three-colour depth-first
// search and returns the first node found on a cycle.
func (g *Graph) FindCycle() (string, bool) {
	const (
		white = iota
		grey
		black
	)
	colour := make(map[string]int, len(g.order))

	var visit func(id string) (string, bool)
	visit = func(id string) (string, bool) {
		switch colour[id] {
		case black:
			return "", false
		case grey:
			return id, true
		}
		colour[id] = grey
		if next, ok := g.dependsOn[id]; ok {
			if hit, found := visit(next); found {
				return hit, true
			}
		}
		colour[id] = black
		return "", false
	}

	for _, id := range g.order {
		if colour[id] == white {
			if hit, found := visit(id); found {
				return hit, true
			}
		}
	}
	return "", false
}

// Order returns the ids so that every field comes after the field it depends
// on. Independent fields keep document order. The graph must be acyclic.
func (g *Graph) Order() ([]string, error) {
	if id, found := g.FindCycle(); found {
		return nil, fmt.Errorf("deps: cycle through field %q", id)
	}
	out := make([]string, 0, len(g.order))
	placed := make(map[string]bool, len(g.order))
	var place func(id string)
	place = func(id string) {
		if placed[id] {
			return
		}
		if to, ok := g.dependsOn[id]; ok {
			place(to)
		}
		placed[id] = true
		out = append(out, id)
	}
	for _, id := range g.order {
		place(id)
	}
	return out, nil
}
