package hook

import (
	"fmt"
	"slices"
)

// Edges is an undirected adjacency list where every edge is stored once, on the
// list of its higher-indexed endpoint. Edges[i] holds the lower neighbours of i.
type Edges [][]int

// NewEdges builds edges from arbitrary adjacency lists, moving each edge to the
// list of its higher endpoint.
func NewEdges(lists [][]int) Edges {
	e := make(Edges, len(lists))
	for i, list := range lists {
		for _, j := range list {
			e.Link(i, j)
		}
	}
	return e
}

// Link connects a and b. Linking an existing pair is a no-op. Self-links and
// ids outside the list are programming errors and panic.
func (e Edges) Link(a, b int) {
	if a == b {
		panic(fmt.Sprintf("hook: node %d linked to itself", a))
	}
	if a < 0 || b < 0 || a >= len(e) || b >= len(e) {
		panic(fmt.Sprintf("hook: link %d-%d outside of %d nodes", a, b, len(e)))
	}
	lo, hi := min(a, b), max(a, b)
	if slices.Contains(e[hi], lo) {
		return
	}
	e[hi] = append(e[hi], lo)
}

// Grow appends an empty slot for the next node.
func (e *Edges) Grow() {
	*e = append(*e, nil)
}

// Cleanup drops the trailing slot reserved for the next node. It panics if that
// slot already holds edges.
func (e *Edges) Cleanup() {
	n := len(*e)
	if n == 0 {
		return
	}
	if len((*e)[n-1]) != 0 {
		panic(fmt.Sprintf("hook: reserved node %d has edges %v", n-1, (*e)[n-1]))
	}
	*e = (*e)[:n-1]
}

// Count returns the number of edges.
func (e Edges) Count() int {
	total := 0
	for _, list := range e {
		total += len(list)
	}
	return total
}

// Clone returns a deep copy.
func (e Edges) Clone() Edges {
	out := make(Edges, len(e))
	for i, list := range e {
		out[i] = slices.Clone(list)
	}
	return out
}

// Equal reports whether both lists hold the same edges, ignoring order within a list.
func (e Edges) Equal(other Edges) bool {
	if len(e) != len(other) {
		return false
	}
	for i := range e {
		a, b := slices.Clone(e[i]), slices.Clone(other[i])
		slices.Sort(a)
		slices.Sort(b)
		if !slices.Equal(a, b) {
			return false
		}
	}
	return true
}

// Pairs lists every edge as (higher, lower).
func (e Edges) Pairs() [][2]int {
	out := make([][2]int, 0, e.Count())
	for i, list := range e {
		for _, j := range list {
			out = append(out, [2]int{i, j})
		}
	}
	return out
}
