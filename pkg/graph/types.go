package graph

import (
	"fmt"
	"slices"

	"github.com/matzehuels/plushie/pkg/errors"
	"github.com/matzehuels/plushie/pkg/hook"
	"github.com/matzehuels/plushie/pkg/pattern"
)

// Peculiarity names.
const (
	PeculiarityLocked = "locked"
	PeculiarityTip    = "tip"
	PeculiarityFLO    = "flo"
	PeculiarityBLO    = "blo"
)

// NoParent marks nodes without a parent stitch.
const NoParent = -1

// =============================================================================
// StitchGraph - Compiled Pattern Serialization
// =============================================================================

// StitchGraph is the canonical serialization format for compiled patterns.
//
// The format is designed for round-trip fidelity: a graph converted to a
// StitchGraph and back compares equal to the original.
type StitchGraph struct {
	Nodes      []Node         `json:"nodes" bson:"nodes"`
	Edges      []Edge         `json:"edges" bson:"edges"`
	RoundSpans [][2]int       `json:"round_spans" bson:"round_spans"`
	PartLimits []int          `json:"part_limits" bson:"part_limits"`
	Marks      map[string]int `json:"marks,omitempty" bson:"marks,omitempty"`
}

// Node is one stitch.
type Node struct {
	ID          int     `json:"id" bson:"id"`
	Color       string  `json:"color" bson:"color"`   // "#rrggbb"
	Parent      int     `json:"parent" bson:"parent"` // Stitch worked into, or NoParent
	Peculiarity string  `json:"peculiarity,omitempty" bson:"peculiarity,omitempty"`
	Plane       *[3]int `json:"plane,omitempty" bson:"plane,omitempty"` // father, mother, grandparent for flo/blo
}

// Edge links a stitch to an older one.
type Edge struct {
	From int `json:"from" bson:"from"`
	To   int `json:"to" bson:"to"`
}

// =============================================================================
// InitialGraph ↔ StitchGraph Conversion
// =============================================================================

// FromInitialGraph converts a compiled graph to its serialization format.
func FromInitialGraph(g *hook.InitialGraph) StitchGraph {
	n := g.NodeCount()
	out := StitchGraph{
		Nodes:      make([]Node, n),
		Edges:      make([]Edge, 0, g.Edges.Count()),
		RoundSpans: make([][2]int, len(g.RoundSpans)),
		PartLimits: slices.Clone(g.PartLimits),
	}
	for id := range n {
		node := Node{ID: id, Color: FormatColor(g.Colors[id]), Parent: NoParent}
		if id < len(g.Parents) {
			node.Parent = g.Parents[id]
		}
		if p, ok := g.Peculiarities[id]; ok {
			node.Peculiarity, node.Plane = encodePeculiarity(p)
		}
		out.Nodes[id] = node
	}
	for _, pair := range g.Edges.Pairs() {
		out.Edges = append(out.Edges, Edge{From: pair[0], To: pair[1]})
	}
	for i, span := range g.RoundSpans {
		out.RoundSpans[i] = [2]int(span)
	}
	if len(g.MarkToNode) > 0 {
		out.Marks = make(map[string]int, len(g.MarkToNode))
		for name, id := range g.MarkToNode {
			out.Marks[name] = id
		}
	}
	return out
}

// InitialGraph validates the graph and converts it back to the form the
// simulation consumes.
func (sg StitchGraph) InitialGraph() (*hook.InitialGraph, error) {
	n := len(sg.Nodes)
	g := &hook.InitialGraph{
		Edges:         make(hook.Edges, n),
		Peculiarities: make(map[int]hook.Peculiarity),
		Colors:        make([]pattern.RGB, n),
		RoundSpans:    make([]hook.Span, len(sg.RoundSpans)),
		PartLimits:    slices.Clone(sg.PartLimits),
		MarkToNode:    make(map[string]int, len(sg.Marks)),
		Parents:       make([]int, n),
	}

	for i, node := range sg.Nodes {
		if node.ID != i {
			return nil, invalid("node %d has id %d; ids must be 0..%d in order", i, node.ID, n-1)
		}
		color, err := ParseColor(node.Color)
		if err != nil {
			return nil, invalid("node %d: %v", i, err)
		}
		g.Colors[i] = color
		if node.Parent < NoParent || node.Parent >= n {
			return nil, invalid("node %d: parent %d out of range", i, node.Parent)
		}
		g.Parents[i] = node.Parent
		if node.Peculiarity != "" {
			p, err := decodePeculiarity(node, n)
			if err != nil {
				return nil, invalid("node %d: %v", i, err)
			}
			g.Peculiarities[i] = p
		}
	}

	for _, e := range sg.Edges {
		if e.From <= e.To || e.To < 0 || e.From >= n {
			return nil, invalid("edge %d->%d must go from a newer to an older node", e.From, e.To)
		}
		g.Edges[e.From] = append(g.Edges[e.From], e.To)
	}
	for i, span := range sg.RoundSpans {
		if span[0] < 0 || span[1] < span[0] || span[1] >= n {
			return nil, invalid("round span %v out of range", span)
		}
		g.RoundSpans[i] = hook.Span(span)
	}
	for name, id := range sg.Marks {
		if id < 0 || id >= n {
			return nil, invalid("mark %q points at node %d out of range", name, id)
		}
		g.MarkToNode[name] = id
	}
	return g, nil
}

// NodeCount returns the number of stitches.
func (sg StitchGraph) NodeCount() int { return len(sg.Nodes) }

func encodePeculiarity(p hook.Peculiarity) (string, *[3]int) {
	switch p.Kind {
	case hook.Locked:
		return PeculiarityLocked, nil
	case hook.Tip:
		return PeculiarityTip, nil
	case hook.FLO, hook.BLO:
		plane := [3]int{p.Plane.Father, p.Plane.Mother, p.Plane.Grandparent}
		if p.Kind == hook.FLO {
			return PeculiarityFLO, &plane
		}
		return PeculiarityBLO, &plane
	}
	return "", nil
}

func decodePeculiarity(node Node, n int) (hook.Peculiarity, error) {
	switch node.Peculiarity {
	case PeculiarityLocked:
		return hook.Peculiarity{Kind: hook.Locked}, nil
	case PeculiarityTip:
		return hook.Peculiarity{Kind: hook.Tip}, nil
	case PeculiarityFLO, PeculiarityBLO:
		if node.Plane == nil {
			return hook.Peculiarity{}, fmt.Errorf("%s needs a plane", node.Peculiarity)
		}
		for _, id := range node.Plane {
			if id < 0 || id >= n {
				return hook.Peculiarity{}, fmt.Errorf("plane node %d out of range", id)
			}
		}
		kind := hook.FLO
		if node.Peculiarity == PeculiarityBLO {
			kind = hook.BLO
		}
		return hook.Peculiarity{Kind: kind, Plane: hook.PushPlane{
			Father: node.Plane[0], Mother: node.Plane[1], Grandparent: node.Plane[2],
		}}, nil
	}
	return hook.Peculiarity{}, fmt.Errorf("unknown peculiarity %q", node.Peculiarity)
}

// FormatColor renders c as "#rrggbb".
func FormatColor(c pattern.RGB) string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}

// ParseColor parses "#rrggbb".
func ParseColor(s string) (pattern.RGB, error) {
	var c pattern.RGB
	if len(s) != 7 || s[0] != '#' {
		return c, fmt.Errorf("color %q is not #rrggbb", s)
	}
	if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &c[0], &c[1], &c[2]); err != nil {
		return c, fmt.Errorf("color %q is not #rrggbb", s)
	}
	return c, nil
}

func invalid(format string, args ...any) error {
	return errors.New(errors.ErrCodeInvalidInput, "invalid stitch graph: "+format, args...)
}
