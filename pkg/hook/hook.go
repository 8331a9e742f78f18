// Package hook turns a sequence of crochet actions into a stitch graph.
//
// A [Hook] keeps the state of the work in progress: which node is created
// next (the cursor), the queue of stitches the next round is worked into
// (the anchors), saved points of work (labels) and the graph built so far.
// Each [pattern.Action] mutates that state; [Hook.Finish] returns the
// resulting [InitialGraph], ready for the simulation in package plushie.
//
// # Usage
//
//	actions, _ := pattern.Parse("mr(6) 6*inc 12*sc 6*dec fo")
//	g, err := hook.Compile(actions, hook.DefaultParams())
//	if err != nil {
//	    var herr *hook.Error
//	    if errors.As(err, &herr) {
//	        fmt.Println("failed at action", herr.Index)
//	    }
//	}
//
// # Node numbering
//
// Nodes are numbered in creation order. The starting magic ring takes ids
// 0 (root) to n. Edges are stored on the higher-numbered endpoint only,
// see [Edges].
package hook

import (
	"errors"
	"io"
	"maps"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/plushie/pkg/pattern"
)

// none marks a missing node id (no parent, no override).
const none = -1

// maxFOAnchors is the largest round a fasten-off can close into a tip.
const maxFOAnchors = 12

// WorkingLoops selects which loops of the anchor stitches are worked into.
type WorkingLoops int

const (
	Both WorkingLoops = iota
	Front
	Back
)

// Span is an inclusive range of node ids forming one round.
type Span [2]int

// Moment is a snapshot of the work in progress. Marks save moments; Goto and
// Attach restore them.
type Moment struct {
	Cursor     int
	Anchors    []int
	RoundCount int
	RoundLeft  int
	WorkingOn  WorkingLoops
	Limb       int
}

func (m Moment) clone() Moment {
	m.Anchors = slices.Clone(m.Anchors)
	return m
}

// Params controls pattern interpretation.
type Params struct {
	// TipFromFO closes a fastened-off round into a single tip node.
	TipFromFO bool `json:"tip_from_fo" toml:"tip_from_fo" yaml:"tip_from_fo"`
	// Leniency decides what happens to actions that cannot be performed.
	Leniency Leniency `json:"hook_leniency" toml:"hook_leniency" yaml:"hook_leniency"`
}

// DefaultParams returns the default interpretation settings.
func DefaultParams() Params {
	return Params{TipFromFO: true, Leniency: NoMercy}
}

// InitialGraph is the immutable result of interpreting a pattern.
type InitialGraph struct {
	Edges         Edges               `json:"edges"`
	Peculiarities map[int]Peculiarity `json:"peculiarities"`
	Colors        []pattern.RGB       `json:"colors"`
	RoundSpans    []Span              `json:"round_spans"`
	PartLimits    []int               `json:"part_limits"`
	MarkToNode    map[string]int      `json:"mark_to_node"`
	Parents       []int               `json:"parents"`
}

// NodeCount returns the number of nodes in the graph.
func (g *InitialGraph) NodeCount() int { return len(g.Colors) }

// Hook interprets actions one at a time.
type Hook struct {
	edges      Edges
	peculiar   map[int]Peculiarity
	colors     []pattern.RGB
	roundSpans []Span
	partLimits []int
	parents    []int
	now        Moment
	labels     map[pattern.Label]Moment
	markToNode map[string]int
	color      pattern.RGB
	override   int
	lastStitch *pattern.Action
	lastMark   *pattern.Action
	mrCount    int

	params    Params
	performed int
	skipped   int
	logger    *log.Logger
}

// =============================================================================
// Construction
// =============================================================================

// New starts the work with a magic ring. Any other starter fails with ErrBadStarter.
func New(starter pattern.Action, color pattern.RGB, params Params) (*Hook, error) {
	if starter.Kind != pattern.KindMR {
		return nil, &Error{Err: ErrBadStarter, Action: starter}
	}
	n := starter.N
	if n < 1 {
		return nil, &Error{Err: ErrEmptyMagicRing, Action: starter}
	}

	h := &Hook{
		edges:      make(Edges, n+2),
		peculiar:   map[int]Peculiarity{0: {Kind: Locked}},
		colors:     make([]pattern.RGB, n+1),
		roundSpans: []Span{{0, n}},
		partLimits: []int{0},
		parents:    make([]int, n+1),
		now: Moment{
			Cursor:    n + 1,
			Anchors:   make([]int, 0, n),
			RoundLeft: n,
			WorkingOn: Both,
		},
		labels:     map[pattern.Label]Moment{},
		markToNode: map[string]int{},
		color:      color,
		override:   none,
		mrCount:    1,
		params:     params,
		performed:  1,
		logger:     log.NewWithOptions(io.Discard, log.Options{}),
	}
	h.parents[0] = none
	for i := range h.colors {
		h.colors[i] = color
	}
	for i := 1; i <= n; i++ {
		h.edges.Link(0, i)
		if i < n {
			h.edges.Link(i, i+1)
		}
		h.now.Anchors = append(h.now.Anchors, i)
	}
	return h, nil
}

// FromFlow starts the work from the beginning of a flow, accepting an optional
// leading Color before the magic ring.
func FromFlow(flow pattern.Flow, params Params) (*Hook, error) {
	first, ok := flow.Next()
	if !ok {
		return nil, ErrEmpty
	}
	color := pattern.DefaultColor
	consumed := 1
	if first.Kind == pattern.KindColor {
		color = first.Color
		if first, ok = flow.Next(); !ok {
			return nil, ErrEmpty
		}
		consumed++
	}
	h, err := New(first, color, params)
	if err != nil {
		var herr *Error
		if errors.As(err, &herr) {
			herr.Index = consumed - 1
		}
		return nil, err
	}
	h.performed = consumed
	return h, nil
}

// Build interprets every action of a flow and returns the finished graph.
func Build(flow pattern.Flow, params Params) (*InitialGraph, error) {
	h, err := FromFlow(flow, params)
	if err != nil {
		return nil, err
	}
	for {
		a, ok := flow.Next()
		if !ok {
			break
		}
		if err := h.Perform(a); err != nil {
			return nil, err
		}
	}
	return h.Finish(), nil
}

// Compile is [Build] over an in-memory action list.
func Compile(actions []pattern.Action, params Params) (*InitialGraph, error) {
	return Build(pattern.NewFlow(actions), params)
}

// SetLogger sets the logger used to report skipped and fixed-up actions.
func (h *Hook) SetLogger(l *log.Logger) {
	if l != nil {
		h.logger = l
	}
}

// Moment returns a copy of the current point of work.
func (h *Hook) Moment() Moment { return h.now.clone() }

// Skipped returns how many actions leniency has dropped so far.
func (h *Hook) Skipped() int { return h.skipped }

// =============================================================================
// Performing actions
// =============================================================================

// Perform applies one action. Under NoMercy the first failure is returned as an
// [*Error]; the other leniency modes drop failing actions and return nil.
func (h *Hook) Perform(a pattern.Action) error {
	index := h.performed
	h.performed++

	switch h.params.Leniency {
	case SkipIncorrect:
		if err := h.try(a); err != nil {
			h.skip(a, index, err)
		}
		return nil
	case GeneticFixups:
		err := h.try(a)
		if err == nil {
			return nil
		}
		if a.Kind == pattern.KindDec && errors.Is(err, ErrNoAnchorToPullThrough) {
			if h.try(pattern.Sc()) == nil {
				h.logger.Debug("dec replaced by sc", "index", index)
				return nil
			}
		}
		h.skip(a, index, err)
		return nil
	default:
		if err := h.perform(a); err != nil {
			return &Error{Err: err, Action: a, Label: a.Label, Index: index}
		}
		return nil
	}
}

// try performs a on a copy and only keeps the result on success.
func (h *Hook) try(a pattern.Action) error {
	c := h.clone()
	if err := c.perform(a); err != nil {
		return err
	}
	*h = *c
	return nil
}

func (h *Hook) skip(a pattern.Action, index int, err error) {
	h.skipped++
	h.logger.Debug("skipped action", "index", index, "action", a.String(), "reason", err)
}

func (h *Hook) perform(a pattern.Action) error {
	var err error
	switch a.Kind {
	case pattern.KindSc:
		err = h.sc()
	case pattern.KindInc:
		err = h.inc()
	case pattern.KindDec:
		err = h.dec()
	case pattern.KindSlst:
		err = h.slst()
	case pattern.KindCh:
		err = h.chain(a.N)
	case pattern.KindAttach:
		err = h.attach(a.Label, a.N)
	case pattern.KindFLO:
		h.now.WorkingOn = Front
	case pattern.KindBLO:
		h.now.WorkingOn = Back
	case pattern.KindBL:
		h.now.WorkingOn = Both
	case pattern.KindReverse:
		err = ErrReverseUnsupported
	case pattern.KindGoto:
		err = h.restore(a.Label)
	case pattern.KindMark:
		err = h.mark(a.Label)
	case pattern.KindMR:
		err = ErrAnonymousMrInTheMiddle
	case pattern.KindMRConfigurable:
		err = h.magicRing(a.N, a.Name)
	case pattern.KindFO:
		err = h.fastenOff()
	case pattern.KindColor:
		h.color = a.Color
	}
	if err != nil {
		return err
	}

	switch a.Kind {
	case pattern.KindReverse, pattern.KindFLO, pattern.KindBLO, pattern.KindBL,
		pattern.KindGoto, pattern.KindFO, pattern.KindColor:
		h.lastMark = nil
	case pattern.KindMark:
		h.lastMark = &a
	default:
		h.lastStitch = &a
		h.lastMark = nil
	}
	return nil
}

// Finish closes the open round and returns the graph. The hook must not be
// used afterwards.
func (h *Hook) Finish() *InitialGraph {
	h.flushRound()
	h.edges.Cleanup()

	n := h.now.Cursor
	h.pushPartLimit(n)
	if len(h.roundSpans) > 0 {
		if last := h.roundSpans[len(h.roundSpans)-1][1]; last < n-1 {
			h.roundSpans = append(h.roundSpans, Span{last + 1, n - 1})
		}
	}

	return &InitialGraph{
		Edges:         h.edges,
		Peculiarities: h.peculiar,
		Colors:        h.colors,
		RoundSpans:    h.roundSpans,
		PartLimits:    h.partLimits,
		MarkToNode:    h.markToNode,
		Parents:       h.parents,
	}
}

func (h *Hook) clone() *Hook {
	c := *h
	c.edges = h.edges.Clone()
	c.peculiar = maps.Clone(h.peculiar)
	c.colors = slices.Clone(h.colors)
	c.roundSpans = slices.Clone(h.roundSpans)
	c.partLimits = slices.Clone(h.partLimits)
	c.parents = slices.Clone(h.parents)
	c.now = h.now.clone()
	c.labels = make(map[pattern.Label]Moment, len(h.labels))
	for k, m := range h.labels {
		c.labels[k] = m.clone()
	}
	c.markToNode = maps.Clone(h.markToNode)
	return &c
}
