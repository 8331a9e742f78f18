package hook

import (
	"slices"

	"github.com/matzehuels/plushie/pkg/pattern"
)

// =============================================================================
// Working stitch
// =============================================================================

// stitch builds one or two nodes out of the primitive hook motions: pulling a
// loop through an anchor, moving to the next anchor and pulling over to
// complete a node.
type stitch struct {
	h         *Hook
	anchored  int
	lingering bool
}

// linger starts a stitch that stays connected to the previous one.
func (h *Hook) linger() *stitch {
	return &stitch{h: h, anchored: none, lingering: true}
}

func (s *stitch) pullThrough() error {
	h := s.h
	if len(h.now.Anchors) == 0 {
		return ErrNoAnchorToPullThrough
	}
	s.anchored = h.now.Anchors[0]
	h.edges.Link(s.anchored, h.now.Cursor)
	return nil
}

func (s *stitch) nextAnchor() {
	s.h.popAnchor()
}

// pullOver completes the node at the cursor and queues it as an anchor for the
// next round.
func (s *stitch) pullOver() error {
	h := s.h
	h.now.Anchors = append(h.now.Anchors, h.now.Cursor)
	return s.complete(true)
}

// complete creates the node at the cursor without queuing it.
func (s *stitch) complete(singleLoop bool) error {
	h := s.h
	if s.lingering {
		if prev := h.previousStitch(); prev != s.anchored {
			h.edges.Link(prev, h.now.Cursor)
		}
	}
	if singleLoop && h.now.WorkingOn != Both {
		if err := s.registerSingleLoop(); err != nil {
			return err
		}
	}

	h.edges.Grow()
	h.colors = append(h.colors, h.color)
	h.parents = append(h.parents, s.anchored)
	h.now.Cursor++
	h.now.RoundCount++
	return nil
}

func (s *stitch) finish() {
	if s.anchored != none {
		s.nextAnchor()
	}
}

// registerSingleLoop records the plane a front or back loop stitch bulges
// away from: the anchor worked into (mother), its neighbour in the round
// (father) and the anchor's own parent (grandparent).
func (s *stitch) registerSingleLoop() error {
	h := s.h
	mother := s.anchored
	if mother == none {
		return ErrSingleLoopOnNonAnchored
	}
	grandparent := h.parents[mother]
	if grandparent == none {
		return ErrSingleLoopNoGrandparent
	}

	father := h.now.Cursor - 1
	if len(h.now.Anchors) > 1 && h.now.Anchors[1] != h.now.Cursor {
		father = h.now.Anchors[1]
	}

	kind := BLO
	if h.now.WorkingOn == Front {
		kind = FLO
	}
	h.peculiar[h.now.Cursor] = Peculiarity{
		Kind:  kind,
		Plane: PushPlane{Father: father, Mother: mother, Grandparent: grandparent},
	}
	return nil
}

// =============================================================================
// Stitches
// =============================================================================

func (h *Hook) sc() error {
	s := h.linger()
	if err := s.pullThrough(); err != nil {
		return err
	}
	if err := s.pullOver(); err != nil {
		return err
	}
	s.finish()
	return nil
}

func (h *Hook) inc() error {
	s := h.linger()
	for range 2 {
		if err := s.pullThrough(); err != nil {
			return err
		}
		if err := s.pullOver(); err != nil {
			return err
		}
	}
	s.finish()
	return nil
}

func (h *Hook) dec() error {
	s := h.linger()
	if err := s.pullThrough(); err != nil {
		return err
	}
	s.nextAnchor()
	if err := s.pullThrough(); err != nil {
		return err
	}
	if err := s.pullOver(); err != nil {
		return err
	}
	s.finish()
	return nil
}

// slst joins the last stitch to the next anchor without creating a node. The
// anchor moves to the back of the queue and becomes the previous stitch.
func (h *Hook) slst() error {
	if len(h.now.Anchors) == 0 {
		return ErrNoAnchorToPullThrough
	}
	anchor := h.now.Anchors[0]
	h.now.Anchors = h.now.Anchors[1:]
	if prev := h.previousStitch(); prev != anchor {
		h.edges.Link(prev, anchor)
	}
	h.override = anchor
	h.now.Anchors = append(h.now.Anchors, anchor)
	return nil
}

// chain creates n nodes linked only to their predecessor. All but the last are
// queued at the front of the anchors, newest first, so the next stitches turn
// back along the chain.
func (h *Hook) chain(n int) error {
	if h.lastStitch != nil && h.lastStitch.Kind == pattern.KindCh {
		return ErrChainAfterChain
	}
	if n == 0 {
		return ErrChainOfZero
	}

	s := h.linger()
	for i := range n {
		if i < n-1 {
			h.now.Anchors = slices.Insert(h.now.Anchors, 0, h.now.Cursor)
		}
		if err := s.complete(i == 0); err != nil {
			return err
		}
	}
	h.now.RoundLeft += n - 1
	return nil
}

// =============================================================================
// Labels
// =============================================================================

func (h *Hook) mark(label pattern.Label) error {
	if len(h.now.Anchors) == 0 {
		return ErrUselessMark
	}
	if _, ok := h.labels[label]; ok {
		return ErrDuplicateLabel
	}
	h.labels[label] = h.now.clone()
	return nil
}

// restore resumes work at a saved moment. The cursor keeps counting from the
// current position; the next stitch connects to the node made just before the
// mark.
func (h *Hook) restore(label pattern.Label) error {
	m, ok := h.labels[label]
	if !ok {
		return ErrUnknownLabel
	}
	h.flushRound()
	m = m.clone()
	h.override = m.Cursor - 1
	m.Cursor = h.now.Cursor
	m.RoundCount = 0
	h.now = m
	return nil
}

// attach crochets a chain of n stitches from the current round to the node
// saved under label, splitting the round in two. Work continues on one ring;
// the other is saved under the label marked just before.
func (h *Hook) attach(label pattern.Label, n int) error {
	target, ok := h.labels[label]
	if !ok {
		return ErrUnknownLabel
	}
	if n == 0 {
		return h.attachDirectly(label, target)
	}

	attachTo := target.Cursor - 1
	idx := slices.Index(h.now.Anchors, attachTo)
	if idx < 0 {
		return ErrAttachOutsideRing
	}

	start := h.now.Cursor
	s := h.linger()
	created := make([]int, 0, n+1)
	for i := 0; i <= n; i++ {
		created = append(created, h.now.Cursor)
		if i == n {
			h.edges.Link(attachTo, h.now.Cursor)
		}
		if err := s.complete(i == 0); err != nil {
			return err
		}
	}

	anchors := h.now.Anchors
	ringA := slices.Clone(anchors[idx+1:])
	ringA = append(ringA, created[:len(created)-1]...)
	ringB := slices.Clone(anchors[:idx])
	for i := len(created) - 1; i >= 0; i-- {
		ringB = append(ringB, created[i])
	}

	h.now.Anchors = ringA
	h.now.RoundLeft = len(ringA)
	h.now.WorkingOn = Both

	if h.lastMark != nil {
		h.labels[h.lastMark.Label] = Moment{
			Cursor:    start,
			Anchors:   ringB,
			RoundLeft: len(ringB),
			WorkingOn: Both,
			Limb:      h.now.Limb,
		}
	}
	return nil
}

// attachDirectly continues work on the ring saved under label, joined to the
// last stitch. Joining two separately started parts merges them into one limb.
func (h *Hook) attachDirectly(label pattern.Label, target Moment) error {
	if target.Limb != h.now.Limb {
		h.pushPartLimit(h.now.Cursor)
		from, to := target.Limb, h.now.Limb
		for l, m := range h.labels {
			if m.Limb == from {
				m.Limb = to
				h.labels[l] = m
			}
		}
	}
	prev := h.previousStitch()
	if err := h.restore(label); err != nil {
		return err
	}
	h.override = prev
	return nil
}

// =============================================================================
// Rings and fastening off
// =============================================================================

// magicRing starts a new, separately anchored part of the plushie.
func (h *Hook) magicRing(n int, name string) error {
	if n < 1 {
		return ErrEmptyMagicRing
	}
	h.flushRound()
	h.override = none

	root := h.now.Cursor
	h.markToNode[name] = root
	h.pushPartLimit(root)

	h.parents = append(h.parents, none)
	h.colors = append(h.colors, h.color)
	for range n {
		h.edges.Grow()
		h.parents = append(h.parents, root)
		h.colors = append(h.colors, h.color)
	}
	h.edges.Grow()

	anchors := make([]int, 0, n)
	for i := root + 1; i <= root+n; i++ {
		h.edges.Link(root, i)
		if i < root+n {
			h.edges.Link(i, i+1)
		}
		anchors = append(anchors, i)
	}

	h.peculiar[root] = Peculiarity{Kind: Locked}
	h.roundSpans = append(h.roundSpans, Span{root, root + n})
	h.now = Moment{
		Cursor:    root + n + 1,
		Anchors:   anchors,
		RoundLeft: n,
		WorkingOn: Both,
		Limb:      h.mrCount,
	}
	h.mrCount++
	return nil
}

// fastenOff closes the work. With TipFromFO every remaining anchor is sewn to
// a new tip node.
func (h *Hook) fastenOff() error {
	if !h.params.TipFromFO {
		h.flushRound()
		h.now.Anchors = nil
		h.now.RoundLeft = 0
		return nil
	}

	switch n := len(h.now.Anchors); {
	case n < 2:
		return ErrFORequires2Anchors
	case n > maxFOAnchors:
		return ErrTooManyAnchorsForFO
	}

	h.flushRound()
	tip := h.now.Cursor
	for _, a := range h.now.Anchors {
		h.edges.Link(a, tip)
	}
	h.now.Anchors = nil
	h.edges.Grow()
	h.peculiar[tip] = Peculiarity{Kind: Tip}
	h.colors = append(h.colors, h.color)
	h.parents = append(h.parents, none)
	h.now.Cursor++
	h.now.RoundLeft = 0
	h.roundSpans = append(h.roundSpans, Span{tip, tip})
	return nil
}

// =============================================================================
// Bookkeeping
// =============================================================================

// previousStitch returns the node the next stitch connects to, consuming any
// override set by Goto, Slst or Attach.
func (h *Hook) previousStitch() int {
	if h.override != none {
		prev := h.override
		h.override = none
		return prev
	}
	return h.now.Cursor - 1
}

// popAnchor drops the front anchor and closes the round once every anchor of
// the previous round has been worked.
func (h *Hook) popAnchor() {
	if len(h.now.Anchors) == 0 {
		return
	}
	h.now.Anchors = h.now.Anchors[1:]
	if h.now.RoundLeft == 0 {
		return
	}
	h.now.RoundLeft--
	if h.now.RoundLeft == 0 {
		made := h.now.RoundCount
		h.flushRound()
		h.now.RoundLeft = made
		h.now.WorkingOn = Both
	}
}

// flushRound records the nodes made since the last round boundary as a span.
func (h *Hook) flushRound() {
	if c := h.now.RoundCount; c > 0 {
		h.roundSpans = append(h.roundSpans, Span{h.now.Cursor - c, h.now.Cursor - 1})
	}
	h.now.RoundCount = 0
}

func (h *Hook) pushPartLimit(at int) {
	if n := len(h.partLimits); n == 0 || h.partLimits[n-1] < at {
		h.partLimits = append(h.partLimits, at)
	}
}
