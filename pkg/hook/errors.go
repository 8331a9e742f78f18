package hook

import (
	"errors"
	"fmt"

	"github.com/matzehuels/plushie/pkg/pattern"
)

// Errors reported by the hook. Use errors.Is to match them.
var (
	ErrEmpty                   = errors.New("pattern is empty")
	ErrBadStarter              = errors.New("pattern must start with a magic ring")
	ErrAnonymousMrInTheMiddle  = errors.New("unnamed magic ring after the start of the pattern")
	ErrEmptyMagicRing          = errors.New("magic ring needs at least one stitch")
	ErrDuplicateLabel          = errors.New("label already marked")
	ErrUnknownLabel            = errors.New("label was never marked")
	ErrUselessMark             = errors.New("mark with no stitches to return to")
	ErrNoAnchorToPullThrough   = errors.New("no stitch left to work into")
	ErrChainAfterChain         = errors.New("chain directly after another chain")
	ErrChainOfZero             = errors.New("chain of zero stitches")
	ErrAttachOutsideRing       = errors.New("attach target is not part of the current round")
	ErrFORequires2Anchors      = errors.New("fasten off needs at least 2 stitches to close")
	ErrTooManyAnchorsForFO     = errors.New("too many stitches to fasten off")
	ErrSingleLoopOnNonAnchored = errors.New("single-loop stitch without a stitch to work into")
	ErrSingleLoopNoGrandparent = errors.New("single-loop stitch into a stitch with no parent")
	ErrReverseUnsupported      = errors.New("reverse is not supported")
)

// Error wraps a hook error with the action that caused it.
type Error struct {
	Err    error
	Action pattern.Action
	Label  pattern.Label

	// Index is the position of the action in the pattern, counting the starter as 0.
	Index int
}

func (e *Error) Error() string {
	switch {
	case errors.Is(e.Err, ErrDuplicateLabel), errors.Is(e.Err, ErrUnknownLabel):
		return fmt.Sprintf("action %d (%s): %v: %d", e.Index, e.Action, e.Err, e.Label)
	default:
		return fmt.Sprintf("action %d (%s): %v", e.Index, e.Action, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }
