// Package pattern defines the crochet action model and its text notation.
//
// A pattern is an ordered list of [Action] values. The first action must be
// a magic ring (optionally preceded by a color change); everything after it is
// interpreted by the hook package, which turns the actions into a graph of
// stitches.
//
// # Notation
//
// Patterns are usually written in a compact text form and parsed with [Parse]:
//
//	# a small ball
//	mr(6)
//	6*inc
//	[sc, inc]*6
//	18*sc
//	[sc, dec]*6
//	6*dec
//	fo
//
// Tokens are separated by whitespace or commas. A token can be repeated with
// a count on either side (6*inc, inc*6), and bracketed groups repeat as a
// unit ([sc, inc]*6). Everything after a '#' on a line is ignored.
package pattern

import (
	"fmt"
	"strings"
)

// Label names a saved point of work for Mark, Goto and Attach.
type Label uint32

// RGB is a stitch color.
type RGB [3]uint8

// DefaultColor is used until a Color action changes it.
var DefaultColor = RGB{255, 0, 255}

// Kind identifies what an [Action] does.
type Kind int

// Action kinds.
const (
	KindSc Kind = iota
	KindInc
	KindDec
	KindSlst
	KindCh
	KindAttach
	KindFLO
	KindBLO
	KindBL
	KindReverse
	KindGoto
	KindMark
	KindMR
	KindMRConfigurable
	KindFO
	KindColor
)

var kindNames = map[Kind]string{
	KindSc:             "sc",
	KindInc:            "inc",
	KindDec:            "dec",
	KindSlst:           "slst",
	KindCh:             "ch",
	KindAttach:         "attach",
	KindFLO:            "flo",
	KindBLO:            "blo",
	KindBL:             "bl",
	KindReverse:        "reverse",
	KindGoto:           "goto",
	KindMark:           "mark",
	KindMR:             "mr",
	KindMRConfigurable: "mr",
	KindFO:             "fo",
	KindColor:          "color",
}

// String returns the notation keyword of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Action is a single crochet instruction.
//
// Only the fields relevant to Kind are meaningful:
//   - N: chain length (Ch), attaching chain length (Attach), ring size (MR, MRConfigurable)
//   - Label: Attach, Goto, Mark
//   - Name: limb name of MRConfigurable
//   - Color: Color
type Action struct {
	Kind  Kind
	N     int
	Label Label
	Name  string
	Color RGB
}

// Sc is a single crochet into the next anchor.
func Sc() Action { return Action{Kind: KindSc} }

// Inc works two stitches into the same anchor.
func Inc() Action { return Action{Kind: KindInc} }

// Dec works one stitch across two anchors.
func Dec() Action { return Action{Kind: KindDec} }

// Slst is a slip stitch.
func Slst() Action { return Action{Kind: KindSlst} }

// Ch is a chain of n unanchored stitches.
func Ch(n int) Action { return Action{Kind: KindCh, N: n} }

// Attach joins the current round to the work saved under label, through a chain
// of n stitches. With n == 0 the join is direct.
func Attach(label Label, n int) Action { return Action{Kind: KindAttach, Label: label, N: n} }

// FLO switches to front-loop-only stitching.
func FLO() Action { return Action{Kind: KindFLO} }

// BLO switches to back-loop-only stitching.
func BLO() Action { return Action{Kind: KindBLO} }

// BL switches back to stitching through both loops.
func BL() Action { return Action{Kind: KindBL} }

// Reverse turns the work.
func Reverse() Action { return Action{Kind: KindReverse} }

// Goto resumes work at the point saved under label.
func Goto(label Label) Action { return Action{Kind: KindGoto, Label: label} }

// Mark saves the current point of work under label.
func Mark(label Label) Action { return Action{Kind: KindMark, Label: label} }

// MR starts a magic ring of n stitches.
func MR(n int) Action { return Action{Kind: KindMR, N: n} }

// MRConfigurable starts a new, named magic ring of n stitches mid-pattern.
func MRConfigurable(n int, name string) Action {
	return Action{Kind: KindMRConfigurable, N: n, Name: name}
}

// FO fastens off.
func FO() Action { return Action{Kind: KindFO} }

// Color changes the yarn color for subsequent stitches.
func Color(r, g, b uint8) Action { return Action{Kind: KindColor, Color: RGB{r, g, b}} }

// String renders the action in pattern notation.
func (a Action) String() string {
	switch a.Kind {
	case KindCh, KindMR:
		return fmt.Sprintf("%s(%d)", a.Kind, a.N)
	case KindAttach:
		return fmt.Sprintf("attach(%d, %d)", a.Label, a.N)
	case KindGoto, KindMark:
		return fmt.Sprintf("%s(%d)", a.Kind, a.Label)
	case KindMRConfigurable:
		return fmt.Sprintf("mr(%d, %s)", a.N, a.Name)
	case KindColor:
		return fmt.Sprintf("color(%d, %d, %d)", a.Color[0], a.Color[1], a.Color[2])
	default:
		return a.Kind.String()
	}
}

// String renders a whole pattern in notation, one token per action.
func String(actions []Action) string {
	parts := make([]string, len(actions))
	for i, a := range actions {
		parts[i] = a.String()
	}
	return strings.Join(parts, " ")
}
