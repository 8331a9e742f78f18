package hook

import (
	"encoding/json"
	"fmt"
)

// PeculiarityKind tags the special behaviour of a node in the simulation.
type PeculiarityKind int

const (
	// Locked marks a magic-ring root. Its position is held at the origin.
	Locked PeculiarityKind = iota + 1
	// Tip marks the closing node created by fastening off.
	Tip
	// FLO marks a stitch worked into the front loop only.
	FLO
	// BLO marks a stitch worked into the back loop only.
	BLO
)

func (k PeculiarityKind) String() string {
	switch k {
	case Locked:
		return "Locked"
	case Tip:
		return "Tip"
	case FLO:
		return "FLO"
	case BLO:
		return "BLO"
	}
	return fmt.Sprintf("PeculiarityKind(%d)", int(k))
}

// PushPlane is the (father, mother, grandparent) triple defining the plane a
// single-loop stitch is pushed away from.
type PushPlane struct {
	Father      int
	Mother      int
	Grandparent int
}

// Peculiarity is a node annotation. Plane is set only for FLO and BLO.
type Peculiarity struct {
	Kind  PeculiarityKind
	Plane PushPlane
}

// MarshalJSON encodes Locked and Tip as plain strings and single-loop
// peculiarities as {"FLO": [father, mother, grandparent]}.
func (p Peculiarity) MarshalJSON() ([]byte, error) {
	switch p.Kind {
	case Locked, Tip:
		return json.Marshal(p.Kind.String())
	case FLO, BLO:
		return json.Marshal(map[string][3]int{
			p.Kind.String(): {p.Plane.Father, p.Plane.Mother, p.Plane.Grandparent},
		})
	}
	return nil, fmt.Errorf("hook: cannot encode %v", p.Kind)
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Peculiarity) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		switch name {
		case "Locked":
			*p = Peculiarity{Kind: Locked}
		case "Tip":
			*p = Peculiarity{Kind: Tip}
		default:
			return fmt.Errorf("hook: unknown peculiarity %q", name)
		}
		return nil
	}

	var plane map[string][3]int
	if err := json.Unmarshal(data, &plane); err != nil {
		return err
	}
	for name, v := range plane {
		kind := FLO
		switch name {
		case "FLO":
		case "BLO":
			kind = BLO
		default:
			return fmt.Errorf("hook: unknown peculiarity %q", name)
		}
		*p = Peculiarity{Kind: kind, Plane: PushPlane{Father: v[0], Mother: v[1], Grandparent: v[2]}}
		return nil
	}
	return fmt.Errorf("hook: empty peculiarity")
}
