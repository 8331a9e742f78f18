package hook

import "fmt"

// Leniency selects how the hook reacts to an action that cannot be performed.
type Leniency int

const (
	// NoMercy returns the first error.
	NoMercy Leniency = iota
	// SkipIncorrect drops failing actions and keeps the state from before them.
	SkipIncorrect
	// GeneticFixups is SkipIncorrect, but first retries a failing Dec as Sc.
	GeneticFixups
)

var leniencyNames = []string{"no-mercy", "skip-incorrect", "genetic-fixups"}

func (l Leniency) String() string {
	if l >= 0 && int(l) < len(leniencyNames) {
		return leniencyNames[l]
	}
	return fmt.Sprintf("Leniency(%d)", int(l))
}

// ParseLeniency converts a name such as "skip-incorrect" into a Leniency.
func ParseLeniency(s string) (Leniency, error) {
	for i, name := range leniencyNames {
		if s == name {
			return Leniency(i), nil
		}
	}
	return NoMercy, fmt.Errorf("unknown leniency %q (want one of %v)", s, leniencyNames)
}

// MarshalText implements encoding.TextMarshaler.
func (l Leniency) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Leniency) UnmarshalText(text []byte) error {
	v, err := ParseLeniency(string(text))
	if err != nil {
		return err
	}
	*l = v
	return nil
}
