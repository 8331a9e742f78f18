package pattern

// Flow is a forward-only source of actions.
type Flow interface {
	// Next consumes and returns the next action. ok is false once the flow is exhausted.
	Next() (a Action, ok bool)
	// Peek returns the next action without consuming it.
	Peek() (a Action, ok bool)
}

// SliceFlow is a [Flow] over an in-memory list of actions.
type SliceFlow struct {
	actions []Action
	pos     int
}

// NewFlow returns a flow that yields actions in order.
func NewFlow(actions []Action) *SliceFlow {
	return &SliceFlow{actions: actions}
}

// Next implements [Flow].
func (f *SliceFlow) Next() (Action, bool) {
	a, ok := f.Peek()
	if ok {
		f.pos++
	}
	return a, ok
}

// Peek implements [Flow].
func (f *SliceFlow) Peek() (Action, bool) {
	if f.pos >= len(f.actions) {
		return Action{}, false
	}
	return f.actions[f.pos], true
}

// Remaining reports how many actions have not been consumed yet.
func (f *SliceFlow) Remaining() int {
	return len(f.actions) - f.pos
}

var _ Flow = (*SliceFlow)(nil)
