package build

import "fmt"

// State is a build state machine state.
type State string

const (
	StateIdle             State = "Idle"
	StateValidating       State = "Validating"
	StateMerging          State = "Merging"
	StateResolvingPlugins State = "ResolvingPlugins"
	StateAssembling       State = "Assembling"
	StateEmitting         State = "Emitting"
	StateDone             State = "Done"
	StateFailed           State = "Failed"
)

// Stages lists the working states in execution order.
var Stages = []State{StateValidating, StateMerging, StateResolvingPlugins, StateAssembling, StateEmitting}

var next = map[State]State{
	StateIdle:             StateValidating,
	StateValidating:       StateMerging,
	StateMerging:          StateResolvingPlugins,
	StateResolvingPlugins: StateAssembling,
	StateAssembling:       StateEmitting,
	StateEmitting:         StateDone,
}

// IsTerminal reports whether no transition leaves s.
func (s State) IsTerminal() bool {
	return s == StateDone || s == StateFailed
}

// CanTransition reports whether s may move to to.
func (s State) CanTransition(to State) bool {
	if s.IsTerminal() {
		return false
	}
	if to == StateFailed {
		return true
	}
	return next[s] == to
}

// Transition is one recorded state change.
type Transition struct {
	From State
	To   State
}

// machine tracks the state of one build and notifies an observer on every
// transition.
type machine struct {
	state    State
	history  []Transition
	observer func(from, to State)
}

func newMachine(observer func(from, to State)) *machine {
	return &machine{state: StateIdle, observer: observer}
}

func (m *machine) transition(to State) error {
	if !m.state.CanTransition(to) {
		return fmt.Errorf("invalid build transition %s -> %s", m.state, to)
	}
	from := m.state
	m.state = to
	m.history = append(m.history, Transition{From: from, To: to})
	if m.observer != nil {
		m.observer(from, to)
	}
	return nil
}
