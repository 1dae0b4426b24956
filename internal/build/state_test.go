package build

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateTransitions(t *testing.T) {
	assert.True(t, StateIdle.CanTransition(StateValidating))
	assert.True(t, StateAssembling.CanTransition(StateEmitting))
	assert.True(t, StateEmitting.CanTransition(StateDone))
	assert.True(t, StateMerging.CanTransition(StateFailed))
	assert.True(t, StateIdle.CanTransition(StateFailed))

	assert.False(t, StateIdle.CanTransition(StateMerging), "stages cannot be skipped")
	assert.False(t, StateMerging.CanTransition(StateValidating), "stages cannot go back")
	assert.False(t, StateDone.CanTransition(StateFailed))
	assert.False(t, StateFailed.CanTransition(StateValidating))
}

func TestMachineRecordsTransitions(t *testing.T) {
	var seen []Transition
	m := newMachine(func(from, to State) { seen = append(seen, Transition{From: from, To: to}) })

	require.NoError(t, m.transition(StateValidating))
	require.NoError(t, m.transition(StateFailed))
	require.Error(t, m.transition(StateMerging))

	want := []Transition{{StateIdle, StateValidating}, {StateValidating, StateFailed}}
	assert.Equal(t, want, m.history)
	assert.Equal(t, want, seen)
	assert.True(t, m.state.IsTerminal())
}
