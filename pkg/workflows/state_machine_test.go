package workflows

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocumentTransitions(t *testing.T) {
	sm := NewDocumentStateMachine()

	assert.True(t, sm.CanTransition("DRAFT", "IN_PROGRESS"))
	assert.True(t, sm.CanTransition("IN_PROGRESS", "COMPLETED"))
	assert.True(t, sm.CanTransition("IN_PROGRESS", "REJECTED"))

	assert.False(t, sm.CanTransition("DRAFT", "COMPLETED"))
	assert.False(t, sm.CanTransition("COMPLETED", "IN_PROGRESS"))
	assert.False(t, sm.CanTransition("REJECTED", "IN_PROGRESS"))
	assert.False(t, sm.CanTransition("UNKNOWN", "IN_PROGRESS"))
}

func TestLineTransitions(t *testing.T) {
	sm := NewLineStateMachine()

	assert.True(t, sm.CanTransition("WAITING", "APPROVED"))
	assert.True(t, sm.CanTransition("WAITING", "REJECTED"))
	assert.False(t, sm.CanTransition("APPROVED", "REJECTED"))
	assert.False(t, sm.CanTransition("REJECTED", "WAITING"))
}

func TestTerminalStates(t *testing.T) {
	sm := NewDocumentStateMachine()

	assert.True(t, sm.IsTerminal("COMPLETED"))
	assert.True(t, sm.IsTerminal("REJECTED"))
	assert.False(t, sm.IsTerminal("IN_PROGRESS"))
	assert.Empty(t, sm.GetAllowedTransitions("COMPLETED"))
}
