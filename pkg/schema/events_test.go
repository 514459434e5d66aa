package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunStatus_Terminal(t *testing.T) {
	assert.False(t, RunStatusNotStarted.Terminal())
	assert.False(t, RunStatusRunning.Terminal())
	assert.True(t, RunStatusCompleted.Terminal())
	assert.True(t, RunStatusStalled.Terminal())
	assert.True(t, RunStatusCancelled.Terminal())
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(RunStatusNotStarted, RunStatusRunning))
	assert.True(t, CanTransition(RunStatusRunning, RunStatusCompleted))
	assert.True(t, CanTransition(RunStatusRunning, RunStatusStalled))
	assert.True(t, CanTransition(RunStatusRunning, RunStatusCancelled))

	// Terminal states admit nothing.
	assert.False(t, CanTransition(RunStatusCompleted, RunStatusRunning))
	assert.False(t, CanTransition(RunStatusStalled, RunStatusCompleted))
	assert.False(t, CanTransition(RunStatusCancelled, RunStatusRunning))

	// Skipping running is not allowed.
	assert.False(t, CanTransition(RunStatusNotStarted, RunStatusCompleted))
}
