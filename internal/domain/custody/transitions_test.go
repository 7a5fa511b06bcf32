package custody

import (
	"errors"
	"testing"

	"pet-adoption/internal/platform/fsm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allStatuses = []Status{StatusActive, StatusReturned, StatusCancelled, StatusViolation}

func TestTransitions_ActiveEdges(t *testing.T) {
	for _, to := range []Status{StatusReturned, StatusCancelled, StatusViolation} {
		assert.True(t, Transitions.CanTransition(StatusActive, to), "ACTIVE -> %s", to)
	}
}

func TestTransitions_TerminalStates(t *testing.T) {
	for _, s := range []Status{StatusReturned, StatusCancelled, StatusViolation} {
		assert.True(t, Transitions.IsTerminal(s))
		assert.Empty(t, Transitions.Allowed(s))
		for _, to := range allStatuses {
			err := Transitions.Validate(s, to)
			require.Error(t, err, "%s -> %s", s, to)
			assert.True(t, errors.Is(err, fsm.ErrInvalidTransition))
		}
	}
}

func TestTransitions_NoOpRejected(t *testing.T) {
	err := Transitions.Validate(StatusActive, StatusActive)
	var ite *fsm.InvalidTransitionError
	require.True(t, errors.As(err, &ite))
	assert.Contains(t, ite.Reason, "already ACTIVE")
}

func TestTransitions_ViolationNeverReactivated(t *testing.T) {
	assert.Error(t, Transitions.ValidateOverride(StatusViolation, StatusActive, true))
	// otros terminales sí pueden reabrirse por un admin
	assert.NoError(t, Transitions.ValidateOverride(StatusCancelled, StatusActive, true))
}

func TestDescription(t *testing.T) {
	for _, s := range allStatuses {
		assert.NotEmpty(t, Description(s))
	}
	assert.Empty(t, Description("UNKNOWN"))
}
