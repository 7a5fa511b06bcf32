package adoption

import (
	"errors"
	"testing"

	"pet-adoption/internal/platform/fsm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var edges = map[Status][]Status{
	StatusRequested:     {StatusPendingReview, StatusRejected},
	StatusPendingReview: {StatusApproved, StatusRejected},
	StatusPending:       {StatusApproved, StatusRejected},
	StatusApproved:      {StatusEscrowFunded, StatusCancelled},
	StatusEscrowFunded:  {StatusCompleted, StatusRefunded},
}

func isEdge(from, to Status) bool {
	for _, s := range edges[from] {
		if s == to {
			return true
		}
	}
	return false
}

func TestTransitions_OnlyGraphEdgesAreLegal(t *testing.T) {
	states := Transitions.States()
	require.Len(t, states, 9)

	for _, from := range states {
		for _, to := range states {
			got := Transitions.CanTransition(from, to)
			assert.Equal(t, isEdge(from, to), got, "%s -> %s", from, to)
			if !isEdge(from, to) {
				err := Transitions.Validate(from, to)
				assert.True(t, errors.Is(err, fsm.ErrInvalidTransition), "%s -> %s", from, to)
			}
		}
	}
}

func TestTransitions_TerminalStates(t *testing.T) {
	for _, s := range []Status{StatusCompleted, StatusRejected, StatusCancelled, StatusRefunded} {
		assert.True(t, Transitions.IsTerminal(s), "%s", s)
		assert.Empty(t, Transitions.Allowed(s), "%s", s)
		assert.False(t, IsOpen(s))
	}
	for _, s := range []Status{StatusRequested, StatusPendingReview, StatusPending, StatusApproved, StatusEscrowFunded} {
		assert.False(t, Transitions.IsTerminal(s), "%s", s)
		assert.True(t, IsOpen(s))
	}
}

func TestTransitions_PendingIsAliasOfPendingReview(t *testing.T) {
	assert.ElementsMatch(t, Transitions.Allowed(StatusPendingReview), Transitions.Allowed(StatusPending))
}

func TestTransitions_CompletedToPendingReview(t *testing.T) {
	err := Transitions.Validate(StatusCompleted, StatusPendingReview)
	var ite *fsm.InvalidTransitionError
	require.True(t, errors.As(err, &ite))
	assert.Empty(t, ite.Allowed)
	assert.True(t, ite.Terminal)
}

func TestTransitions_AdminOverride(t *testing.T) {
	// bypass de aristas
	assert.NoError(t, Transitions.ValidateOverride(StatusRequested, StatusApproved, true))
	assert.NoError(t, Transitions.ValidateOverride(StatusCancelled, StatusPendingReview, true))

	// restricciones absolutas
	assert.Error(t, Transitions.ValidateOverride(StatusCompleted, StatusPendingReview, true))
	assert.Error(t, Transitions.ValidateOverride(StatusCompleted, StatusRefunded, true))
	assert.Error(t, Transitions.ValidateOverride(StatusRejected, StatusApproved, true))
	assert.Error(t, Transitions.ValidateOverride(StatusApproved, StatusApproved, true))

	// sin override rige el grafo
	assert.Error(t, Transitions.ValidateOverride(StatusRequested, StatusApproved, false))
}

func TestOpenStatuses(t *testing.T) {
	assert.ElementsMatch(t, []Status{
		StatusRequested, StatusPendingReview, StatusPending, StatusApproved, StatusEscrowFunded,
	}, OpenStatuses())
}
