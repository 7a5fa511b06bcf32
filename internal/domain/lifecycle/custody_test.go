package lifecycle_test

import (
	"context"
	"testing"

	"pet-adoption/internal/domain/adoption"
	"pet-adoption/internal/domain/custody"
	"pet-adoption/internal/domain/domainerr"
	"pet-adoption/internal/domain/escrow"
	"pet-adoption/internal/domain/events"
	"pet-adoption/internal/domain/lifecycle"
	"pet-adoption/internal/domain/pets"
	"pet-adoption/internal/domain/users"
	"pet-adoption/internal/platform/fsm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) startCustody(t *testing.T, deposit *int64) lifecycle.CustodyResult {
	t.Helper()
	res, err := f.c.CreateCustody(context.Background(), holder, lifecycle.CreateCustodyInput{
		PetID:         f.petID,
		DurationDays:  14,
		DepositAmount: deposit,
	})
	require.NoError(t, err)
	return res
}

func amount(v int64) *int64 { return &v }

func TestCreateCustody_StartsActive(t *testing.T) {
	f := newFixture(t)

	res := f.startCustody(t, nil)
	assert.Equal(t, custody.StatusActive, res.Custody.Status)
	assert.Equal(t, custody.TypeTemporary, res.Custody.Type)
	assert.Equal(t, now, res.Custody.StartDate)
	assert.Equal(t, now.AddDate(0, 0, 14), res.Custody.EndDate)
	assert.Nil(t, res.Escrow)
	assert.Equal(t, pets.AvailabilityInCustody, res.Availability)
	assert.Equal(t, []events.EventType{events.EventCustodyStarted}, f.eventTypes(t, events.EntityCustody, res.Custody.ID))
}

func TestCreateCustody_WithDepositCreatesEscrow(t *testing.T) {
	f := newFixture(t)

	res := f.startCustody(t, amount(5000))
	require.NotNil(t, res.Escrow)
	assert.Equal(t, escrow.StatusCreated, res.Escrow.Status)
	assert.Equal(t, int64(5000), res.Escrow.Amount)
	require.NotNil(t, res.Custody.EscrowID)
	assert.Equal(t, res.Escrow.ID, *res.Custody.EscrowID)
}

func TestCreateCustody_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []lifecycle.CreateCustodyInput{
		{PetID: f.petID, DurationDays: 0},
		{PetID: f.petID, DurationDays: 91},
		{PetID: f.petID, DurationDays: 5, DepositAmount: amount(0)},
		{PetID: f.petID, DurationDays: 5, StartDate: now.AddDate(0, 0, -1)},
		{DurationDays: 5},
	}
	for _, in := range cases {
		_, err := f.c.CreateCustody(ctx, holder, in)
		assert.ErrorIs(t, err, domainerr.ErrInvalidInput, "%+v", in)
	}

	_, err := f.c.CreateCustody(ctx, holder, lifecycle.CreateCustodyInput{PetID: "missing", DurationDays: 5})
	assert.ErrorIs(t, err, domainerr.ErrNotFound)
}

func TestCreateCustody_Conflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.startCustody(t, nil)
	_, err := f.c.CreateCustody(ctx, other, lifecycle.CreateCustodyInput{PetID: f.petID, DurationDays: 3})
	assert.ErrorIs(t, err, domainerr.ErrConflict)

	g := newFixture(t)
	g.request(t)
	_, err = g.c.CreateCustody(ctx, holder, lifecycle.CreateCustodyInput{PetID: g.petID, DurationDays: 3})
	assert.ErrorIs(t, err, domainerr.ErrConflict)

	h := newFixture(t)
	funded := h.funded(t)
	h.move(t, funded.Adoption.ID, adoption.StatusCompleted, owner)
	_, err = h.c.CreateCustody(ctx, holder, lifecycle.CreateCustodyInput{PetID: h.petID, DurationDays: 3})
	assert.ErrorIs(t, err, domainerr.ErrConflict)
}

func TestTransitionCustody_ViolationPenalizesHolder(t *testing.T) {
	f := newFixture(t)
	cu := f.startCustody(t, nil)

	res, err := f.c.TransitionCustodyStatus(context.Background(), cu.Custody.ID, custody.StatusViolation, owner)
	require.NoError(t, err)

	assert.Equal(t, custody.StatusViolation, res.Custody.Status)
	assert.Equal(t, now, res.Custody.EndDate)
	assert.Equal(t, pets.AvailabilityAvailable, res.Availability)
	assert.Equal(t, users.DefaultTrustScore-users.ViolationPenalty, f.score(t, "holder"))

	assert.Equal(t, []events.EventType{events.EventCustodyStarted, events.EventCustodyViolation},
		f.eventTypes(t, events.EntityCustody, cu.Custody.ID))
	assert.Equal(t, []events.EventType{events.EventTrustScoreUpdated}, f.eventTypes(t, events.EntityUser, "holder"))
}

func TestTransitionCustody_ViolationWithDepositPenalizesOnce(t *testing.T) {
	f := newFixture(t)
	cu := f.startCustody(t, amount(5000))

	res, err := f.c.TransitionCustodyStatus(context.Background(), cu.Custody.ID, custody.StatusViolation, admin)
	require.NoError(t, err)

	require.NotNil(t, res.Escrow)
	assert.Equal(t, escrow.StatusRefunded, res.Escrow.Status)
	assert.Equal(t, users.DefaultTrustScore-users.ViolationPenalty, f.score(t, "holder"))
	assert.Equal(t, []events.EventType{events.EventTrustScoreUpdated}, f.eventTypes(t, events.EntityUser, "holder"))
	assert.Equal(t, []events.EventType{events.EventEscrowCreated, events.EventEscrowRefunded},
		f.eventTypes(t, events.EntityEscrow, res.Escrow.ID))
}

func TestTransitionCustody_ReturnedRewardsAndRefundsDeposit(t *testing.T) {
	f := newFixture(t)
	cu := f.startCustody(t, amount(5000))

	res, err := f.c.TransitionCustodyStatus(context.Background(), cu.Custody.ID, custody.StatusReturned, holder)
	require.NoError(t, err)

	assert.Equal(t, custody.StatusReturned, res.Custody.Status)
	require.NotNil(t, res.Escrow)
	assert.Equal(t, escrow.StatusRefunded, res.Escrow.Status)
	assert.Equal(t, users.DefaultTrustScore+users.SuccessfulCustodyBonus, f.score(t, "holder"))
	assert.Equal(t, pets.AvailabilityAvailable, f.availability(t))
}

func TestTransitionCustody_PenaltyClampsAtZero(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < users.DefaultTrustScore/users.ViolationPenalty+1; i++ {
		cu := f.startCustody(t, nil)
		_, err := f.c.TransitionCustodyStatus(context.Background(), cu.Custody.ID, custody.StatusViolation, owner)
		require.NoError(t, err)
	}
	assert.Equal(t, users.MinTrustScore, f.score(t, "holder"))
}

func TestTransitionCustody_TerminalAndPolicy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cu := f.startCustody(t, nil)

	_, err := f.c.TransitionCustodyStatus(ctx, cu.Custody.ID, custody.StatusReturned, other)
	assert.ErrorIs(t, err, domainerr.ErrForbidden)

	_, err = f.c.TransitionCustodyStatus(ctx, cu.Custody.ID, custody.StatusActive, holder)
	var te *fsm.InvalidTransitionError
	require.ErrorAs(t, err, &te)
	assert.ElementsMatch(t, []string{"RETURNED", "CANCELLED", "VIOLATION"}, te.Allowed)

	_, err = f.c.TransitionCustodyStatus(ctx, cu.Custody.ID, custody.StatusCancelled, holder)
	require.NoError(t, err)

	_, err = f.c.TransitionCustodyStatus(ctx, cu.Custody.ID, custody.StatusViolation, admin)
	require.ErrorAs(t, err, &te)
	assert.True(t, te.Terminal)
	assert.Empty(t, te.Allowed)
	assert.Equal(t, users.DefaultTrustScore, f.score(t, "holder"))

	_, err = f.c.TransitionCustodyStatus(ctx, cu.Custody.ID, "LOST", holder)
	assert.ErrorIs(t, err, domainerr.ErrInvalidInput)
}

func TestTransitionCustody_EventLogFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	cu := f.startCustody(t, nil)
	before := f.allEvents(t)

	f.store.failOn = events.EventTrustScoreUpdated
	_, err := f.c.TransitionCustodyStatus(context.Background(), cu.Custody.ID, custody.StatusViolation, owner)
	require.ErrorIs(t, err, domainerr.ErrInternal)
	f.store.failOn = ""

	got, err := f.c.GetCustody(context.Background(), cu.Custody.ID, holder)
	require.NoError(t, err)
	assert.Equal(t, custody.StatusActive, got.Status)
	assert.Equal(t, users.DefaultTrustScore, f.score(t, "holder"))
	assert.Equal(t, pets.AvailabilityInCustody, f.availability(t))
	assert.Equal(t, before, f.allEvents(t))
}
