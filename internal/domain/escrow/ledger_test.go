package escrow_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"pet-adoption/internal/adapters/settlement/stub"
	"pet-adoption/internal/adapters/storage/memory"
	"pet-adoption/internal/domain/adoption"
	"pet-adoption/internal/domain/custody"
	"pet-adoption/internal/domain/domainerr"
	"pet-adoption/internal/domain/escrow"
	"pet-adoption/internal/domain/events"
	"pet-adoption/internal/domain/pets"
	"pet-adoption/internal/domain/users"
	"pet-adoption/internal/ports/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

type failingProvider struct {
	calls int
}

func (p *failingProvider) Create(ctx context.Context, amount int64) (string, error) {
	p.calls++
	return "", errors.New("provider down")
}

func (p *failingProvider) Release(ctx context.Context, reference string) (string, error) {
	p.calls++
	return "", errors.New("provider down")
}

func (p *failingProvider) Refund(ctx context.Context, reference string) (string, error) {
	p.calls++
	return "", errors.New("provider down")
}

// slowProvider bloquea hasta que vence el contexto.
type slowProvider struct{}

func (slowProvider) Create(ctx context.Context, amount int64) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}
func (slowProvider) Release(ctx context.Context, reference string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}
func (slowProvider) Refund(ctx context.Context, reference string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

type fixture struct {
	store  *memory.Store
	ledger *escrow.Ledger
}

func newFixture(t *testing.T, provider escrow.Provider) fixture {
	t.Helper()
	s := memory.New()
	ctx := context.Background()

	err := s.WithinTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		for _, id := range []string{"owner", "adopter", "holder"} {
			if err := tx.Users().Create(ctx, users.User{ID: id, Email: id + "@example.com", Role: users.RoleUser, TrustScore: users.DefaultTrustScore, CreatedAt: now, UpdatedAt: now}); err != nil {
				return err
			}
		}
		return tx.Pets().Create(ctx, pets.Pet{ID: "pet-1", CurrentOwnerID: "owner", Name: "Toby", Species: pets.SpeciesDog, CreatedAt: now, UpdatedAt: now})
	})
	require.NoError(t, err)

	ledger := escrow.NewLedger(provider, users.NewTrustAdjuster().WithClock(clock)).WithClock(clock)
	return fixture{store: s, ledger: ledger}
}

// fundedAdoption crea un escrow y una adopción ESCROW_FUNDED vinculada.
func (f fixture) fundedAdoption(t *testing.T) escrow.Escrow {
	t.Helper()
	var e escrow.Escrow
	err := f.store.WithinTx(context.Background(), func(ctx context.Context, tx storage.Tx) error {
		var err error
		e, err = f.ledger.Create(ctx, tx, 25000, "adopter")
		if err != nil {
			return err
		}
		eid := e.ID
		return tx.Adoptions().Create(ctx, adoption.Adoption{
			ID: "ad-1", PetID: "pet-1", AdopterID: "adopter", OwnerID: "owner",
			Status: adoption.StatusEscrowFunded, EscrowID: &eid, CreatedAt: now, UpdatedAt: now,
		})
	})
	require.NoError(t, err)
	return e
}

func (f fixture) eventTypes(t *testing.T, et events.EntityType, id string) []events.EventType {
	t.Helper()
	list, err := f.store.Read().Events().ListByEntity(context.Background(), et, id)
	require.NoError(t, err)
	out := make([]events.EventType, 0, len(list))
	for _, e := range list {
		out = append(out, e.Type)
	}
	return out
}

func (f fixture) score(t *testing.T, id string) int {
	t.Helper()
	u, err := f.store.Read().Users().GetByID(context.Background(), id)
	require.NoError(t, err)
	return u.TrustScore
}

func TestLedger_Create(t *testing.T) {
	f := newFixture(t, stub.New())

	var e escrow.Escrow
	err := f.store.WithinTx(context.Background(), func(ctx context.Context, tx storage.Tx) error {
		var err error
		e, err = f.ledger.Create(ctx, tx, 1000, "owner")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, escrow.StatusCreated, e.Status)
	assert.NotEmpty(t, e.Reference)
	assert.Equal(t, []events.EventType{events.EventEscrowCreated}, f.eventTypes(t, events.EntityEscrow, e.ID))

	err = f.store.WithinTx(context.Background(), func(ctx context.Context, tx storage.Tx) error {
		_, err := f.ledger.Create(ctx, tx, 0, "owner")
		return err
	})
	require.ErrorIs(t, err, domainerr.ErrInvalidInput)
}

func TestLedger_Release_CascadesToAdoption(t *testing.T) {
	f := newFixture(t, stub.New())
	e := f.fundedAdoption(t)

	var released escrow.Escrow
	err := f.store.WithinTx(context.Background(), func(ctx context.Context, tx storage.Tx) error {
		var err error
		released, err = f.ledger.Release(ctx, tx, e.ID, "owner")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, escrow.StatusReleased, released.Status)
	require.NotNil(t, released.ReleaseTxHash)
	assert.Nil(t, released.RefundTxHash)

	read := f.store.Read()
	a, err := read.Adoptions().GetByID(context.Background(), "ad-1")
	require.NoError(t, err)
	assert.Equal(t, adoption.StatusCompleted, a.Status)

	p, err := read.Pets().GetByID(context.Background(), "pet-1")
	require.NoError(t, err)
	assert.Equal(t, "adopter", p.CurrentOwnerID)

	assert.Equal(t, users.DefaultTrustScore+users.AdoptionCompletionBonus, f.score(t, "adopter"))
	assert.Equal(t, users.DefaultTrustScore+users.AdoptionCompletionBonus, f.score(t, "owner"))

	assert.Equal(t, []events.EventType{events.EventEscrowCreated, events.EventEscrowReleased}, f.eventTypes(t, events.EntityEscrow, e.ID))
	assert.Equal(t, []events.EventType{events.EventAdoptionCompleted}, f.eventTypes(t, events.EntityAdoption, "ad-1"))

	evs, err := read.Events().ListByEntity(context.Background(), events.EntityEscrow, e.ID)
	require.NoError(t, err)
	assert.Equal(t, *released.ReleaseTxHash, evs[1].TxHash)
}

func TestLedger_SecondReleaseConflictsWithoutWrites(t *testing.T) {
	f := newFixture(t, stub.New())
	e := f.fundedAdoption(t)

	release := func() error {
		return f.store.WithinTx(context.Background(), func(ctx context.Context, tx storage.Tx) error {
			_, err := f.ledger.Release(ctx, tx, e.ID, "owner")
			return err
		})
	}
	require.NoError(t, release())

	before, err := f.store.Read().Events().List(context.Background(), events.ListFilter{Limit: 500})
	require.NoError(t, err)
	scoreBefore := f.score(t, "adopter")

	require.ErrorIs(t, release(), domainerr.ErrConflict)

	err = f.store.WithinTx(context.Background(), func(ctx context.Context, tx storage.Tx) error {
		_, err := f.ledger.Refund(ctx, tx, e.ID, "owner")
		return err
	})
	require.ErrorIs(t, err, domainerr.ErrConflict)

	after, err := f.store.Read().Events().List(context.Background(), events.ListFilter{Limit: 500})
	require.NoError(t, err)
	assert.Len(t, after, len(before))
	assert.Equal(t, scoreBefore, f.score(t, "adopter"))
}

func TestLedger_Release_RequiresFundedAdoption(t *testing.T) {
	f := newFixture(t, stub.New())
	e := f.fundedAdoption(t)

	err := f.store.WithinTx(context.Background(), func(ctx context.Context, tx storage.Tx) error {
		return tx.Adoptions().UpdateStatus(ctx, "ad-1", adoption.StatusEscrowFunded, adoption.StatusRefunded, now)
	})
	require.NoError(t, err)

	err = f.store.WithinTx(context.Background(), func(ctx context.Context, tx storage.Tx) error {
		_, err := f.ledger.Release(ctx, tx, e.ID, "owner")
		return err
	})
	require.ErrorIs(t, err, domainerr.ErrConflict)
}

func TestLedger_Release_NotFound(t *testing.T) {
	f := newFixture(t, stub.New())

	err := f.store.WithinTx(context.Background(), func(ctx context.Context, tx storage.Tx) error {
		_, err := f.ledger.Release(ctx, tx, "missing", "owner")
		return err
	})
	require.ErrorIs(t, err, domainerr.ErrNotFound)
}

func TestLedger_Refund_AdoptionKeepsOwnership(t *testing.T) {
	f := newFixture(t, stub.New())
	e := f.fundedAdoption(t)

	err := f.store.WithinTx(context.Background(), func(ctx context.Context, tx storage.Tx) error {
		_, err := f.ledger.Refund(ctx, tx, e.ID, "adopter")
		return err
	})
	require.NoError(t, err)

	read := f.store.Read()
	a, err := read.Adoptions().GetByID(context.Background(), "ad-1")
	require.NoError(t, err)
	assert.Equal(t, adoption.StatusRefunded, a.Status)

	p, err := read.Pets().GetByID(context.Background(), "pet-1")
	require.NoError(t, err)
	assert.Equal(t, "owner", p.CurrentOwnerID)

	esc, err := read.Escrows().GetByID(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, escrow.StatusRefunded, esc.Status)
	require.NotNil(t, esc.RefundTxHash)
	assert.Nil(t, esc.ReleaseTxHash)

	assert.Equal(t, users.DefaultTrustScore, f.score(t, "adopter"))
}

func TestLedger_Refund_ViolationPenalizesHolder(t *testing.T) {
	f := newFixture(t, stub.New())

	var e escrow.Escrow
	err := f.store.WithinTx(context.Background(), func(ctx context.Context, tx storage.Tx) error {
		var err error
		e, err = f.ledger.Create(ctx, tx, 5000, "holder")
		if err != nil {
			return err
		}
		eid := e.ID
		deposit := int64(5000)
		return tx.Custodies().Create(ctx, custody.Custody{
			ID: "cu-1", PetID: "pet-1", HolderID: "holder", Status: custody.StatusViolation,
			Type: custody.TypeTemporary, StartDate: now, EndDate: now,
			DepositAmount: &deposit, EscrowID: &eid, CreatedAt: now, UpdatedAt: now,
		})
	})
	require.NoError(t, err)

	err = f.store.WithinTx(context.Background(), func(ctx context.Context, tx storage.Tx) error {
		_, err := f.ledger.Refund(ctx, tx, e.ID, "owner")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, users.DefaultTrustScore-users.ViolationPenalty, f.score(t, "holder"))
	assert.Equal(t, []events.EventType{events.EventTrustScoreUpdated}, f.eventTypes(t, events.EntityUser, "holder"))
}

func TestLedger_ProviderFailureRollsBack(t *testing.T) {
	f := newFixture(t, stub.New())
	e := f.fundedAdoption(t)

	failing := &failingProvider{}
	broken := escrow.NewLedger(failing, nil).WithClock(clock)

	err := f.store.WithinTx(context.Background(), func(ctx context.Context, tx storage.Tx) error {
		_, err := broken.Release(ctx, tx, e.ID, "owner")
		return err
	})
	require.ErrorIs(t, err, domainerr.ErrInternal)
	assert.Equal(t, 1, failing.calls)

	esc, err := f.store.Read().Escrows().GetByID(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, escrow.StatusCreated, esc.Status)
}

func TestLedger_ProviderTimeout(t *testing.T) {
	f := newFixture(t, stub.New())
	e := f.fundedAdoption(t)

	slow := escrow.NewLedger(slowProvider{}, nil).WithClock(clock).WithProviderTimeout(20 * time.Millisecond)

	err := f.store.WithinTx(context.Background(), func(ctx context.Context, tx storage.Tx) error {
		_, err := slow.Refund(ctx, tx, e.ID, "owner")
		return err
	})
	require.ErrorIs(t, err, domainerr.ErrInternal)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
