package escrow

import (
	"context"
	"errors"
	"strings"
	"time"

	"pet-adoption/internal/domain/adoption"
	"pet-adoption/internal/domain/custody"
	"pet-adoption/internal/domain/domainerr"
	"pet-adoption/internal/domain/events"
	"pet-adoption/internal/domain/pets"
	"pet-adoption/internal/domain/users"

	"github.com/google/uuid"
)

// DefaultProviderTimeout acota cada llamada al proveedor dentro de la transacción.
const DefaultProviderTimeout = 5 * time.Second

// Tx es la transacción sobre la que opera el ledger. Todas las escrituras de una
// liberación o reembolso (escrow, adopción, mascota, scores, eventos) van aquí.
type Tx interface {
	Escrows() Repository
	Adoptions() adoption.Repository
	Custodies() custody.Repository
	Pets() pets.Repository
	Users() users.Repository
	Events() events.Repository
}

type Ledger struct {
	provider Provider
	trust    *users.TrustAdjuster
	now      func() time.Time
	timeout  time.Duration
}

func NewLedger(provider Provider, trust *users.TrustAdjuster) *Ledger {
	if trust == nil {
		trust = users.NewTrustAdjuster()
	}
	return &Ledger{
		provider: provider,
		trust:    trust,
		now:      time.Now,
		timeout:  DefaultProviderTimeout,
	}
}

func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	if now != nil {
		l.now = now
	}
	return l
}

func (l *Ledger) WithProviderTimeout(d time.Duration) *Ledger {
	if d > 0 {
		l.timeout = d
	}
	return l
}

// Create abre un escrow en CREATED con una referencia placeholder del proveedor.
func (l *Ledger) Create(ctx context.Context, tx Tx, amount int64, actorID string) (Escrow, error) {
	if amount <= 0 {
		return Escrow{}, domainerr.InvalidInput("escrow amount must be positive")
	}

	pctx, cancel := context.WithTimeout(ctx, l.timeout)
	ref, err := l.provider.Create(pctx, amount)
	cancel()
	if err != nil {
		return Escrow{}, domainerr.Internal(err, "create escrow at provider")
	}

	now := l.now().UTC()
	e := Escrow{
		ID:        uuid.NewString(),
		Amount:    amount,
		Status:    StatusCreated,
		Reference: ref,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.Escrows().Create(ctx, e); err != nil {
		return Escrow{}, err
	}

	if _, err := l.log(tx).Log(ctx, events.LogInput{
		EntityType: events.EntityEscrow,
		EntityID:   e.ID,
		Type:       events.EventEscrowCreated,
		ActorID:    actorID,
		Payload: map[string]any{
			"amount":    e.Amount,
			"reference": e.Reference,
		},
	}); err != nil {
		return Escrow{}, err
	}
	return e, nil
}

// Release libera los fondos. Si el escrow respalda una adopción, la adopción pasa a
// COMPLETED, la mascota cambia de dueño y ambas partes reciben el bonus, todo en tx.
func (l *Ledger) Release(ctx context.Context, tx Tx, id, actorID string) (Escrow, error) {
	e, err := l.loadOpen(ctx, tx, id)
	if err != nil {
		return Escrow{}, err
	}

	linked, hasAdoption, err := l.linkedAdoption(ctx, tx, e.ID)
	if err != nil {
		return Escrow{}, err
	}
	if hasAdoption && linked.Status != adoption.StatusEscrowFunded {
		return Escrow{}, domainerr.Conflict("adoption %s is %s, escrow can only be released when %s",
			linked.ID, linked.Status, adoption.StatusEscrowFunded)
	}

	pctx, cancel := context.WithTimeout(ctx, l.timeout)
	txHash, err := l.provider.Release(pctx, e.Reference)
	cancel()
	if err != nil {
		return Escrow{}, domainerr.Internal(err, "release escrow %s at provider", e.ID)
	}

	e, err = l.settle(ctx, tx, e, StatusReleased, txHash, events.EventEscrowReleased, actorID)
	if err != nil {
		return Escrow{}, err
	}

	if hasAdoption {
		if err := l.completeAdoption(ctx, tx, linked, e, actorID); err != nil {
			return Escrow{}, err
		}
	}
	return e, nil
}

// Refund devuelve los fondos. Una adopción en ESCROW_FUNDED pasa a REFUNDED; una
// custodia que terminó en VIOLATION penaliza al holder. La propiedad no cambia.
func (l *Ledger) Refund(ctx context.Context, tx Tx, id, actorID string) (Escrow, error) {
	e, err := l.loadOpen(ctx, tx, id)
	if err != nil {
		return Escrow{}, err
	}

	linked, hasAdoption, err := l.linkedAdoption(ctx, tx, e.ID)
	if err != nil {
		return Escrow{}, err
	}
	if hasAdoption && linked.Status == adoption.StatusCompleted {
		return Escrow{}, domainerr.Conflict("adoption %s is already completed", linked.ID)
	}

	c, hasCustody, err := l.linkedCustody(ctx, tx, e.ID)
	if err != nil {
		return Escrow{}, err
	}

	pctx, cancel := context.WithTimeout(ctx, l.timeout)
	txHash, err := l.provider.Refund(pctx, e.Reference)
	cancel()
	if err != nil {
		return Escrow{}, domainerr.Internal(err, "refund escrow %s at provider", e.ID)
	}

	e, err = l.settle(ctx, tx, e, StatusRefunded, txHash, events.EventEscrowRefunded, actorID)
	if err != nil {
		return Escrow{}, err
	}

	if hasAdoption && linked.Status == adoption.StatusEscrowFunded {
		if err := l.refundAdoption(ctx, tx, linked, e, actorID); err != nil {
			return Escrow{}, err
		}
	}
	if hasCustody && c.Status == custody.StatusViolation {
		if _, err := l.trust.PenalizeViolation(ctx, tx, c.HolderID, c.ID, actorID); err != nil {
			return Escrow{}, err
		}
	}
	return e, nil
}

func (l *Ledger) loadOpen(ctx context.Context, tx Tx, id string) (Escrow, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Escrow{}, domainerr.InvalidInput("escrow id required")
	}
	e, err := tx.Escrows().GetByID(ctx, id)
	if err != nil {
		return Escrow{}, err
	}
	if e.Status != StatusCreated {
		return Escrow{}, domainerr.Conflict("escrow %s is already %s", e.ID, e.Status)
	}
	return e, nil
}

func (l *Ledger) settle(ctx context.Context, tx Tx, e Escrow, to Status, txHash string, evt events.EventType, actorID string) (Escrow, error) {
	now := l.now().UTC()
	if err := tx.Escrows().Settle(ctx, e.ID, to, txHash, now); err != nil {
		return Escrow{}, err
	}

	e.Status = to
	e.UpdatedAt = now
	hash := txHash
	if to == StatusReleased {
		e.ReleaseTxHash = &hash
	} else {
		e.RefundTxHash = &hash
	}

	if _, err := l.log(tx).Log(ctx, events.LogInput{
		EntityType: events.EntityEscrow,
		EntityID:   e.ID,
		Type:       evt,
		ActorID:    actorID,
		TxHash:     txHash,
		Payload:    map[string]any{"amount": e.Amount},
	}); err != nil {
		return Escrow{}, err
	}
	return e, nil
}

func (l *Ledger) completeAdoption(ctx context.Context, tx Tx, a adoption.Adoption, e Escrow, actorID string) error {
	if err := adoption.Transitions.Validate(a.Status, adoption.StatusCompleted); err != nil {
		return err
	}
	now := l.now().UTC()
	if err := tx.Adoptions().UpdateStatus(ctx, a.ID, a.Status, adoption.StatusCompleted, now); err != nil {
		return err
	}

	petsSvc := pets.NewService(tx.Pets()).WithClock(l.now)
	previousOwner, err := petsSvc.OwnerOf(ctx, a.PetID)
	if err != nil {
		return err
	}
	if err := petsSvc.TransferOwnership(ctx, a.PetID, a.AdopterID); err != nil {
		return err
	}

	if _, err := l.log(tx).Log(ctx, events.LogInput{
		EntityType: events.EntityAdoption,
		EntityID:   a.ID,
		Type:       events.EventAdoptionCompleted,
		ActorID:    actorID,
		Payload: map[string]any{
			"escrowId":        e.ID,
			"petId":           a.PetID,
			"adopterId":       a.AdopterID,
			"previousOwnerId": previousOwner,
			"previousStatus":  string(a.Status),
			"newStatus":       string(adoption.StatusCompleted),
		},
	}); err != nil {
		return err
	}

	if _, err := l.trust.RewardAdoption(ctx, tx, a.AdopterID, a.ID, actorID); err != nil {
		return err
	}
	if a.OwnerID != "" && a.OwnerID != a.AdopterID {
		if _, err := l.trust.RewardAdoption(ctx, tx, a.OwnerID, a.ID, actorID); err != nil {
			return err
		}
	}
	return nil
}

func (l *Ledger) refundAdoption(ctx context.Context, tx Tx, a adoption.Adoption, e Escrow, actorID string) error {
	if err := adoption.Transitions.Validate(a.Status, adoption.StatusRefunded); err != nil {
		return err
	}
	if err := tx.Adoptions().UpdateStatus(ctx, a.ID, a.Status, adoption.StatusRefunded, l.now().UTC()); err != nil {
		return err
	}
	_, err := l.log(tx).Log(ctx, events.LogInput{
		EntityType: events.EntityAdoption,
		EntityID:   a.ID,
		Type:       events.EventAdoptionRefunded,
		ActorID:    actorID,
		Payload: map[string]any{
			"escrowId":       e.ID,
			"petId":          a.PetID,
			"adopterId":      a.AdopterID,
			"previousStatus": string(a.Status),
			"newStatus":      string(adoption.StatusRefunded),
		},
	})
	return err
}

func (l *Ledger) linkedAdoption(ctx context.Context, tx Tx, escrowID string) (adoption.Adoption, bool, error) {
	a, err := tx.Adoptions().GetByEscrowID(ctx, escrowID)
	if errors.Is(err, domainerr.ErrNotFound) {
		return adoption.Adoption{}, false, nil
	}
	if err != nil {
		return adoption.Adoption{}, false, err
	}
	return a, true, nil
}

func (l *Ledger) linkedCustody(ctx context.Context, tx Tx, escrowID string) (custody.Custody, bool, error) {
	c, err := tx.Custodies().GetByEscrowID(ctx, escrowID)
	if errors.Is(err, domainerr.ErrNotFound) {
		return custody.Custody{}, false, nil
	}
	if err != nil {
		return custody.Custody{}, false, err
	}
	return c, true, nil
}

func (l *Ledger) log(tx Tx) *events.Service {
	return events.NewService(tx.Events()).WithClock(l.now)
}
