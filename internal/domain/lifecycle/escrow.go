package lifecycle

import (
	"context"
	"errors"
	"strings"

	"pet-adoption/internal/domain/domainerr"
	"pet-adoption/internal/domain/escrow"
	"pet-adoption/internal/domain/events"
	"pet-adoption/internal/domain/pets"
	"pet-adoption/internal/ports/storage"

	"go.opentelemetry.io/otel/attribute"
)

type EscrowResult struct {
	Escrow escrow.Escrow
	// PetID y Availability quedan vacíos si el escrow no está vinculado.
	PetID        string
	Availability pets.Availability
}

// ReleaseEscrow libera fondos fuera del flujo de adopción (operación de admin).
func (c *Coordinator) ReleaseEscrow(ctx context.Context, escrowID string, actor Actor) (EscrowResult, error) {
	return c.settleEscrow(ctx, "release", escrowID, actor)
}

// RefundEscrow devuelve fondos fuera del flujo normal (operación de admin).
func (c *Coordinator) RefundEscrow(ctx context.Context, escrowID string, actor Actor) (EscrowResult, error) {
	return c.settleEscrow(ctx, "refund", escrowID, actor)
}

func (c *Coordinator) settleEscrow(ctx context.Context, op, escrowID string, actor Actor) (res EscrowResult, err error) {
	id := strings.TrimSpace(escrowID)
	ctx, span := c.span(ctx, "Escrow."+op, attribute.String("escrow.id", id))
	defer func() {
		endSpan(span, err)
		c.observeEscrow(op, err)
		c.logResult("escrow "+op, err, map[string]any{"escrow_id": id, "actor_id": actor.UserID})
	}()

	if err = requireActor(actor); err != nil {
		return EscrowResult{}, err
	}
	if err = authorize(actor, IsAdmin, op+" escrow"); err != nil {
		return EscrowResult{}, err
	}
	if id == "" {
		return EscrowResult{}, domainerr.InvalidInput("escrow id required")
	}

	petID, err := c.linkedPet(ctx, c.store.Read(), id)
	if err != nil {
		return EscrowResult{}, err
	}

	err = c.store.WithinTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		var (
			before  pets.Availability
			e       escrow.Escrow
			trigger events.EventType
			err     error
		)
		if petID != "" {
			if _, err := tx.Pets().GetByID(ctx, petID); err != nil {
				return err
			}
			if before, err = c.resolver.Resolve(ctx, tx, petID); err != nil {
				return err
			}
		}

		if op == "release" {
			e, err = c.ledger.Release(ctx, tx, id, actor.UserID)
			trigger = events.EventEscrowReleased
		} else {
			e, err = c.ledger.Refund(ctx, tx, id, actor.UserID)
			trigger = events.EventEscrowRefunded
		}
		if err != nil {
			return err
		}

		res = EscrowResult{Escrow: e, PetID: petID}
		if petID != "" {
			if res.Availability, err = c.recordAvailability(ctx, tx, petID, before, trigger, actor.UserID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return EscrowResult{}, err
	}
	return res, nil
}

// linkedPet busca la mascota detrás de un escrow (adopción o custodia).
func (c *Coordinator) linkedPet(ctx context.Context, src storage.Tx, escrowID string) (string, error) {
	if _, err := src.Escrows().GetByID(ctx, escrowID); err != nil {
		return "", err
	}
	a, err := src.Adoptions().GetByEscrowID(ctx, escrowID)
	if err == nil {
		return a.PetID, nil
	}
	if !errors.Is(err, domainerr.ErrNotFound) {
		return "", err
	}
	cu, err := src.Custodies().GetByEscrowID(ctx, escrowID)
	if err == nil {
		return cu.PetID, nil
	}
	if !errors.Is(err, domainerr.ErrNotFound) {
		return "", err
	}
	return "", nil
}
