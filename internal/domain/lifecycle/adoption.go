package lifecycle

import (
	"context"
	"errors"
	"strings"

	"pet-adoption/internal/domain/adoption"
	"pet-adoption/internal/domain/domainerr"
	"pet-adoption/internal/domain/escrow"
	"pet-adoption/internal/domain/events"
	"pet-adoption/internal/domain/pets"
	"pet-adoption/internal/ports/storage"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

type RequestAdoptionInput struct {
	PetID string
	Notes string
}

type TransitionAdoptionInput struct {
	Target adoption.Status
	// EscrowAmount se usa solo al pasar a ESCROW_FUNDED sin escrow vinculado.
	EscrowAmount int64
	Reason       string
}

type AdoptionResult struct {
	Adoption     adoption.Adoption
	Escrow       *escrow.Escrow
	Availability pets.Availability
}

// RequestAdoption abre una solicitud REQUESTED del actor sobre la mascota.
// Conflict si la mascota no tiene dueño o ya tiene una adopción abierta.
func (c *Coordinator) RequestAdoption(ctx context.Context, actor Actor, in RequestAdoptionInput) (res AdoptionResult, err error) {
	petID := strings.TrimSpace(in.PetID)
	ctx, span := c.span(ctx, "RequestAdoption", attribute.String("pet.id", petID), attribute.String("actor.id", actor.UserID))
	defer func() {
		endSpan(span, err)
		c.observeTransition("adoption", "none", string(adoption.StatusRequested), err)
		c.logResult("adoption requested", err, map[string]any{"pet_id": petID, "actor_id": actor.UserID, "adoption_id": res.Adoption.ID})
	}()

	if err = requireActor(actor); err != nil {
		return AdoptionResult{}, err
	}
	if petID == "" {
		return AdoptionResult{}, domainerr.InvalidInput("pet id required")
	}

	err = c.store.WithinTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		p, err := c.petsSvc(tx.Pets()).GetByID(ctx, petID)
		if err != nil {
			return err
		}
		if strings.TrimSpace(p.CurrentOwnerID) == "" {
			return domainerr.Conflict("pet %s has no owner", petID)
		}
		if p.CurrentOwnerID == actor.UserID {
			return domainerr.InvalidInput("owner cannot adopt their own pet")
		}
		if _, err := tx.Users().GetByID(ctx, actor.UserID); err != nil {
			return err
		}

		open, err := tx.Adoptions().FindOpenForPet(ctx, petID)
		switch {
		case err == nil:
			return domainerr.Conflict("pet %s already has an active adoption %s", petID, open.ID)
		case !errors.Is(err, domainerr.ErrNotFound):
			return err
		}

		before, err := c.resolver.Resolve(ctx, tx, petID)
		if err != nil {
			return err
		}

		now := c.now().UTC()
		a := adoption.Adoption{
			ID:        uuid.NewString(),
			PetID:     petID,
			AdopterID: actor.UserID,
			OwnerID:   p.CurrentOwnerID,
			Status:    adoption.StatusRequested,
			Notes:     strings.TrimSpace(in.Notes),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.Adoptions().Create(ctx, a); err != nil {
			return err
		}

		if _, err := c.eventLog(tx).Log(ctx, events.LogInput{
			EntityType: events.EntityAdoption,
			EntityID:   a.ID,
			Type:       events.EventAdoptionRequested,
			ActorID:    actor.UserID,
			Payload: map[string]any{
				"petId":     a.PetID,
				"adopterId": a.AdopterID,
				"ownerId":   a.OwnerID,
				"notes":     a.Notes,
			},
		}); err != nil {
			return err
		}

		after, err := c.recordAvailability(ctx, tx, petID, before, events.EventAdoptionRequested, actor.UserID)
		if err != nil {
			return err
		}
		res = AdoptionResult{Adoption: a, Availability: after}
		return nil
	})
	if err != nil {
		return AdoptionResult{}, err
	}
	return res, nil
}

// TransitionAdoptionStatus mueve la adopción a in.Target. Un admin puede saltarse el
// grafo (override) pero nunca las restricciones absolutas. COMPLETED y REFUNDED se
// liquidan a través del ledger; ESCROW_FUNDED crea o reutiliza el escrow vinculado.
func (c *Coordinator) TransitionAdoptionStatus(ctx context.Context, adoptionID string, in TransitionAdoptionInput, actor Actor) (res AdoptionResult, err error) {
	id := strings.TrimSpace(adoptionID)
	from := "unknown"
	ctx, span := c.span(ctx, "TransitionAdoptionStatus",
		attribute.String("adoption.id", id),
		attribute.String("adoption.target", string(in.Target)),
		attribute.Bool("actor.admin", actor.IsAdmin),
	)
	defer func() {
		endSpan(span, err)
		c.observeTransition("adoption", from, string(in.Target), err)
		c.logResult("adoption transition", err, map[string]any{"adoption_id": id, "from": from, "to": string(in.Target), "actor_id": actor.UserID})
	}()

	if err = requireActor(actor); err != nil {
		return AdoptionResult{}, err
	}
	if id == "" {
		return AdoptionResult{}, domainerr.InvalidInput("adoption id required")
	}
	if !adoption.Transitions.Known(in.Target) {
		return AdoptionResult{}, domainerr.InvalidInput("unknown adoption status %q", in.Target)
	}

	// Orden de locks: mascota y luego adopción.
	pre, err := c.store.Read().Adoptions().GetByID(ctx, id)
	if err != nil {
		return AdoptionResult{}, err
	}

	err = c.store.WithinTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		if _, err := tx.Pets().GetByID(ctx, pre.PetID); err != nil {
			return err
		}
		a, err := tx.Adoptions().GetByID(ctx, id)
		if err != nil {
			return err
		}
		from = string(a.Status)

		if err := authorize(actor, adoptionPolicy(a, in.Target), "move adoption to "+string(in.Target)); err != nil {
			return err
		}
		if err := adoption.Transitions.ValidateOverride(a.Status, in.Target, actor.IsAdmin); err != nil {
			return err
		}
		override := !adoption.Transitions.CanTransition(a.Status, in.Target)

		before, err := c.resolver.Resolve(ctx, tx, a.PetID)
		if err != nil {
			return err
		}

		var esc *escrow.Escrow
		trigger := adoptionEvent(in.Target)
		switch in.Target {
		case adoption.StatusEscrowFunded:
			e, err := c.fundAdoption(ctx, tx, a, in.EscrowAmount, override, actor)
			if err != nil {
				return err
			}
			esc = &e
		case adoption.StatusCompleted, adoption.StatusRefunded:
			e, err := c.settleAdoption(ctx, tx, a, in.Target, actor)
			if err != nil {
				return err
			}
			esc = &e
		default:
			if err := c.moveAdoption(ctx, tx, a, in.Target, in.Reason, override, actor); err != nil {
				return err
			}
		}

		after, err := c.recordAvailability(ctx, tx, a.PetID, before, trigger, actor.UserID)
		if err != nil {
			return err
		}
		updated, err := tx.Adoptions().GetByID(ctx, a.ID)
		if err != nil {
			return err
		}
		res = AdoptionResult{Adoption: updated, Escrow: esc, Availability: after}
		return nil
	})
	if err != nil {
		return AdoptionResult{}, err
	}
	return res, nil
}

func (c *Coordinator) moveAdoption(ctx context.Context, tx storage.Tx, a adoption.Adoption, target adoption.Status, reason string, override bool, actor Actor) error {
	// Reabrir una adopción terminal no puede dejar dos abiertas para la misma mascota.
	if adoption.IsOpen(target) && !adoption.IsOpen(a.Status) {
		open, err := tx.Adoptions().FindOpenForPet(ctx, a.PetID)
		switch {
		case err == nil && open.ID != a.ID:
			return domainerr.Conflict("pet %s already has an active adoption %s", a.PetID, open.ID)
		case err != nil && !errors.Is(err, domainerr.ErrNotFound):
			return err
		}
	}

	if err := tx.Adoptions().UpdateStatus(ctx, a.ID, a.Status, target, c.now().UTC()); err != nil {
		return err
	}

	payload := map[string]any{
		"petId":          a.PetID,
		"adopterId":      a.AdopterID,
		"previousStatus": string(a.Status),
		"newStatus":      string(target),
		"override":       override,
	}
	if r := strings.TrimSpace(reason); r != "" {
		payload["reason"] = r
	}
	_, err := c.eventLog(tx).Log(ctx, events.LogInput{
		EntityType: events.EntityAdoption,
		EntityID:   a.ID,
		Type:       adoptionEvent(target),
		ActorID:    actor.UserID,
		Payload:    payload,
	})
	return err
}

func (c *Coordinator) fundAdoption(ctx context.Context, tx storage.Tx, a adoption.Adoption, amount int64, override bool, actor Actor) (e escrow.Escrow, err error) {
	if a.HasEscrow() {
		e, err = tx.Escrows().GetByID(ctx, *a.EscrowID)
		if err != nil {
			return escrow.Escrow{}, err
		}
		if e.Status != escrow.StatusCreated {
			return escrow.Escrow{}, domainerr.Conflict("escrow %s is already %s", e.ID, e.Status)
		}
	} else {
		if amount <= 0 {
			return escrow.Escrow{}, domainerr.InvalidInput("escrow amount must be positive")
		}
		e, err = c.ledger.Create(ctx, tx, amount, actor.UserID)
		c.observeEscrow("create", err)
		if err != nil {
			return escrow.Escrow{}, err
		}
		if err := tx.Adoptions().LinkEscrow(ctx, a.ID, e.ID, c.now().UTC()); err != nil {
			return escrow.Escrow{}, err
		}
	}

	if err := tx.Adoptions().UpdateStatus(ctx, a.ID, a.Status, adoption.StatusEscrowFunded, c.now().UTC()); err != nil {
		return escrow.Escrow{}, err
	}
	if _, err := c.eventLog(tx).Log(ctx, events.LogInput{
		EntityType: events.EntityAdoption,
		EntityID:   a.ID,
		Type:       events.EventAdoptionEscrowFunded,
		ActorID:    actor.UserID,
		Payload: map[string]any{
			"petId":          a.PetID,
			"escrowId":       e.ID,
			"amount":         e.Amount,
			"previousStatus": string(a.Status),
			"newStatus":      string(adoption.StatusEscrowFunded),
			"override":       override,
		},
	}); err != nil {
		return escrow.Escrow{}, err
	}
	return e, nil
}

// settleAdoption delega en el ledger: release completa la adopción y transfiere la
// mascota; refund la marca REFUNDED.
func (c *Coordinator) settleAdoption(ctx context.Context, tx storage.Tx, a adoption.Adoption, target adoption.Status, actor Actor) (escrow.Escrow, error) {
	if !a.HasEscrow() {
		return escrow.Escrow{}, domainerr.Conflict("adoption %s has no escrow", a.ID)
	}
	if a.Status != adoption.StatusEscrowFunded {
		return escrow.Escrow{}, domainerr.Conflict("adoption %s must be %s to settle, is %s", a.ID, adoption.StatusEscrowFunded, a.Status)
	}

	if target == adoption.StatusCompleted {
		e, err := c.ledger.Release(ctx, tx, *a.EscrowID, actor.UserID)
		c.observeEscrow("release", err)
		return e, err
	}
	e, err := c.ledger.Refund(ctx, tx, *a.EscrowID, actor.UserID)
	c.observeEscrow("refund", err)
	return e, err
}

func adoptionEvent(s adoption.Status) events.EventType {
	switch s {
	case adoption.StatusPendingReview, adoption.StatusPending:
		return events.EventAdoptionUnderReview
	case adoption.StatusApproved:
		return events.EventAdoptionApproved
	case adoption.StatusRejected:
		return events.EventAdoptionRejected
	case adoption.StatusCancelled:
		return events.EventAdoptionCancelled
	case adoption.StatusEscrowFunded:
		return events.EventAdoptionEscrowFunded
	case adoption.StatusCompleted:
		return events.EventAdoptionCompleted
	case adoption.StatusRefunded:
		return events.EventAdoptionRefunded
	default:
		return events.EventAdoptionRequested
	}
}
