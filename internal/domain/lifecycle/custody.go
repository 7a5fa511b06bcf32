package lifecycle

import (
	"context"
	"errors"
	"strings"
	"time"

	"pet-adoption/internal/domain/custody"
	"pet-adoption/internal/domain/domainerr"
	"pet-adoption/internal/domain/escrow"
	"pet-adoption/internal/domain/events"
	"pet-adoption/internal/domain/pets"
	"pet-adoption/internal/ports/storage"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

type CreateCustodyInput struct {
	PetID string
	// StartDate vacío significa hoy.
	StartDate     time.Time
	DurationDays  int
	DepositAmount *int64
}

type CustodyResult struct {
	Custody      custody.Custody
	Escrow       *escrow.Escrow
	Availability pets.Availability
}

// CreateCustody abre una custodia temporal ACTIVE con el actor como holder. Con
// depósito, crea el escrow en la misma transacción.
func (c *Coordinator) CreateCustody(ctx context.Context, actor Actor, in CreateCustodyInput) (res CustodyResult, err error) {
	petID := strings.TrimSpace(in.PetID)
	ctx, span := c.span(ctx, "CreateCustody", attribute.String("pet.id", petID), attribute.String("actor.id", actor.UserID))
	defer func() {
		endSpan(span, err)
		c.observeTransition("custody", "none", string(custody.StatusActive), err)
		c.logResult("custody created", err, map[string]any{"pet_id": petID, "actor_id": actor.UserID, "custody_id": res.Custody.ID})
	}()

	if err = requireActor(actor); err != nil {
		return CustodyResult{}, err
	}
	if petID == "" {
		return CustodyResult{}, domainerr.InvalidInput("pet id required")
	}
	if in.DurationDays < custody.MinDurationDays || in.DurationDays > custody.MaxDurationDays {
		return CustodyResult{}, domainerr.InvalidInput("duration must be between %d and %d days", custody.MinDurationDays, custody.MaxDurationDays)
	}
	if in.DepositAmount != nil && *in.DepositAmount <= 0 {
		return CustodyResult{}, domainerr.InvalidInput("deposit amount must be positive")
	}

	now := c.now().UTC()
	start := in.StartDate.UTC()
	if in.StartDate.IsZero() {
		start = now
	}
	if startOfDay(start).Before(startOfDay(now)) {
		return CustodyResult{}, domainerr.InvalidInput("start date cannot be in the past")
	}

	err = c.store.WithinTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		if _, err := c.petsSvc(tx.Pets()).GetByID(ctx, petID); err != nil {
			return err
		}
		if _, err := tx.Users().GetByID(ctx, actor.UserID); err != nil {
			return err
		}

		before, err := c.resolver.Resolve(ctx, tx, petID)
		if err != nil {
			return err
		}
		if before == pets.AvailabilityAdopted {
			return domainerr.Conflict("pet %s is already adopted", petID)
		}
		if err := noOpenAdoption(ctx, tx, petID); err != nil {
			return err
		}
		active, err := tx.Custodies().FindActiveForPet(ctx, petID)
		switch {
		case err == nil:
			return domainerr.Conflict("pet %s already has an active custody %s", petID, active.ID)
		case !errors.Is(err, domainerr.ErrNotFound):
			return err
		}

		var esc *escrow.Escrow
		if in.DepositAmount != nil {
			e, err := c.ledger.Create(ctx, tx, *in.DepositAmount, actor.UserID)
			c.observeEscrow("create", err)
			if err != nil {
				return err
			}
			esc = &e
		}

		cu := custody.Custody{
			ID:        uuid.NewString(),
			PetID:     petID,
			HolderID:  actor.UserID,
			Status:    custody.StatusActive,
			Type:      custody.TypeTemporary,
			StartDate: start,
			EndDate:   start.AddDate(0, 0, in.DurationDays),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if in.DepositAmount != nil {
			amount := *in.DepositAmount
			cu.DepositAmount = &amount
		}
		if esc != nil {
			eid := esc.ID
			cu.EscrowID = &eid
		}
		if err := tx.Custodies().Create(ctx, cu); err != nil {
			return err
		}

		payload := map[string]any{
			"petId":     cu.PetID,
			"holderId":  cu.HolderID,
			"startDate": cu.StartDate.Format(time.RFC3339),
			"endDate":   cu.EndDate.Format(time.RFC3339),
		}
		if cu.DepositAmount != nil {
			payload["depositAmount"] = *cu.DepositAmount
			payload["escrowId"] = *cu.EscrowID
		}
		if _, err := c.eventLog(tx).Log(ctx, events.LogInput{
			EntityType: events.EntityCustody,
			EntityID:   cu.ID,
			Type:       events.EventCustodyStarted,
			ActorID:    actor.UserID,
			Payload:    payload,
		}); err != nil {
			return err
		}

		after, err := c.recordAvailability(ctx, tx, petID, before, events.EventCustodyStarted, actor.UserID)
		if err != nil {
			return err
		}
		res = CustodyResult{Custody: cu, Escrow: esc, Availability: after}
		return nil
	})
	if err != nil {
		return CustodyResult{}, err
	}
	return res, nil
}

// TransitionCustodyStatus cierra una custodia ACTIVE. RETURNED premia al holder y
// devuelve el depósito; CANCELLED devuelve el depósito; VIOLATION penaliza al holder
// una sola vez (vía la cascada del refund si hay depósito, directo si no).
func (c *Coordinator) TransitionCustodyStatus(ctx context.Context, custodyID string, target custody.Status, actor Actor) (res CustodyResult, err error) {
	id := strings.TrimSpace(custodyID)
	from := "unknown"
	ctx, span := c.span(ctx, "TransitionCustodyStatus",
		attribute.String("custody.id", id),
		attribute.String("custody.target", string(target)),
	)
	defer func() {
		endSpan(span, err)
		c.observeTransition("custody", from, string(target), err)
		c.logResult("custody transition", err, map[string]any{"custody_id": id, "from": from, "to": string(target), "actor_id": actor.UserID})
	}()

	if err = requireActor(actor); err != nil {
		return CustodyResult{}, err
	}
	if id == "" {
		return CustodyResult{}, domainerr.InvalidInput("custody id required")
	}
	if !custody.Transitions.Known(target) {
		return CustodyResult{}, domainerr.InvalidInput("unknown custody status %q", target)
	}

	pre, err := c.store.Read().Custodies().GetByID(ctx, id)
	if err != nil {
		return CustodyResult{}, err
	}

	err = c.store.WithinTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		p, err := tx.Pets().GetByID(ctx, pre.PetID)
		if err != nil {
			return err
		}
		cu, err := tx.Custodies().GetByID(ctx, id)
		if err != nil {
			return err
		}
		from = string(cu.Status)

		if err := authorize(actor, custodyPolicy(cu, p.CurrentOwnerID), "move custody to "+string(target)); err != nil {
			return err
		}
		if err := custody.Transitions.Validate(cu.Status, target); err != nil {
			return err
		}

		before, err := c.resolver.Resolve(ctx, tx, cu.PetID)
		if err != nil {
			return err
		}

		now := c.now().UTC()
		if err := tx.Custodies().Finish(ctx, cu.ID, cu.Status, target, now, now); err != nil {
			return err
		}
		previous := cu.Status
		cu.Status = target
		cu.EndDate = now
		cu.UpdatedAt = now

		trigger := custodyEvent(target)
		if _, err := c.eventLog(tx).Log(ctx, events.LogInput{
			EntityType: events.EntityCustody,
			EntityID:   cu.ID,
			Type:       trigger,
			ActorID:    actor.UserID,
			Payload: map[string]any{
				"petId":          cu.PetID,
				"holderId":       cu.HolderID,
				"previousStatus": string(previous),
				"newStatus":      string(target),
				"endDate":        now.Format(time.RFC3339),
				"description":    custody.Description(target),
			},
		}); err != nil {
			return err
		}

		esc, err := c.closeCustody(ctx, tx, cu, actor)
		if err != nil {
			return err
		}

		after, err := c.recordAvailability(ctx, tx, cu.PetID, before, trigger, actor.UserID)
		if err != nil {
			return err
		}
		res = CustodyResult{Custody: cu, Escrow: esc, Availability: after}
		return nil
	})
	if err != nil {
		return CustodyResult{}, err
	}
	return res, nil
}

// closeCustody aplica las cascadas de trust y depósito de una custodia ya terminal.
func (c *Coordinator) closeCustody(ctx context.Context, tx storage.Tx, cu custody.Custody, actor Actor) (*escrow.Escrow, error) {
	var deposit *escrow.Escrow
	if cu.HasEscrow() {
		e, err := tx.Escrows().GetByID(ctx, *cu.EscrowID)
		if err != nil {
			return nil, err
		}
		if e.Status == escrow.StatusCreated {
			deposit = &e
		}
	}

	if cu.Status == custody.StatusReturned {
		if _, err := c.trust.RewardSuccessfulCustody(ctx, tx, cu.HolderID, cu.ID, actor.UserID); err != nil {
			return nil, err
		}
	}

	if deposit != nil {
		// Con VIOLATION, el refund penaliza al holder.
		refunded, err := c.ledger.Refund(ctx, tx, deposit.ID, actor.UserID)
		c.observeEscrow("refund", err)
		if err != nil {
			return nil, err
		}
		return &refunded, nil
	}

	if cu.Status == custody.StatusViolation {
		if _, err := c.trust.PenalizeViolation(ctx, tx, cu.HolderID, cu.ID, actor.UserID); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func noOpenAdoption(ctx context.Context, tx storage.Tx, petID string) error {
	open, err := tx.Adoptions().FindOpenForPet(ctx, petID)
	switch {
	case err == nil:
		return domainerr.Conflict("pet %s has an active adoption in progress %s", petID, open.ID)
	case errors.Is(err, domainerr.ErrNotFound):
		return nil
	default:
		return err
	}
}

func custodyEvent(s custody.Status) events.EventType {
	switch s {
	case custody.StatusReturned:
		return events.EventCustodyReturned
	case custody.StatusCancelled:
		return events.EventCustodyCancelled
	case custody.StatusViolation:
		return events.EventCustodyViolation
	default:
		return events.EventCustodyStarted
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
