package lifecycle

import (
	"pet-adoption/internal/domain/adoption"
	"pet-adoption/internal/domain/custody"
	"pet-adoption/internal/domain/domainerr"
)

// Predicate decide si un actor puede ejecutar una operación. Se componen con AnyOf.
type Predicate func(actor Actor) bool

func IsAdmin(actor Actor) bool {
	return actor.IsAdmin
}

func IsPetOwner(ownerID string) Predicate {
	return func(actor Actor) bool {
		return ownerID != "" && actor.UserID == ownerID
	}
}

func IsAdopter(a adoption.Adoption) Predicate {
	return func(actor Actor) bool {
		return a.AdopterID != "" && actor.UserID == a.AdopterID
	}
}

func IsHolder(c custody.Custody) Predicate {
	return func(actor Actor) bool {
		return c.HolderID != "" && actor.UserID == c.HolderID
	}
}

func isSelf(userID string) Predicate {
	return func(actor Actor) bool {
		return userID != "" && actor.UserID == userID
	}
}

func AnyOf(preds ...Predicate) Predicate {
	return func(actor Actor) bool {
		for _, p := range preds {
			if p != nil && p(actor) {
				return true
			}
		}
		return false
	}
}

func authorize(actor Actor, p Predicate, action string) error {
	if p(actor) {
		return nil
	}
	return domainerr.Forbidden("actor %s cannot %s", actor.UserID, action)
}

// adoptionPolicy: el dueño revisa, aprueba, rechaza y liquida; el adoptante cancela y
// fondea. Reabrir (REQUESTED) es solo de admin.
func adoptionPolicy(a adoption.Adoption, target adoption.Status) Predicate {
	switch target {
	case adoption.StatusPendingReview, adoption.StatusPending, adoption.StatusApproved,
		adoption.StatusRejected, adoption.StatusCompleted, adoption.StatusRefunded:
		return AnyOf(IsAdmin, IsPetOwner(a.OwnerID))
	case adoption.StatusCancelled, adoption.StatusEscrowFunded:
		return AnyOf(IsAdmin, IsAdopter(a))
	default:
		return IsAdmin
	}
}

func custodyPolicy(c custody.Custody, petOwnerID string) Predicate {
	return AnyOf(IsAdmin, IsHolder(c), IsPetOwner(petOwnerID))
}
