package users

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pet-adoption/internal/domain/domainerr"
	"pet-adoption/internal/domain/events"
)

// Constantes de política. La penalización canónica por violación es 10.
const (
	SuccessfulCustodyBonus  = 5
	ViolationPenalty        = 10
	AdoptionCompletionBonus = 5
)

// TrustTx es la porción de una transacción que necesita el ajuste: el score y el
// audit log se escriben juntos.
type TrustTx interface {
	Users() Repository
	Events() events.Repository
}

type TrustAdjuster struct {
	now func() time.Time
}

func NewTrustAdjuster() *TrustAdjuster {
	return &TrustAdjuster{now: time.Now}
}

func (a *TrustAdjuster) WithClock(now func() time.Time) *TrustAdjuster {
	if now != nil {
		a.now = now
	}
	return a
}

// Clamp acota un score a [MinTrustScore, MaxTrustScore].
func Clamp(score int) int {
	if score < MinTrustScore {
		return MinTrustScore
	}
	if score > MaxTrustScore {
		return MaxTrustScore
	}
	return score
}

// applyDelta suma delta a un score ya acotado sin desbordar int.
func applyDelta(score, delta int) int {
	switch {
	case delta > MaxTrustScore-score:
		return MaxTrustScore
	case delta < MinTrustScore-score:
		return MinTrustScore
	default:
		return score + delta
	}
}

func (a *TrustAdjuster) Increase(ctx context.Context, tx TrustTx, userID string, amount int, reason, actorID string) (int, error) {
	if amount < 0 {
		return 0, domainerr.InvalidInput("increase amount must not be negative")
	}
	return a.adjust(ctx, tx, userID, amount, reason, actorID)
}

func (a *TrustAdjuster) Decrease(ctx context.Context, tx TrustTx, userID string, amount int, reason, actorID string) (int, error) {
	if amount < 0 {
		return 0, domainerr.InvalidInput("decrease amount must not be negative")
	}
	return a.adjust(ctx, tx, userID, -amount, reason, actorID)
}

func (a *TrustAdjuster) RewardSuccessfulCustody(ctx context.Context, tx TrustTx, userID, custodyID, actorID string) (int, error) {
	return a.Increase(ctx, tx, userID, SuccessfulCustodyBonus, fmt.Sprintf("Successful custody return: %s", custodyID), actorID)
}

func (a *TrustAdjuster) PenalizeViolation(ctx context.Context, tx TrustTx, userID, custodyID, actorID string) (int, error) {
	return a.Decrease(ctx, tx, userID, ViolationPenalty, fmt.Sprintf("Custody violation: %s", custodyID), actorID)
}

func (a *TrustAdjuster) RewardAdoption(ctx context.Context, tx TrustTx, userID, adoptionID, actorID string) (int, error) {
	return a.Increase(ctx, tx, userID, AdoptionCompletionBonus, fmt.Sprintf("Adoption completed: %s", adoptionID), actorID)
}

func (a *TrustAdjuster) adjust(ctx context.Context, tx TrustTx, userID string, delta int, reason, actorID string) (int, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, domainerr.InvalidInput("user id required")
	}

	u, err := tx.Users().GetByID(ctx, userID)
	if err != nil {
		return 0, err
	}

	oldScore := Clamp(u.TrustScore)
	newScore := applyDelta(oldScore, delta)
	now := a.now().UTC()

	if err := tx.Users().UpdateTrustScore(ctx, userID, newScore, now); err != nil {
		return 0, err
	}

	if strings.TrimSpace(actorID) == "" {
		actorID = userID
	}
	_, err = events.NewService(tx.Events()).WithClock(a.now).Log(ctx, events.LogInput{
		EntityType: events.EntityUser,
		EntityID:   userID,
		Type:       events.EventTrustScoreUpdated,
		ActorID:    actorID,
		Payload: map[string]any{
			"oldScore": oldScore,
			"newScore": newScore,
			"change":   delta,
			"reason":   reason,
		},
	})
	if err != nil {
		return 0, err
	}
	return newScore, nil
}
