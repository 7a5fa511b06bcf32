package custody

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, c Custody) error
	GetByID(ctx context.Context, id string) (Custody, error)
	GetByEscrowID(ctx context.Context, escrowID string) (Custody, error)

	FindActiveForPet(ctx context.Context, petID string) (Custody, error)
	// ListActiveForPets: una sola consulta para todo el set.
	ListActiveForPets(ctx context.Context, petIDs []string) ([]Custody, error)

	// Finish pasa la custodia de from a to y fija end_date; conflicto si el estado cambió.
	Finish(ctx context.Context, id string, from, to Status, endDate, at time.Time) error
}
