package pets

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, p Pet) error
	// GetByID dentro de una transacción bloquea la fila de la mascota (si el store lo
	// soporta), serializando las operaciones concurrentes sobre la misma mascota.
	GetByID(ctx context.Context, id string) (Pet, error)
	ListByOwner(ctx context.Context, ownerUserID string) ([]Pet, error)
	UpdateOwner(ctx context.Context, id, ownerUserID string, at time.Time) error
}
