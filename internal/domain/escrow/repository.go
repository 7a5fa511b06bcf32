package escrow

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, e Escrow) error
	GetByID(ctx context.Context, id string) (Escrow, error)
	// Settle mueve CREATED -> to y fija el tx hash correspondiente.
	// Devuelve domainerr.ErrConflict si el escrow ya no está en CREATED.
	Settle(ctx context.Context, id string, to Status, txHash string, at time.Time) error
}
