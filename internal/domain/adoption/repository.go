package adoption

import (
	"context"
	"time"
)

// Repository expone exactamente lo que el core necesita. Las implementaciones
// devuelven domainerr.ErrNotFound cuando no hay fila y domainerr.ErrConflict cuando
// una actualización condicional no encuentra el estado esperado.
type Repository interface {
	Create(ctx context.Context, a Adoption) error
	GetByID(ctx context.Context, id string) (Adoption, error)
	GetByEscrowID(ctx context.Context, escrowID string) (Adoption, error)

	// FindOpenForPet devuelve la adopción no terminal de la mascota, si existe.
	FindOpenForPet(ctx context.Context, petID string) (Adoption, error)
	// LatestForPet ordena por created_at descendente.
	LatestForPet(ctx context.Context, petID string) (Adoption, error)
	// ListForPets trae todas las adopciones del set en una sola consulta,
	// ordenadas por created_at descendente.
	ListForPets(ctx context.Context, petIDs []string) ([]Adoption, error)

	// UpdateStatus actualiza solo si el estado actual sigue siendo from.
	UpdateStatus(ctx context.Context, id string, from, to Status, at time.Time) error
	LinkEscrow(ctx context.Context, id, escrowID string, at time.Time) error
}
