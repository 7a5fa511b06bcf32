package adoption

import "time"

// Status es el estado de una solicitud de adopción.
type Status string

const (
	StatusRequested     Status = "REQUESTED"
	StatusPendingReview Status = "PENDING_REVIEW"
	// StatusPending es la entrada legacy, alias de PENDING_REVIEW (mismas salidas).
	StatusPending      Status = "PENDING"
	StatusApproved     Status = "APPROVED"
	StatusEscrowFunded Status = "ESCROW_FUNDED"
	StatusCompleted    Status = "COMPLETED"
	StatusRejected     Status = "REJECTED"
	StatusCancelled    Status = "CANCELLED"
	StatusRefunded     Status = "REFUNDED"
)

// Adoption nunca se borra; solo cambia de estado vía transiciones validadas.
type Adoption struct {
	ID        string
	PetID     string
	AdopterID string
	OwnerID   string

	Status Status
	Notes  string

	EscrowID *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasEscrow indica si la adopción tiene un escrow vinculado.
func (a Adoption) HasEscrow() bool {
	return a.EscrowID != nil && *a.EscrowID != ""
}
