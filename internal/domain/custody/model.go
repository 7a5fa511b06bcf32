package custody

import "time"

type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusReturned  Status = "RETURNED"
	StatusCancelled Status = "CANCELLED"
	StatusViolation Status = "VIOLATION"
)

type Type string

const (
	TypeTemporary Type = "TEMPORARY"
)

// Límites de duración de una custodia temporal, en días.
const (
	MinDurationDays = 1
	MaxDurationDays = 90
)

// Custody es un acuerdo de custodia temporal de una mascota.
type Custody struct {
	ID       string
	PetID    string
	HolderID string

	Status Status
	Type   Type

	StartDate time.Time
	// EndDate se planifica al crear (start + duración) y se sobreescribe con el fin real
	// cuando la custodia llega a un estado terminal.
	EndDate time.Time

	DepositAmount *int64
	EscrowID      *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c Custody) HasEscrow() bool {
	return c.EscrowID != nil && *c.EscrowID != ""
}
