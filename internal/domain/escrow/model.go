package escrow

import "time"

type Status string

const (
	StatusCreated  Status = "CREATED"
	StatusReleased Status = "RELEASED"
	StatusRefunded Status = "REFUNDED"
)

// IsTerminal: RELEASED y REFUNDED no admiten más movimientos.
func (s Status) IsTerminal() bool {
	return s == StatusReleased || s == StatusRefunded
}

// Escrow representa fondos retenidos. Amount está en unidades mínimas (centavos) y no
// cambia después de crearse.
type Escrow struct {
	ID     string
	Amount int64
	Status Status

	// Reference es la referencia de settlement que devuelve el proveedor de fondos.
	Reference string

	ReleaseTxHash *string
	RefundTxHash  *string

	CreatedAt time.Time
	UpdatedAt time.Time
}
