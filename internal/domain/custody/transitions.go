package custody

import "pet-adoption/internal/platform/fsm"

// Transitions: ACTIVE es el único estado no terminal.
var Transitions = fsm.New("custody", map[Status][]Status{
	StatusActive:    {StatusReturned, StatusCancelled, StatusViolation},
	StatusReturned:  {},
	StatusCancelled: {},
	StatusViolation: {},
},
	fsm.Constraint[Status]{From: StatusViolation, To: StatusActive, Reason: "custody ended in violation cannot be reactivated"},
)

// Description devuelve un texto legible para la UI.
func Description(s Status) string {
	switch s {
	case StatusActive:
		return "Custody is currently active"
	case StatusReturned:
		return "Pet has been returned from custody"
	case StatusCancelled:
		return "Custody was cancelled"
	case StatusViolation:
		return "Custody ended due to trust violation"
	default:
		return ""
	}
}
