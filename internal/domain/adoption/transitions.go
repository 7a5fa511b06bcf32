package adoption

import "pet-adoption/internal/platform/fsm"

// Transitions es la única tabla de transiciones de adopción del sistema.
var Transitions = fsm.New("adoption", map[Status][]Status{
	StatusRequested:     {StatusPendingReview, StatusRejected},
	StatusPendingReview: {StatusApproved, StatusRejected},
	StatusPending:       {StatusApproved, StatusRejected},
	StatusApproved:      {StatusEscrowFunded, StatusCancelled},
	StatusEscrowFunded:  {StatusCompleted, StatusRefunded},
	StatusCompleted:     {},
	StatusRejected:      {},
	StatusCancelled:     {},
	StatusRefunded:      {},
},
	fsm.Constraint[Status]{From: StatusCompleted, Reason: "completed adoptions cannot be reopened"},
	fsm.Constraint[Status]{From: StatusRejected, To: StatusApproved, Reason: "rejected adoptions cannot be approved without review"},
)

// IsOpen: una adopción que todavía bloquea a la mascota (no terminal).
func IsOpen(s Status) bool {
	return Transitions.Known(s) && !Transitions.IsTerminal(s)
}

// OpenStatuses lista los estados no terminales, en orden estable.
func OpenStatuses() []Status {
	out := make([]Status, 0)
	for _, s := range Transitions.States() {
		if !Transitions.IsTerminal(s) {
			out = append(out, s)
		}
	}
	return out
}
