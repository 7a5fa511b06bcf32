package events

import "time"

// Event es una fila del audit trail. Append-only: nunca se actualiza ni se borra.
type Event struct {
	ID string

	EntityType EntityType
	EntityID   string
	Type       EventType

	ActorID string // opcional
	TxHash  string // opcional, referencia de settlement

	Payload  map[string]any
	Metadata map[string]any // opcional

	CreatedAt time.Time
}
