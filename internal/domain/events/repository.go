package events

import "context"

// Repository no expone Update ni Delete: el log es append-only.
type Repository interface {
	Append(ctx context.Context, e Event) error
	ListByEntity(ctx context.Context, entityType EntityType, entityID string) ([]Event, error)
	List(ctx context.Context, filter ListFilter) ([]Event, error)
}

type ListFilter struct {
	EntityType EntityType
	EntityID   string
	Types      []EventType
	Limit      int
}
