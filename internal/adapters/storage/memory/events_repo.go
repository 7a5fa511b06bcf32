package memory

import (
	"context"
	"strings"

	"pet-adoption/internal/domain/domainerr"
	"pet-adoption/internal/domain/events"
)

const (
	defaultEventLimit = 100
	maxEventLimit     = 500
)

type eventRepo struct {
	v view
}

func (r eventRepo) Append(ctx context.Context, e events.Event) error {
	defer r.v.lock()()

	if strings.TrimSpace(e.ID) == "" {
		return domainerr.InvalidInput("event id required")
	}
	r.v.st.events = append(r.v.st.events, e)
	return nil
}

// ListByEntity devuelve el historial en orden cronológico.
func (r eventRepo) ListByEntity(ctx context.Context, entityType events.EntityType, entityID string) ([]events.Event, error) {
	defer r.v.rlock()()

	out := make([]events.Event, 0)
	for _, e := range r.v.st.events {
		if e.EntityType == entityType && e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out, nil
}

// List devuelve los eventos más recientes primero.
func (r eventRepo) List(ctx context.Context, filter events.ListFilter) ([]events.Event, error) {
	defer r.v.rlock()()

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultEventLimit
	}
	if limit > maxEventLimit {
		limit = maxEventLimit
	}

	out := make([]events.Event, 0)
	for i := len(r.v.st.events) - 1; i >= 0 && len(out) < limit; i-- {
		e := r.v.st.events[i]
		if filter.EntityType != "" && e.EntityType != filter.EntityType {
			continue
		}
		if filter.EntityID != "" && e.EntityID != filter.EntityID {
			continue
		}
		if len(filter.Types) > 0 {
			ok := false
			for _, t := range filter.Types {
				if e.Type == t {
					ok = true
					break
				}
			}
			if !ok {
				continue
			}
		}
		out = append(out, e)
	}
	return out, nil
}
