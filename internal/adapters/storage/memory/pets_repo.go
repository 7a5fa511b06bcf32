package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"pet-adoption/internal/domain/domainerr"
	"pet-adoption/internal/domain/pets"
)

type petRepo struct {
	v view
}

func (r petRepo) Create(ctx context.Context, p pets.Pet) error {
	defer r.v.lock()()

	if strings.TrimSpace(p.ID) == "" {
		return domainerr.InvalidInput("pet id required")
	}
	if _, exists := r.v.st.pets[p.ID]; exists {
		return domainerr.Conflict("pet %s already exists", p.ID)
	}
	r.v.st.pets[p.ID] = p
	r.v.st.stamp(p.ID)
	return nil
}

func (r petRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	defer r.v.rlock()()

	p, ok := r.v.st.pets[id]
	if !ok {
		return pets.Pet{}, domainerr.NotFound("pet %s", id)
	}
	return p, nil
}

func (r petRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]pets.Pet, error) {
	defer r.v.rlock()()

	out := make([]pets.Pet, 0)
	for _, p := range r.v.st.pets {
		if p.CurrentOwnerID == ownerUserID {
			out = append(out, p)
		}
	}

	// Orden estable por created_at asc
	sort.Slice(out, func(i, j int) bool {
		return !r.v.st.newerFirst(out[i].ID, out[j].ID, out[i].CreatedAt, out[j].CreatedAt)
	})
	return out, nil
}

func (r petRepo) UpdateOwner(ctx context.Context, id, ownerUserID string, at time.Time) error {
	defer r.v.lock()()

	p, ok := r.v.st.pets[id]
	if !ok {
		return domainerr.NotFound("pet %s", id)
	}
	p.CurrentOwnerID = ownerUserID
	p.UpdatedAt = at
	r.v.st.pets[id] = p
	return nil
}
