package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"pet-adoption/internal/domain/custody"
	"pet-adoption/internal/domain/domainerr"
)

type custodyRepo struct {
	v view
}

func (r custodyRepo) Create(ctx context.Context, c custody.Custody) error {
	defer r.v.lock()()

	if strings.TrimSpace(c.ID) == "" {
		return domainerr.InvalidInput("custody id required")
	}
	if _, exists := r.v.st.custodies[c.ID]; exists {
		return domainerr.Conflict("custody %s already exists", c.ID)
	}
	if c.Status == custody.StatusActive {
		for _, other := range r.v.st.custodies {
			if other.PetID == c.PetID && other.Status == custody.StatusActive {
				return domainerr.Conflict("pet %s already has an active custody", c.PetID)
			}
		}
	}
	if c.EscrowID != nil {
		for _, other := range r.v.st.custodies {
			if other.EscrowID != nil && *other.EscrowID == *c.EscrowID {
				return domainerr.Conflict("escrow %s already linked", *c.EscrowID)
			}
		}
	}
	r.v.st.custodies[c.ID] = c
	r.v.st.stamp(c.ID)
	return nil
}

func (r custodyRepo) GetByID(ctx context.Context, id string) (custody.Custody, error) {
	defer r.v.rlock()()

	c, ok := r.v.st.custodies[id]
	if !ok {
		return custody.Custody{}, domainerr.NotFound("custody %s", id)
	}
	return c, nil
}

func (r custodyRepo) GetByEscrowID(ctx context.Context, escrowID string) (custody.Custody, error) {
	defer r.v.rlock()()

	for _, c := range r.v.st.custodies {
		if c.EscrowID != nil && *c.EscrowID == escrowID {
			return c, nil
		}
	}
	return custody.Custody{}, domainerr.NotFound("custody for escrow %s", escrowID)
}

func (r custodyRepo) FindActiveForPet(ctx context.Context, petID string) (custody.Custody, error) {
	defer r.v.rlock()()

	list := r.activeForPets([]string{petID})
	if len(list) == 0 {
		return custody.Custody{}, domainerr.NotFound("active custody for pet %s", petID)
	}
	return list[0], nil
}

func (r custodyRepo) ListActiveForPets(ctx context.Context, petIDs []string) ([]custody.Custody, error) {
	defer r.v.rlock()()

	return r.activeForPets(petIDs), nil
}

func (r custodyRepo) Finish(ctx context.Context, id string, from, to custody.Status, endDate, at time.Time) error {
	defer r.v.lock()()

	c, ok := r.v.st.custodies[id]
	if !ok {
		return domainerr.NotFound("custody %s", id)
	}
	if c.Status != from {
		return domainerr.Conflict("custody %s is %s, expected %s", id, c.Status, from)
	}
	c.Status = to
	c.EndDate = endDate
	c.UpdatedAt = at
	r.v.st.custodies[id] = c
	return nil
}

func (r custodyRepo) activeForPets(petIDs []string) []custody.Custody {
	out := make([]custody.Custody, 0)
	for _, c := range r.v.st.custodies {
		if c.Status == custody.StatusActive && containsID(petIDs, c.PetID) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return r.v.st.newerFirst(out[i].ID, out[j].ID, out[i].CreatedAt, out[j].CreatedAt)
	})
	return out
}
