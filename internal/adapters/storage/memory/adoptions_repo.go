package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"pet-adoption/internal/domain/adoption"
	"pet-adoption/internal/domain/domainerr"
)

type adoptionRepo struct {
	v view
}

func (r adoptionRepo) Create(ctx context.Context, a adoption.Adoption) error {
	defer r.v.lock()()

	if strings.TrimSpace(a.ID) == "" {
		return domainerr.InvalidInput("adoption id required")
	}
	if _, exists := r.v.st.adoptions[a.ID]; exists {
		return domainerr.Conflict("adoption %s already exists", a.ID)
	}
	// Equivalente al índice único parcial: una sola adopción abierta por mascota.
	if adoption.IsOpen(a.Status) {
		for _, other := range r.v.st.adoptions {
			if other.PetID == a.PetID && adoption.IsOpen(other.Status) {
				return domainerr.Conflict("pet %s already has an open adoption", a.PetID)
			}
		}
	}
	if a.EscrowID != nil && r.escrowLinked(*a.EscrowID) {
		return domainerr.Conflict("escrow %s already linked", *a.EscrowID)
	}
	r.v.st.adoptions[a.ID] = a
	r.v.st.stamp(a.ID)
	return nil
}

func (r adoptionRepo) GetByID(ctx context.Context, id string) (adoption.Adoption, error) {
	defer r.v.rlock()()

	a, ok := r.v.st.adoptions[id]
	if !ok {
		return adoption.Adoption{}, domainerr.NotFound("adoption %s", id)
	}
	return a, nil
}

func (r adoptionRepo) GetByEscrowID(ctx context.Context, escrowID string) (adoption.Adoption, error) {
	defer r.v.rlock()()

	for _, a := range r.v.st.adoptions {
		if a.EscrowID != nil && *a.EscrowID == escrowID {
			return a, nil
		}
	}
	return adoption.Adoption{}, domainerr.NotFound("adoption for escrow %s", escrowID)
}

func (r adoptionRepo) FindOpenForPet(ctx context.Context, petID string) (adoption.Adoption, error) {
	defer r.v.rlock()()

	for _, a := range r.sortedForPets([]string{petID}) {
		if adoption.IsOpen(a.Status) {
			return a, nil
		}
	}
	return adoption.Adoption{}, domainerr.NotFound("open adoption for pet %s", petID)
}

func (r adoptionRepo) LatestForPet(ctx context.Context, petID string) (adoption.Adoption, error) {
	defer r.v.rlock()()

	list := r.sortedForPets([]string{petID})
	if len(list) == 0 {
		return adoption.Adoption{}, domainerr.NotFound("adoption for pet %s", petID)
	}
	return list[0], nil
}

func (r adoptionRepo) ListForPets(ctx context.Context, petIDs []string) ([]adoption.Adoption, error) {
	defer r.v.rlock()()

	return r.sortedForPets(petIDs), nil
}

func (r adoptionRepo) UpdateStatus(ctx context.Context, id string, from, to adoption.Status, at time.Time) error {
	defer r.v.lock()()

	a, ok := r.v.st.adoptions[id]
	if !ok {
		return domainerr.NotFound("adoption %s", id)
	}
	if a.Status != from {
		return domainerr.Conflict("adoption %s is %s, expected %s", id, a.Status, from)
	}
	if adoption.IsOpen(to) && !adoption.IsOpen(from) {
		for _, other := range r.v.st.adoptions {
			if other.ID != id && other.PetID == a.PetID && adoption.IsOpen(other.Status) {
				return domainerr.Conflict("pet %s already has an open adoption", a.PetID)
			}
		}
	}
	a.Status = to
	a.UpdatedAt = at
	r.v.st.adoptions[id] = a
	return nil
}

func (r adoptionRepo) LinkEscrow(ctx context.Context, id, escrowID string, at time.Time) error {
	defer r.v.lock()()

	a, ok := r.v.st.adoptions[id]
	if !ok {
		return domainerr.NotFound("adoption %s", id)
	}
	if a.EscrowID != nil && *a.EscrowID == escrowID {
		return nil
	}
	if a.EscrowID != nil || r.escrowLinked(escrowID) {
		return domainerr.Conflict("escrow link for adoption %s already set", id)
	}
	eid := escrowID
	a.EscrowID = &eid
	a.UpdatedAt = at
	r.v.st.adoptions[id] = a
	return nil
}

func (r adoptionRepo) sortedForPets(petIDs []string) []adoption.Adoption {
	out := make([]adoption.Adoption, 0)
	for _, a := range r.v.st.adoptions {
		if containsID(petIDs, a.PetID) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return r.v.st.newerFirst(out[i].ID, out[j].ID, out[i].CreatedAt, out[j].CreatedAt)
	})
	return out
}

func (r adoptionRepo) escrowLinked(escrowID string) bool {
	for _, a := range r.v.st.adoptions {
		if a.EscrowID != nil && *a.EscrowID == escrowID {
			return true
		}
	}
	return false
}
