package memory

import (
	"context"
	"strings"
	"time"

	"pet-adoption/internal/domain/domainerr"
	"pet-adoption/internal/domain/users"
)

type userRepo struct {
	v view
}

func (r userRepo) Create(ctx context.Context, u users.User) error {
	defer r.v.lock()()

	if strings.TrimSpace(u.ID) == "" {
		return domainerr.InvalidInput("user id required")
	}
	if _, exists := r.v.st.users[u.ID]; exists {
		return domainerr.Conflict("user %s already exists", u.ID)
	}
	for _, other := range r.v.st.users {
		if u.Email != "" && other.Email == u.Email {
			return domainerr.Conflict("email %s already registered", u.Email)
		}
	}
	r.v.st.users[u.ID] = u
	r.v.st.stamp(u.ID)
	return nil
}

func (r userRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	defer r.v.rlock()()

	u, ok := r.v.st.users[id]
	if !ok {
		return users.User{}, domainerr.NotFound("user %s", id)
	}
	return u, nil
}

func (r userRepo) UpdateTrustScore(ctx context.Context, id string, score int, at time.Time) error {
	defer r.v.lock()()

	u, ok := r.v.st.users[id]
	if !ok {
		return domainerr.NotFound("user %s", id)
	}
	u.TrustScore = score
	u.UpdatedAt = at
	r.v.st.users[id] = u
	return nil
}
