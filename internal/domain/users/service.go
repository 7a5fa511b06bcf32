package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"pet-adoption/internal/domain/domainerr"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

type RegisterInput struct {
	ID    string
	Email string
	Role  Role
}

// Register es idempotente: si el usuario ya existe, lo devuelve sin cambios.
// El id viene del principal autenticado (claims), no se genera aquí.
func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	id := strings.TrimSpace(in.ID)
	if id == "" {
		return User{}, domainerr.InvalidInput("user id required")
	}

	existing, err := s.repo.GetByID(ctx, id)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domainerr.ErrNotFound) {
		return User{}, err
	}

	role := in.Role
	switch role {
	case RoleUser, RoleAdmin:
	case "":
		role = RoleUser
	default:
		return User{}, domainerr.InvalidInput("unknown role %q", in.Role)
	}

	now := s.now().UTC()
	u := User{
		ID:         id,
		Email:      strings.ToLower(strings.TrimSpace(in.Email)),
		Role:       role,
		TrustScore: DefaultTrustScore,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return User{}, domainerr.InvalidInput("user id required")
	}
	return s.repo.GetByID(ctx, id)
}
