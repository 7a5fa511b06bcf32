package pets

import (
	"context"
	"strings"
	"time"

	"pet-adoption/internal/domain/domainerr"

	"github.com/google/uuid"
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

type CreateInput struct {
	Name      string
	Species   string
	Breed     string
	Sex       string
	BirthDate *time.Time
	Notes     string
}

func (s *Service) Create(ctx context.Context, ownerUserID string, in CreateInput) (Pet, error) {
	if strings.TrimSpace(ownerUserID) == "" {
		return Pet{}, domainerr.InvalidInput("owner required")
	}
	if strings.TrimSpace(in.Name) == "" {
		return Pet{}, domainerr.InvalidInput("name required")
	}

	species := Species(strings.ToLower(strings.TrimSpace(in.Species)))
	switch species {
	case SpeciesDog, SpeciesCat:
	default:
		return Pet{}, domainerr.InvalidInput("species must be dog or cat")
	}

	sex := Sex(strings.ToLower(strings.TrimSpace(in.Sex)))
	switch sex {
	case SexMale, SexFemale, SexUnknown:
	case "":
		sex = SexUnknown
	default:
		return Pet{}, domainerr.InvalidInput("sex must be male, female or unknown")
	}

	now := s.now().UTC()
	p := Pet{
		ID:             uuid.NewString(),
		CurrentOwnerID: strings.TrimSpace(ownerUserID),
		Name:           strings.TrimSpace(in.Name),
		Species:        species,
		Breed:          strings.TrimSpace(in.Breed),
		Sex:            sex,
		BirthDate:      in.BirthDate,
		Notes:          strings.TrimSpace(in.Notes),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return Pet{}, err
	}
	return p, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Pet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Pet{}, domainerr.InvalidInput("pet id required")
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByOwner(ctx context.Context, ownerUserID string) ([]Pet, error) {
	return s.repo.ListByOwner(ctx, strings.TrimSpace(ownerUserID))
}

// TransferOwnership reasigna currentOwnerId. Solo lo invoca la cascada de escrow.
func (s *Service) TransferOwnership(ctx context.Context, petID, newOwnerID string) error {
	if strings.TrimSpace(petID) == "" || strings.TrimSpace(newOwnerID) == "" {
		return domainerr.InvalidInput("pet and owner required")
	}
	return s.repo.UpdateOwner(ctx, petID, newOwnerID, s.now().UTC())
}
