package events

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

// NewService recibe el repositorio del scope actual: dentro de una transacción de
// dominio es el repositorio de esa transacción, de modo que un fallo aquí la aborta.
func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

// WithClock reemplaza el reloj (tests y coordinador comparten uno).
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

type LogInput struct {
	EntityType EntityType
	EntityID   string
	Type       EventType
	ActorID    string
	TxHash     string
	Payload    map[string]any
	Metadata   map[string]any
}

// Log persiste un evento de dominio. Cualquier error se devuelve al caller: un evento
// de negocio sin registrar invalida la operación completa.
func (s *Service) Log(ctx context.Context, in LogInput) (Event, error) {
	if !validEntityType(in.EntityType) {
		return Event{}, domainerr.InvalidInput("unknown entity type %q", in.EntityType)
	}
	if strings.TrimSpace(in.EntityID) == "" || in.Type == "" {
		return Event{}, domainerr.InvalidInput("event requires entity id and type")
	}

	payload := in.Payload
	if payload == nil {
		payload = map[string]any{}
	}

	e := Event{
		ID:         uuid.NewString(),
		EntityType: in.EntityType,
		EntityID:   strings.TrimSpace(in.EntityID),
		Type:       in.Type,
		ActorID:    strings.TrimSpace(in.ActorID),
		TxHash:     strings.TrimSpace(in.TxHash),
		Payload:    payload,
		Metadata:   in.Metadata,
		CreatedAt:  s.now().UTC(),
	}

	if err := s.repo.Append(ctx, e); err != nil {
		return Event{}, domainerr.Internal(err, "append event %s", in.Type)
	}
	return e, nil
}

func (s *Service) ListByEntity(ctx context.Context, entityType EntityType, entityID string) ([]Event, error) {
	entityID = strings.TrimSpace(entityID)
	if !validEntityType(entityType) || entityID == "" {
		return nil, domainerr.InvalidInput("entity type and id required")
	}
	return s.repo.ListByEntity(ctx, entityType, entityID)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Event, error) {
	if filter.EntityType != "" && !validEntityType(filter.EntityType) {
		return nil, domainerr.InvalidInput("unknown entity type %q", filter.EntityType)
	}
	return s.repo.List(ctx, filter)
}
