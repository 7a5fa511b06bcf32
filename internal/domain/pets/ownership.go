package pets

import "context"

// OwnerOf devuelve el dueño actual de una mascota.
// Lo usan los predicados de autorización sin cargar el perfil completo en el caller.
func (s *Service) OwnerOf(ctx context.Context, petID string) (string, error) {
	p, err := s.GetByID(ctx, petID)
	if err != nil {
		return "", err
	}
	return p.CurrentOwnerID, nil
}

// WithAvailability es el perfil más su disponibilidad derivada.
type WithAvailability struct {
	Pet
	Availability Availability
}

// GetWithAvailability carga el perfil y resuelve su disponibilidad con la misma vista.
func (s *Service) GetWithAvailability(ctx context.Context, src Source, id string) (WithAvailability, error) {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return WithAvailability{}, err
	}
	av, err := NewResolver().WithClock(s.now).Resolve(ctx, src, p.ID)
	if err != nil {
		return WithAvailability{}, err
	}
	return WithAvailability{Pet: p, Availability: av}, nil
}

// ListByOwnerWithAvailability resuelve todas las mascotas del dueño en un solo batch.
func (s *Service) ListByOwnerWithAvailability(ctx context.Context, src Source, ownerUserID string) ([]WithAvailability, error) {
	list, err := s.ListByOwner(ctx, ownerUserID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(list))
	for _, p := range list {
		ids = append(ids, p.ID)
	}
	byID, err := NewResolver().WithClock(s.now).ResolveBatch(ctx, src, ids)
	if err != nil {
		return nil, err
	}

	out := make([]WithAvailability, 0, len(list))
	for _, p := range list {
		av, ok := byID[p.ID]
		if !ok {
			av = AvailabilityAvailable
		}
		out = append(out, WithAvailability{Pet: p, Availability: av})
	}
	return out, nil
}
