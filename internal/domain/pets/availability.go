package pets

import (
	"context"
	"errors"
	"strings"
	"time"

	"pet-adoption/internal/domain/adoption"
	"pet-adoption/internal/domain/custody"
	"pet-adoption/internal/domain/domainerr"
	"pet-adoption/internal/domain/events"
)

// Availability es el estado derivado de una mascota. Nunca se persiste.
type Availability string

const (
	AvailabilityAvailable Availability = "AVAILABLE"
	AvailabilityPending   Availability = "PENDING"
	AvailabilityInCustody Availability = "IN_CUSTODY"
	AvailabilityAdopted   Availability = "ADOPTED"
)

// MaxBatchSize acota los ids distintos de ResolveBatch; cada id es un parámetro del IN.
const MaxBatchSize = 500

// Source es la vista mínima de persistencia que necesita el resolver.
// storage.Tx la satisface.
type Source interface {
	Adoptions() adoption.Repository
	Custodies() custody.Repository
}

// ResolveFromRecords aplica la precedencia, primera coincidencia gana:
// ADOPTED > IN_CUSTODY > PENDING > AVAILABLE.
func ResolveFromRecords(latest *adoption.Adoption, active *custody.Custody) Availability {
	if latest != nil && latest.Status == adoption.StatusCompleted {
		return AvailabilityAdopted
	}
	if active != nil && active.Status == custody.StatusActive {
		return AvailabilityInCustody
	}
	if latest != nil && adoption.IsOpen(latest.Status) {
		return AvailabilityPending
	}
	return AvailabilityAvailable
}

type Resolver struct {
	now func() time.Time
}

func NewResolver() *Resolver {
	return &Resolver{now: time.Now}
}

func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	if now != nil {
		r.now = now
	}
	return r
}

// Resolve calcula la disponibilidad de una mascota desde su última adopción y su
// custodia activa.
func (r *Resolver) Resolve(ctx context.Context, src Source, petID string) (Availability, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return "", domainerr.InvalidInput("pet id required")
	}

	var latest *adoption.Adoption
	a, err := src.Adoptions().LatestForPet(ctx, petID)
	switch {
	case err == nil:
		latest = &a
	case errors.Is(err, domainerr.ErrNotFound):
	default:
		return "", err
	}

	var active *custody.Custody
	c, err := src.Custodies().FindActiveForPet(ctx, petID)
	switch {
	case err == nil:
		active = &c
	case errors.Is(err, domainerr.ErrNotFound):
	default:
		return "", err
	}

	return ResolveFromRecords(latest, active), nil
}

// ResolveBatch resuelve un set de mascotas con exactamente dos consultas (adopciones y
// custodias activas del set completo) y aplica la misma precedencia que Resolve.
func (r *Resolver) ResolveBatch(ctx context.Context, src Source, petIDs []string) (map[string]Availability, error) {
	ids := dedupe(petIDs)
	out := make(map[string]Availability, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	if len(ids) > MaxBatchSize {
		return nil, domainerr.InvalidInput("at most %d pet ids per batch, got %d", MaxBatchSize, len(ids))
	}

	adoptions, err := src.Adoptions().ListForPets(ctx, ids)
	if err != nil {
		return nil, err
	}
	custodies, err := src.Custodies().ListActiveForPets(ctx, ids)
	if err != nil {
		return nil, err
	}

	latest := make(map[string]adoption.Adoption, len(ids))
	for _, a := range adoptions {
		cur, ok := latest[a.PetID]
		if !ok || a.CreatedAt.After(cur.CreatedAt) {
			latest[a.PetID] = a
		}
	}
	active := make(map[string]custody.Custody, len(custodies))
	for _, c := range custodies {
		if c.Status == custody.StatusActive {
			active[c.PetID] = c
		}
	}

	for _, id := range ids {
		var la *adoption.Adoption
		if a, ok := latest[id]; ok {
			la = &a
		}
		var ac *custody.Custody
		if c, ok := active[id]; ok {
			ac = &c
		}
		out[id] = ResolveFromRecords(la, ac)
	}
	return out, nil
}

// LogAvailabilityChange escribe un PET_STATUS_CHANGED solo si old != new.
// Llamarlo con el mismo valor es un no-op silencioso. Devuelve si escribió.
func (r *Resolver) LogAvailabilityChange(
	ctx context.Context,
	log *events.Service,
	petID string,
	oldStatus, newStatus Availability,
	trigger string,
	actorID string,
) (bool, error) {
	if oldStatus == newStatus {
		return false, nil
	}
	_, err := log.Log(ctx, events.LogInput{
		EntityType: events.EntityPet,
		EntityID:   petID,
		Type:       events.EventPetStatusChanged,
		ActorID:    actorID,
		Payload: map[string]any{
			"oldStatus":    string(oldStatus),
			"newStatus":    string(newStatus),
			"triggerEvent": trigger,
			"timestamp":    r.now().UTC().Format(time.RFC3339Nano),
		},
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
