package lifecycle

import (
	"context"
	"errors"
	"strings"

	"pet-adoption/internal/domain/adoption"
	"pet-adoption/internal/domain/custody"
	"pet-adoption/internal/domain/domainerr"
	"pet-adoption/internal/domain/escrow"
	"pet-adoption/internal/domain/events"
	"pet-adoption/internal/domain/pets"
	"pet-adoption/internal/domain/users"
	"pet-adoption/internal/ports/storage"
)

// EnsureUser registra al principal autenticado la primera vez que aparece.
func (c *Coordinator) EnsureUser(ctx context.Context, in users.RegisterInput) (users.User, error) {
	if u, err := c.store.Read().Users().GetByID(ctx, strings.TrimSpace(in.ID)); err == nil {
		return u, nil
	}

	var u users.User
	err := c.store.WithinTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		var err error
		u, err = c.usersSvc(tx.Users()).Register(ctx, in)
		return err
	})
	if errors.Is(err, domainerr.ErrConflict) {
		// otra request lo registró en paralelo
		return c.usersSvc(c.store.Read().Users()).GetByID(ctx, in.ID)
	}
	return u, err
}

func (c *Coordinator) GetUser(ctx context.Context, id string) (users.User, error) {
	return c.usersSvc(c.store.Read().Users()).GetByID(ctx, id)
}

// CreatePet publica una mascota con el actor como dueño actual.
func (c *Coordinator) CreatePet(ctx context.Context, actor Actor, in pets.CreateInput) (pets.WithAvailability, error) {
	if err := requireActor(actor); err != nil {
		return pets.WithAvailability{}, err
	}
	var p pets.Pet
	err := c.store.WithinTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		if _, err := tx.Users().GetByID(ctx, actor.UserID); err != nil {
			return err
		}
		var err error
		p, err = c.petsSvc(tx.Pets()).Create(ctx, actor.UserID, in)
		return err
	})
	if err != nil {
		return pets.WithAvailability{}, err
	}
	return pets.WithAvailability{Pet: p, Availability: pets.AvailabilityAvailable}, nil
}

func (c *Coordinator) GetPet(ctx context.Context, petID string) (pets.WithAvailability, error) {
	read := c.store.Read()
	return c.petsSvc(read.Pets()).GetWithAvailability(ctx, read, petID)
}

func (c *Coordinator) ListPetsByOwner(ctx context.Context, ownerID string) ([]pets.WithAvailability, error) {
	read := c.store.Read()
	return c.petsSvc(read.Pets()).ListByOwnerWithAvailability(ctx, read, ownerID)
}

// ResolvePetAvailability calcula el estado derivado de una mascota existente.
func (c *Coordinator) ResolvePetAvailability(ctx context.Context, petID string) (pets.Availability, error) {
	read := c.store.Read()
	if _, err := c.petsSvc(read.Pets()).GetByID(ctx, petID); err != nil {
		return "", err
	}
	return c.resolver.Resolve(ctx, read, petID)
}

// ResolvePetAvailabilityBatch resuelve el set completo con dos consultas.
func (c *Coordinator) ResolvePetAvailabilityBatch(ctx context.Context, petIDs []string) (map[string]pets.Availability, error) {
	return c.resolver.ResolveBatch(ctx, c.store.Read(), petIDs)
}

func (c *Coordinator) GetAdoption(ctx context.Context, id string, actor Actor) (adoption.Adoption, error) {
	a, err := c.store.Read().Adoptions().GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return adoption.Adoption{}, err
	}
	if err := authorize(actor, AnyOf(IsAdmin, IsAdopter(a), IsPetOwner(a.OwnerID)), "read adoption"); err != nil {
		return adoption.Adoption{}, err
	}
	return a, nil
}

func (c *Coordinator) GetCustody(ctx context.Context, id string, actor Actor) (custody.Custody, error) {
	read := c.store.Read()
	cu, err := read.Custodies().GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return custody.Custody{}, err
	}
	owner, err := c.petsSvc(read.Pets()).OwnerOf(ctx, cu.PetID)
	if err != nil {
		return custody.Custody{}, err
	}
	if err := authorize(actor, custodyPolicy(cu, owner), "read custody"); err != nil {
		return custody.Custody{}, err
	}
	return cu, nil
}

// GetEscrow lo ven el admin y las partes del recurso vinculado.
func (c *Coordinator) GetEscrow(ctx context.Context, id string, actor Actor) (escrow.Escrow, error) {
	read := c.store.Read()
	e, err := read.Escrows().GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return escrow.Escrow{}, err
	}

	allowed := []Predicate{IsAdmin}
	if a, err := read.Adoptions().GetByEscrowID(ctx, e.ID); err == nil {
		allowed = append(allowed, IsAdopter(a), IsPetOwner(a.OwnerID))
	}
	if cu, err := read.Custodies().GetByEscrowID(ctx, e.ID); err == nil {
		allowed = append(allowed, IsHolder(cu))
	}
	if err := authorize(actor, AnyOf(allowed...), "read escrow"); err != nil {
		return escrow.Escrow{}, err
	}
	return e, nil
}

// History devuelve el log de una entidad en orden cronológico. Lo ven el admin y las
// mismas partes que pueden leer la entidad.
func (c *Coordinator) History(ctx context.Context, actor Actor, entityType events.EntityType, entityID string) ([]events.Event, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	entityID = strings.TrimSpace(entityID)
	if entityID == "" {
		return nil, domainerr.InvalidInput("entity id required")
	}
	if err := c.authorizeHistory(ctx, actor, entityType, entityID); err != nil {
		return nil, err
	}
	return events.NewService(c.store.Read().Events()).ListByEntity(ctx, entityType, entityID)
}

func (c *Coordinator) authorizeHistory(ctx context.Context, actor Actor, entityType events.EntityType, entityID string) error {
	if actor.IsAdmin {
		return nil
	}
	var err error
	switch entityType {
	case events.EntityAdoption:
		_, err = c.GetAdoption(ctx, entityID, actor)
	case events.EntityCustody:
		_, err = c.GetCustody(ctx, entityID, actor)
	case events.EntityEscrow:
		_, err = c.GetEscrow(ctx, entityID, actor)
	case events.EntityPet:
		var owner string
		owner, err = c.petsSvc(c.store.Read().Pets()).OwnerOf(ctx, entityID)
		if err == nil {
			err = authorize(actor, IsPetOwner(owner), "read pet history")
		}
	case events.EntityUser:
		err = authorize(actor, isSelf(entityID), "read user history")
	}
	// tipos desconocidos los rechaza events.Service
	return err
}

// TransitionOptions describe desde dónde puede moverse una entidad. Con Override
// (admin sobre adopciones) Allowed incluye los saltos fuera del grafo que no violan
// restricciones absolutas.
type TransitionOptions struct {
	Entity      string
	ID          string
	Current     string
	Allowed     []string
	Terminal    bool
	Override    bool
	Description string
}

// AdoptionTransitions lo pueden consultar las partes de la adopción y el admin.
func (c *Coordinator) AdoptionTransitions(ctx context.Context, id string, actor Actor) (TransitionOptions, error) {
	a, err := c.GetAdoption(ctx, id, actor)
	if err != nil {
		return TransitionOptions{}, err
	}
	return TransitionOptions{
		Entity:   adoption.Transitions.Entity(),
		ID:       a.ID,
		Current:  string(a.Status),
		Allowed:  statusStrings(adoption.Transitions.Options(a.Status, actor.IsAdmin)),
		Terminal: adoption.Transitions.IsTerminal(a.Status),
		Override: actor.IsAdmin,
	}, nil
}

// CustodyTransitions no tiene override: el admin ve el mismo grafo.
func (c *Coordinator) CustodyTransitions(ctx context.Context, id string, actor Actor) (TransitionOptions, error) {
	cu, err := c.GetCustody(ctx, id, actor)
	if err != nil {
		return TransitionOptions{}, err
	}
	return TransitionOptions{
		Entity:      custody.Transitions.Entity(),
		ID:          cu.ID,
		Current:     string(cu.Status),
		Allowed:     statusStrings(custody.Transitions.Allowed(cu.Status)),
		Terminal:    custody.Transitions.IsTerminal(cu.Status),
		Description: custody.Description(cu.Status),
	}, nil
}

func statusStrings[S ~string](in []S) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, string(s))
	}
	return out
}

// ListEvents es la vista de auditoría completa; solo admin.
func (c *Coordinator) ListEvents(ctx context.Context, actor Actor, filter events.ListFilter) ([]events.Event, error) {
	if err := authorize(actor, IsAdmin, "list events"); err != nil {
		return nil, err
	}
	return events.NewService(c.store.Read().Events()).List(ctx, filter)
}
